package apiclient

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/myhippo/transcriber/internal/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = 0
	hc.Logger = nil
	return &Client{httpclient: hc, url: url, interval: time.Millisecond, maxAttempts: 3}
}

func TestTranscribe(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`{"success":true,"jobId":"id1","status":"queued"}`))
	}))
	defer srv.Close()

	id, err := newTestClient(srv.URL).Transcribe("audio/olia.mp3")

	require.Nil(t, err)
	assert.Equal(t, "id1", id)
	assert.Equal(t, "/transcribe", gotPath)
	assert.Contains(t, gotBody, `"audioKey":"audio/olia.mp3"`)
}

func TestTranscribe_Fails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"success":false,"error":"No audioKey"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Transcribe("audio/olia.mp3")

	assert.NotNil(t, err)
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status/id1", r.URL.Path)
		json.NewEncoder(w).Encode(&persistence.Job{ID: "id1", Status: "processing"})
	}))
	defer srv.Close()

	job, err := newTestClient(srv.URL).Status("id1")

	require.Nil(t, err)
	assert.Equal(t, "id1", job.ID)
	assert.Equal(t, "processing", job.Status)
}

func TestStatus_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Job not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Status("id1")

	assert.Equal(t, ErrJobNotFound, err)
}

func TestResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/result/id1", r.URL.Path)
		w.Write([]byte(`{"jobId":"id1","transcript":"olia","words":[{"word":"olia"}]}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Result("id1")

	require.Nil(t, err)
	assert.Equal(t, "olia", res.Transcript)
	require.Equal(t, 1, len(res.Words))
}

func TestResult_NotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"error":"Transcription not ready","status":"processing"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Result("id1")

	assert.Equal(t, ErrNotReady, err)
}

func TestWaitFor(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/status/id1" {
			st := "processing"
			if atomic.AddInt32(&calls, 1) > 2 {
				st = "completed"
			}
			json.NewEncoder(w).Encode(&persistence.Job{ID: "id1", Status: st})
			return
		}
		w.Write([]byte(`{"jobId":"id1","transcript":"olia"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).WaitFor("id1")

	require.Nil(t, err)
	assert.Equal(t, "olia", res.Transcript)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWaitFor_JobFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&persistence.Job{ID: "id1", Status: "failed", Error: "no audio"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).WaitFor("id1")

	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "no audio")
	assert.NotEqual(t, ErrTimeout, err)
}

func TestWaitFor_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&persistence.Job{ID: "id1", Status: "processing"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).WaitFor("id1")

	assert.Equal(t, ErrTimeout, err)
}
