package deepgram

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testReq struct {
	URL    string
	auth   string
	cType  string
	body   string
	method string
}

func initTestServer(t *testing.T, code int, resp string) (*Client, *httptest.Server, *[]testReq) {
	t.Helper()
	resRequest := make([]testReq, 0)
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		resRequest = append(resRequest, testReq{URL: req.URL.String(), auth: req.Header.Get("Authorization"),
			cType: req.Header.Get("Content-Type"), body: string(b), method: req.Method})
		rw.WriteHeader(code)
		rw.Write([]byte(resp))
	}))
	api := Client{}
	api.httpclient = retryablehttp.NewClient()
	api.httpclient.HTTPClient = server.Client()
	api.httpclient.RetryMax = 0
	api.httpclient.Logger = nil
	api.url = server.URL + "/v1/listen"
	api.key = "testKey"
	api.options = Options{Model: "nova", Language: "en", Diarize: true}
	return &api, server, &resRequest
}

func TestTranscribe(t *testing.T) {
	var resp Result
	resp.Metadata.RequestID = "r10"
	resp.Metadata.Duration = 10.5
	rb, _ := json.Marshal(resp)
	api, server, tReq := initTestServer(t, 200, string(rb))
	defer server.Close()

	r, raw, err := api.Transcribe(strings.NewReader("audio bytes"), "audio/mpeg")

	require.Nil(t, err)
	assert.Equal(t, "r10", r.Metadata.RequestID)
	assert.InDelta(t, 10.5, r.Metadata.Duration, 0.0001)
	assert.Equal(t, string(rb), string(raw))
	require.Equal(t, 1, len(*tReq))
	req := (*tReq)[0]
	assert.Equal(t, "POST", req.method)
	assert.Equal(t, "Token testKey", req.auth)
	assert.Equal(t, "audio/mpeg", req.cType)
	assert.Equal(t, "audio bytes", req.body)
	for _, prm := range []string{"model=nova", "language=en", "diarize=true", "punctuate=true",
		"paragraphs=true", "utterances=true", "smart_format=true"} {
		assert.Contains(t, req.URL, prm)
	}
}

func TestTranscribe_NoDiarize(t *testing.T) {
	api, server, tReq := initTestServer(t, 200, "{}")
	defer server.Close()
	api.options.Diarize = false

	_, _, err := api.Transcribe(strings.NewReader("a"), "")

	require.Nil(t, err)
	require.Equal(t, 1, len(*tReq))
	assert.NotContains(t, (*tReq)[0].URL, "diarize")
	assert.Equal(t, "audio/mpeg", (*tReq)[0].cType)
}

func TestTranscribe_ProviderError(t *testing.T) {
	api, server, _ := initTestServer(t, 400, "bad audio")
	defer server.Close()

	_, _, err := api.Transcribe(strings.NewReader("a"), "audio/wav")

	require.NotNil(t, err)
	var pErr *ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, 400, pErr.Code)
	assert.Equal(t, "bad audio", pErr.Body)
}

func TestTranscribe_WrongJSON(t *testing.T) {
	api, server, _ := initTestServer(t, 200, "olia")
	defer server.Close()

	_, _, err := api.Transcribe(strings.NewReader("a"), "audio/wav")

	assert.NotNil(t, err)
}
