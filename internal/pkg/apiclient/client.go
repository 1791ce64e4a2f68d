package apiclient

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/myhippo/transcriber/internal/pkg/deepgram"
	"github.com/myhippo/transcriber/internal/pkg/persistence"
	"github.com/myhippo/transcriber/internal/pkg/status"
	"github.com/myhippo/transcriber/internal/pkg/utils"
	"github.com/pkg/errors"
)

// ErrJobNotFound is returned when the service does not know the job ID
var ErrJobNotFound = errors.New("job not found")

// ErrNotReady is returned when the job exists but is not completed yet
var ErrNotReady = errors.New("transcription not ready")

// ErrTimeout is returned when polling exhausts the attempt budget.
// It is distinct from the job itself failing.
var ErrTimeout = errors.New("transcription timeout")

// Result is the transcript payload served by the API
type Result struct {
	JobID      string                     `json:"jobId"`
	AudioKey   string                     `json:"audioKey"`
	Transcript string                     `json:"transcript"`
	Words      []deepgram.Word            `json:"words"`
	Metadata   persistence.TranscriptMeta `json:"metadata"`
}

type transcribeResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"jobId"`
	Error   string `json:"error"`
}

// Client polls the transcription API for job status and results
type Client struct {
	httpclient  *retryablehttp.Client
	url         string
	interval    time.Duration
	maxAttempts uint64
}

// NewClient creates the API client from config
func NewClient() (*Client, error) {
	res := Client{}
	var err error
	res.url, err = utils.GetURLFromConfig("api.url")
	if err != nil {
		return nil, err
	}
	res.interval = cmdapp.Config.GetDuration("api.pollInterval")
	if res.interval <= 0 {
		res.interval = 5 * time.Second
	}
	res.maxAttempts = uint64(cmdapp.Config.GetInt("api.maxAttempts"))
	if res.maxAttempts == 0 {
		res.maxAttempts = 60
	}
	res.httpclient = retryablehttp.NewClient()
	res.httpclient.RetryMax = 3
	res.httpclient.Logger = nil
	return &res, nil
}

// Transcribe queues the job for the already uploaded audio key
func (sp *Client) Transcribe(audioKey string) (string, error) {
	urlStr := utils.URLJoin(sp.url, "transcribe")
	cmdapp.Log.Infof("Queueing transcription: %s", urlStr)
	b, err := json.Marshal(map[string]string{"audioKey": audioKey})
	if err != nil {
		return "", errors.Wrap(err, "can't marshal request")
	}
	req, err := retryablehttp.NewRequest("POST", urlStr, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := sp.httpclient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := utils.ValidateResponse(resp); err != nil {
		return "", errors.Wrap(err, "can't queue transcription")
	}
	var respData transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", errors.Wrap(err, "can't decode response")
	}
	if respData.JobID == "" {
		return "", errors.New("no job ID in response")
	}
	return respData.JobID, nil
}

// Status gets the job record from the server
func (sp *Client) Status(ID string) (*persistence.Job, error) {
	urlStr := utils.URLJoin(sp.url, "status", ID)
	resp, err := sp.httpclient.Get(urlStr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrJobNotFound
	}
	if err := utils.ValidateResponse(resp); err != nil {
		return nil, errors.Wrap(err, "can't get status")
	}
	var res persistence.Job
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, errors.Wrap(err, "can't decode response")
	}
	return &res, nil
}

// Result gets the transcript payload from the server
func (sp *Client) Result(ID string) (*Result, error) {
	urlStr := utils.URLJoin(sp.url, "result", ID)
	resp, err := sp.httpclient.Get(urlStr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrJobNotFound
	}
	if resp.StatusCode == http.StatusAccepted {
		return nil, ErrNotReady
	}
	if err := utils.ValidateResponse(resp); err != nil {
		return nil, errors.Wrap(err, "can't get result")
	}
	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, errors.Wrap(err, "can't decode response")
	}
	return &res, nil
}

// WaitFor polls the job status at a fixed interval until it completes,
// then returns the result. A failed job returns its error message,
// an exhausted attempt budget returns ErrTimeout.
func (sp *Client) WaitFor(ID string) (*Result, error) {
	op := func() error {
		job, err := sp.Status(ID)
		if err != nil {
			return backoff.Permanent(err)
		}
		switch status.From(job.Status) {
		case status.Completed:
			return nil
		case status.Failed:
			msg := job.Error
			if msg == "" {
				msg = "transcription failed"
			}
			return backoff.Permanent(errors.New(msg))
		}
		return ErrNotReady
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(sp.interval), sp.maxAttempts)
	err := backoff.Retry(op, b)
	if err == ErrNotReady {
		return nil, ErrTimeout
	}
	if err != nil {
		return nil, err
	}
	return sp.Result(ID)
}
