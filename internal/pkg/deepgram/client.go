package deepgram

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/myhippo/transcriber/internal/pkg/utils"
	"github.com/pkg/errors"

	"github.com/hashicorp/go-retryablehttp"
)

// Options keeps fixed transcription request options.
// They are read from config once at client construction, never per call.
type Options struct {
	Model    string
	Language string
	Diarize  bool
}

// ProviderError indicates a non success response from the transcription provider
type ProviderError struct {
	Code int
	Body string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("deepgram API error: %d - %s", e.Code, e.Body)
}

// Client communicates with the Deepgram prerecorded transcription API
type Client struct {
	httpclient *retryablehttp.Client
	url        string
	key        string
	options    Options
}

// NewClient creates a deepgram client from config
func NewClient() (*Client, error) {
	res := Client{}
	var err error
	res.url, err = utils.GetURLFromConfig("deepgram.url")
	if err != nil {
		return nil, err
	}
	res.key = cmdapp.Config.GetString("deepgram.key")
	if res.key == "" {
		return nil, errors.New("No deepgram.key provided")
	}
	res.options = Options{
		Model:    cmdapp.Config.GetString("deepgram.model"),
		Language: cmdapp.Config.GetString("deepgram.language"),
		Diarize:  cmdapp.Config.GetBool("deepgram.diarize"),
	}
	res.httpclient = retryablehttp.NewClient()
	res.httpclient.RetryMax = 0 // retry is the queue's responsibility
	res.httpclient.Logger = nil

	return &res, nil
}

// Options returns the fixed request options of the client
func (sp *Client) Options() Options {
	return sp.options
}

// Transcribe sends the audio stream to the provider.
// Returns the parsed result together with the raw response body.
func (sp *Client) Transcribe(audio io.Reader, contentType string) (*Result, []byte, error) {
	urlStr, err := sp.requestURL()
	if err != nil {
		return nil, nil, err
	}
	cmdapp.Log.Infof("Sending audio to: %s", sp.url)

	req, err := retryablehttp.NewRequest("POST", urlStr, audio)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't prepare request")
	}
	req.Header.Set("Authorization", "Token "+sp.key)
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := sp.httpclient.Do(req)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't call deepgram")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't read response")
	}
	if !(resp.StatusCode >= 200 && resp.StatusCode <= 299) {
		return nil, nil, &ProviderError{Code: resp.StatusCode, Body: string(body)}
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, nil, errors.Wrap(err, "Can't decode response")
	}
	return &result, body, nil
}

func (sp *Client) requestURL() (string, error) {
	u, err := url.Parse(sp.url)
	if err != nil {
		return "", errors.Wrap(err, "Can't parse url "+sp.url)
	}
	q := u.Query()
	if sp.options.Model != "" {
		q.Set("model", sp.options.Model)
	}
	if sp.options.Language != "" {
		q.Set("language", sp.options.Language)
	}
	if sp.options.Diarize {
		q.Set("diarize", "true")
	}
	q.Set("punctuate", "true")
	q.Set("paragraphs", "true")
	q.Set("utterances", "true")
	q.Set("smart_format", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
