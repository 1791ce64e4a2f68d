package transcription

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/heptiolabs/healthcheck"
	"github.com/myhippo/transcriber/internal/pkg/blob"
	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/myhippo/transcriber/internal/pkg/deepgram"
	"github.com/myhippo/transcriber/internal/pkg/messages"
	"github.com/myhippo/transcriber/internal/pkg/persistence"
	"github.com/myhippo/transcriber/internal/pkg/status"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// JobSaver inserts new job record
type JobSaver interface {
	Save(job *persistence.Job) error
}

// JobFailer marks a job as failed
type JobFailer interface {
	Fail(id string, errMsg string) error
}

// JobProvider returns job record by ID
type JobProvider interface {
	Get(id string) (*persistence.Job, error)
}

// MetadataProvider returns metadata record by job ID
type MetadataProvider interface {
	Get(jobID string) (*persistence.Metadata, error)
}

// AudioChecker tests the audio object and returns its size
type AudioChecker interface {
	Head(key string) (int64, error)
}

// ArtifactLoader reads the transcript artifact from the blob store
type ArtifactLoader interface {
	Get(key string) (io.ReadCloser, error)
}

type serviceMetric struct {
	transcribeResponseDur prometheus.ObserverVec
	statusResponseDur     prometheus.ObserverVec
	resultResponseDur     prometheus.ObserverVec
}

// ServiceData keeps data required for service work
type ServiceData struct {
	JobSaver         JobSaver
	JobFailer        JobFailer
	JobProvider      JobProvider
	MetadataProvider MetadataProvider
	AudioChecker     AudioChecker
	ArtifactLoader   ArtifactLoader
	MessageSender    messages.Sender

	Port    int
	health  healthcheck.Handler
	metrics serviceMetric
}

// StartWebServer starts the HTTP service and listens for the requests
func StartWebServer(data *ServiceData) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", data.Port)
	r := NewRouter(data)

	portStr := strconv.Itoa(data.Port)
	srv := http.Server{
		Addr:              ":" + portStr,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		Handler:           r,
	}

	w := cmdapp.Log.Writer()
	defer w.Close()
	l := log.New(w, "", 0)
	gracehttp.SetLogger(l)

	return gracehttp.Serve(&srv)
}

// NewRouter creates the router for HTTP service
func NewRouter(data *ServiceData) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	th := promhttp.InstrumentHandlerDuration(data.metrics.transcribeResponseDur, transcribeHandler{data: data})
	sh := promhttp.InstrumentHandlerDuration(data.metrics.statusResponseDur, statusHandler{data: data})
	rh := promhttp.InstrumentHandlerDuration(data.metrics.resultResponseDur, resultHandler{data: data})
	router.Methods("POST").Path("/transcribe").Handler(th)
	router.Methods("GET").Path("/status/{id}").Handler(sh)
	router.Methods("GET").Path("/result/{id}").Handler(rh)
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	if data.health != nil {
		router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
		router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	}
	return router
}

type transcribeRequest struct {
	AudioKey string `json:"audioKey"`
}

type transcribeResponse struct {
	Success  bool   `json:"success"`
	JobID    string `json:"jobId,omitempty"`
	AudioKey string `json:"audioKey,omitempty"`
	Status   string `json:"status,omitempty"`
	Error    string `json:"error,omitempty"`
}

type transcribeHandler struct {
	data *ServiceData
}

func (h transcribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("Transcribe request from %s", r.Host)

	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AudioKey == "" {
		writeJSON(w, http.StatusBadRequest, transcribeResponse{Success: false, Error: "No audioKey"})
		cmdapp.Log.Error("No audioKey in request")
		return
	}

	size, err := h.data.AudioChecker.Head(req.AudioKey)
	if err == blob.ErrNoObject {
		writeJSON(w, http.StatusNotFound, transcribeResponse{Success: false,
			Error: "Audio file not found: " + req.AudioKey})
		cmdapp.Log.Errorf("Audio file not found: %s", req.AudioKey)
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, transcribeResponse{Success: false, Error: "Can't access audio file"})
		cmdapp.Log.Error(err)
		return
	}

	id := uuid.New().String()
	job := &persistence.Job{ID: id, AudioKey: req.AudioKey, Status: status.Name(status.Pending),
		CreatedAt: time.Now(), FileSize: size}
	if err := h.data.JobSaver.Save(job); err != nil {
		writeJSON(w, http.StatusInternalServerError, transcribeResponse{Success: false, Error: "Can't save job"})
		cmdapp.Log.Error(err)
		return
	}

	msg := messages.NewQueueMessage(id, req.AudioKey, size, nil)
	if err := h.data.MessageSender.Send(msg, messages.Transcription); err != nil {
		cmdapp.Log.Error(err)
		cmdapp.LogIf(h.data.JobFailer.Fail(id, "Can't queue transcription job"))
		writeJSON(w, http.StatusInternalServerError, transcribeResponse{Success: false, JobID: id,
			Error: "Can't queue transcription job"})
		return
	}

	cmdapp.Log.Infof("Transcription job %s queued for %s", id, req.AudioKey)
	writeJSON(w, http.StatusOK, transcribeResponse{Success: true, JobID: id,
		AudioKey: req.AudioKey, Status: "queued"})
}

type statusResponse struct {
	*persistence.Job
	CostDollars string `json:"cost_dollars,omitempty"`
}

type statusHandler struct {
	data *ServiceData
}

func (h statusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := h.data.JobProvider.Get(id)
	if err != nil {
		http.Error(w, "Can't get job", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}
	if job == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Job not found"})
		return
	}
	res := statusResponse{Job: job}
	if job.CostCents > 0 {
		res.CostDollars = fmt.Sprintf("%.2f", float64(job.CostCents)/100)
	}
	writeJSON(w, http.StatusOK, res)
}

type resultResponse struct {
	JobID          string                     `json:"jobId"`
	AudioKey       string                     `json:"audioKey"`
	Transcript     string                     `json:"transcript"`
	Words          []deepgram.Word            `json:"words"`
	Metadata       persistence.TranscriptMeta `json:"metadata"`
	ProcessingTime int64                      `json:"processingTime"`
	Timestamp      time.Time                  `json:"timestamp"`
	Speakers       *deepgram.SpeakerLabels    `json:"speakers,omitempty"`
}

type resultHandler struct {
	data *ServiceData
}

func (h resultHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := h.data.JobProvider.Get(id)
	if err != nil {
		http.Error(w, "Can't get job", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}
	if job == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Job not found"})
		return
	}
	if job.Status != status.Name(status.Completed) {
		writeJSON(w, http.StatusAccepted, map[string]string{"error": "Transcription not ready",
			"status": job.Status})
		return
	}

	metadata, err := h.data.MetadataProvider.Get(id)
	if err != nil {
		http.Error(w, "Can't get metadata", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}
	if metadata == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Transcription metadata not found"})
		cmdapp.Log.Errorf("No metadata record for completed job %s", id)
		return
	}

	artifact, err := loadArtifact(h.data.ArtifactLoader, metadata.TranscriptionKey)
	if err == blob.ErrNoObject {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Transcription file not found"})
		cmdapp.Log.Errorf("Artifact %s missing for completed job %s", metadata.TranscriptionKey, id)
		return
	}
	if err != nil {
		http.Error(w, "Can't get transcription", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}

	writeJSON(w, http.StatusOK, projectResult(artifact))
}

func loadArtifact(loader ArtifactLoader, key string) (*persistence.Artifact, error) {
	f, err := loader.Get(key)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var res persistence.Artifact
	if err := json.NewDecoder(f).Decode(&res); err != nil {
		return nil, errors.Wrap(err, "can't decode artifact "+key)
	}
	return &res, nil
}

func projectResult(artifact *persistence.Artifact) *resultResponse {
	res := &resultResponse{
		JobID:          artifact.JobID,
		AudioKey:       artifact.AudioKey,
		Metadata:       artifact.Metadata,
		ProcessingTime: artifact.ProcessingTime,
		Timestamp:      artifact.Timestamp,
	}
	var result deepgram.Result
	if err := json.Unmarshal(artifact.TranscriptionResult, &result); err != nil {
		cmdapp.Log.Error(errors.Wrap(err, "can't decode provider result for "+artifact.JobID))
		return res
	}
	if len(result.Results.Channels) > 0 && len(result.Results.Channels[0].Alternatives) > 0 {
		alt := result.Results.Channels[0].Alternatives[0]
		res.Transcript = alt.Transcript
		res.Words = alt.Words
	}
	res.Speakers = result.Results.SpeakerLabels
	return res
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	encoder := json.NewEncoder(w)
	cmdapp.LogIf(encoder.Encode(data))
}
