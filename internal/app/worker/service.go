package worker

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/myhippo/transcriber/internal/pkg/blob"
	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/myhippo/transcriber/internal/pkg/deepgram"
	"github.com/myhippo/transcriber/internal/pkg/messages"
	"github.com/myhippo/transcriber/internal/pkg/mongo"
	"github.com/myhippo/transcriber/internal/pkg/persistence"
	"github.com/myhippo/transcriber/internal/pkg/price"
	"github.com/myhippo/transcriber/internal/pkg/status"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

// StatusSaver applies job status transitions
type StatusSaver interface {
	StartProcessing(id string) error
	Complete(id string, data *mongo.CompletedData) error
	Fail(id string, errMsg string) error
}

// JobProvider returns the job record by ID
type JobProvider interface {
	Get(id string) (*persistence.Job, error)
}

// MetadataSaver upserts the transcription metadata record
type MetadataSaver interface {
	Save(data *persistence.Metadata) error
}

// AudioLoader reads raw audio from the blob store
type AudioLoader interface {
	Get(key string) (io.ReadCloser, error)
}

// ArtifactSaver writes the transcript artifact to the blob store
type ArtifactSaver interface {
	Put(key string, r io.ReadSeeker, size int64, contentType string, meta map[string]string) error
}

// Transcriber invokes the transcription provider
type Transcriber interface {
	Transcribe(audio io.Reader, contentType string) (*deepgram.Result, []byte, error)
	Options() deepgram.Options
}

// ServiceData keeps data required for service work
type ServiceData struct {
	StatusSaver   StatusSaver
	JobProvider   JobProvider
	MetadataSaver MetadataSaver
	AudioLoader   AudioLoader
	ArtifactSaver ArtifactSaver
	Transcriber   Transcriber
	// RatePerMinuteCents is the fixed provider price used for the cost calculation
	RatePerMinuteCents float64

	WorkCh <-chan amqp.Delivery
}

// StartWorkerService starts the queue listener service
// return channel to track the finish event
//
// to wait sync for the service to finish:
// fc, err := StartWorkerService(data)
// handle err
// <-fc // waits for finish
func StartWorkerService(data *ServiceData) (<-chan bool, error) {
	if data.StatusSaver == nil {
		return nil, errors.New("No status saver")
	}
	if data.JobProvider == nil {
		return nil, errors.New("No job provider")
	}
	if data.MetadataSaver == nil {
		return nil, errors.New("No metadata saver")
	}
	if data.AudioLoader == nil {
		return nil, errors.New("No audio loader")
	}
	if data.ArtifactSaver == nil {
		return nil, errors.New("No artifact saver")
	}
	if data.Transcriber == nil {
		return nil, errors.New("No transcriber")
	}
	if data.RatePerMinuteCents <= 0 {
		return nil, errors.New("Wrong or no rate per minute")
	}
	cmdapp.Log.Infof("Starting listen for messages")

	fc := make(chan bool)

	go listenQueue(data, fc)
	return fc, nil
}

func listenQueue(data *ServiceData, fc chan<- bool) {
	for d := range data.WorkCh {
		err := processMsg(&d, data)
		if err != nil {
			cmdapp.Log.Errorf("Can't process message %s\n%s", d.MessageId, string(d.Body))
			cmdapp.Log.Error(err)
			d.Nack(false, !d.Redelivered) // redeliver for first time
		} else {
			d.Ack(false)
		}
	}
	cmdapp.Log.Infof("Stopped listening queue")
	fc <- true
}

func processMsg(d *amqp.Delivery, data *ServiceData) error {
	var message messages.QueueMessage
	if err := json.Unmarshal(d.Body, &message); err != nil {
		return errors.Wrap(err, "Can't unmarshal message "+string(d.Body))
	}
	return work(data, &message)
}

// work runs the transcription protocol for one queue message.
// The job always ends in a terminal state before an error is returned,
// so queue redelivery never finds it permanently stuck in processing.
func work(data *ServiceData, msg *messages.QueueMessage) error {
	cmdapp.Log.Infof("Got transcription msg: %s (%s)", msg.JobID, msg.AudioKey)

	err := data.StatusSaver.StartProcessing(msg.JobID)
	if err == mongo.ErrAlreadyTerminal {
		return skipTerminal(data, msg.JobID)
	}
	if err != nil {
		return errors.Wrap(err, "Can't start processing")
	}

	err = transcribe(data, msg)
	if err != nil {
		cmdapp.LogIf(data.StatusSaver.Fail(msg.JobID, err.Error()))
		return err
	}
	return nil
}

func transcribe(data *ServiceData, msg *messages.QueueMessage) error {
	audio, err := data.AudioLoader.Get(msg.AudioKey)
	if err == blob.ErrNoObject {
		return errors.New("audio file not found: " + msg.AudioKey)
	}
	if err != nil {
		return errors.Wrap(err, "can't load audio "+msg.AudioKey)
	}
	defer audio.Close()

	startTime := time.Now()
	result, raw, err := data.Transcriber.Transcribe(audio, "")
	if err != nil {
		return err
	}

	meta := deepgram.Extract(result, data.Transcriber.Options().Language)
	costCents := price.Cents(meta.Duration, data.RatePerMinuteCents)

	// the artifact goes to the blob store before the completed transition,
	// a reader observing the completed job can always locate it
	key := blob.TranscriptKey(time.Now(), msg.JobID)
	err = saveArtifact(data, msg, key, raw, &meta, time.Since(startTime))
	if err != nil {
		return errors.Wrap(err, "can't save transcript artifact")
	}

	err = data.StatusSaver.Complete(msg.JobID, &mongo.CompletedData{
		Duration:  meta.Duration,
		WordCount: meta.WordCount,
		RequestID: result.Metadata.RequestID,
		CostCents: costCents,
	})
	if err != nil {
		return errors.Wrap(err, "can't complete job")
	}
	err = data.MetadataSaver.Save(&persistence.Metadata{
		JobID:            msg.JobID,
		TranscriptionKey: key,
		SpeakersDetected: meta.SpeakersDetected,
		Confidence:       meta.Confidence,
		Language:         meta.Language,
	})
	if err != nil {
		return errors.Wrap(err, "can't save metadata")
	}
	cmdapp.Log.Infof("Transcription completed for job %s: %d words, %.1fs, cost: %d cents",
		msg.JobID, meta.WordCount, meta.Duration, costCents)
	return nil
}

func saveArtifact(data *ServiceData, msg *messages.QueueMessage, key string, raw []byte,
	meta *persistence.TranscriptMeta, processing time.Duration) error {
	artifact := persistence.Artifact{
		JobID:               msg.JobID,
		AudioKey:            msg.AudioKey,
		TranscriptionResult: raw,
		Metadata:            *meta,
		ProcessingTime:      processing.Milliseconds(),
		Timestamp:           time.Now(),
	}
	b, err := json.Marshal(&artifact)
	if err != nil {
		return errors.Wrap(err, "can't marshal artifact")
	}
	return data.ArtifactSaver.Put(key, bytes.NewReader(b), int64(len(b)), "application/json",
		map[string]string{
			"job-id":           msg.JobID,
			"audio-key":        msg.AudioKey,
			"duration-seconds": strconv.FormatFloat(meta.Duration, 'f', -1, 64),
			"word-count":       strconv.Itoa(meta.WordCount),
		})
}

// skipTerminal handles redelivery of a message for an already finished job
func skipTerminal(data *ServiceData, id string) error {
	job, err := data.JobProvider.Get(id)
	if err != nil {
		return errors.Wrap(err, "can't get job "+id)
	}
	if job == nil {
		return errors.New("job not found: " + id)
	}
	cmdapp.Log.Infof("Job %s is already %s, skipping redelivered message", id, job.Status)
	if !status.IsTerminal(status.From(job.Status)) {
		return errors.New("unexpected job status " + job.Status)
	}
	return nil
}
