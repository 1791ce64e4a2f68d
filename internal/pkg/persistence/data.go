package persistence

import (
	"encoding/json"
	"time"
)

type (
	// Job is one audio-file-to-transcript unit of work
	Job struct {
		ID          string     `bson:"ID" json:"id"`
		AudioKey    string     `bson:"audioKey" json:"audio_key"`
		Status      string     `bson:"status" json:"status"`
		CreatedAt   time.Time  `bson:"createdAt" json:"created_at"`
		StartedAt   *time.Time `bson:"startedAt,omitempty" json:"started_at,omitempty"`
		CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completed_at,omitempty"`
		Error       string     `bson:"error,omitempty" json:"error_message,omitempty"`
		FileSize    int64      `bson:"fileSize,omitempty" json:"file_size,omitempty"`
		Duration    float64    `bson:"durationSeconds,omitempty" json:"duration_seconds,omitempty"`
		WordCount   int        `bson:"wordCount,omitempty" json:"word_count,omitempty"`
		RequestID   string     `bson:"deepgramRequestID,omitempty" json:"deepgram_request_id,omitempty"`
		CostCents   int64      `bson:"costCents,omitempty" json:"cost_cents,omitempty"`
	}

	// Metadata is one record per completed job pointing at the transcript artifact
	Metadata struct {
		JobID            string  `bson:"jobID" json:"job_id"`
		TranscriptionKey string  `bson:"transcriptionKey" json:"transcription_key"`
		SpeakersDetected int     `bson:"speakersDetected" json:"speakers_detected"`
		Confidence       float64 `bson:"confidenceScore" json:"confidence_score"`
		Language         string  `bson:"languageDetected" json:"language_detected"`
	}

	// TranscriptMeta is metadata derived from the provider response
	TranscriptMeta struct {
		Duration         float64 `json:"duration"`
		WordCount        int     `json:"wordCount"`
		Confidence       float64 `json:"confidence"`
		SpeakersDetected int     `json:"speakersDetected"`
		Language         string  `json:"language"`
	}

	// Artifact is the immutable transcript document stored in the blob store.
	// Written once per job, the key is a pure function of date and job ID.
	Artifact struct {
		JobID               string          `json:"jobId"`
		AudioKey            string          `json:"audioKey"`
		TranscriptionResult json.RawMessage `json:"transcriptionResult"`
		Metadata            TranscriptMeta  `json:"metadata"`
		ProcessingTime      int64           `json:"processingTime"`
		Timestamp           time.Time       `json:"timestamp"`
	}
)
