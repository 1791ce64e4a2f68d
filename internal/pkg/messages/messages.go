package messages

import "time"

// QueueMessage is a transcription job message going through the broker.
// It may be delivered more than once - consumers must be idempotent.
type QueueMessage struct {
	JobID     string            `json:"jobId"`
	AudioKey  string            `json:"audioKey"`
	FileSize  int64             `json:"fileSize"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewQueueMessage creates the message for a job
func NewQueueMessage(jobID string, audioKey string, fileSize int64, metadata map[string]string) *QueueMessage {
	return &QueueMessage{JobID: jobID, AudioKey: audioKey, FileSize: fileSize,
		Metadata: metadata, Timestamp: time.Now()}
}
