package messages

const (
	// Transcription queue
	Transcription string = "Transcription"
)
