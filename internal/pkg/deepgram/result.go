package deepgram

// Result is the structured response of the prerecorded transcription API.
// All fields are optional - extraction must tolerate any of them missing.
type Result struct {
	Metadata ResultMetadata `json:"metadata"`
	Results  Results        `json:"results"`
}

// ResultMetadata is the provider level part of the response
type ResultMetadata struct {
	RequestID  string  `json:"request_id"`
	Duration   float64 `json:"duration"`
	Confidence float64 `json:"confidence"`
}

// Results keeps per channel transcripts and optional diarization info
type Results struct {
	Channels      []Channel      `json:"channels"`
	SpeakerLabels *SpeakerLabels `json:"speaker_labels,omitempty"`
}

// Channel is one audio channel result
type Channel struct {
	Alternatives     []Alternative `json:"alternatives"`
	DetectedLanguage string        `json:"detected_language,omitempty"`
}

// Alternative is one transcript hypothesis
type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words"`
}

// Word is a single recognized word with timing
type Word struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    int     `json:"speaker,omitempty"`
}

// SpeakerLabels is present when diarization was requested
type SpeakerLabels struct {
	Speakers int `json:"speakers"`
}
