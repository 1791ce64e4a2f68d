package deepgram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	r := &Result{}
	r.Metadata.Duration = 42.5
	r.Metadata.Confidence = 0.97
	r.Results.Channels = []Channel{{
		Alternatives: []Alternative{{Transcript: "the big brown fox",
			Words: make([]Word, 10)}},
		DetectedLanguage: "en"}}

	m := Extract(r, "lt")

	assert.InDelta(t, 42.5, m.Duration, 0.0001)
	assert.Equal(t, 10, m.WordCount)
	assert.InDelta(t, 0.97, m.Confidence, 0.0001)
	assert.Equal(t, 0, m.SpeakersDetected)
	assert.Equal(t, "en", m.Language)
}

func TestExtract_Empty(t *testing.T) {
	m := Extract(&Result{}, "en")

	assert.Equal(t, float64(0), m.Duration)
	assert.Equal(t, 0, m.WordCount)
	assert.Equal(t, float64(0), m.Confidence)
	assert.Equal(t, 0, m.SpeakersDetected)
	assert.Equal(t, "en", m.Language)
}

func TestExtract_Nil(t *testing.T) {
	m := Extract(nil, "en")

	assert.Equal(t, "en", m.Language)
	assert.Equal(t, 0, m.WordCount)
}

func TestExtract_AlternativeConfidence(t *testing.T) {
	r := &Result{}
	r.Results.Channels = []Channel{{Alternatives: []Alternative{{Confidence: 0.85}}}}

	m := Extract(r, "en")

	assert.InDelta(t, 0.85, m.Confidence, 0.0001)
}

func TestExtract_Speakers(t *testing.T) {
	r := &Result{}
	r.Results.SpeakerLabels = &SpeakerLabels{Speakers: 2}

	m := Extract(r, "en")

	assert.Equal(t, 2, m.SpeakersDetected)
}
