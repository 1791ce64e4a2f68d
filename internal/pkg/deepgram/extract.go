package deepgram

import "github.com/myhippo/transcriber/internal/pkg/persistence"

// Extract derives transcript metadata from the provider result.
// Every field is optional - missing values default to zero,
// missing detected language falls back to defaultLanguage.
func Extract(result *Result, defaultLanguage string) persistence.TranscriptMeta {
	res := persistence.TranscriptMeta{Language: defaultLanguage}
	if result == nil {
		return res
	}
	res.Duration = result.Metadata.Duration
	res.Confidence = result.Metadata.Confidence

	if len(result.Results.Channels) > 0 {
		ch := result.Results.Channels[0]
		if ch.DetectedLanguage != "" {
			res.Language = ch.DetectedLanguage
		}
		if len(ch.Alternatives) > 0 {
			alt := ch.Alternatives[0]
			res.WordCount = len(alt.Words)
			if res.Confidence == 0 {
				res.Confidence = alt.Confidence
			}
		}
	}
	if result.Results.SpeakerLabels != nil {
		res.SpeakersDetected = result.Results.SpeakerLabels.Speakers
	}
	return res
}
