package blob

import (
	"fmt"
	"time"
)

// AudioKey derives audio object key from date and file name
func AudioKey(t time.Time, fileName string) string {
	return fmt.Sprintf("audio/%s/%s", t.Format("2006/01/02"), fileName)
}

// TranscriptKey derives transcript artifact key from date and job ID
func TranscriptKey(t time.Time, jobID string) string {
	return fmt.Sprintf("transcriptions/%s/%s.json", t.Format("2006/01/02"), jobID)
}
