package price

import "math"

// Cents calculates transcription cost in minor currency units.
// The result is always rounded up to the next whole cent,
// so a non trivial transcript is never billed as zero minutes.
func Cents(durationSeconds float64, ratePerMinuteCents float64) int64 {
	return int64(math.Ceil(durationSeconds / 60 * ratePerMinuteCents))
}
