package temporal

import (
	"math"
)

// Tempo range for the inter-onset interval histogram. Intervals whose
// implied BPM falls outside this range do not vote.
const (
	MinBPM = 60
	MaxBPM = 200
)

// DefaultBPM is the fallback tempo when too few onsets are available
const DefaultBPM = 120.0

// TempoEstimator infers a dominant tempo from onset candidates by voting
// inter-onset intervals into integer-BPM buckets.
type TempoEstimator struct{}

// NewTempoEstimator creates a new tempo estimator
func NewTempoEstimator() *TempoEstimator {
	return &TempoEstimator{}
}

// Estimate returns the dominant tempo in BPM and a confidence in [0, 1].
// Each inter-onset interval is converted to a rounded integer BPM; the most
// frequent BPM wins and confidence is its share of all intervals. Fewer than
// two onsets falls back to 120 BPM at confidence 0.5.
func (te *TempoEstimator) Estimate(onsets []Onset) (float64, float64) {
	if len(onsets) < 2 {
		return DefaultBPM, 0.5
	}

	counts := make(map[int]int)
	total := 0

	for i := 1; i < len(onsets); i++ {
		interval := onsets[i].Time - onsets[i-1].Time
		if interval <= 0 {
			continue
		}
		total++

		bpm := int(math.Round(60.0 / interval))
		if bpm < MinBPM || bpm > MaxBPM {
			continue
		}
		counts[bpm]++
	}

	if total == 0 || len(counts) == 0 {
		return DefaultBPM, 0.5
	}

	bestBPM := 0
	bestCount := 0
	for bpm, count := range counts {
		// Break count ties toward the slower tempo for stability
		if count > bestCount || (count == bestCount && bpm < bestBPM) {
			bestBPM = bpm
			bestCount = count
		}
	}

	return float64(bestBPM), float64(bestCount) / float64(total)
}
