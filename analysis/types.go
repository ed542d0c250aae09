package analysis

import (
	"math"

	"github.com/soundsketch/beatgrid/algorithms/common"
)

// BeatType classifies the dominant percussive character of a beat
type BeatType string

const (
	BeatKick   BeatType = "kick"
	BeatSnare  BeatType = "snare"
	BeatHiHat  BeatType = "hi-hat"
	BeatCymbal BeatType = "cymbal"
	BeatOther  BeatType = "other"
)

// Beat is a detected rhythmic pulse. Sub-beats share the shape, with lower
// confidence and a fixed hi-hat type.
type Beat struct {
	Time       float64  `json:"time"`
	Energy     float64  `json:"energy"`     // 0.0-1.0
	Confidence float64  `json:"confidence"` // 0.0-1.0
	IsDownbeat bool     `json:"is_downbeat"`
	Type       BeatType `json:"type"`
}

// PhraseType labels a structural unit of the song
type PhraseType string

const (
	PhraseIntro     PhraseType = "intro"
	PhraseVerse     PhraseType = "verse"
	PhrasePreChorus PhraseType = "pre-chorus"
	PhraseChorus    PhraseType = "chorus"
	PhraseBridge    PhraseType = "bridge"
	PhraseOutro     PhraseType = "outro"
)

// MusicalPhrase is a multi-bar grouping of beats. Phrases are
// non-overlapping and time-ordered.
type MusicalPhrase struct {
	Start float64    `json:"start"`
	End   float64    `json:"end"`
	Type  PhraseType `json:"type"`
}

// Measure marks the start of a bar (one per 4 beats)
type Measure struct {
	Time      float64 `json:"time"`
	BarNumber int     `json:"bar_number"` // 1-based
}

// CurvePoint is a sampled point on the tempo or energy curve
type CurvePoint struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// Section is an externally supplied structural section of the track
type Section struct {
	Name  string  `json:"name"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// TimeRange is a half-open interval in seconds
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Overlaps reports whether two ranges share any time
func (r TimeRange) Overlaps(start, end float64) bool {
	return r.Start < end && r.End > start
}

// VocalSegment describes when one vocalist is singing. Used only for
// lip-sync and performer tagging during shot synthesis.
type VocalSegment struct {
	VocalistID string      `json:"vocalist_id"`
	Intervals  []TimeRange `json:"intervals"`
}

// SongAnalysis is the rhythmic and structural skeleton of one track.
// It is a read-only snapshot once produced; downstream consumers must not
// mutate it.
type SongAnalysis struct {
	Duration    float64         `json:"duration"` // Seconds
	BPM         float64         `json:"bpm"`
	Confidence  float64         `json:"confidence"` // Tempo confidence, 0.0-1.0
	Beats       []Beat          `json:"beats"`
	SubBeats    []Beat          `json:"sub_beats"`
	Phrases     []MusicalPhrase `json:"phrases"`
	Measures    []Measure       `json:"measures"`
	TempoCurve  []CurvePoint    `json:"tempo_curve"`
	EnergyCurve []CurvePoint    `json:"energy_curve"`
}

// BeatInterval returns the seconds between beats, falling back to the
// default tempo when no tempo was estimated.
func (sa *SongAnalysis) BeatInterval() float64 {
	bpm := sa.BPM
	if bpm <= 0 {
		bpm = 120.0
	}
	return 60.0 / bpm
}

// NearestBeat returns the beat closest in time to t. The second return
// value is false when the analysis has no beats.
func (sa *SongAnalysis) NearestBeat(t float64) (Beat, bool) {
	if len(sa.Beats) == 0 {
		return Beat{}, false
	}

	best := sa.Beats[0]
	bestDist := math.Abs(best.Time - t)
	for _, b := range sa.Beats[1:] {
		if d := math.Abs(b.Time - t); d < bestDist {
			best = b
			bestDist = d
		}
	}

	return best, true
}

// PhraseAt returns the phrase containing time t
func (sa *SongAnalysis) PhraseAt(t float64) (MusicalPhrase, bool) {
	for _, p := range sa.Phrases {
		if t >= p.Start && t < p.End {
			return p, true
		}
	}
	return MusicalPhrase{}, false
}

// neutralEnergy is returned when no energy curve is available so that
// energy-based pacing degrades to a no-op.
const neutralEnergy = 0.5

// EnergyAt samples the energy curve at time t with linear interpolation
func (sa *SongAnalysis) EnergyAt(t float64) float64 {
	curve := sa.EnergyCurve
	if len(curve) == 0 {
		return neutralEnergy
	}
	if t <= curve[0].Time {
		return curve[0].Value
	}
	last := curve[len(curve)-1]
	if t >= last.Time {
		return last.Value
	}

	for i := 1; i < len(curve); i++ {
		if t < curve[i].Time {
			return common.LerpAt(t, curve[i-1].Time, curve[i-1].Value, curve[i].Time, curve[i].Value)
		}
	}
	return last.Value
}

// FallbackSections synthesizes a fixed-fraction section split for tracks
// where no external structural analysis is available.
func FallbackSections(duration float64) []Section {
	if duration <= 0 {
		return []Section{}
	}

	fractions := []struct {
		name string
		frac float64
	}{
		{"intro", 0.10},
		{"verse", 0.25},
		{"chorus", 0.20},
		{"verse", 0.20},
		{"chorus", 0.15},
		{"outro", 0.10},
	}

	sections := make([]Section, 0, len(fractions))
	cursor := 0.0
	for i, f := range fractions {
		end := cursor + duration*f.frac
		if i == len(fractions)-1 {
			end = duration
		}
		sections = append(sections, Section{Name: f.name, Start: cursor, End: end})
		cursor = end
	}

	return sections
}
