package analysis

import (
	"math"
	"sort"

	"github.com/soundsketch/beatgrid/algorithms/common"
	"github.com/soundsketch/beatgrid/algorithms/spectral"
	"github.com/soundsketch/beatgrid/algorithms/temporal"
)

// Spectral band ranges (bins) for percussive classification
const (
	lowBandLo  = 0
	lowBandHi  = 5
	midBandLo  = 5
	midBandHi  = 20
	highBandLo = 20
	highBandHi = 50
)

// quantizeBeats snaps onset candidates to a uniform beat grid. Onsets
// within the snap tolerance of a grid point are kept; gaps wider than the
// gap factor are filled with synthesized grid beats at confidence 0.5 so
// the beat sequence has no large holes.
func (a *SongAnalyzer) quantizeBeats(onsets []temporal.Onset, bpm float64, samples []float64, sampleRate int) []Beat {
	interval := 60.0 / bpm
	if interval <= 0 {
		return []Beat{}
	}

	// Strongest onset wins each grid slot
	confirmed := make(map[int]float64)
	for _, onset := range onsets {
		slot := int(math.Round(onset.Time / interval))
		if slot < 0 {
			continue
		}
		if math.Abs(onset.Time-float64(slot)*interval) > a.cfg.SnapTolerance*interval {
			continue
		}
		if c, ok := confirmed[slot]; !ok || onset.Confidence > c {
			confirmed[slot] = onset.Confidence
		}
	}

	if len(confirmed) == 0 {
		return []Beat{}
	}

	slots := make([]int, 0, len(confirmed))
	for slot := range confirmed {
		slots = append(slots, slot)
	}
	sort.Ints(slots)

	var beats []Beat
	appendBeat := func(slot int, confidence float64) {
		t := float64(slot) * interval
		beats = append(beats, Beat{
			Time:       t,
			Energy:     a.beatEnergy(samples, sampleRate, t),
			Confidence: confidence,
			Type:       a.classifyBeat(samples, sampleRate, t),
		})
	}

	for i, slot := range slots {
		if i > 0 {
			// Fill holes wider than GapFactor beat intervals
			prev := slots[i-1]
			if float64(slot-prev)*interval > a.cfg.GapFactor*interval {
				for missing := prev + 1; missing < slot; missing++ {
					appendBeat(missing, 0.5)
				}
			}
		}
		appendBeat(slot, confirmed[slot])
	}

	for i := range beats {
		beats[i].IsDownbeat = i%a.cfg.BeatsPerBar == 0
	}

	return beats
}

// beatEnergy computes short-window RMS energy at time t, scaled and
// clamped to [0, 1]
func (a *SongAnalyzer) beatEnergy(samples []float64, sampleRate int, t float64) float64 {
	rms := a.energy.RMSAt(samples, sampleRate, t)
	return common.Clamp(rms*10.0, 0.0, 1.0)
}

// classifyBeat labels the percussive character of the beat at time t by
// comparing band-summed spectral energy in the low, mid, and high ranges.
func (a *SongAnalyzer) classifyBeat(samples []float64, sampleRate int, t float64) BeatType {
	start := int(t * float64(sampleRate))
	if start < 0 || start >= len(samples) {
		return BeatOther
	}

	end := start + a.cfg.WindowSize
	if end > len(samples) {
		end = len(samples)
	}

	frame := make([]float64, end-start)
	copy(frame, samples[start:end])
	if len(frame) == a.window.Size() {
		// Windowing only matters for full frames; a truncated tail frame
		// is classified from its raw spectrum
		_ = a.window.ApplyInPlace(frame)
	}

	spectrum := a.fft.MagnitudeSpectrum(frame)

	bass := spectral.BandEnergy(spectrum, lowBandLo, lowBandHi)
	mid := spectral.BandEnergy(spectrum, midBandLo, midBandHi)
	high := spectral.BandEnergy(spectrum, highBandLo, highBandHi)

	switch {
	case bass > mid*1.5 && bass > high*1.5:
		return BeatKick
	case mid >= bass*1.2 && mid >= high:
		return BeatSnare
	case high >= mid*1.5:
		return BeatHiHat
	case high >= bass*2.0:
		return BeatCymbal
	default:
		return BeatOther
	}
}

// deriveSubBeats generates one sub-beat per beat at the half-interval
// offset: reduced energy, fixed confidence, hi-hat type.
func deriveSubBeats(beats []Beat, interval float64) []Beat {
	subBeats := make([]Beat, 0, len(beats))
	for _, b := range beats {
		subBeats = append(subBeats, Beat{
			Time:       b.Time + interval/2.0,
			Energy:     b.Energy * 0.6,
			Confidence: 0.7,
			Type:       BeatHiHat,
		})
	}
	return subBeats
}
