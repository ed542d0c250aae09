package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/soundsketch/beatgrid/algorithms/common"
)

// detectPhrases groups beats into fixed-size windows (4 bars of 4 beats)
// and classifies each window by position first, then average energy.
func (a *SongAnalyzer) detectPhrases(beats []Beat, duration float64) []MusicalPhrase {
	if len(beats) < a.cfg.MinBeatsForStructure {
		return []MusicalPhrase{}
	}

	windowBeats := a.cfg.PhraseWindowBeats
	var phrases []MusicalPhrase

	for i := 0; i < len(beats); i += windowBeats {
		endIdx := i + windowBeats
		start := beats[i].Time
		var end float64
		if endIdx < len(beats) {
			end = beats[endIdx].Time
		} else {
			// Final window runs one interval past its last beat
			last := len(beats) - 1
			end = beats[last].Time
			if last > 0 {
				end += beats[last].Time - beats[last-1].Time
			}
			if end > duration {
				end = duration
			}
		}
		if end <= start {
			continue
		}

		energies := make([]float64, 0, windowBeats)
		for j := i; j < endIdx && j < len(beats); j++ {
			energies = append(energies, beats[j].Energy)
		}
		avgEnergy := stat.Mean(energies, nil)

		phrases = append(phrases, MusicalPhrase{
			Start: start,
			End:   end,
			Type:  a.classifyPhrase(start, end, avgEnergy, duration),
		})
	}

	if phrases == nil {
		return []MusicalPhrase{}
	}
	return phrases
}

// classifyPhrase labels a phrase window: track edges win over energy
func (a *SongAnalyzer) classifyPhrase(start, end, avgEnergy, duration float64) PhraseType {
	switch {
	case start < a.cfg.EdgeWindow:
		return PhraseIntro
	case end > duration-a.cfg.EdgeWindow:
		return PhraseOutro
	case avgEnergy > a.cfg.ChorusEnergy:
		return PhraseChorus
	case avgEnergy > a.cfg.PreChorusEnergy:
		return PhrasePreChorus
	case avgEnergy > a.cfg.VerseEnergy:
		return PhraseVerse
	default:
		return PhraseBridge
	}
}

// detectMeasures groups beats into consecutive runs of BeatsPerBar,
// recording the first beat's time and a 1-based bar number.
func (a *SongAnalyzer) detectMeasures(beats []Beat) []Measure {
	perBar := a.cfg.BeatsPerBar
	measures := make([]Measure, 0, len(beats)/perBar)

	for i := 0; i+perBar <= len(beats); i += perBar {
		measures = append(measures, Measure{
			Time:      beats[i].Time,
			BarNumber: len(measures) + 1,
		})
	}

	return measures
}

// computeTempoCurve slides an 8-beat window (50% overlap) over the beat
// sequence, recording the window-start time and the local BPM.
func (a *SongAnalyzer) computeTempoCurve(beats []Beat) []CurvePoint {
	if len(beats) < a.cfg.MinBeatsForStructure {
		return []CurvePoint{}
	}

	windowBeats := a.cfg.TempoCurveBeats
	step := a.cfg.TempoCurveStepBeats
	var curve []CurvePoint

	for i := 0; i+windowBeats <= len(beats); i += step {
		intervals := make([]float64, 0, windowBeats-1)
		for j := i + 1; j < i+windowBeats; j++ {
			intervals = append(intervals, beats[j].Time-beats[j-1].Time)
		}

		avg := stat.Mean(intervals, nil)
		if avg <= 0 {
			continue
		}

		curve = append(curve, CurvePoint{
			Time:  beats[i].Time,
			Value: 60.0 / avg,
		})
	}

	if curve == nil {
		return []CurvePoint{}
	}
	return curve
}

// computeEnergyCurve samples short-window RMS energy at a fixed step over
// the whole track, independent of the beat grid.
func (a *SongAnalyzer) computeEnergyCurve(samples []float64, sampleRate int, duration float64) []CurvePoint {
	step := a.cfg.EnergyCurveStep
	if step <= 0 || duration <= 0 {
		return []CurvePoint{}
	}

	curve := make([]CurvePoint, 0, int(duration/step)+1)
	for t := 0.0; t < duration; t += step {
		rms := a.energy.RMSAt(samples, sampleRate, t)
		curve = append(curve, CurvePoint{
			Time:  t,
			Value: common.Clamp(rms*10.0, 0.0, 1.0),
		})
	}

	return curve
}
