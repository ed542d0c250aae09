package analysis

import (
	"fmt"

	"github.com/soundsketch/beatgrid/algorithms/spectral"
	"github.com/soundsketch/beatgrid/algorithms/temporal"
	"github.com/soundsketch/beatgrid/algorithms/windowing"
	"github.com/soundsketch/beatgrid/logging"
)

// Phase identifies a pipeline stage for progress reporting
type Phase string

const (
	PhaseDecode   Phase = "decode"
	PhaseSpectral Phase = "spectral_analysis"
	PhasePhrases  Phase = "phrase_detection"
	PhaseTempo    Phase = "tempo_curve"
	PhaseEnergy   Phase = "energy_analysis"
	PhaseFinalize Phase = "finalize"
)

// ProgressFunc receives coarse-grained progress at phase boundaries.
// Callbacks fire on the calling goroutine with strictly increasing
// percentages and must not feed anything back into the pipeline.
type ProgressFunc func(phase Phase, percent float64)

// SongAnalyzer runs the full rhythm and structure pipeline over a decoded
// sample buffer. One instance processes one audio source at a time;
// concurrent analyses need independent instances.
type SongAnalyzer struct {
	cfg    AnalyzerConfig
	logger logging.Logger

	onsets *temporal.OnsetDetector
	tempo  *temporal.TempoEstimator
	energy *temporal.Energy
	fft    *spectral.FFT
	window *windowing.Hann
}

// NewSongAnalyzer creates an analyzer with the given configuration.
// A nil logger falls back to the global logger.
func NewSongAnalyzer(cfg AnalyzerConfig, logger logging.Logger) *SongAnalyzer {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &SongAnalyzer{
		cfg:    cfg,
		logger: logger.WithFields(logging.Fields{"component": "song_analyzer"}),
		onsets: temporal.NewOnsetDetector(cfg.WindowSize, cfg.HopSize),
		tempo:  temporal.NewTempoEstimator(),
		energy: temporal.NewEnergy(cfg.WindowSize),
		fft:    spectral.NewFFT(),
		window: windowing.NewHann(cfg.WindowSize),
	}
}

// Analyze consumes a mono sample buffer and produces the SongAnalysis
// snapshot. The buffer is read once and never retained. Degenerate audio
// (silence, too short for a single frame) yields an analysis with empty
// beat and structure slices rather than an error.
func (a *SongAnalyzer) Analyze(samples []float64, sampleRate int, duration float64, progress ProgressFunc) (*SongAnalysis, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty sample buffer")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if duration <= 0 {
		duration = float64(len(samples)) / float64(sampleRate)
	}

	report := func(phase Phase, percent float64) {
		if progress != nil {
			progress(phase, percent)
		}
	}
	report(PhaseDecode, 5)

	onsets, err := a.onsets.Detect(samples, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("onset detection: %w", err)
	}

	bpm, confidence := a.tempo.Estimate(onsets)
	beats := a.quantizeBeats(onsets, bpm, samples, sampleRate)
	subBeats := deriveSubBeats(beats, 60.0/bpm)
	report(PhaseSpectral, 30)

	a.logger.Debug("beat grid built", logging.Fields{
		"onsets": len(onsets),
		"beats":  len(beats),
		"bpm":    bpm,
	})

	phrases := a.detectPhrases(beats, duration)
	measures := a.detectMeasures(beats)
	report(PhasePhrases, 55)

	tempoCurve := a.computeTempoCurve(beats)
	report(PhaseTempo, 70)

	energyCurve := a.computeEnergyCurve(samples, sampleRate, duration)
	report(PhaseEnergy, 85)

	result := &SongAnalysis{
		Duration:    duration,
		BPM:         bpm,
		Confidence:  confidence,
		Beats:       beats,
		SubBeats:    subBeats,
		Phrases:     phrases,
		Measures:    measures,
		TempoCurve:  tempoCurve,
		EnergyCurve: energyCurve,
	}
	report(PhaseFinalize, 100)

	a.logger.Info("analysis complete", logging.Fields{
		"duration": duration,
		"bpm":      bpm,
		"beats":    len(beats),
		"phrases":  len(phrases),
	})

	return result, nil
}
