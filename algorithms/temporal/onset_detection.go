package temporal

import (
	"math"

	"github.com/soundsketch/beatgrid/algorithms/common"
	"github.com/soundsketch/beatgrid/algorithms/spectral"
	"github.com/soundsketch/beatgrid/algorithms/windowing"
)

// Onset is a candidate transient detected by spectral flux analysis,
// prior to beat-grid quantization.
type Onset struct {
	Time       float64 `json:"time"`       // Seconds from the start of the signal
	Strength   float64 `json:"strength"`   // Raw flux value at the peak
	Confidence float64 `json:"confidence"` // 0.0-1.0
}

// OnsetDetector detects note/event onsets in audio signals using
// half-wave rectified spectral flux with an adaptive threshold.
type OnsetDetector struct {
	windowSize int
	hopSize    int
	stft       *spectral.STFT
	flux       *spectral.SpectralFlux
	window     *windowing.Hann
}

// NewOnsetDetector creates a new onset detector framing the signal with
// the given window and hop sizes.
func NewOnsetDetector(windowSize, hopSize int) *OnsetDetector {
	return &OnsetDetector{
		windowSize: windowSize,
		hopSize:    hopSize,
		stft:       spectral.NewSTFT(),
		flux:       spectral.NewSpectralFlux(),
		window:     windowing.NewHann(windowSize),
	}
}

// thresholdRadius is the half-width in frames of the adaptive
// threshold's local statistics window.
const thresholdRadius = 10

// Detect returns timestamped onset candidates. An onset is declared where
// the spectral flux exceeds its adaptive threshold (local mean + 1.5 stddev
// over a +-10 frame window) and is a local maximum versus both neighbors.
// A signal with no detectable transients yields an empty slice, not an error.
func (od *OnsetDetector) Detect(signal []float64, sampleRate int) ([]Onset, error) {
	if len(signal) < od.windowSize || sampleRate <= 0 {
		return []Onset{}, nil
	}

	stftResult, err := od.stft.ComputeWithWindow(signal, od.windowSize, od.hopSize, sampleRate, od.window)
	if err != nil {
		return nil, err
	}

	flux := od.flux.Compute(stftResult.Magnitude)
	if len(flux) < 3 {
		return []Onset{}, nil
	}

	var onsets []Onset
	for i := 1; i < len(flux)-1; i++ {
		threshold := od.adaptiveThreshold(flux, i)

		if flux[i] <= threshold {
			continue
		}
		if flux[i] <= flux[i-1] || flux[i] <= flux[i+1] {
			continue
		}

		// flux[i] compares spectrogram frames i and i+1; the transient
		// lives in frame i+1
		frameIdx := i + 1
		confidence := 1.0
		if threshold > 0 {
			confidence = math.Min(1.0, flux[i]/(threshold*2.0))
		}

		onsets = append(onsets, Onset{
			Time:       float64(frameIdx) * float64(od.hopSize) / float64(sampleRate),
			Strength:   flux[i],
			Confidence: confidence,
		})
	}

	if onsets == nil {
		return []Onset{}, nil
	}
	return onsets, nil
}

// adaptiveThreshold computes mean + 1.5*stddev of the flux over a window
// of +-thresholdRadius frames around index i.
func (od *OnsetDetector) adaptiveThreshold(flux []float64, i int) float64 {
	lo := i - thresholdRadius
	if lo < 0 {
		lo = 0
	}
	hi := i + thresholdRadius + 1
	if hi > len(flux) {
		hi = len(flux)
	}

	local := flux[lo:hi]
	return common.Mean(local) + 1.5*common.StandardDeviation(local)
}
