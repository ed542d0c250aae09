package temporal

import (
	"math"
)

// Energy computes short-window RMS energy features over a signal
type Energy struct {
	windowSize int
}

// NewEnergy creates a new energy calculator with the given RMS window size
func NewEnergy(windowSize int) *Energy {
	return &Energy{windowSize: windowSize}
}

// WindowRMS calculates RMS energy of the window starting at the given
// sample index. The window is truncated at the end of the signal.
func (e *Energy) WindowRMS(signal []float64, start int) float64 {
	if len(signal) == 0 || start >= len(signal) || e.windowSize <= 0 {
		return 0.0
	}
	if start < 0 {
		start = 0
	}

	end := start + e.windowSize
	if end > len(signal) {
		end = len(signal)
	}

	sumSquares := 0.0
	for i := start; i < end; i++ {
		sumSquares += signal[i] * signal[i]
	}

	return math.Sqrt(sumSquares / float64(end-start))
}

// RMSAt calculates RMS energy of the window starting at time t
func (e *Energy) RMSAt(signal []float64, sampleRate int, t float64) float64 {
	if sampleRate <= 0 || t < 0 {
		return 0.0
	}
	return e.WindowRMS(signal, int(t*float64(sampleRate)))
}
