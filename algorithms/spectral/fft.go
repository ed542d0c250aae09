package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the FFT of a real-valued signal using mjibson/go-dsp.
// Handles all input sizes, including non-power-of-2.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// MagnitudeSpectrum computes the magnitude of the positive-frequency half
// of the spectrum (DC through Nyquist).
func (f *FFT) MagnitudeSpectrum(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	result := fft.FFTReal(x)
	bins := len(result)/2 + 1
	if bins > len(result) {
		bins = len(result)
	}

	magnitude := make([]float64, bins)
	for i := 0; i < bins; i++ {
		magnitude[i] = cmplx.Abs(result[i])
	}

	return magnitude
}
