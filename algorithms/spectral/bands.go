package spectral

import (
	"gonum.org/v1/gonum/floats"
)

// BandEnergy sums spectral magnitude over the bin range [lo, hi).
// The range is clamped to the spectrum length.
func BandEnergy(spectrum []float64, lo, hi int) float64 {
	if lo < 0 {
		lo = 0
	}
	if hi > len(spectrum) {
		hi = len(spectrum)
	}
	if lo >= hi {
		return 0.0
	}
	return floats.Sum(spectrum[lo:hi])
}
