package common

// Lerp performs linear interpolation into data at a fractional index.
// Out-of-range indices clamp to the first/last sample.
func Lerp(data []float64, index float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	if index <= 0 {
		return data[0]
	}
	if index >= float64(len(data)-1) {
		return data[len(data)-1]
	}

	i := int(index)
	frac := index - float64(i)

	return data[i]*(1.0-frac) + data[i+1]*frac
}

// LerpAt performs linear interpolation between two known points (x0, y0)
// and (x1, y1) evaluated at x.
func LerpAt(x, x0, y0, x1, y1 float64) float64 {
	if x1 == x0 {
		return y0
	}
	t := (x - x0) / (x1 - x0)
	if t < 0 {
		return y0
	}
	if t > 1 {
		return y1
	}
	return y0*(1.0-t) + y1*t
}
