package spectral

import (
	"math"
)

// Flatness computes spectral flatness (Wiener entropy): the ratio of
// the geometric mean to the arithmetic mean of a magnitude spectrum.
// Values near 0 indicate tonal content, values near 1 noise-like content.
type Flatness struct {
	minThreshold float64 // Minimum magnitude to avoid log(0)
}

// NewFlatness creates a new spectral flatness calculator
func NewFlatness() *Flatness {
	return &Flatness{
		minThreshold: 1e-10,
	}
}

// Compute calculates spectral flatness for a single magnitude spectrum,
// returning a value in [0, 1]
func (f *Flatness) Compute(magnitudeSpectrum []float64) float64 {
	if len(magnitudeSpectrum) == 0 {
		return 0.0
	}

	// Geometric mean in the log domain for numerical stability
	logSum := 0.0
	validCount := 0
	for _, magnitude := range magnitudeSpectrum {
		if magnitude > f.minThreshold {
			logSum += math.Log(magnitude)
			validCount++
		}
	}

	if validCount == 0 {
		return 0.0
	}

	geometricMean := math.Exp(logSum / float64(validCount))

	arithmeticMean := 0.0
	for _, magnitude := range magnitudeSpectrum {
		arithmeticMean += magnitude
	}
	arithmeticMean /= float64(len(magnitudeSpectrum))

	if arithmeticMean <= f.minThreshold {
		return 0.0
	}

	flatness := geometricMean / arithmeticMean
	if flatness > 1.0 {
		flatness = 1.0
	}

	return flatness
}
