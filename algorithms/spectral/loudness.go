package spectral

import (
	"math"
)

// LoudnessBands groups a magnitude spectrum into logarithmically spaced
// sub-bands and sums the power inside each. The result approximates a
// perceptual loudness breakdown: low indices cover narrow bass ranges,
// high indices progressively wider treble ranges.
type LoudnessBands struct {
	numBands int
}

// NewLoudnessBands creates a calculator with the given number of sub-bands
func NewLoudnessBands(numBands int) *LoudnessBands {
	if numBands < 1 {
		numBands = 1
	}
	return &LoudnessBands{numBands: numBands}
}

// NumBands returns the number of sub-bands produced per spectrum
func (lb *LoudnessBands) NumBands() int {
	return lb.numBands
}

// Compute sums spectral power into log-spaced bands. The DC bin is
// excluded. Returns a slice of length NumBands.
func (lb *LoudnessBands) Compute(magnitudeSpectrum []float64) []float64 {
	bands := make([]float64, lb.numBands)
	usable := len(magnitudeSpectrum) - 1 // bins 1..len-1
	if usable < 1 {
		return bands
	}

	// Log-spaced band edges over the usable bins
	logMax := math.Log(float64(usable))
	edges := make([]int, lb.numBands+1)
	edges[0] = 1
	for i := 1; i <= lb.numBands; i++ {
		edge := int(math.Exp(logMax*float64(i)/float64(lb.numBands))) + 1
		if edge <= edges[i-1] {
			edge = edges[i-1] + 1
		}
		if edge > len(magnitudeSpectrum) {
			edge = len(magnitudeSpectrum)
		}
		edges[i] = edge
	}

	for b := 0; b < lb.numBands; b++ {
		for k := edges[b]; k < edges[b+1]; k++ {
			bands[b] += magnitudeSpectrum[k] * magnitudeSpectrum[k]
		}
	}

	return bands
}
