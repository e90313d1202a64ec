package spectral

import (
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/lumasync/beatline/algorithms/common"
	"github.com/lumasync/beatline/algorithms/windowing"
	"github.com/lumasync/beatline/logging"
)

// WindowMetrics holds the per-window scalar and vector features the
// analysis engine consumes. LoudnessBands is a coarse perceptual
// breakdown ordered from the lowest frequency band upward.
type WindowMetrics struct {
	Energy        float64   `json:"energy"`
	RMS           float64   `json:"rms"`
	Loudness      float64   `json:"loudness"`
	Flatness      float64   `json:"flatness"`
	LoudnessBands []float64 `json:"loudness_bands"`
}

// WindowAnalyzer computes WindowMetrics for fixed-size sample windows.
// It is stateless across windows and safe to reuse for repeated passes.
type WindowAnalyzer struct {
	windowSize int
	window     *windowing.Hann
	flatness   *Flatness
	loudness   *LoudnessBands
	logger     logging.Logger
}

// NewWindowAnalyzer creates an analyzer for the given window size with
// the given number of loudness sub-bands
func NewWindowAnalyzer(windowSize, numBands int) *WindowAnalyzer {
	return &WindowAnalyzer{
		windowSize: windowSize,
		window:     windowing.NewHann(windowSize),
		flatness:   NewFlatness(),
		loudness:   NewLoudnessBands(numBands),
		logger: logging.WithFields(logging.Fields{
			"component":   "window_analyzer",
			"window_size": windowSize,
		}),
	}
}

// WindowSize returns the expected sample window length
func (wa *WindowAnalyzer) WindowSize() int {
	return wa.windowSize
}

// ExtractWindow computes metrics for one sample window. The input is
// not modified; the Hann window is applied to a copy before the FFT.
func (wa *WindowAnalyzer) ExtractWindow(window []float64) (*WindowMetrics, error) {
	if len(window) != wa.windowSize {
		wa.logger.Warn("rejecting window of unexpected length", logging.Fields{
			"length": len(window),
		})
		return nil, fmt.Errorf("window length %d does not match analyzer size %d", len(window), wa.windowSize)
	}

	energy := 0.0
	for _, s := range window {
		energy += s * s
	}
	rms := common.RMS(window)

	windowed := wa.window.Apply(window)
	spectrum := fft.FFTReal(windowed)

	// Positive frequencies only, DC through Nyquist
	freqBins := len(spectrum)/2 + 1
	magnitude := make([]float64, freqBins)
	for k := 0; k < freqBins; k++ {
		magnitude[k] = cmplx.Abs(spectrum[k])
	}

	bands := wa.loudness.Compute(magnitude)
	loudness := 0.0
	for _, b := range bands {
		loudness += b
	}

	return &WindowMetrics{
		Energy:        energy,
		RMS:           rms,
		Loudness:      loudness,
		Flatness:      wa.flatness.Compute(magnitude),
		LoudnessBands: bands,
	}, nil
}
