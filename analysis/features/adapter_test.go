package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumasync/beatline/algorithms/spectral"
	"github.com/lumasync/beatline/analysis/config"
)

// stubExtractor derives deterministic metrics straight from the window
// so tests control every feature value
type stubExtractor struct {
	windows  [][]float64
	failAt   map[int]bool
	calls    int
	numBands int
}

func (s *stubExtractor) ExtractWindow(window []float64) (*spectral.WindowMetrics, error) {
	call := s.calls
	s.calls++

	copied := make([]float64, len(window))
	copy(copied, window)
	s.windows = append(s.windows, copied)

	if s.failAt[call] {
		return nil, errors.New("stub extraction failure")
	}

	energy := 0.0
	for _, v := range window {
		energy += v * v
	}

	var bands []float64
	if s.numBands > 0 {
		bands = make([]float64, s.numBands)
		for i := range bands {
			bands[i] = energy / float64(s.numBands)
		}
	}

	return &spectral.WindowMetrics{
		Energy:        energy,
		RMS:           math.Sqrt(energy / float64(len(window))),
		Loudness:      energy,
		Flatness:      0.5,
		LoudnessBands: bands,
	}, nil
}

func streamSettings(window, hop int) config.Settings {
	cfg := config.DefaultSettings()
	cfg.FFTWindowSize = window
	cfg.HopSize = hop
	return cfg
}

func collect(t *testing.T, s *Stream) []*FrameFeatures {
	t.Helper()
	var frames []*FrameFeatures
	for {
		f, err := s.Next()
		require.NoError(t, err)
		if f == nil {
			return frames
		}
		frames = append(frames, f)
	}
}

func TestStreamFrameTiming(t *testing.T) {
	ext := &stubExtractor{numBands: 24}
	samples := make([]float64, 16)
	s := NewStream(samples, 8, streamSettings(8, 4), ext)

	frames := collect(t, s)
	require.Len(t, frames, 4) // starts at 0, 4, 8, 12

	assert.InDelta(t, 0.0, frames[0].Time, 1e-9)
	assert.InDelta(t, 0.5, frames[1].Time, 1e-9)
	assert.InDelta(t, 1.0, frames[2].Time, 1e-9)
	assert.InDelta(t, 1.5, frames[3].Time, 1e-9)
}

func TestStreamZeroPadsTailWindow(t *testing.T) {
	ext := &stubExtractor{numBands: 24}
	samples := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1} // 10 samples
	s := NewStream(samples, 10, streamSettings(8, 4), ext)

	frames := collect(t, s)
	require.Len(t, frames, 3)

	// Window starting at 8 only has 2 real samples; the rest is zero,
	// never truncated or out of bounds
	last := ext.windows[len(ext.windows)-1]
	require.Len(t, last, 8)
	assert.Equal(t, []float64{1, 1, 0, 0, 0, 0, 0, 0}, last)
}

func TestStreamSpectralFlux(t *testing.T) {
	ext := &stubExtractor{numBands: 24}
	samples := []float64{1, 1, 1, 1, 3, 3, 3, 3}
	s := NewStream(samples, 8, streamSettings(4, 4), ext)

	frames := collect(t, s)
	require.Len(t, frames, 2)

	// First frame has no predecessor: flux is the epsilon floor
	assert.InDelta(t, 1e-6, frames[0].Flux, 1e-12)

	// Second window raises every sample magnitude by 2:
	// sqrt(4 * 2^2) = 4
	assert.InDelta(t, 4.0, frames[1].Flux, 1e-9)
}

func TestStreamFluxIgnoresDecreases(t *testing.T) {
	ext := &stubExtractor{numBands: 24}
	samples := []float64{3, 3, 3, 3, 1, 1, 1, 5}
	s := NewStream(samples, 8, streamSettings(4, 4), ext)

	frames := collect(t, s)
	require.Len(t, frames, 2)

	// Three samples decrease (ignored), one rises from 3 to 5
	assert.InDelta(t, 2.0, frames[1].Flux, 1e-9)
}

func TestStreamBandEnergies(t *testing.T) {
	cfg := streamSettings(4, 4)
	cfg.LowBandRange = [2]int{0, 4}
	cfg.MidBandRange = [2]int{4, 15}
	cfg.HighBandRange = [2]int{15, 24}

	ext := &stubExtractor{numBands: 24}
	samples := []float64{2, 2, 2, 2}
	s := NewStream(samples, 4, cfg, ext)

	frames := collect(t, s)
	require.Len(t, frames, 1)

	// Energy 16 spread evenly over 24 bands
	f := frames[0]
	assert.InDelta(t, 16.0*4.0/24.0, f.LowBand, 1e-9)
	assert.InDelta(t, 16.0*11.0/24.0, f.MidBand, 1e-9)
	assert.InDelta(t, 16.0*9.0/24.0, f.HighBand, 1e-9)
}

func TestStreamBandFallbackSplit(t *testing.T) {
	// No loudness breakdown: energy split evenly across bands
	ext := &stubExtractor{numBands: 0}
	samples := []float64{3, 0, 0, 0}
	s := NewStream(samples, 4, streamSettings(4, 4), ext)

	frames := collect(t, s)
	require.Len(t, frames, 1)

	f := frames[0]
	assert.InDelta(t, 3.0, f.LowBand, 1e-9)
	assert.InDelta(t, 3.0, f.MidBand, 1e-9)
	assert.InDelta(t, 3.0, f.HighBand, 1e-9)
}

func TestStreamSkipsFailedFrames(t *testing.T) {
	ext := &stubExtractor{numBands: 24, failAt: map[int]bool{1: true}}
	samples := make([]float64, 12)
	s := NewStream(samples, 12, streamSettings(4, 4), ext)

	frames := collect(t, s)
	assert.Len(t, frames, 2)
	assert.Equal(t, 3, s.Attempted())
	assert.Equal(t, 1, s.Failed())
}
