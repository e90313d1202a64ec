package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractWaveformAllZeroSignal(t *testing.T) {
	samples := make([]float64, 10000)

	wave := ExtractWaveform(samples, 44100, 100)
	require.NotEmpty(t, wave)

	// No divide-by-zero: everything stays at 0
	for _, p := range wave {
		assert.Equal(t, 0.0, p.Value)
	}
}

func TestExtractWaveformNormalized(t *testing.T) {
	samples := make([]float64, 1000)
	samples[100] = -4.0 // global max by absolute value
	samples[500] = 2.0

	wave := ExtractWaveform(samples, 1000, 10)
	require.Len(t, wave, 10)

	peak := 0.0
	for _, p := range wave {
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.LessOrEqual(t, p.Value, 1.0)
		if p.Value > peak {
			peak = p.Value
		}
	}
	assert.Equal(t, 1.0, peak)

	// The 2.0 sample lands in bucket 5 at half the normalized height
	assert.InDelta(t, 0.5, wave[5].Value, 1e-9)
}

func TestExtractWaveformBucketTimes(t *testing.T) {
	samples := make([]float64, 1000)
	wave := ExtractWaveform(samples, 1000, 10)
	require.Len(t, wave, 10)

	for i, p := range wave {
		assert.InDelta(t, float64(i)*0.1, p.Time, 1e-9)
	}
}

func TestExtractWaveformShortBuffer(t *testing.T) {
	// Fewer samples than requested points: one bucket per sample
	wave := ExtractWaveform([]float64{0.5, -1.0}, 10, 2000)
	require.Len(t, wave, 2)
	assert.InDelta(t, 0.5, wave[0].Value, 1e-9)
	assert.InDelta(t, 1.0, wave[1].Value, 1e-9)
}

func TestExtractWaveformInvalidInput(t *testing.T) {
	assert.Nil(t, ExtractWaveform(nil, 44100, 100))
	assert.Nil(t, ExtractWaveform([]float64{1}, 0, 100))
}
