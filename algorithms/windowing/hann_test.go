package windowing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHannCoefficients(t *testing.T) {
	h := NewHann(8)
	assert.Equal(t, 8, h.Size())

	signal := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	out := h.Apply(signal)
	require.Len(t, out, 8)

	// Periodic Hann: zero at the first sample, unity at the midpoint
	assert.InDelta(t, 0.0, out[0], 1e-12)
	assert.InDelta(t, 1.0, out[4], 1e-12)

	// Symmetric around the midpoint
	assert.InDelta(t, out[1], out[7], 1e-12)
	assert.InDelta(t, out[2], out[6], 1e-12)
	assert.InDelta(t, out[3], out[5], 1e-12)
}

func TestHannApplyLengthMismatch(t *testing.T) {
	h := NewHann(8)
	assert.Nil(t, h.Apply(make([]float64, 4)))
	assert.Error(t, h.ApplyInPlace(make([]float64, 4)))
}

func TestHannApplyInPlace(t *testing.T) {
	h := NewHann(4)
	signal := []float64{2, 2, 2, 2}
	require.NoError(t, h.ApplyInPlace(signal))
	assert.InDelta(t, 0.0, signal[0], 1e-12)
	assert.InDelta(t, 2.0, signal[2], 1e-12)
}
