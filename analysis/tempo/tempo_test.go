package tempo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromTimestampsExactGrid(t *testing.T) {
	// Events at an exact 0.5s interval are 120 BPM with full confidence
	times := make([]float64, 12)
	for i := range times {
		times[i] = float64(i) * 0.5
	}

	est, ok := FromTimestamps(times)
	require.True(t, ok)
	assert.Equal(t, 120.0, est.BPM)
	assert.InDelta(t, 0.5, est.BeatInterval, 1e-9)
	assert.Equal(t, 1.0, est.Confidence)
}

func TestFromTimestampsTooFewEvents(t *testing.T) {
	_, ok := FromTimestamps([]float64{0, 0.5, 1.0, 1.5})
	assert.False(t, ok)
}

func TestFromTimestampsUnreliableBPM(t *testing.T) {
	// 2.5s intervals are 24 BPM, outside the accepted range
	times := []float64{0, 2.5, 5.0, 7.5, 10.0, 12.5}
	_, ok := FromTimestamps(times)
	assert.False(t, ok)

	// 0.1s intervals are 600 BPM, also outside
	fast := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5}
	_, ok = FromTimestamps(fast)
	assert.False(t, ok)
}

func TestFromTimestampsModalVote(t *testing.T) {
	// Majority at 0.5s, one outlier interval; confidence reflects the split
	times := []float64{0, 0.5, 1.0, 1.5, 2.0, 3.3}
	est, ok := FromTimestamps(times)
	require.True(t, ok)
	assert.Equal(t, 120.0, est.BPM)
	assert.InDelta(t, 4.0/5.0, est.Confidence, 1e-9)
}

func TestTrackEnergyPeriodicEnvelope(t *testing.T) {
	// Energy envelope pulsing every 0.5s at a 0.025s frame duration
	const frameDuration = 0.025
	const period = 20 // frames per beat

	envelope := make([]float64, 800)
	for i := range envelope {
		envelope[i] = 0.1
		if i%period == 0 {
			envelope[i] = 1.0
		}
	}

	est, ok := TrackEnergy(envelope, frameDuration)
	require.True(t, ok)
	assert.InDelta(t, 120.0, est.BPM, 3.0)
	assert.Greater(t, est.Confidence, 0.0)
}

func TestTrackEnergyTooShort(t *testing.T) {
	_, ok := TrackEnergy([]float64{1, 2, 3}, 0.01)
	assert.False(t, ok)
}

func TestGridDownbeatsAndBars(t *testing.T) {
	est := Estimate{BPM: 120, BeatInterval: 0.5, Confidence: 1.0}

	grid := Grid(est, 4.0)
	require.Len(t, grid, 9) // beats at 0.0 .. 4.0 inclusive

	for i, beat := range grid {
		assert.InDelta(t, float64(i)*0.5, beat.Time, 1e-9)
		assert.Equal(t, i%4, beat.BeatInBar)
		assert.Equal(t, i/4, beat.Bar)
		if i%4 == 0 {
			assert.Equal(t, 1.0, beat.Intensity)
		} else {
			assert.Equal(t, 0.7, beat.Intensity)
		}
	}
}

func TestGridEmptyWithoutTempo(t *testing.T) {
	assert.Nil(t, Grid(Estimate{}, 10.0))
	assert.Nil(t, Grid(Estimate{BeatInterval: 0.5}, 0))
}

func TestAutocorrelateNormalized(t *testing.T) {
	signal := []float64{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}
	ac := autocorrelate(signal, 6)
	require.NotEmpty(t, ac)
	assert.InDelta(t, 1.0, ac[0], 1e-9)
	for _, v := range ac {
		assert.False(t, math.IsNaN(v))
	}
}
