package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumasync/beatline/analysis/events"
)

func TestBuildTimelineMergesAndSorts(t *testing.T) {
	r := &Result{
		Transients: []events.Transient{
			{Time: 3.0, Band: events.BandLow, Exceeds: 1.0},
		},
		Dynamics: []events.DynamicChange{
			{Time: 1.0, Tier: events.TierDramatic, Ratio: 4.0},
		},
		EnergyPeaks: []events.EnergyPeak{{Time: 2.0, Ratio: 2.0}},
		Drops:       []events.Drop{{Time: 4.0, Confidence: 1.5}},
		BeatGrid: []events.Beat{
			{Time: 0.5, BeatInBar: 0, Intensity: 1.0},
			{Time: 1.5, BeatInBar: 1, Intensity: 0.7},
		},
	}

	tl := BuildTimeline(r)
	require.Len(t, tl, 6)

	for i := 1; i < len(tl); i++ {
		assert.LessOrEqual(t, tl[i-1].Time, tl[i].Time)
	}
}

func TestBuildTimelineAnimationHints(t *testing.T) {
	r := &Result{
		Transients: []events.Transient{
			{Time: 1.0, Band: events.BandLow, Exceeds: 1.0},
			{Time: 2.0, Band: events.BandHigh, Exceeds: 5.0},
		},
		Dynamics: []events.DynamicChange{
			{Time: 3.0, Tier: events.TierDramatic, Ratio: 4.0},
		},
		Drops: []events.Drop{{Time: 4.0, Confidence: 2.0}},
		BeatGrid: []events.Beat{
			{Time: 5.0, BeatInBar: 0, Intensity: 1.0},
			{Time: 5.5, BeatInBar: 1, Intensity: 0.7},
		},
	}

	tl := BuildTimeline(r)
	require.Len(t, tl, 6)

	low := tl[0]
	assert.Equal(t, TypeTransient, low.Type)
	assert.Equal(t, "low", low.Subtype)
	assert.Equal(t, "pulse", low.Animation.Effect)
	assert.Equal(t, "warm", low.Animation.Palette)
	assert.InDelta(t, 0.5, low.Intensity, 1e-9)

	// Intensity clamps at 1 no matter how far the threshold was exceeded
	high := tl[1]
	assert.Equal(t, "sparkle", high.Animation.Effect)
	assert.Equal(t, 1.0, high.Intensity)

	dramatic := tl[2]
	assert.Equal(t, TypeDynamicChange, dramatic.Type)
	assert.Equal(t, "strobe", dramatic.Animation.Effect)
	assert.Equal(t, 1.0, dramatic.Intensity)

	drop := tl[3]
	assert.Equal(t, TypeDrop, drop.Type)
	assert.Equal(t, "blackout_drop", drop.Animation.Effect)
	assert.Equal(t, 1.0, drop.Intensity)

	downbeat, beat := tl[4], tl[5]
	assert.Equal(t, "downbeat", downbeat.Subtype)
	assert.Equal(t, 1.0, downbeat.Intensity)
	assert.Equal(t, "beat", beat.Subtype)
	assert.InDelta(t, 0.7, beat.Intensity, 1e-9)
}

func TestBuildTimelineEmptyResult(t *testing.T) {
	assert.Empty(t, BuildTimeline(&Result{}))
}
