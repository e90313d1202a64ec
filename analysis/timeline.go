package analysis

import (
	"sort"

	"github.com/lumasync/beatline/algorithms/common"
	"github.com/lumasync/beatline/analysis/events"
)

// Timeline entry type names
const (
	TypeTransient     = "transient"
	TypeDynamicChange = "dynamic_change"
	TypeBandActivity  = "band_activity"
	TypeTimbreChange  = "timbre_change"
	TypeEnergyPeak    = "energy_peak"
	TypeFluxSpike     = "flux_spike"
	TypeDrop          = "drop"
	TypeBeat          = "beat"
)

// AnimationParams are the suggested animation parameters attached to
// each timeline entry for the presentation layer. They are hints, not
// commands; intensity is normalized to [0, 1].
type AnimationParams struct {
	Effect    string  `json:"effect"`
	Intensity float64 `json:"intensity"`
	Duration  float64 `json:"duration"` // seconds
	Palette   string  `json:"palette"`
}

// TimelineEntry is one event of the final time-ordered output sequence
type TimelineEntry struct {
	Time      float64         `json:"time"`
	Type      string          `json:"type"`
	Subtype   string          `json:"subtype,omitempty"`
	Intensity float64         `json:"intensity"`
	Animation AnimationParams `json:"animation"`
}

var bandPalettes = map[events.Band]string{
	events.BandLow:  "warm",
	events.BandMid:  "neutral",
	events.BandHigh: "cool",
}

var transientEffects = map[events.Band]string{
	events.BandLow:  "pulse",
	events.BandMid:  "flash",
	events.BandHigh: "sparkle",
}

var tierAnimations = map[events.Tier]AnimationParams{
	events.TierDramatic:    {Effect: "strobe", Duration: 0.5, Palette: "hot"},
	events.TierSignificant: {Effect: "swell", Duration: 1.0, Palette: "warm"},
	events.TierModerate:    {Effect: "fade", Duration: 2.0, Palette: "neutral"},
}

// BuildTimeline merges every event collection of a result into one
// time-ordered sequence annotated with animation suggestions
func BuildTimeline(r *Result) []TimelineEntry {
	var tl []TimelineEntry

	for _, t := range r.Transients {
		intensity := common.Clamp01(t.Exceeds / 2.0)
		tl = append(tl, TimelineEntry{
			Time:      t.Time,
			Type:      TypeTransient,
			Subtype:   string(t.Band),
			Intensity: intensity,
			Animation: AnimationParams{
				Effect:    transientEffects[t.Band],
				Intensity: intensity,
				Duration:  0.15,
				Palette:   bandPalettes[t.Band],
			},
		})
	}

	for _, d := range r.Dynamics {
		intensity := common.Clamp01(d.Ratio / 4.0)
		anim := tierAnimations[d.Tier]
		anim.Intensity = intensity
		tl = append(tl, TimelineEntry{
			Time:      d.Time,
			Type:      TypeDynamicChange,
			Subtype:   string(d.Tier),
			Intensity: intensity,
			Animation: anim,
		})
	}

	for _, b := range r.BandActivity {
		intensity := common.Clamp01(b.Strength() / 3.0)
		tl = append(tl, TimelineEntry{
			Time:      b.Time,
			Type:      TypeBandActivity,
			Subtype:   string(b.Band),
			Intensity: intensity,
			Animation: AnimationParams{
				Effect:    "shimmer",
				Intensity: intensity,
				Duration:  0.5,
				Palette:   bandPalettes[b.Band],
			},
		})
	}

	for _, t := range r.TimbreChanges {
		intensity := common.Clamp01(t.Change)
		tl = append(tl, TimelineEntry{
			Time:      t.Time,
			Type:      TypeTimbreChange,
			Intensity: intensity,
			Animation: AnimationParams{
				Effect:    "colorshift",
				Intensity: intensity,
				Duration:  1.0,
				Palette:   "spectrum",
			},
		})
	}

	for _, e := range r.EnergyPeaks {
		intensity := common.Clamp01(e.Ratio / 4.0)
		tl = append(tl, TimelineEntry{
			Time:      e.Time,
			Type:      TypeEnergyPeak,
			Intensity: intensity,
			Animation: AnimationParams{
				Effect:    "burst",
				Intensity: intensity,
				Duration:  0.3,
				Palette:   "hot",
			},
		})
	}

	for _, f := range r.FluxSpikes {
		intensity := common.Clamp01(f.Ratio / 4.0)
		tl = append(tl, TimelineEntry{
			Time:      f.Time,
			Type:      TypeFluxSpike,
			Intensity: intensity,
			Animation: AnimationParams{
				Effect:    "flicker",
				Intensity: intensity,
				Duration:  0.2,
				Palette:   "neutral",
			},
		})
	}

	for _, d := range r.Drops {
		tl = append(tl, TimelineEntry{
			Time:      d.Time,
			Type:      TypeDrop,
			Intensity: 1.0,
			Animation: AnimationParams{
				Effect:    "blackout_drop",
				Intensity: 1.0,
				Duration:  2.0,
				Palette:   "full",
			},
		})
	}

	for _, b := range r.BeatGrid {
		subtype := "beat"
		effect := "tick"
		if b.BeatInBar == 0 {
			subtype = "downbeat"
			effect = "downbeat"
		}
		tl = append(tl, TimelineEntry{
			Time:      b.Time,
			Type:      TypeBeat,
			Subtype:   subtype,
			Intensity: b.Intensity,
			Animation: AnimationParams{
				Effect:    effect,
				Intensity: b.Intensity,
				Duration:  0.1,
				Palette:   "neutral",
			},
		})
	}

	sort.SliceStable(tl, func(i, j int) bool {
		return tl[i].Time < tl[j].Time
	})

	return tl
}
