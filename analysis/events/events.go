// Package events defines the event records produced by the analysis
// pipeline. Each musically significant occurrence gets its own struct
// rather than one loosely typed record with optional fields; the small
// Event interface is what the generic post-passes (consolidation,
// timeline assembly) operate on.
package events

// Band identifies one of the three grouped frequency ranges
type Band string

const (
	BandLow  Band = "low"
	BandMid  Band = "mid"
	BandHigh Band = "high"
)

// Tier classifies the magnitude of a dynamic (RMS) change
type Tier string

const (
	TierModerate    Tier = "moderate"
	TierSignificant Tier = "significant"
	TierDramatic    Tier = "dramatic"
)

// Event is the common view over all event kinds: when it happened and
// how strong it was. Strength is the kind's primary value and is what
// consolidation compares when two events land too close together.
type Event interface {
	At() float64
	Strength() float64
}

// Transient is a sudden energy increase in one band (onset).
// Time may carry a +0.001s-per-detection-order offset so that
// same-frame multi-band onsets keep distinct timestamps; FrameTime is
// always the unperturbed frame start.
type Transient struct {
	Time      float64 `json:"time"`
	FrameTime float64 `json:"frame_time"`
	Band      Band    `json:"band"`
	Ratio     float64 `json:"ratio"`   // change ratio vs moving average
	Exceeds   float64 `json:"exceeds"` // Ratio / per-band threshold
}

func (t Transient) At() float64       { return t.Time }
func (t Transient) Strength() float64 { return t.Ratio }

// DynamicChange is a tiered RMS level change
type DynamicChange struct {
	Time  float64 `json:"time"`
	Ratio float64 `json:"ratio"`
	Tier  Tier    `json:"tier"`
}

func (d DynamicChange) At() float64       { return d.Time }
func (d DynamicChange) Strength() float64 { return d.Ratio }

// BandActivity is sustained activity in one band. Mid and high bands
// fire on change ratio; the low band fires on absolute level, flagged
// by Absolute.
type BandActivity struct {
	Time     float64 `json:"time"`
	Band     Band    `json:"band"`
	Value    float64 `json:"value"`
	Ratio    float64 `json:"ratio"`
	Absolute bool    `json:"absolute"`
}

func (b BandActivity) At() float64 { return b.Time }

func (b BandActivity) Strength() float64 {
	if b.Absolute {
		return b.Value
	}
	return b.Ratio
}

// TimbreChange is a relative deviation of spectral flatness from its
// recent average
type TimbreChange struct {
	Time     float64 `json:"time"`
	Change   float64 `json:"change"` // |current - average| / average
	Flatness float64 `json:"flatness"`
}

func (t TimbreChange) At() float64       { return t.Time }
func (t TimbreChange) Strength() float64 { return t.Change }

// EnergyPeak is a broadband energy surge, kept primarily as drop
// detector input
type EnergyPeak struct {
	Time  float64 `json:"time"`
	Ratio float64 `json:"ratio"`
}

func (e EnergyPeak) At() float64       { return e.Time }
func (e EnergyPeak) Strength() float64 { return e.Ratio }

// FluxSpike is a spectral-flux surge, kept primarily as tempo
// estimator input
type FluxSpike struct {
	Time  float64 `json:"time"`
	Ratio float64 `json:"ratio"`
}

func (f FluxSpike) At() float64       { return f.Time }
func (f FluxSpike) Strength() float64 { return f.Ratio }

// Drop is a correlated energy peak and bass surge
type Drop struct {
	Time        float64 `json:"time"`
	Confidence  float64 `json:"confidence"`
	EnergyRatio float64 `json:"energy_ratio"`
	BassValue   float64 `json:"bass_value"`
}

func (d Drop) At() float64       { return d.Time }
func (d Drop) Strength() float64 { return d.Confidence }

// Beat is one entry of a synthesized beat grid
type Beat struct {
	Time      float64 `json:"time"`
	BeatInBar int     `json:"beat_in_bar"` // 0..3, 0 is the downbeat
	Bar       int     `json:"bar"`
	Intensity float64 `json:"intensity"`
}

func (b Beat) At() float64       { return b.Time }
func (b Beat) Strength() float64 { return b.Intensity }
