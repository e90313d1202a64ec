// Package detect runs the per-frame event detection rules and owns the
// threshold-independent raw transient candidate cache that makes cheap
// re-filtering possible.
package detect

import (
	"math"

	"github.com/lumasync/beatline/analysis/config"
	"github.com/lumasync/beatline/analysis/events"
	"github.com/lumasync/beatline/analysis/features"
	"github.com/lumasync/beatline/analysis/history"
)

// ratioEpsilon guards change-ratio divisions against a zero moving average
const ratioEpsilon = 1e-9

// Tracked feature series names
const (
	FeatureEnergy   = "energy"
	FeatureRMS      = "rms"
	FeatureFlatness = "flatness"
	FeatureFlux     = "flux"
	FeatureLowBand  = "low_band"
	FeatureMidBand  = "mid_band"
	FeatureHighBand = "high_band"
)

var trackedFeatures = []string{
	FeatureEnergy, FeatureRMS, FeatureFlatness, FeatureFlux,
	FeatureLowBand, FeatureMidBand, FeatureHighBand,
}

// Detectors applies every detection rule once per frame. Each kind
// keeps its own last-accepted time for minimum-interval gating; there
// is no global clock. Accepted transients are not built here: every
// band crossing is recorded as a raw candidate and FilterTransients
// derives the accepted set, so a threshold re-filter and the streaming
// pass share one code path.
type Detectors struct {
	cfg  config.Settings
	hist *history.History

	Raw          []RawCandidate
	Dynamics     []events.DynamicChange
	BandActivity []events.BandActivity
	Timbre       []events.TimbreChange
	EnergyPeaks  []events.EnergyPeak
	FluxSpikes   []events.FluxSpike

	lastDynamic  float64
	lastActivity map[events.Band]float64
	lastTimbre   float64
	lastEnergy   float64
	lastFlux     float64
}

// New creates detectors writing into the given history
func New(cfg config.Settings, hist *history.History) *Detectors {
	return &Detectors{
		cfg:  cfg,
		hist: hist,
		lastActivity: map[events.Band]float64{
			events.BandLow:  math.Inf(-1),
			events.BandMid:  math.Inf(-1),
			events.BandHigh: math.Inf(-1),
		},
		lastDynamic: math.Inf(-1),
		lastTimbre:  math.Inf(-1),
		lastEnergy:  math.Inf(-1),
		lastFlux:    math.Inf(-1),
	}
}

// Process records one frame into history and, once every tracked
// series is warm, runs each detection rule against its own moving
// average.
func (d *Detectors) Process(f *features.FrameFeatures) {
	d.hist.Record(FeatureEnergy, f.Energy, f.Time)
	d.hist.Record(FeatureRMS, f.RMS, f.Time)
	d.hist.Record(FeatureFlatness, f.Flatness, f.Time)
	d.hist.Record(FeatureFlux, f.Flux, f.Time)
	d.hist.Record(FeatureLowBand, f.LowBand, f.Time)
	d.hist.Record(FeatureMidBand, f.MidBand, f.Time)
	d.hist.Record(FeatureHighBand, f.HighBand, f.Time)

	if !d.warm() {
		return
	}

	d.collectTransientCandidates(f)
	d.detectDynamicChange(f)
	d.detectBandActivity(f)
	d.detectTimbreChange(f)
	d.detectEnergyPeak(f)
	d.detectFluxSpike(f)
}

func (d *Detectors) warm() bool {
	for _, name := range trackedFeatures {
		if d.hist.Len(name) < d.cfg.AnalysisWindowSize {
			return false
		}
	}
	return true
}

func (d *Detectors) changeRatio(name string, current float64) (float64, bool) {
	avg, ok := d.hist.MovingAverage(name, d.cfg.AnalysisWindowSize)
	if !ok {
		return 0, false
	}
	return current / math.Max(avg, ratioEpsilon), true
}

// collectTransientCandidates appends one raw candidate per band,
// regardless of whether the active thresholds would accept it
func (d *Detectors) collectTransientCandidates(f *features.FrameFeatures) {
	bands := []struct {
		band    events.Band
		feature string
		value   float64
	}{
		{events.BandLow, FeatureLowBand, f.LowBand},
		{events.BandMid, FeatureMidBand, f.MidBand},
		{events.BandHigh, FeatureHighBand, f.HighBand},
	}

	for _, b := range bands {
		ratio, ok := d.changeRatio(b.feature, b.value)
		if !ok {
			continue
		}
		d.Raw = append(d.Raw, RawCandidate{
			Time:  f.Time,
			Band:  b.band,
			Ratio: ratio,
		})
	}
}

// detectDynamicChange classifies the RMS change ratio into at most one
// tier, testing dramatic, then significant, then moderate
func (d *Detectors) detectDynamicChange(f *features.FrameFeatures) {
	ratio, ok := d.changeRatio(FeatureRMS, f.RMS)
	if !ok {
		return
	}

	var tier events.Tier
	switch {
	case ratio > d.cfg.DramaticChangeThreshold:
		tier = events.TierDramatic
	case ratio > d.cfg.SignificantChangeThreshold:
		tier = events.TierSignificant
	case ratio > d.cfg.ModerateChangeThreshold:
		tier = events.TierModerate
	default:
		return
	}

	if f.Time-d.lastDynamic < d.cfg.MinTimeBetweenEvents {
		return
	}
	d.lastDynamic = f.Time
	d.Dynamics = append(d.Dynamics, events.DynamicChange{
		Time:  f.Time,
		Ratio: ratio,
		Tier:  tier,
	})
}

// detectBandActivity fires mid and high bands on change ratio against
// the shared moderate threshold, and the low band on absolute level
// against the dedicated low-frequency threshold
func (d *Detectors) detectBandActivity(f *features.FrameFeatures) {
	if f.LowBand > d.cfg.LowFrequencyThreshold &&
		f.Time-d.lastActivity[events.BandLow] >= d.cfg.MinTimeBetweenEvents {
		d.lastActivity[events.BandLow] = f.Time
		d.BandActivity = append(d.BandActivity, events.BandActivity{
			Time:     f.Time,
			Band:     events.BandLow,
			Value:    f.LowBand,
			Absolute: true,
		})
	}

	relative := []struct {
		band    events.Band
		feature string
		value   float64
	}{
		{events.BandMid, FeatureMidBand, f.MidBand},
		{events.BandHigh, FeatureHighBand, f.HighBand},
	}

	for _, b := range relative {
		ratio, ok := d.changeRatio(b.feature, b.value)
		if !ok || ratio <= d.cfg.ModerateChangeThreshold {
			continue
		}
		if f.Time-d.lastActivity[b.band] < d.cfg.MinTimeBetweenEvents {
			continue
		}
		d.lastActivity[b.band] = f.Time
		d.BandActivity = append(d.BandActivity, events.BandActivity{
			Time:  f.Time,
			Band:  b.band,
			Value: b.value,
			Ratio: ratio,
		})
	}
}

func (d *Detectors) detectTimbreChange(f *features.FrameFeatures) {
	avg, ok := d.hist.MovingAverage(FeatureFlatness, d.cfg.AnalysisWindowSize)
	if !ok || avg <= ratioEpsilon {
		return
	}

	change := math.Abs(f.Flatness-avg) / avg
	if change <= d.cfg.TimbreChangeThreshold {
		return
	}
	if f.Time-d.lastTimbre < d.cfg.MinTimeBetweenEvents {
		return
	}

	d.lastTimbre = f.Time
	d.Timbre = append(d.Timbre, events.TimbreChange{
		Time:     f.Time,
		Change:   change,
		Flatness: f.Flatness,
	})
}

func (d *Detectors) detectEnergyPeak(f *features.FrameFeatures) {
	ratio, ok := d.changeRatio(FeatureEnergy, f.Energy)
	if !ok || ratio <= d.cfg.EnergyThreshold {
		return
	}
	if f.Time-d.lastEnergy < d.cfg.MinTimeBetweenEvents {
		return
	}

	d.lastEnergy = f.Time
	d.EnergyPeaks = append(d.EnergyPeaks, events.EnergyPeak{Time: f.Time, Ratio: ratio})
}

func (d *Detectors) detectFluxSpike(f *features.FrameFeatures) {
	ratio, ok := d.changeRatio(FeatureFlux, f.Flux)
	if !ok || ratio <= d.cfg.SpectralFluxThreshold {
		return
	}
	if f.Time-d.lastFlux < d.cfg.MinTimeBetweenEvents {
		return
	}

	d.lastFlux = f.Time
	d.FluxSpikes = append(d.FluxSpikes, events.FluxSpike{Time: f.Time, Ratio: ratio})
}
