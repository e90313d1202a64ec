package config

// Settings holds every threshold, band range and window constant used
// by one analysis pass. A Settings value is read-only for the duration
// of a pass; apply changes between passes via Override.
type Settings struct {
	// Framing
	FFTWindowSize int `json:"fft_window_size"`
	HopSize       int `json:"hop_size"`

	// Trend window, in frames. No detector fires until every tracked
	// feature has this many samples of history.
	AnalysisWindowSize int `json:"analysis_window_size"`

	// De-duplication
	MinTimeBetweenEvents float64 `json:"min_time_between_events"` // seconds, generic per-kind rule
	OnsetMinInterval     float64 `json:"onset_min_interval"`      // seconds, transient-only rule

	// Detector thresholds
	EnergyThreshold       float64 `json:"energy_threshold"`
	SpectralFluxThreshold float64 `json:"spectral_flux_threshold"`
	LowFrequencyThreshold float64 `json:"low_frequency_threshold"` // absolute low-band activity level

	// Per-band onset thresholds (change-ratio divisors)
	LowFreqOnsetThreshold  float64 `json:"low_freq_onset_threshold"`
	MidFreqOnsetThreshold  float64 `json:"mid_freq_onset_threshold"`
	HighFreqOnsetThreshold float64 `json:"high_freq_onset_threshold"`

	// Loudness-band index ranges, inclusive start, exclusive end
	LowBandRange  [2]int `json:"low_band_range"`
	MidBandRange  [2]int `json:"mid_band_range"`
	HighBandRange [2]int `json:"high_band_range"`

	// Dynamic-change tiers
	ModerateChangeThreshold    float64 `json:"moderate_change_threshold"`
	SignificantChangeThreshold float64 `json:"significant_change_threshold"`
	DramaticChangeThreshold    float64 `json:"dramatic_change_threshold"`

	TimbreChangeThreshold float64 `json:"timbre_change_threshold"`
}

// DefaultSettings returns defaults tuned for 44.1 kHz music material
func DefaultSettings() Settings {
	return Settings{
		FFTWindowSize:              2048,
		HopSize:                    512,
		AnalysisWindowSize:         20,
		MinTimeBetweenEvents:       0.25,
		OnsetMinInterval:           0.0,
		EnergyThreshold:            2.0,
		SpectralFluxThreshold:      2.5,
		LowFrequencyThreshold:      0.3,
		LowFreqOnsetThreshold:      2.0,
		MidFreqOnsetThreshold:      2.2,
		HighFreqOnsetThreshold:     2.5,
		LowBandRange:               [2]int{0, 4},
		MidBandRange:               [2]int{4, 15},
		HighBandRange:              [2]int{15, 24},
		ModerateChangeThreshold:    1.5,
		SignificantChangeThreshold: 2.0,
		DramaticChangeThreshold:    3.0,
		TimbreChangeThreshold:      0.4,
	}
}

// Degraded returns a best-effort fallback variant of s used when the
// extraction collaborator proves unusable at the configured density:
// a larger hop halves the number of extraction calls.
func Degraded(s Settings) Settings {
	s.HopSize *= 2
	return s
}

// Override is a partial settings update. Nil fields keep the current
// value. Being a plain struct, an unknown setting is a compile error
// rather than a silently ignored key.
type Override struct {
	FFTWindowSize      *int
	HopSize            *int
	AnalysisWindowSize *int

	MinTimeBetweenEvents *float64
	OnsetMinInterval     *float64

	EnergyThreshold       *float64
	SpectralFluxThreshold *float64
	LowFrequencyThreshold *float64

	LowFreqOnsetThreshold  *float64
	MidFreqOnsetThreshold  *float64
	HighFreqOnsetThreshold *float64

	LowBandRange  *[2]int
	MidBandRange  *[2]int
	HighBandRange *[2]int

	ModerateChangeThreshold    *float64
	SignificantChangeThreshold *float64
	DramaticChangeThreshold    *float64

	TimbreChangeThreshold *float64
}

// Apply merges the override onto s and returns the result
func (o Override) Apply(s Settings) Settings {
	if o.FFTWindowSize != nil {
		s.FFTWindowSize = *o.FFTWindowSize
	}
	if o.HopSize != nil {
		s.HopSize = *o.HopSize
	}
	if o.AnalysisWindowSize != nil {
		s.AnalysisWindowSize = *o.AnalysisWindowSize
	}
	if o.MinTimeBetweenEvents != nil {
		s.MinTimeBetweenEvents = *o.MinTimeBetweenEvents
	}
	if o.OnsetMinInterval != nil {
		s.OnsetMinInterval = *o.OnsetMinInterval
	}
	if o.EnergyThreshold != nil {
		s.EnergyThreshold = *o.EnergyThreshold
	}
	if o.SpectralFluxThreshold != nil {
		s.SpectralFluxThreshold = *o.SpectralFluxThreshold
	}
	if o.LowFrequencyThreshold != nil {
		s.LowFrequencyThreshold = *o.LowFrequencyThreshold
	}
	if o.LowFreqOnsetThreshold != nil {
		s.LowFreqOnsetThreshold = *o.LowFreqOnsetThreshold
	}
	if o.MidFreqOnsetThreshold != nil {
		s.MidFreqOnsetThreshold = *o.MidFreqOnsetThreshold
	}
	if o.HighFreqOnsetThreshold != nil {
		s.HighFreqOnsetThreshold = *o.HighFreqOnsetThreshold
	}
	if o.LowBandRange != nil {
		s.LowBandRange = *o.LowBandRange
	}
	if o.MidBandRange != nil {
		s.MidBandRange = *o.MidBandRange
	}
	if o.HighBandRange != nil {
		s.HighBandRange = *o.HighBandRange
	}
	if o.ModerateChangeThreshold != nil {
		s.ModerateChangeThreshold = *o.ModerateChangeThreshold
	}
	if o.SignificantChangeThreshold != nil {
		s.SignificantChangeThreshold = *o.SignificantChangeThreshold
	}
	if o.DramaticChangeThreshold != nil {
		s.DramaticChangeThreshold = *o.DramaticChangeThreshold
	}
	if o.TimbreChangeThreshold != nil {
		s.TimbreChangeThreshold = *o.TimbreChangeThreshold
	}
	return s
}

// CacheRefilterable reports whether the override can be served from the
// raw transient candidate cache. Only the per-band onset thresholds and
// OnsetMinInterval qualify: transients are the one kind whose
// acceptance is replayed from the cache. Every other field changes what
// the streaming pass itself would have produced — including
// MinTimeBetweenEvents, which the detectors gate on frame by frame, so
// lowering it cannot recover events the old gate suppressed.
func (o Override) CacheRefilterable() bool {
	if o.FFTWindowSize != nil || o.HopSize != nil || o.AnalysisWindowSize != nil {
		return false
	}
	if o.MinTimeBetweenEvents != nil {
		return false
	}
	if o.EnergyThreshold != nil || o.SpectralFluxThreshold != nil || o.LowFrequencyThreshold != nil {
		return false
	}
	if o.LowBandRange != nil || o.MidBandRange != nil || o.HighBandRange != nil {
		return false
	}
	if o.ModerateChangeThreshold != nil || o.SignificantChangeThreshold != nil || o.DramaticChangeThreshold != nil {
		return false
	}
	if o.TimbreChangeThreshold != nil {
		return false
	}
	return true
}
