// Package analysis is the streaming feature-tracking and
// event-detection engine: it consumes decoded samples frame by frame,
// maintains rolling feature statistics, classifies musically
// significant events against tunable thresholds, infers tempo, and
// supports fast re-classification when thresholds change.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/lumasync/beatline/algorithms/spectral"
	"github.com/lumasync/beatline/analysis/config"
	"github.com/lumasync/beatline/analysis/detect"
	"github.com/lumasync/beatline/analysis/events"
	"github.com/lumasync/beatline/analysis/features"
	"github.com/lumasync/beatline/analysis/history"
	"github.com/lumasync/beatline/analysis/tempo"
	"github.com/lumasync/beatline/logging"
)

const (
	// defaultYieldInterval is how many frames are processed between
	// cooperative suspension points (Gosched + cancellation check)
	defaultYieldInterval = 256

	// historyBoundFactor sizes the rolling history as a small multiple
	// of the trend-comparison window
	historyBoundFactor = 4

	// loudnessBandCount is the resolution of the loudness breakdown the
	// default extractor produces; the band ranges in Settings index into it
	loudnessBandCount = 24

	// trackerMinConfidence is the autocorrelation beat tracker's
	// acceptance bar in the tempo preference order
	trackerMinConfidence = 0.5
)

// PCMBuffer is decoded audio handed in by the decoding collaborator.
// When Channels > 1 the samples are interleaved and only channel 0 is
// examined. KnownBeats optionally carries an explicit beat grid (e.g.
// from file metadata) which takes precedence over tempo estimation.
type PCMBuffer struct {
	Samples    []float64
	SampleRate int
	Channels   int
	KnownBeats []float64
}

// Result is the outcome of one analysis pass
type Result struct {
	Timeline []TimelineEntry `json:"timeline"`

	Transients    []events.Transient     `json:"transients"`
	Dynamics      []events.DynamicChange `json:"dynamics"`
	BandActivity  []events.BandActivity  `json:"band_activity"`
	TimbreChanges []events.TimbreChange  `json:"timbre_changes"`
	EnergyPeaks   []events.EnergyPeak    `json:"energy_peaks"`
	FluxSpikes    []events.FluxSpike     `json:"flux_spikes"`
	Drops         []events.Drop          `json:"drops"`

	Tempo    *tempo.Estimate `json:"tempo,omitempty"`
	BeatGrid []events.Beat   `json:"beat_grid,omitempty"`

	Duration float64         `json:"duration"` // seconds
	Waveform []WaveformPoint `json:"waveform"`

	// Truncated is set when the pass was cancelled; the result is the
	// best-effort timeline over the frames processed so far.
	Truncated bool `json:"truncated"`
}

// Analyzer runs analysis passes over one recording. Lifecycle is owned
// by the caller: create, Analyze, optionally Reanalyze with changed
// settings, discard. A single mutex serializes passes; the feature
// history and raw-candidate cache belong to exactly one pass at a time.
type Analyzer struct {
	mu sync.Mutex

	cfg        config.Settings
	extractor  features.Extractor
	logger     logging.Logger
	yieldEvery int

	// State retained from the last full streaming pass for re-analysis
	samples        []float64
	sampleRate     int
	knownBeats     []float64
	hist           *history.History
	energyEnvelope []float64
	raw            []detect.RawCandidate
	dynamics       []events.DynamicChange
	bandActivity   []events.BandActivity
	timbreChanges  []events.TimbreChange
	energyPeaks    []events.EnergyPeak
	fluxSpikes     []events.FluxSpike
	truncated      bool
	hasPass        bool
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithExtractor replaces the default spectral extraction collaborator
func WithExtractor(e features.Extractor) Option {
	return func(a *Analyzer) { a.extractor = e }
}

// WithLogger replaces the component logger
func WithLogger(l logging.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithYieldInterval sets how many frames run between cooperative
// suspension points
func WithYieldInterval(frames int) Option {
	return func(a *Analyzer) {
		if frames > 0 {
			a.yieldEvery = frames
		}
	}
}

// NewAnalyzer creates an analyzer with the given settings
func NewAnalyzer(cfg config.Settings, opts ...Option) *Analyzer {
	a := &Analyzer{
		cfg:        cfg,
		yieldEvery: defaultYieldInterval,
		logger: logging.WithFields(logging.Fields{
			"component": "analyzer",
		}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.extractor == nil {
		a.extractor = spectral.NewWindowAnalyzer(cfg.FFTWindowSize, loudnessBandCount)
	}
	return a
}

// Analyze runs a full streaming pass over the buffer and assembles the
// event timeline. Cancelling ctx stops streaming at the next frame
// boundary; the partial collections still flow through the drop, tempo
// and consolidation post-passes and the result is marked Truncated.
func (a *Analyzer) Analyze(ctx context.Context, buf *PCMBuffer) (*Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if buf == nil || len(buf.Samples) == 0 || buf.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: empty buffer or invalid sample rate", ErrDecodeFailure)
	}

	a.samples = monoChannel(buf)
	a.sampleRate = buf.SampleRate
	a.knownBeats = buf.KnownBeats

	if err := a.streamPass(ctx, a.cfg); err != nil {
		return nil, err
	}

	return a.buildResult(), nil
}

// AnalyzeWithFallback is Analyze plus one degraded retry: if the
// extraction collaborator fails for every frame, the pass is re-run
// with a larger hop. The fallback result may be an incomplete timeline
// rather than an error.
func (a *Analyzer) AnalyzeWithFallback(ctx context.Context, buf *PCMBuffer) (*Result, error) {
	res, err := a.Analyze(ctx, buf)
	if err == nil || !errors.Is(err, ErrFeatureExtraction) {
		return res, err
	}

	a.logger.Warn("full pass failed, retrying with degraded settings")

	a.mu.Lock()
	defer a.mu.Unlock()

	degraded := config.Degraded(a.cfg)
	if err := a.streamPass(ctx, degraded); err != nil {
		return nil, err
	}
	a.cfg = degraded
	return a.buildResult(), nil
}

// Reanalyze applies a partial settings override and produces a new
// result. Threshold-only overrides are served from the raw transient
// candidate cache in linear time without touching the frame adapter;
// anything affecting the streaming pass triggers a full recompute over
// the cached samples. Called before any Analyze it returns
// ErrNoCachedData.
func (a *Analyzer) Reanalyze(ctx context.Context, override config.Override) (*Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.samples) == 0 {
		return nil, ErrNoCachedData
	}

	newCfg := override.Apply(a.cfg)

	if a.hasPass && override.CacheRefilterable() {
		a.logger.Debug("serving settings change from raw candidate cache", logging.Fields{
			"raw_candidates": len(a.raw),
		})
		a.cfg = newCfg
		return a.buildResult(), nil
	}

	if err := a.streamPass(ctx, newCfg); err != nil {
		return nil, err
	}
	a.cfg = newCfg
	return a.buildResult(), nil
}

// monoChannel returns the single examined channel: channel 0 of an
// interleaved multi-channel buffer, or the samples as-is for mono
func monoChannel(buf *PCMBuffer) []float64 {
	if buf.Channels <= 1 {
		return buf.Samples
	}

	mono := make([]float64, 0, len(buf.Samples)/buf.Channels)
	for i := 0; i < len(buf.Samples); i += buf.Channels {
		mono = append(mono, buf.Samples[i])
	}
	return mono
}

// streamPass runs the adapter -> history -> detectors loop over the
// cached samples with the given settings and replaces the retained
// pass state
func (a *Analyzer) streamPass(ctx context.Context, cfg config.Settings) error {
	extractor := a.extractor
	if wa, ok := extractor.(*spectral.WindowAnalyzer); ok && wa.WindowSize() != cfg.FFTWindowSize {
		extractor = spectral.NewWindowAnalyzer(cfg.FFTWindowSize, loudnessBandCount)
	}

	hist := history.New(historyBoundFactor * cfg.AnalysisWindowSize)
	det := detect.New(cfg, hist)
	stream := features.NewStream(a.samples, a.sampleRate, cfg, extractor)

	truncated := false
	var envelope []float64

	for frames := 0; ; frames++ {
		if frames%a.yieldEvery == 0 {
			if ctx != nil && ctx.Err() != nil {
				a.logger.Info("analysis cancelled, keeping partial results", logging.Fields{
					"frames": frames,
				})
				truncated = true
				break
			}
			runtime.Gosched()
		}

		frame, err := stream.Next()
		if err != nil {
			return err
		}
		if frame == nil {
			break
		}

		envelope = append(envelope, frame.Energy)
		det.Process(frame)
	}

	if stream.Attempted() > 0 && stream.Failed() == stream.Attempted() {
		return fmt.Errorf("%w: all %d frames failed", ErrFeatureExtraction, stream.Attempted())
	}

	a.hist = hist
	a.energyEnvelope = envelope
	a.raw = det.Raw
	a.dynamics = det.Dynamics
	a.bandActivity = det.BandActivity
	a.timbreChanges = det.Timbre
	a.energyPeaks = det.EnergyPeaks
	a.fluxSpikes = det.FluxSpikes
	a.truncated = truncated
	a.hasPass = !truncated

	return nil
}

// buildResult runs the post-passes (transient filter, drops, tempo,
// consolidation, formatting) over the retained pass state under the
// current settings
func (a *Analyzer) buildResult() *Result {
	cfg := a.cfg

	transients := detect.FilterTransients(a.raw, cfg)
	drops := DetectDrops(a.energyPeaks, a.bandActivity)

	r := &Result{
		Transients:    Consolidate(transients, cfg.MinTimeBetweenEvents),
		Dynamics:      Consolidate(a.dynamics, cfg.MinTimeBetweenEvents),
		BandActivity:  Consolidate(a.bandActivity, cfg.MinTimeBetweenEvents),
		TimbreChanges: Consolidate(a.timbreChanges, cfg.MinTimeBetweenEvents),
		EnergyPeaks:   Consolidate(a.energyPeaks, cfg.MinTimeBetweenEvents),
		FluxSpikes:    Consolidate(a.fluxSpikes, cfg.MinTimeBetweenEvents),
		Drops:         drops,
		Duration:      float64(len(a.samples)) / float64(a.sampleRate),
		Waveform:      ExtractWaveform(a.samples, a.sampleRate, defaultWaveformPoints),
		Truncated:     a.truncated,
	}

	if est, ok := a.estimateTempo(transients); ok {
		r.Tempo = &est
		r.BeatGrid = tempo.Grid(est, a.hist.LastTime())
	}

	r.Timeline = BuildTimeline(r)

	return r
}

// estimateTempo walks the preference order: explicit beat grid,
// autocorrelation tracker with confidence above the bar, histogram over
// flux spikes (the pipeline's beat proxies), histogram over transients
func (a *Analyzer) estimateTempo(transients []events.Transient) (tempo.Estimate, bool) {
	if est, ok := tempo.FromTimestamps(a.knownBeats); ok {
		est.Confidence = 1.0
		return est, true
	}

	frameDuration := float64(a.cfg.HopSize) / float64(a.sampleRate)
	if est, ok := tempo.TrackEnergy(a.energyEnvelope, frameDuration); ok && est.Confidence > trackerMinConfidence {
		return est, true
	}

	times := make([]float64, len(a.fluxSpikes))
	for i, f := range a.fluxSpikes {
		times[i] = f.Time
	}
	if est, ok := tempo.FromTimestamps(times); ok {
		return est, true
	}

	times = times[:0]
	for _, t := range transients {
		times = append(times, t.Time)
	}
	if est, ok := tempo.FromTimestamps(times); ok {
		return est, true
	}

	return tempo.Estimate{}, false
}
