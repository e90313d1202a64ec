// Package features adapts the spectral extraction collaborator into
// the per-frame feature records the detectors consume, adding the
// sample-domain spectral flux and the derived low/mid/high band
// energies.
package features

import (
	"math"

	"github.com/lumasync/beatline/algorithms/spectral"
	"github.com/lumasync/beatline/analysis/config"
	"github.com/lumasync/beatline/logging"
)

// fluxEpsilon floors the spectral flux so downstream change ratios
// never divide by zero
const fluxEpsilon = 1e-6

// Extractor is the extraction collaborator contract: a pure function
// from one fixed-size sample window to its spectral metrics.
type Extractor interface {
	ExtractWindow(window []float64) (*spectral.WindowMetrics, error)
}

// FrameFeatures is one immutable per-frame feature record. Time is the
// frame start in seconds.
type FrameFeatures struct {
	Time          float64
	Energy        float64
	Loudness      float64
	RMS           float64
	Flatness      float64
	Flux          float64
	LowBand       float64
	MidBand       float64
	HighBand      float64
	LoudnessBands []float64
}

// Stream is a lazy, forward-only sequence of FrameFeatures over a mono
// sample buffer. The flux computation is stateful on the previous
// window, so a stream cannot be restarted mid-pass; create a new one
// to repeat the pass.
type Stream struct {
	samples    []float64
	sampleRate int
	cfg        config.Settings
	extractor  Extractor
	logger     logging.Logger

	pos        int
	prevWindow []float64
	attempted  int
	failed     int
}

// NewStream creates a frame stream over one channel of decoded samples
func NewStream(samples []float64, sampleRate int, cfg config.Settings, extractor Extractor) *Stream {
	return &Stream{
		samples:    samples,
		sampleRate: sampleRate,
		cfg:        cfg,
		extractor:  extractor,
		logger: logging.WithFields(logging.Fields{
			"component": "frame_stream",
		}),
	}
}

// Next produces the next frame, skipping frames whose extraction
// fails. Returns (nil, nil) once the buffer is exhausted.
func (s *Stream) Next() (*FrameFeatures, error) {
	for s.pos < len(s.samples) {
		start := s.pos
		s.pos += s.cfg.HopSize
		s.attempted++

		window := s.window(start)
		metrics, err := s.extractor.ExtractWindow(window)
		if err != nil {
			s.failed++
			s.logger.Warn("frame extraction failed, skipping frame", logging.Fields{
				"frame_start": start,
				"error":       err.Error(),
			})
			// Flux still advances on the raw window so the next
			// frame compares against its true predecessor.
			s.prevWindow = window
			continue
		}

		flux := s.flux(window)
		s.prevWindow = window

		f := &FrameFeatures{
			Time:          float64(start) / float64(s.sampleRate),
			Energy:        metrics.Energy,
			Loudness:      metrics.Loudness,
			RMS:           metrics.RMS,
			Flatness:      metrics.Flatness,
			Flux:          flux,
			LoudnessBands: metrics.LoudnessBands,
		}
		f.LowBand, f.MidBand, f.HighBand = bandEnergies(metrics, s.cfg)

		return f, nil
	}
	return nil, nil
}

// Attempted returns the number of frames the stream has tried to extract
func (s *Stream) Attempted() int {
	return s.attempted
}

// Failed returns the number of frames whose extraction failed
func (s *Stream) Failed() int {
	return s.failed
}

// window extracts a full-size window starting at the given sample
// index, zero-padded past the end of the buffer
func (s *Stream) window(start int) []float64 {
	w := make([]float64, s.cfg.FFTWindowSize)
	copy(w, s.samples[start:]) // tail past the buffer stays zero
	return w
}

// flux computes the sample-domain spectral flux against the previous
// window: sqrt of the sum of squared positive magnitude increases.
// Zero on the first frame; always floored to fluxEpsilon.
func (s *Stream) flux(window []float64) float64 {
	if s.prevWindow == nil {
		return fluxEpsilon
	}

	sum := 0.0
	for k := range window {
		diff := math.Abs(window[k]) - math.Abs(s.prevWindow[k])
		if diff > 0 {
			sum += diff * diff
		}
	}

	flux := math.Sqrt(sum)
	if flux < fluxEpsilon {
		flux = fluxEpsilon
	}
	return flux
}

// bandEnergies sums the loudness breakdown over the configured index
// ranges. When no breakdown is available the total energy is split
// evenly across the three bands.
func bandEnergies(m *spectral.WindowMetrics, cfg config.Settings) (low, mid, high float64) {
	if len(m.LoudnessBands) == 0 {
		third := m.Energy / 3.0
		return third, third, third
	}

	low = sumRange(m.LoudnessBands, cfg.LowBandRange)
	mid = sumRange(m.LoudnessBands, cfg.MidBandRange)
	high = sumRange(m.LoudnessBands, cfg.HighBandRange)
	return low, mid, high
}

func sumRange(bands []float64, r [2]int) float64 {
	start, end := r[0], r[1]
	if start < 0 {
		start = 0
	}
	if end > len(bands) {
		end = len(bands)
	}

	sum := 0.0
	for i := start; i < end; i++ {
		sum += bands[i]
	}
	return sum
}
