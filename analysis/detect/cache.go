package detect

import (
	"math"

	"github.com/lumasync/beatline/analysis/config"
	"github.com/lumasync/beatline/analysis/events"
)

// RawCandidate is one threshold-independent band crossing observed
// during a streaming pass. The candidate set depends only on the frame
// features; the accepted transient set is a pure filter over it, which
// is what makes threshold changes a linear re-filter instead of a full
// recompute.
type RawCandidate struct {
	Time  float64     `json:"time"`
	Band  events.Band `json:"band"`
	Ratio float64     `json:"ratio"`
}

// OnsetThreshold returns the per-band onset threshold from settings
func OnsetThreshold(cfg config.Settings, band events.Band) float64 {
	switch band {
	case events.BandLow:
		return cfg.LowFreqOnsetThreshold
	case events.BandMid:
		return cfg.MidFreqOnsetThreshold
	default:
		return cfg.HighFreqOnsetThreshold
	}
}

// FilterTransients derives the accepted transient set from raw
// candidates: divide each candidate's ratio by its band threshold,
// accept when the quotient exceeds 1, gate per band by the onset
// minimum interval, and offset same-frame acceptances by +0.001s per
// detection order so downstream timestamps stay distinct. Candidates
// must be in recorded (time) order. Running this twice with the same
// settings, or over a cache versus a fresh pass with equal features,
// yields the same set.
func FilterTransients(raw []RawCandidate, cfg config.Settings) []events.Transient {
	var accepted []events.Transient

	lastAccepted := map[events.Band]float64{
		events.BandLow:  math.Inf(-1),
		events.BandMid:  math.Inf(-1),
		events.BandHigh: math.Inf(-1),
	}

	frameTime := math.Inf(-1)
	order := 0

	for _, cand := range raw {
		if cand.Time != frameTime {
			frameTime = cand.Time
			order = 0
		}

		threshold := OnsetThreshold(cfg, cand.Band)
		if threshold <= 0 {
			continue
		}
		exceeds := cand.Ratio / threshold
		if exceeds <= 1 {
			continue
		}
		if cand.Time-lastAccepted[cand.Band] < cfg.OnsetMinInterval {
			continue
		}

		lastAccepted[cand.Band] = cand.Time
		accepted = append(accepted, events.Transient{
			Time:      cand.Time + 0.001*float64(order),
			FrameTime: cand.Time,
			Band:      cand.Band,
			Ratio:     cand.Ratio,
			Exceeds:   exceeds,
		})
		order++
	}

	return accepted
}
