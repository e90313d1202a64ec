package analysis

import (
	"math"
	"sort"

	"github.com/lumasync/beatline/analysis/events"
)

const (
	// dropCorrelationWindow is how far apart an energy peak and a bass
	// event may be and still count as the same moment
	dropCorrelationWindow = 0.1

	// dropMinSpacing is the global minimum spacing between accepted
	// drops, independent of the per-kind de-duplication rule
	dropMinSpacing = 2.0
)

// DetectDrops correlates energy peaks with concurrent low-band events
// into ranked drops. For each energy peak the nearest low-band event
// within the correlation window contributes a confidence of
// energyRatio * bassValue/2. Candidates are accepted greedily by
// descending confidence, skipping any within dropMinSpacing of an
// already accepted drop. The returned drops are in time order.
func DetectDrops(peaks []events.EnergyPeak, bass []events.BandActivity) []events.Drop {
	var candidates []events.Drop

	for _, peak := range peaks {
		best, ok := nearestBass(bass, peak.Time)
		if !ok {
			continue
		}
		candidates = append(candidates, events.Drop{
			Time:        peak.Time,
			Confidence:  peak.Ratio * (best.Value / 2.0),
			EnergyRatio: peak.Ratio,
			BassValue:   best.Value,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	var accepted []events.Drop
	for _, cand := range candidates {
		tooClose := false
		for _, a := range accepted {
			if math.Abs(cand.Time-a.Time) < dropMinSpacing {
				tooClose = true
				break
			}
		}
		if !tooClose {
			accepted = append(accepted, cand)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Time < accepted[j].Time
	})

	return accepted
}

// nearestBass returns the low-band event closest to t within the
// correlation window
func nearestBass(bass []events.BandActivity, t float64) (events.BandActivity, bool) {
	var best events.BandActivity
	bestDist := math.Inf(1)

	for _, b := range bass {
		if b.Band != events.BandLow {
			continue
		}
		dist := math.Abs(b.Time - t)
		if dist <= dropCorrelationWindow && dist < bestDist {
			best = b
			bestDist = dist
		}
	}

	return best, !math.IsInf(bestDist, 1)
}
