package analysis

import (
	"sort"

	"github.com/lumasync/beatline/analysis/events"
)

// Consolidate sorts one event collection by time and collapses
// near-duplicates. Walking in time order, an event closer than minGap
// to the last accepted event is dropped, unless it is strictly
// stronger, in which case it replaces the last accepted event rather
// than being appended.
func Consolidate[E events.Event](evs []E, minGap float64) []E {
	if len(evs) == 0 {
		return evs
	}

	sorted := make([]E, len(evs))
	copy(sorted, evs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At() < sorted[j].At()
	})

	out := sorted[:1]
	for _, e := range sorted[1:] {
		last := out[len(out)-1]
		if e.At()-last.At() < minGap {
			if e.Strength() > last.Strength() {
				out[len(out)-1] = e
			}
			continue
		}
		out = append(out, e)
	}

	return out
}
