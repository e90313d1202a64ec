// Package history provides the bounded rolling store of per-frame
// feature values that detectors compare against.
package history

import (
	"github.com/lumasync/beatline/algorithms/common"
)

// Sample is one recorded feature value with its frame time
type Sample struct {
	Value float64
	Time  float64
}

// History keeps a bounded, insertion-ordered series per feature name.
// Insertion order equals time order: only the streaming pass writes,
// strictly frame by frame.
type History struct {
	bound    int
	series   map[string][]Sample
	lastTime float64
}

// New creates a history whose series are trimmed to the given bound.
// Bounds below 1 are treated as 1.
func New(bound int) *History {
	if bound < 1 {
		bound = 1
	}
	return &History{
		bound:  bound,
		series: make(map[string][]Sample),
	}
}

// Record appends a value and evicts the oldest entry when the series
// exceeds the bound
func (h *History) Record(name string, value, time float64) {
	s := append(h.series[name], Sample{Value: value, Time: time})
	if len(s) > h.bound {
		s = s[len(s)-h.bound:]
	}
	h.series[name] = s
	if time > h.lastTime {
		h.lastTime = time
	}
}

// Len returns the number of samples currently held for a feature
func (h *History) Len(name string) int {
	return len(h.series[name])
}

// LastTime returns the most recent frame time recorded, 0 before any write
func (h *History) LastTime() float64 {
	return h.lastTime
}

// MovingAverage returns the mean of the most recent windowSize entries.
// ok is false when the series holds fewer than windowSize samples.
func (h *History) MovingAverage(name string, windowSize int) (mean float64, ok bool) {
	s := h.series[name]
	if windowSize < 1 || len(s) < windowSize {
		return 0, false
	}

	tail := s[len(s)-windowSize:]
	values := make([]float64, len(tail))
	for i, smp := range tail {
		values[i] = smp.Value
	}

	return common.Mean(values), true
}
