// Package tempo estimates a dominant tempo from event timestamps or an
// energy envelope and synthesizes a regular beat grid from it. The
// histogram estimator is intentionally simple: a modal-interval vote,
// not a music-information-retrieval beat tracker.
package tempo

import (
	"math"

	"github.com/lumasync/beatline/analysis/events"
)

const (
	// Accepted BPM range; estimates outside it are discarded as unreliable
	minBPM = 60
	maxBPM = 200

	// Interval histogram bin width in seconds
	binWidth = 0.01

	// minTimestamps is the minimum number of event times the histogram
	// estimator needs
	minTimestamps = 5

	beatsPerBar = 4

	downbeatIntensity = 1.0
	offbeatIntensity  = 0.7
)

// Estimate is a tempo estimate with its supporting confidence
type Estimate struct {
	BPM          float64 `json:"bpm"`
	BeatInterval float64 `json:"beat_interval"` // seconds per beat
	Confidence   float64 `json:"confidence"`    // 0..1
}

// FromTimestamps estimates tempo from sorted event timestamps by
// histogram-mode voting over consecutive intervals. Intervals are
// binned to the nearest 0.01s; the modal bin sets the beat interval and
// BPM = round(60/interval). ok is false with fewer than 5 timestamps or
// when the resulting BPM falls outside [60, 200].
func FromTimestamps(times []float64) (Estimate, bool) {
	if len(times) < minTimestamps {
		return Estimate{}, false
	}

	counts := make(map[int]int)
	total := 0
	for i := 1; i < len(times); i++ {
		delta := times[i] - times[i-1]
		bin := int(math.Round(delta / binWidth))
		if bin <= 0 {
			continue
		}
		counts[bin]++
		total++
	}
	if total == 0 {
		return Estimate{}, false
	}

	modalBin, modalCount := 0, 0
	for bin, count := range counts {
		if count > modalCount || (count == modalCount && bin < modalBin) {
			modalBin, modalCount = bin, count
		}
	}

	interval := float64(modalBin) * binWidth
	bpm := math.Round(60.0 / interval)
	if bpm < minBPM || bpm > maxBPM {
		return Estimate{}, false
	}

	return Estimate{
		BPM:          bpm,
		BeatInterval: 60.0 / bpm,
		Confidence:   float64(modalCount) / float64(total),
	}, true
}

// TrackEnergy estimates tempo by autocorrelating a frame-rate energy
// envelope over the lag range corresponding to [60, 200] BPM.
// Confidence is the normalized autocorrelation value at the chosen
// peak. frameDuration is the time per envelope sample in seconds.
func TrackEnergy(envelope []float64, frameDuration float64) (Estimate, bool) {
	if len(envelope) < 10 || frameDuration <= 0 {
		return Estimate{}, false
	}

	maxLag := len(envelope) / 2
	autocorr := autocorrelate(envelope, maxLag)

	minLag := int(math.Ceil((60.0 / maxBPM) / frameDuration))
	maxSearch := int((60.0 / minBPM) / frameDuration)
	if minLag < 1 {
		minLag = 1
	}
	if maxSearch >= len(autocorr) {
		maxSearch = len(autocorr) - 1
	}

	bestLag := 0
	bestVal := 0.0
	for lag := minLag; lag <= maxSearch; lag++ {
		if lag <= 0 || lag >= len(autocorr)-1 {
			continue
		}
		if autocorr[lag] > autocorr[lag-1] && autocorr[lag] > autocorr[lag+1] && autocorr[lag] > bestVal {
			bestVal = autocorr[lag]
			bestLag = lag
		}
	}
	if bestLag == 0 {
		return Estimate{}, false
	}

	period := float64(bestLag) * frameDuration
	bpm := math.Round(60.0 / period)
	if bpm < minBPM || bpm > maxBPM {
		return Estimate{}, false
	}

	return Estimate{
		BPM:          bpm,
		BeatInterval: 60.0 / bpm,
		Confidence:   bestVal,
	}, true
}

func autocorrelate(signal []float64, maxLag int) []float64 {
	if maxLag > len(signal) {
		maxLag = len(signal)
	}

	autocorr := make([]float64, maxLag)
	for lag := 0; lag < maxLag; lag++ {
		sum := 0.0
		count := 0
		for i := 0; i < len(signal)-lag; i++ {
			sum += signal[i] * signal[i+lag]
			count++
		}
		if count > 0 {
			autocorr[lag] = sum / float64(count)
		}
	}

	if len(autocorr) > 0 && autocorr[0] > 0 {
		for i := range autocorr {
			autocorr[i] /= autocorr[0]
		}
	}

	return autocorr
}

// Grid synthesizes a regular beat grid from time 0 through duration,
// stepping by the beat interval. Every 4th beat is a downbeat with
// higher intensity; the bar counter increments every 4 beats.
func Grid(est Estimate, duration float64) []events.Beat {
	if est.BeatInterval <= 0 || duration <= 0 {
		return nil
	}

	var grid []events.Beat
	for i := 0; ; i++ {
		t := float64(i) * est.BeatInterval
		if t > duration {
			break
		}
		intensity := offbeatIntensity
		if i%beatsPerBar == 0 {
			intensity = downbeatIntensity
		}
		grid = append(grid, events.Beat{
			Time:      t,
			BeatInBar: i % beatsPerBar,
			Bar:       i / beatsPerBar,
			Intensity: intensity,
		})
	}

	return grid
}
