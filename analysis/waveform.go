package analysis

import (
	"github.com/lumasync/beatline/algorithms/common"
)

// defaultWaveformPoints is the target resolution of the visualization
// waveform
const defaultWaveformPoints = 2000

// WaveformPoint is one normalized amplitude sample for visualization
type WaveformPoint struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"` // 0..1
}

// ExtractWaveform downsamples a mono sample buffer to roughly points
// buckets, taking the max absolute value per bucket and normalizing
// against the global max. An all-zero buffer yields all-zero values.
func ExtractWaveform(samples []float64, sampleRate, points int) []WaveformPoint {
	if len(samples) == 0 || sampleRate <= 0 || points <= 0 {
		return nil
	}

	bucketSize := len(samples) / points
	if bucketSize < 1 {
		bucketSize = 1
	}

	var wave []WaveformPoint
	globalMax := 0.0

	for start := 0; start < len(samples); start += bucketSize {
		end := start + bucketSize
		if end > len(samples) {
			end = len(samples)
		}

		peak := common.MaxAbs(samples[start:end])
		if peak > globalMax {
			globalMax = peak
		}

		wave = append(wave, WaveformPoint{
			Time:  float64(start) / float64(sampleRate),
			Value: peak,
		})
	}

	if globalMax > 0 {
		for i := range wave {
			wave[i].Value /= globalMax
		}
	}

	return wave
}
