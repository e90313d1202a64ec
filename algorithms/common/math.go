package common

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions shared across algorithms, using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// RMS calculates the root mean square of a slice
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sumSquares := 0.0
	for _, val := range data {
		sumSquares += val * val
	}

	return math.Sqrt(sumSquares / float64(len(data)))
}

// Clamp01 clamps a value into [0, 1]
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// MaxAbs returns the largest absolute value in a slice, 0 for empty input
func MaxAbs(data []float64) float64 {
	maxVal := 0.0
	for _, v := range data {
		if a := math.Abs(v); a > maxVal {
			maxVal = a
		}
	}
	return maxVal
}
