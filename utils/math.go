// Package utils contains small shared helpers and the error kinds returned by
// the detection pipeline.
package utils

// Clamp returns min if value is lesser than min, max if value is greater than
// max, otherwise returns value itself.
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func MaxInt(a, b int) int {
	if a < b {
		return b
	}
	return a
}
