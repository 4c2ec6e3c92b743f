package util

import (
	"math"
	"sort"

	"golang.org/x/exp/constraints"
)

// Coerce clamps value into the inclusive range [min, max].
func Coerce(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// CoerceInt clamps value into the inclusive range [min, max].
func CoerceInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Ratio calculates the ratio that target has in comparison to rangeMin and
// rangeMax. Callers must ensure rangeMax - rangeMin != 0.
func Ratio(target float64, rangeMin float64, rangeMax float64) float64 {
	return (target - rangeMin) / (rangeMax - rangeMin)
}

// Lerp linearly maps value from [inMin, inMax] into [outMin, outMax].
func Lerp(value, inMin, inMax, outMin, outMax float64) float64 {
	return outMin + Ratio(value, inMin, inMax)*(outMax-outMin)
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// UpdateEma advances an exponential moving average by one sample.
// When initialized is false, the average is seeded with newValue.
func UpdateEma(oldAvg float64, initialized bool, alpha float64, newValue float64) float64 {
	if !initialized {
		return newValue
	}
	return oldAvg + alpha*(newValue-oldAvg)
}

func sortSlice[T constraints.Ordered](s []T) {
	sort.Slice(s, func(i, j int) bool {
		return s[i] < s[j]
	})
}

// SortedKeys returns the keys of the given map in ascending order.
func SortedKeys[T constraints.Ordered, K any](input map[T]K) []T {
	result := make([]T, 0, len(input))
	for k := range input {
		result = append(result, k)
	}
	sortSlice(result)
	return result
}
