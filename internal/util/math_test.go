package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerce(t *testing.T) {
	assert.Equal(t, 0.0, Coerce(-5, 0, 100))
	assert.Equal(t, 100.0, Coerce(150, 0, 100))
	assert.Equal(t, 42.0, Coerce(42, 0, 100))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 0.5, Ratio(5, 0, 10))
	assert.Equal(t, 0.0, Ratio(0, 0, 10))
	assert.Equal(t, 1.0, Ratio(10, 0, 10))
}

func TestMeanAndStdDev(t *testing.T) {
	values := []float64{225, 228, 226, 75}

	mean := Mean(values)
	assert.InDelta(t, 188.5, mean, 0.01)

	stdDev := StdDev(values)
	assert.InDelta(t, 66.0, stdDev, 0.5)
}

func TestUpdateEma(t *testing.T) {
	// first sample seeds the average
	avg := UpdateEma(0, false, 0.5, 100)
	assert.Equal(t, 100.0, avg)

	// subsequent samples move it towards the new value
	avg = UpdateEma(avg, true, 0.5, 200)
	assert.Equal(t, 150.0, avg)
}

func TestSortedKeys(t *testing.T) {
	m := map[int]string{3: "c", 1: "a", 2: "b"}
	assert.Equal(t, []int{1, 2, 3}, SortedKeys(m))
}
