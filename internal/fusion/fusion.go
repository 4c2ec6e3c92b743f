// Package fusion turns the ambient readings of all currently connected
// probes into a single pit temperature, robust to freshly-joined (cool)
// probes that haven't caught up to the rest of the pit yet.
package fusion

import (
	"sort"

	"github.com/yuri-rage/pit-ninja/internal/util"
)

// deviationThreshold is the k in "retain values >= mean - k*stddev".
const deviationThreshold = 0.5

// Fuse computes the pit temperature from a set of ambient readings using a
// lower-trimmed mean with deviation threshold k=0.5: values more than
// k standard deviations below the mean are dropped (typically a probe that
// just joined and is still reading ambient/room temperature), then the
// mean of what remains is returned.
//
// With len(values) <= 1 the single value (or nil) is returned unchanged.
func Fuse(values []float64) *float64 {
	switch len(values) {
	case 0:
		return nil
	case 1:
		v := values[0]
		return &v
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean := util.Mean(sorted)
	stdDev := util.StdDev(sorted)
	threshold := mean - deviationThreshold*stdDev

	var retained []float64
	for _, v := range sorted {
		if v >= threshold {
			retained = append(retained, v)
		}
	}
	if len(retained) == 0 {
		// unreachable for a non-empty set: at least one value is always
		// >= the mean, and the mean is always >= the threshold.
		retained = sorted
	}

	result := util.Mean(retained)
	return &result
}
