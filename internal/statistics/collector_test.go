package statistics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/yuri-rage/pit-ninja/internal/pitcontrol"
)

func TestPitCollector_CollectsAllGaugesWhenSnapshotPresent(t *testing.T) {
	temp := 225.0
	snap := &pitcontrol.StatusSnapshot{
		Mode:      pitcontrol.Normal,
		NumProbes: 2,
		PitTemp:   &temp,
		SetPoint:  230,
		PidOutput: 40,
		FanPct:    35,
		ServoPct:  60,
	}
	c := NewPitCollector(func() *pitcontrol.StatusSnapshot { return snap })

	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)

	count := 0
	for range ch {
		count++
	}
	assert.Equal(t, 7, count)
}

func TestPitCollector_CollectsNothingWithoutASnapshot(t *testing.T) {
	c := NewPitCollector(func() *pitcontrol.StatusSnapshot { return nil })

	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)

	count := 0
	for range ch {
		count++
	}
	assert.Equal(t, 0, count)
}

func TestPitCollector_SkipsPitTempWhenNil(t *testing.T) {
	snap := &pitcontrol.StatusSnapshot{}
	c := NewPitCollector(func() *pitcontrol.StatusSnapshot { return snap })

	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)

	count := 0
	for range ch {
		count++
	}
	assert.Equal(t, 6, count)
}

func TestProbeBatteryCollector_EmitsOnePerProbe(t *testing.T) {
	c := NewProbeBatteryCollector(func() map[string]uint8 {
		return map[string]uint8{"AA:BB:CC:DD:EE:FF": 80, "11:22:33:44:55:66": 55}
	})

	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)

	count := 0
	for range ch {
		count++
	}
	assert.Equal(t, 2, count)
}
