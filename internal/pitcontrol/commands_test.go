package pitcontrol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yuri-rage/pit-ninja/internal/unit"
)

// exec drains and runs the single queued command synchronously, keeping
// these tests deterministic without spinning up Run's goroutine.
func exec(c *PitController) {
	cmd := <-c.cmdCh
	cmd()
}

func newCmdTestController() *PitController {
	c := newTestController()
	c.cmdCh = make(chan func(), 4)
	return c
}

func TestSetSetPoint_RejectsNonPositive(t *testing.T) {
	c := newCmdTestController()
	c.setPoint = 225

	c.SetSetPoint(-5)
	exec(c)

	assert.Equal(t, 225.0, c.setPoint)
}

func TestSetSetPoint_UpdatesAndReturnsToStartup(t *testing.T) {
	c := newCmdTestController()
	c.reachedSetPoint = true
	c.mode = Normal
	c.pid.output = 55

	c.SetSetPoint(275)
	exec(c)

	assert.Equal(t, 275.0, c.setPoint)
	assert.False(t, c.reachedSetPoint)
	assert.Equal(t, Startup, c.mode)
	assert.Equal(t, 0.0, c.pid.output)
}

func TestSetMode_EnteringAutomaticResetsIntegratorAndLatch(t *testing.T) {
	c := newCmdTestController()
	c.mode = Manual
	c.pid.iTerm = 40
	c.reachedSetPoint = true

	c.SetMode(Startup)
	exec(c)

	assert.Equal(t, Startup, c.mode)
	assert.Equal(t, 0.0, c.pid.iTerm)
	assert.False(t, c.reachedSetPoint)
}

func TestSetMode_BetweenAutomaticModesPreservesIntegrator(t *testing.T) {
	c := newCmdTestController()
	c.mode = Normal
	c.pid.iTerm = 40

	c.SetMode(Recovery)
	exec(c)

	assert.Equal(t, Recovery, c.mode)
	assert.Equal(t, 40.0, c.pid.iTerm)
}

func TestSetPIDOutput_Clamps(t *testing.T) {
	c := newCmdTestController()

	c.SetPIDOutput(150)
	exec(c)

	assert.Equal(t, 100.0, c.pid.output)
}

func TestSetLidConfig_ClampsBelowMinimum(t *testing.T) {
	c := newCmdTestController()

	c.SetLidConfig(20, 10*time.Second)
	exec(c)

	assert.Equal(t, minLidAutoResume, c.lidOpenDuration)
}

func TestUpdateProbe_ResetsTempEmaOnUnitChange(t *testing.T) {
	c := newCmdTestController()
	ema := 200.0
	c.pid.tempEma = &ema
	c.unitSeen = true
	c.lastUnit = unit.Fahrenheit

	c.UpdateProbe("AA:BB:CC:DD:EE:FF", 93.0, unit.Celsius, time.Now())
	exec(c)

	assert.Nil(t, c.pid.tempEma)
	assert.Len(t, c.probes, 1)
}

func TestUpdateProbe_FusesAcrossMultipleProbes(t *testing.T) {
	c := newCmdTestController()

	c.UpdateProbe("probe-1", 225, unit.Fahrenheit, time.Now())
	exec(c)
	c.UpdateProbe("probe-2", 228, unit.Fahrenheit, time.Now())
	exec(c)

	// mean 226.5, stddev 1.5, threshold 225.75: the trimmed mean drops 225.
	assert.NotNil(t, c.pid.currentTemp)
	assert.InDelta(t, 228.0, *c.pid.currentTemp, 0.01)
}

func TestRemoveProbe_DropsFromFusionSet(t *testing.T) {
	c := newCmdTestController()
	c.UpdateProbe("probe-1", 225, unit.Fahrenheit, time.Now())
	exec(c)

	c.RemoveProbe("probe-1")
	exec(c)

	assert.Nil(t, c.pid.currentTemp)
	assert.Len(t, c.probes, 0)
}
