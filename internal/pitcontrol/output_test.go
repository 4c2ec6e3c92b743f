package pitcontrol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func drainFan(t *testing.T, c *PitController) int {
	t.Helper()
	select {
	case evt := <-c.outputs:
		assert.Equal(t, OutputFan, evt.Type)
		return int(evt.Value)
	default:
		t.Fatal("expected a fan output event")
		return -1
	}
}

func TestMapFanTarget_BelowActiveFloorIsZero(t *testing.T) {
	c := newTestController()
	c.outputs = make(chan OutputEvent, 4)

	assert.Equal(t, 0, c.mapFanTarget(5))
}

func TestMapFanTarget_StretchesAboveFloorToMaxSpeed(t *testing.T) {
	c := newTestController()
	c.fanActiveFloor = 10
	c.fanMaxSpeed = 100

	assert.Equal(t, 100, c.mapFanTarget(100))
	assert.InDelta(t, 0, c.mapFanTarget(10), 0.001)
}

func TestMapFanTarget_UsesStartupCeilingInStartupMode(t *testing.T) {
	c := newTestController()
	c.mode = Startup
	c.fanMaxStartupSpeed = 40
	c.fanActiveFloor = 10

	assert.Equal(t, 40, c.mapFanTarget(100))
}

func TestCommitFanHeavyTick_RisingEdgeBoostsToFull(t *testing.T) {
	c := newTestController()
	c.outputs = make(chan OutputEvent, 4)
	c.pid.output = 50 // well above active floor

	c.commitFanHeavyTick()

	assert.Equal(t, 100, drainFan(t, c))
	assert.True(t, c.fanBoosting)
}

func TestCommitFanHeavyTick_SettlesOnFollowingTick(t *testing.T) {
	c := newTestController()
	c.outputs = make(chan OutputEvent, 4)
	c.pid.output = 50
	c.commitFanHeavyTick() // boost tick
	drainFan(t, c)

	c.commitFanHeavyTick() // settle tick

	settled := drainFan(t, c)
	assert.Equal(t, c.mapFanTarget(50), settled)
	assert.False(t, c.fanBoosting)
}

func TestCommitFanHeavyTick_LongPwmBelowFanMinSpeed(t *testing.T) {
	// GIVEN a mapped target of 20 with fan_min_speed 50: per the worked
	// example, on-duration within the 10s window is 4s.
	c := newTestController()
	c.outputs = make(chan OutputEvent, 4)
	c.fanMinSpeed = 50
	c.fanActiveFloor = 0
	c.fanMaxSpeed = 100
	c.pid.output = 20
	c.lastFanMappedTarget = 20 // skip the boost edge for this test

	c.commitFanHeavyTick()

	assert.True(t, c.longPwmActive)
	assert.Equal(t, 4*time.Second, c.longPwmOnDuration)
	assert.Equal(t, c.fanMinSpeed, drainFan(t, c)) // window position starts at 0, within on-duration
}

func TestStepLongPwmSubTick_TogglesOffAfterOnDurationElapses(t *testing.T) {
	c := newTestController()
	c.outputs = make(chan OutputEvent, 4)
	c.longPwmActive = true
	c.longPwmOnDuration = 1 * time.Second
	c.longPwmWindowPos = 750 * time.Millisecond
	c.lastEmittedFan = c.fanMinSpeed

	c.stepLongPwmSubTick() // advances to 1s, crossing the on-duration boundary

	assert.Equal(t, 0, drainFan(t, c))
}

func TestCommitServoHeavyTick_HoldsOffSmallCorrections(t *testing.T) {
	c := newTestController()
	c.outputs = make(chan OutputEvent, 4)
	c.lastEmittedServo = 50
	c.pid.output = 52 // maps to 52, a 2-point correction, below servoMinThresh

	c.commitServoHeavyTick()

	select {
	case <-c.outputs:
		t.Fatal("small correction should have been held off")
	default:
	}
	assert.Equal(t, 1, c.servoHoldoffCount)
}

func TestCommitServoHeavyTick_ForcesThroughAfterMaxHoldoff(t *testing.T) {
	c := newTestController()
	c.outputs = make(chan OutputEvent, 4)
	c.lastEmittedServo = 50
	c.pid.output = 52
	c.servoHoldoffCount = servoMaxHoldoff + 1

	c.commitServoHeavyTick()

	select {
	case evt := <-c.outputs:
		assert.Equal(t, OutputServo, evt.Type)
		assert.Equal(t, uint8(52), evt.Value)
	default:
		t.Fatal("expected the held-off correction to be forced through")
	}
	assert.Equal(t, 0, c.servoHoldoffCount)
}

func TestCommitServoHeavyTick_LargeCorrectionMovesImmediately(t *testing.T) {
	c := newTestController()
	c.outputs = make(chan OutputEvent, 4)
	c.lastEmittedServo = 20
	c.pid.output = 80

	c.commitServoHeavyTick()

	evt := <-c.outputs
	assert.Equal(t, uint8(80), evt.Value)
}
