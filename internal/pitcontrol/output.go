package pitcontrol

import (
	"time"

	"github.com/yuri-rage/pit-ninja/internal/util"
)

// longPwmWindow is the period over which the long-PWM / SRTP fan pulsing
// duty cycle is measured.
const longPwmWindow = 10 * time.Second

// servoMinThresh is the magnitude of change, in percentage points, that a
// correction must exceed to move the servo immediately rather than being
// held off.
const servoMinThresh = 5

// servoMaxHoldoff is the number of heavy ticks a sub-threshold servo
// correction can be held off before it is forced through anyway, so a
// persistent small drift doesn't stall the damper forever.
const servoMaxHoldoff = 10

// mapFanTarget remaps the abstract 0..100 PID output onto the fan's usable
// active range: outputs below fan_active_floor mean "fan off", and the
// remainder of the range is stretched across [0, current max speed].
func (c *PitController) mapFanTarget(output float64) int {
	if output < c.fanActiveFloor {
		return 0
	}
	maxSpeed := c.fanMaxSpeed
	if c.mode == Startup {
		maxSpeed = c.fanMaxStartupSpeed
	}
	mapped := util.Lerp(output, c.fanActiveFloor, 100, 0, float64(maxSpeed))
	return int(util.Coerce(mapped, 0, float64(maxSpeed)))
}

// commitFanHeavyTick recomputes the fan's target from the latest PID output
// and commits (or begins) whatever output scheme applies: a straight duty,
// a long-PWM pulse train for targets below fan_min_speed, or a one-tick
// 100% boost on a 0 -> >0 rising edge.
func (c *PitController) commitFanHeavyTick() {
	target := c.mapFanTarget(c.pid.output)

	if c.lastFanMappedTarget == 0 && target > 0 && !c.fanBoosting {
		c.fanBoosting = true
		c.lastFanMappedTarget = target
		c.longPwmActive = false
		c.emitFan(100)
		return
	}
	c.fanBoosting = false
	c.lastFanMappedTarget = target

	if target > 0 && target < c.fanMinSpeed {
		c.longPwmActive = true
		c.longPwmOnDuration = time.Duration(float64(longPwmWindow) / float64(c.fanMinSpeed) * float64(target))
		c.emitFan(c.longPwmCurrentDuty())
		return
	}

	c.longPwmActive = false
	c.emitFan(target)
}

// advanceLongPwmWindow moves the long-PWM window forward by one 250ms
// sub-tick without emitting anything. Split out from stepLongPwmSubTick so
// the heavy tick can keep the window's timing accurate while leaving all
// fan emission on that tick to commitFanHeavyTick, which always recomputes
// and emits a fresh duty regardless. Without this split, the window would
// fall a quarter-second behind every second tick skips it.
func (c *PitController) advanceLongPwmWindow() {
	if !c.longPwmActive {
		return
	}
	c.longPwmWindowPos += subTickPeriod
	if c.longPwmWindowPos >= longPwmWindow {
		c.longPwmWindowPos -= longPwmWindow
	}
}

// stepLongPwmSubTick advances the long-PWM window by one 250ms sub-tick and
// re-emits the fan output if the window crossed an on/off boundary. Called
// only on the three non-heavy sub-ticks between heavy ticks; the heavy tick
// advances the window itself via advanceLongPwmWindow and must not also
// emit here, since commitFanHeavyTick always emits a freshly computed duty
// on that tick (emitting both would violate the one-fan-event-per-sub-tick
// rule).
func (c *PitController) stepLongPwmSubTick() {
	c.advanceLongPwmWindow()
	if !c.longPwmActive {
		return
	}
	duty := c.longPwmCurrentDuty()
	if duty != c.lastEmittedFan {
		c.emitFan(duty)
	}
}

func (c *PitController) longPwmCurrentDuty() int {
	if c.longPwmWindowPos < c.longPwmOnDuration {
		return c.fanMinSpeed
	}
	return 0
}

// commitServoHeavyTick maps the PID output onto the damper's travel range
// and applies the hold-off dead-band before emitting.
func (c *PitController) commitServoHeavyTick() {
	mapped := util.Lerp(c.pid.output, 0, 100, float64(c.servoMinPosition), float64(c.servoMaxPosition))
	target := int(util.Coerce(mapped, float64(c.servoMinPosition), float64(c.servoMaxPosition)))

	diff := target - c.lastEmittedServo
	if diff < 0 {
		diff = -diff
	}
	if diff > servoMinThresh || c.servoHoldoffCount >= servoMaxHoldoff {
		c.servoHoldoffCount = 0
		c.emitServo(target)
		return
	}
	c.servoHoldoffCount++
}

func (c *PitController) emitFan(pct int) {
	pct = util.CoerceInt(pct, 0, 100)
	c.lastEmittedFan = pct
	c.emit(OutputEvent{Type: OutputFan, Value: uint8(pct)})
}

func (c *PitController) emitServo(pct int) {
	pct = util.CoerceInt(pct, 0, 100)
	c.lastEmittedServo = pct
	c.emit(OutputEvent{Type: OutputServo, Value: uint8(pct)})
}
