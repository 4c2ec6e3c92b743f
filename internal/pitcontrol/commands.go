package pitcontrol

import (
	"time"

	"github.com/yuri-rage/pit-ninja/internal/ui"
	"github.com/yuri-rage/pit-ninja/internal/unit"
	"github.com/yuri-rage/pit-ninja/internal/util"
)

// do enqueues fn to run on the controller's own tick goroutine, the only
// place PitController state is ever mutated.
func (c *PitController) do(fn func()) {
	c.cmdCh <- fn
}

// SetSetPoint changes the target pit temperature, in the controller's
// configured unit. Always returns the machine to Startup: a new target
// means the cook profile just changed and prior integrator history no
// longer applies.
func (c *PitController) SetSetPoint(value float64) {
	c.do(func() {
		if value <= 0 {
			ui.Warning("pitcontrol: refusing non-positive set point %.1f", value)
			return
		}
		c.setPoint = value
		c.reachedSetPoint = false
		c.mode = Startup
		c.pid.output = 0
		c.pid.iTerm = 0
		c.lidRemaining = 0
	})
}

// SetMode switches operating mode directly, zeroing the output and
// clearing any pending lid-open countdown.
func (c *PitController) SetMode(m Mode) {
	c.do(func() {
		if IsAutomatic(m) && !IsAutomatic(c.mode) {
			c.reachedSetPoint = false
			c.pid.iTerm = 0
		}
		c.mode = m
		c.pid.output = 0
		c.lidRemaining = 0
	})
}

// SetPIDOutput directly sets the 0..100 output used while in Manual mode.
// Values outside [0,100] are clamped.
func (c *PitController) SetPIDOutput(value float64) {
	c.do(func() {
		c.pid.output = util.Coerce(value, 0, 100)
	})
}

// SetGains replaces the PID gains in effect.
func (c *PitController) SetGains(g PidGains) {
	c.do(func() {
		c.gains = g
	})
}

// SetFanConfig updates the fan-conditioning parameters.
func (c *PitController) SetFanConfig(minSpeed, maxSpeed, maxStartupSpeed, activeFloor int, reverse bool) {
	c.do(func() {
		c.fanMinSpeed = util.CoerceInt(minSpeed, 1, 100)
		c.fanMaxSpeed = util.CoerceInt(maxSpeed, c.fanMinSpeed, 100)
		c.fanMaxStartupSpeed = util.CoerceInt(maxStartupSpeed, 0, 100)
		c.fanActiveFloor = float64(util.CoerceInt(activeFloor, 0, 99))
		c.fanReverse = reverse
	})
}

// SetServoConfig updates the damper's travel range.
func (c *PitController) SetServoConfig(minPosition, maxPosition int) {
	c.do(func() {
		c.servoMinPosition = util.CoerceInt(minPosition, 0, 100)
		c.servoMaxPosition = util.CoerceInt(maxPosition, c.servoMinPosition, 100)
	})
}

// SetLidConfig updates lid-open detection sensitivity (offset, the drop
// below the set point, as a percentage of the set point, that counts as a
// lid event) and recovery window length.
func (c *PitController) SetLidConfig(offsetPct float64, openDuration time.Duration) {
	c.do(func() {
		c.lidOpenOffset = util.Coerce(offsetPct, 0, 100)
		if openDuration < minLidAutoResume {
			ui.Warning("pitcontrol: clamping lid open duration %s up to minimum %s", openDuration, minLidAutoResume)
			openDuration = minLidAutoResume
		}
		c.lidOpenDuration = openDuration
	})
}

// UpdateProbe records or refreshes a connected probe's ambient reading. A
// reading whose unit differs from the previous reading's unit (from any
// probe) resets temp_ema to avoid a spurious derivative-term step on the
// discontinuity.
func (c *PitController) UpdateProbe(mac string, ambient float64, u unit.TempUnit, at time.Time) {
	c.do(func() {
		if c.unitSeen && u != c.lastUnit {
			c.pid.tempEma = nil
		}
		c.lastUnit = u
		c.unitSeen = true
		c.unit = u

		p, ok := c.probes[mac]
		if !ok {
			p = &connectedProbeState{}
			c.probes[mac] = p
		}
		p.ambient = ambient
		p.unit = u
		p.lastTimestamp = at

		c.fuseProbes()
	})
}

// RemoveProbe drops a probe from the fusion set, e.g. on BLE disconnect.
func (c *PitController) RemoveProbe(mac string) {
	c.do(func() {
		delete(c.probes, mac)
		c.fuseProbes()
	})
}
