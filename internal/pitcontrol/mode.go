package pitcontrol

import (
	"time"

	"github.com/yuri-rage/pit-ninja/internal/ui"
)

// minLidAutoResume is the shortest a Recovery period can run before a
// recovered temperature is allowed to auto-resume Normal mode, independent
// of whether the full configured lid_open_duration has elapsed. Matches
// the configuration package's clamp floor for Lid.LidOpenDuration.
const minLidAutoResume = 30 * time.Second

// outputEmaCeilingForLidOpen is the output_ema ceiling below which a lid
// event is allowed to trigger: a pit already running near full output is
// assumed to be recovering from something other than an opened lid.
const outputEmaCeilingForLidOpen = 90.0

// evaluateModeTransitions runs the Startup/Recovery/Normal state machine for
// one heavy tick. Must run after computePID (uses the tick's current_temp)
// and before the output EMA update (uses last tick's output_ema, by design:
// a lid-open event should trigger off of sustained prior output, not the
// instantaneous value this same tick produced).
func (c *PitController) evaluateModeTransitions() {
	if c.pid.currentTemp == nil {
		return
	}
	if !IsAutomatic(c.mode) {
		return
	}

	current := *c.pid.currentTemp
	errVal := c.setPoint - current

	elapsedSinceLidTrigger := c.lidOpenDuration - c.lidRemaining

	switch {
	case errVal <= 0 && elapsedSinceLidTrigger >= minLidAutoResume:
		if c.mode == Startup {
			c.halveIntegrator()
		}
		c.reachedSetPoint = true
		c.mode = Normal
		c.lidRemaining = 0

	case c.lidRemaining > 0:
		c.lidRemaining -= heavyTickPeriod
		if c.lidRemaining < 0 {
			c.lidRemaining = 0
		}

	case c.lidOpenOffset > 0 && c.mode == Normal &&
		errVal/c.setPoint >= c.lidOpenOffset/100 &&
		c.pid.outputEma < outputEmaCeilingForLidOpen:
		c.mode = Recovery
		c.lidRemaining = c.lidOpenDuration
		ui.NotifyWarn("Pit Ninja", "Lid open detected, pausing control until it recovers")
	}
}
