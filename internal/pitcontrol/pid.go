package pitcontrol

import "github.com/yuri-rage/pit-ninja/internal/util"

// lambda is the mixing constant of the Proportional-on-Mixed-Error-and-
// Measurement variant (negative P): the proportional term blends a fixed
// fraction of the set point in with the live measurement so it does not
// spike on a set-point change the way plain error-based P does.
const lambda = 0.4

// computePID advances the PID state by one heavy tick and returns the new
// 0..100 output. Grounded on util.PidLoop's anti-windup-by-saturation and
// derivative-on-measurement shape, generalized with the negative-P mixed
// variant and a startup-phase integrator ceiling this system needs.
func (c *PitController) computePID() float64 {
	st := &c.pid
	if st.currentTemp == nil || c.mode == Recovery {
		st.output = 0
		return 0
	}

	current := *st.currentTemp
	setPoint := c.setPoint
	errVal := setPoint - current
	prevOutput := st.output

	var p float64
	if c.gains.P >= 0 {
		p = c.gains.P * errVal
	} else {
		p = c.gains.P * (current - lambda*setPoint)
	}

	iMax := 100.0
	if !c.reachedSetPoint {
		iMax = float64(c.fanMaxStartupSpeed)
	}
	if c.gains.P < 0 {
		iMax += (lambda - 1) * c.gains.P * setPoint
	}

	integrate := false
	if errVal < 0 && prevOutput > 0 {
		integrate = true
	}
	if errVal > 0 && prevOutput < iMax {
		integrate = true
	}
	if integrate {
		st.iTerm += c.gains.I * errVal
	}
	st.iTerm = util.Coerce(st.iTerm, 0, iMax)

	d := 0.0
	if st.tempEma != nil {
		d = c.gains.D * (*st.tempEma - current)
	}

	st.pTerm, st.dTerm = p, d
	st.output = util.Coerce(p+st.iTerm+d, 0, 100)
	return st.output
}

// halveIntegrator is applied the moment the set point is first reached,
// so the accumulated Startup-phase integrator doesn't overshoot Normal mode.
func (c *PitController) halveIntegrator() {
	c.pid.iTerm /= 2
}
