// Package pitcontrol implements the closed-loop pit temperature controller:
// a single-task PID/mode state machine driving the fan and damper servo
// from fused probe readings, modeled on fan2go's PID control loop and
// run.Group-supervised controller tick.
package pitcontrol

import (
	"context"
	"time"

	"github.com/yuri-rage/pit-ninja/internal/configuration"
	"github.com/yuri-rage/pit-ninja/internal/fusion"
	"github.com/yuri-rage/pit-ninja/internal/ui"
	"github.com/yuri-rage/pit-ninja/internal/unit"
)

const (
	subTickPeriod  = 250 * time.Millisecond
	ticksPerHeavy  = 4
	heavyTickPeriod = ticksPerHeavy * subTickPeriod

	tempEmaAlpha   = 2.0 / (1.0 + 60.0)
	outputEmaAlpha = 2.0 / (1.0 + 240.0)
)

// PitController owns all mutable control-loop state. Every field below is
// touched only from the goroutine running Run; all other goroutines must
// go through the exported methods, which hand a closure to cmdCh rather
// than mutating state directly.
type PitController struct {
	cmdCh   chan func()
	outputs chan OutputEvent
	status  chan StatusSnapshot

	mode            Mode
	setPoint        float64
	unit            unit.TempUnit
	gains           PidGains
	pid             pidState
	reachedSetPoint bool

	lidOpenOffset   float64
	lidOpenDuration time.Duration
	lidRemaining    time.Duration

	fanActiveFloor     float64
	fanMinSpeed        int
	fanMaxSpeed        int
	fanMaxStartupSpeed int
	fanReverse         bool

	servoMinPosition int
	servoMaxPosition int

	probes     map[string]*connectedProbeState
	unitSeen   bool
	lastUnit   unit.TempUnit

	lastFanMappedTarget int
	fanBoosting         bool
	longPwmActive       bool
	longPwmWindowPos    time.Duration
	longPwmOnDuration   time.Duration
	lastEmittedFan      int
	lastEmittedServo    int
	servoHoldoffCount   int

	subTickCount int
}

// New builds a PitController from the loaded configuration. Call Run to
// start its tick loop.
func New(cfg *configuration.Configuration) *PitController {
	u, err := unit.Parse(cfg.Units)
	if err != nil {
		ui.Warning("pitcontrol: unrecognized unit %q, defaulting to Fahrenheit", cfg.Units)
		u = unit.Fahrenheit
	}

	gains := PidGains{P: cfg.Pid.P, I: cfg.Pid.I, D: cfg.Pid.D}

	return &PitController{
		cmdCh:   make(chan func(), 16),
		outputs: make(chan OutputEvent, 16),
		status:  make(chan StatusSnapshot, 4),

		mode:     Startup,
		setPoint: cfg.SetPoint,
		unit:     u,
		gains:    gains,

		lidOpenOffset:   cfg.Lid.LidOpenOffset,
		lidOpenDuration: cfg.Lid.LidOpenDuration,

		fanActiveFloor:     float64(cfg.Fan.ActiveFloor),
		fanMinSpeed:        cfg.Fan.MinSpeed,
		fanMaxSpeed:        cfg.Fan.MaxSpeed,
		fanMaxStartupSpeed: cfg.Fan.MaxStartupSpeed,
		fanReverse:         cfg.Fan.Reverse,

		servoMinPosition: cfg.Servo.MinPosition,
		servoMaxPosition: cfg.Servo.MaxPosition,

		probes: make(map[string]*connectedProbeState),
	}
}

// Outputs returns the channel on which committed fan/servo OutputEvents are
// published, in fan-then-servo order within a heavy tick.
func (c *PitController) Outputs() <-chan OutputEvent { return c.outputs }

// Status returns the channel on which one StatusSnapshot is published per
// heavy tick, always after that tick's OutputEvents.
func (c *PitController) Status() <-chan StatusSnapshot { return c.status }

// Run drives the controller's tick loop until ctx is canceled. Intended to
// be registered with an oklog/run.Group alongside the probe manager and
// display sink, the way fan2go's FanController registers its rpm-monitor
// and PID-tick goroutines.
func (c *PitController) Run(ctx context.Context) error {
	ticker := time.NewTicker(subTickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-c.cmdCh:
			cmd()
		case <-ticker.C:
			c.onSubTick()
		}
	}
}

func (c *PitController) onSubTick() {
	c.subTickCount++
	if c.subTickCount >= ticksPerHeavy {
		c.subTickCount = 0
		c.onHeavyTick()
		return
	}
	c.stepLongPwmSubTick()
}

// onHeavyTick runs once per second: update temp EMA, compute PID (or hold
// the Manual/Off output), evaluate mode transitions, update output EMA,
// then commit fan, servo, and status in that order.
func (c *PitController) onHeavyTick() {
	if c.pid.currentTemp != nil {
		seed := c.pid.tempEma == nil
		ema := 0.0
		if c.pid.tempEma != nil {
			ema = *c.pid.tempEma
		}
		ema = emaStep(ema, seed, tempEmaAlpha, *c.pid.currentTemp)
		c.pid.tempEma = &ema
	}

	var output float64
	switch {
	case IsAutomatic(c.mode):
		output = c.computePID()
		c.evaluateModeTransitions()
	case c.mode == Manual:
		output = c.pid.output
	case c.mode == Off:
		output = 0
		c.pid.output = 0
	}

	c.pid.outputEma = emaStep(c.pid.outputEma, !c.pid.outputEmaSet, outputEmaAlpha, output)
	c.pid.outputEmaSet = true

	c.advanceLongPwmWindow() // this tick is also a sub-tick boundary; commitFanHeavyTick emits, not this
	c.commitFanHeavyTick()
	c.commitServoHeavyTick()
	c.emitStatus()
}

func emaStep(oldAvg float64, seed bool, alpha float64, newValue float64) float64 {
	if seed {
		return newValue
	}
	return oldAvg + alpha*(newValue-oldAvg)
}

func (c *PitController) emit(evt OutputEvent) {
	select {
	case c.outputs <- evt:
	default:
		ui.Warning("pitcontrol: output channel full, dropping %s event", evt.Type)
	}
}

func (c *PitController) emitStatus() {
	snap := StatusSnapshot{
		Mode:      c.mode,
		NumProbes: len(c.probes),
		PitTemp:   c.pid.currentTemp,
		SetPoint:  c.setPoint,
		Unit:      c.unit,
		PidOutput: c.pid.output,
		FanPct:    uint8(c.lastEmittedFan),
		ServoPct:  uint8(c.lastEmittedServo),
	}
	select {
	case c.status <- snap:
	default:
		ui.Debug("pitcontrol: status channel full, dropping snapshot")
	}
}

func (c *PitController) fuseProbes() {
	if len(c.probes) == 0 {
		c.pid.currentTemp = nil
		return
	}
	values := make([]float64, 0, len(c.probes))
	for _, p := range c.probes {
		values = append(values, p.ambient)
	}
	c.pid.currentTemp = fusion.Fuse(values)
}
