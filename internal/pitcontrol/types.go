package pitcontrol

import (
	"time"

	"github.com/yuri-rage/pit-ninja/internal/unit"
)

// Mode is the Pit Controller's operating mode. Ordinal order matters:
// values <= Normal are "automatic" (see IsAutomatic).
type Mode int

const (
	Startup Mode = iota
	Recovery
	Normal
	Manual
	Off
)

func (m Mode) String() string {
	switch m {
	case Startup:
		return "Startup"
	case Recovery:
		return "Recovery"
	case Normal:
		return "Normal"
	case Manual:
		return "Manual"
	case Off:
		return "Off"
	default:
		return "Unknown"
	}
}

// IsAutomatic reports whether the controller computes PID output for this
// mode. Preserves the source's "mode <= AUTO_LAST" semantics explicitly
// rather than relying on the numeric comparison directly at call sites.
func IsAutomatic(m Mode) bool {
	return m == Startup || m == Recovery || m == Normal
}

// PidGains are the P/I/D constants of the control loop. A negative P
// selects the Proportional-on-Mixed-Error-and-Measurement variant.
type PidGains struct {
	P float64
	I float64
	D float64
}

// DefaultPidGains matches the defaults a freshly unboxed smoker ships with.
var DefaultPidGains = PidGains{P: 2.5, I: 0.0035, D: 6.0}

// pidState is the Pit Controller's PID bookkeeping, mutated only on the
// controller's own tick goroutine.
type pidState struct {
	pTerm, iTerm, dTerm float64
	output              float64 // 0..100, last committed PID output
	outputEma           float64
	outputEmaSet        bool
	tempEma             *float64
	currentTemp         *float64
}

// OutputType distinguishes the two physical actuators the controller drives.
type OutputType int

const (
	OutputFan OutputType = iota
	OutputServo
)

func (t OutputType) String() string {
	if t == OutputFan {
		return "fan"
	}
	return "servo"
}

// OutputEvent is emitted once per committed fan or servo change.
type OutputEvent struct {
	Type  OutputType
	Value uint8 // 0..100
}

// StatusSnapshot is the immutable value handed to the Display Sink once
// per heavy tick.
type StatusSnapshot struct {
	Mode        Mode
	NumProbes   int
	PitTemp     *float64
	SetPoint    float64
	Unit        unit.TempUnit
	PidOutput   float64
	FanPct      uint8
	ServoPct    uint8
}

// connectedProbeState is the Pit Controller's per-probe bookkeeping,
// created on the first reading for a MAC and removed on RemoveProbe.
type connectedProbeState struct {
	lastTimestamp time.Time
	ambient       float64
	unit          unit.TempUnit
}
