// Package probes discovers, connects to, and polls vendor BLE temperature
// probes, decoding their proprietary characteristics into normalized
// readings. Modeled on btmeater's State/ProbeInfo/DataPoint shape, wired
// onto tinygo.org/x/bluetooth for the transport this system actually needs.
package probes

import (
	"time"

	"github.com/yuri-rage/pit-ninja/internal/unit"
)

// State is a probe's connection lifecycle.
type State int

const (
	StateDiscovered State = iota
	StateConnecting
	StateInitialized
	StateStreaming
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "Discovered"
	case StateConnecting:
		return "Connecting"
	case StateInitialized:
		return "Initialized"
	case StateStreaming:
		return "Streaming"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// ProbeInfo is the immutable identity information a probe reports once,
// during connection setup. Mirrors btmeater.ProbeInfo.
type ProbeInfo struct {
	MAC             string
	Manufacturer    string
	Model           string
	FirmwareVersion string
	ProbeIndex      uint8 // 1..4
}

// ProbeReading is a single normalized temperature/battery sample.
type ProbeReading struct {
	MAC        string
	ProbeIndex uint8
	Tip        float64
	Ambient    float64
	Unit       unit.TempUnit
	BatteryPct uint8
	Timestamp  time.Time
	Firmware   string
}

// EventKind distinguishes the four events a Probe can emit over its life.
type EventKind int

const (
	EventConnect EventKind = iota
	EventConnectFailed
	EventUpdate
	EventDisconnect
)

// ProbeEvent is the single message type flowing from every probe's
// goroutine to the manager's single consumer, so per-probe failures never
// need to reach back into shared state directly. SessionID identifies one
// connection attempt (connect through eventual disconnect/failure), so log
// lines from the same attempt can be correlated even across reconnects to
// the same MAC.
type ProbeEvent struct {
	Kind      EventKind
	MAC       string
	SessionID string
	Info      ProbeInfo
	Reading   ProbeReading
	Err       error
}
