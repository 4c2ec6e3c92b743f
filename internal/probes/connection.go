package probes

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yuri-rage/pit-ninja/internal/ui"
	"github.com/yuri-rage/pit-ninja/internal/unit"
)

// ConnectTimeout is how long a connection attempt waits for the device to
// become addressable before giving up.
const ConnectTimeout = 12 * time.Second

// pollInterval is the probe's steady-state read rate once streaming.
const pollInterval = 1 * time.Second

// ErrDisconnected classifies a read failure as the device having gone away,
// as opposed to a transient or protocol error. Real adapters surface this
// as a specific GATT error; production code should match on that instead
// of string content once the driver exposes a typed error.
var ErrDisconnected = errors.New("probes: device disconnected")

// connectAndStream runs one probe's full life cycle: connect, resolve
// identity, then poll at 1Hz until the context is canceled or the device
// disconnects. Emits events onto evts; never panics on an individual read
// failure, so one misbehaving probe can't take down the manager.
func connectAndStream(ctx context.Context, client adapterClient, mac string, u unit.TempUnit, evts chan<- ProbeEvent) {
	sessionID := uuid.NewString()

	conn, err := client.Connect(ctx, mac, ConnectTimeout)
	if err != nil {
		ui.Debug("probes: [%s] %s: connect failed: %v", sessionID, mac, err)
		evts <- ProbeEvent{Kind: EventConnectFailed, MAC: mac, SessionID: sessionID, Err: err}
		return
	}
	defer conn.Disconnect()

	rawFirmware, err := conn.ReadFirmware(ctx)
	if err != nil {
		evts <- ProbeEvent{Kind: EventConnectFailed, MAC: mac, SessionID: sessionID, Err: err}
		return
	}
	firmware, index, err := decodeFirmware(rawFirmware)
	if err != nil {
		ui.Warning("probes: [%s] %s: %v", sessionID, mac, err)
		evts <- ProbeEvent{Kind: EventConnectFailed, MAC: mac, SessionID: sessionID, Err: err}
		return
	}

	info := ProbeInfo{
		MAC:             mac,
		Manufacturer:    "Apption Labs",
		Model:           "MEATER",
		FirmwareVersion: firmware,
		ProbeIndex:      index,
	}
	ui.Debug("probes: [%s] %s: connected, probe index %d firmware %s", sessionID, mac, index, firmware)
	evts <- ProbeEvent{Kind: EventConnect, MAC: mac, SessionID: sessionID, Info: info}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reading, err := pollOnce(ctx, conn, info, u)
			if err != nil {
				if errors.Is(err, ErrDisconnected) {
					ui.Debug("probes: [%s] %s: disconnected", sessionID, mac)
					evts <- ProbeEvent{Kind: EventDisconnect, MAC: mac, SessionID: sessionID}
					return
				}
				ui.Warning("probes: [%s] %s: read error: %v", sessionID, mac, err)
				continue
			}
			evts <- ProbeEvent{Kind: EventUpdate, MAC: mac, SessionID: sessionID, Reading: reading}
		}
	}
}

func pollOnce(ctx context.Context, conn probeClient, info ProbeInfo, u unit.TempUnit) (ProbeReading, error) {
	tempPayload, err := conn.ReadTemperature(ctx)
	if err != nil {
		return ProbeReading{}, err
	}
	battPayload, err := conn.ReadBattery(ctx)
	if err != nil {
		return ProbeReading{}, err
	}

	tipC, ambientC, err := decodeTemperature(tempPayload)
	if err != nil {
		return ProbeReading{}, err
	}
	batteryPct, err := decodeBattery(battPayload)
	if err != nil {
		return ProbeReading{}, err
	}

	return ProbeReading{
		MAC:        info.MAC,
		ProbeIndex: info.ProbeIndex,
		Tip:        convert(tipC, u),
		Ambient:    convert(ambientC, u),
		Unit:       u,
		BatteryPct: batteryPct,
		Timestamp:  time.Now(),
		Firmware:   info.FirmwareVersion,
	}, nil
}
