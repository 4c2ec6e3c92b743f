package probes

import (
	"context"
	"fmt"
	"time"

	"tinygo.org/x/bluetooth"
)

// discoveredDevice is what the scan callback hands the manager: just
// enough to decide eligibility before a connection is attempted.
type discoveredDevice struct {
	MAC string
}

// probeClient is everything a single probe connection needs from the BLE
// stack, narrowed to exactly the calls this package makes. Kept as a seam
// (mirroring motor.I2CBus) so the connection/poll state machine in
// connection.go is exercised by tests without real BLE hardware.
type probeClient interface {
	ReadFirmware(ctx context.Context) (string, error)
	ReadTemperature(ctx context.Context) ([]byte, error)
	ReadBattery(ctx context.Context) ([]byte, error)
	Disconnect() error
}

// adapterClient is the BLE central: it can scan for advertisements and
// connect to a discovered MAC.
type adapterClient interface {
	Enable() error
	Scan(ctx context.Context, onDiscover func(discoveredDevice)) error
	StopScan() error
	Connect(ctx context.Context, mac string, timeout time.Duration) (probeClient, error)
}

// tinygoAdapterClient is the production adapterClient, backed by the
// platform's default BLE adapter.
type tinygoAdapterClient struct {
	adapter *bluetooth.Adapter
}

func newTinygoAdapterClient() *tinygoAdapterClient {
	return &tinygoAdapterClient{adapter: bluetooth.DefaultAdapter}
}

func (a *tinygoAdapterClient) Enable() error {
	return a.adapter.Enable()
}

func (a *tinygoAdapterClient) Scan(ctx context.Context, onDiscover func(discoveredDevice)) error {
	done := make(chan error, 1)
	go func() {
		done <- a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			onDiscover(discoveredDevice{MAC: result.Address.String()})
		})
	}()
	select {
	case <-ctx.Done():
		_ = a.adapter.StopScan()
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (a *tinygoAdapterClient) StopScan() error {
	return a.adapter.StopScan()
}

func (a *tinygoAdapterClient) Connect(ctx context.Context, mac string, timeout time.Duration) (probeClient, error) {
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr, err := bluetooth.ParseMAC(mac)
	if err != nil {
		return nil, fmt.Errorf("probes: invalid MAC %q: %w", mac, err)
	}

	type result struct {
		device bluetooth.Device
		err    error
	}
	resultCh := make(chan result, 1)
	go func() {
		device, err := a.adapter.Connect(bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: addr}}, bluetooth.ConnectionParams{})
		resultCh <- result{device, err}
	}()

	select {
	case <-connectCtx.Done():
		return nil, fmt.Errorf("probes: connect to %s timed out: %w", mac, connectCtx.Err())
	case r := <-resultCh:
		if r.err != nil {
			return nil, r.err
		}
		return newTinygoProbeClient(r.device)
	}
}

// tinygoProbeClient resolves and caches the three GATT characteristics a
// connected probe exposes, then serves reads against them.
type tinygoProbeClient struct {
	device       bluetooth.Device
	firmwareChar bluetooth.DeviceCharacteristic
	tempChar     bluetooth.DeviceCharacteristic
	battChar     bluetooth.DeviceCharacteristic
}

func newTinygoProbeClient(device bluetooth.Device) (*tinygoProbeClient, error) {
	infoSvcs, err := device.DiscoverServices([]bluetooth.UUID{serviceDeviceInfo})
	if err != nil || len(infoSvcs) == 0 {
		return nil, fmt.Errorf("probes: device information service not found: %w", err)
	}
	infoChars, err := infoSvcs[0].DiscoverCharacteristics([]bluetooth.UUID{charFirmwareRev})
	if err != nil || len(infoChars) == 0 {
		return nil, fmt.Errorf("probes: firmware revision characteristic not found: %w", err)
	}

	vendorSvcs, err := device.DiscoverServices([]bluetooth.UUID{serviceVendor})
	if err != nil || len(vendorSvcs) == 0 {
		return nil, fmt.Errorf("probes: vendor service not found: %w", err)
	}
	vendorChars, err := vendorSvcs[0].DiscoverCharacteristics([]bluetooth.UUID{charTemperature, charBattery})
	if err != nil || len(vendorChars) != 2 {
		return nil, fmt.Errorf("probes: vendor characteristics not found: %w", err)
	}

	c := &tinygoProbeClient{
		device:       device,
		firmwareChar: infoChars[0],
	}
	for _, ch := range vendorChars {
		switch ch.UUID() {
		case charTemperature:
			c.tempChar = ch
		case charBattery:
			c.battChar = ch
		}
	}
	return c, nil
}

func (c *tinygoProbeClient) ReadFirmware(ctx context.Context) (string, error) {
	buf := make([]byte, 32)
	n, err := c.firmwareChar.Read(buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

func (c *tinygoProbeClient) ReadTemperature(ctx context.Context) ([]byte, error) {
	buf := make([]byte, 6)
	n, err := c.tempChar.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (c *tinygoProbeClient) ReadBattery(ctx context.Context) ([]byte, error) {
	buf := make([]byte, 2)
	n, err := c.battChar.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (c *tinygoProbeClient) Disconnect() error {
	return c.device.Disconnect()
}
