package probes

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuri-rage/pit-ninja/internal/unit"
)

// decodeFirmware splits the Device Information firmware string
// "<firmware>_<index>" into its version and 1-based probe index.
func decodeFirmware(raw string) (firmware string, index uint8, err error) {
	parts := strings.SplitN(raw, "_", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("probes: malformed firmware string %q", raw)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 1 || n > 4 {
		return "", 0, fmt.Errorf("probes: malformed probe index in %q", raw)
	}
	return parts[0], uint8(n), nil
}

// rawToCelsius converts a raw 12-bit-ish sensor count to degrees Celsius.
func rawToCelsius(raw int) float64 {
	return float64(raw+8) / 16.0
}

// decodeTemperature decodes the 6-byte temperature characteristic payload
// into tip/ambient Celsius values. ra is the probe's internal ring-sensor
// reading and oa an offset correction; the vendor's ambient-compensation
// formula subtracts a capped portion of the offset from the ring reading
// before blending it into the tip reading.
func decodeTemperature(payload []byte) (tipC, ambientC float64, err error) {
	if len(payload) < 6 {
		return 0, 0, fmt.Errorf("probes: temperature payload too short: %d bytes", len(payload))
	}
	tipRaw := int(binary.LittleEndian.Uint16(payload[0:2]))
	ra := int(binary.LittleEndian.Uint16(payload[2:4]))
	oa := int(binary.LittleEndian.Uint16(payload[4:6]))

	oaCapped := oa
	if oaCapped > 48 {
		oaCapped = 48
	}
	delta := (ra - oaCapped) * 16 * 589 / 1487
	if delta < 0 {
		delta = 0
	}
	ambientRaw := tipRaw + delta

	return rawToCelsius(tipRaw), rawToCelsius(ambientRaw), nil
}

// decodeBattery decodes the 2-byte battery characteristic into a clamped
// 0-100 percentage.
func decodeBattery(payload []byte) (uint8, error) {
	if len(payload) < 2 {
		return 0, fmt.Errorf("probes: battery payload too short: %d bytes", len(payload))
	}
	pct := int(binary.LittleEndian.Uint16(payload[0:2])) * 10
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return uint8(pct), nil
}

// convert maps a Celsius reading into the configured display unit.
func convert(celsius float64, u unit.TempUnit) float64 {
	return unit.FromCelsius(celsius, u)
}
