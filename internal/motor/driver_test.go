package motor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeBus struct {
	writes  [][]byte
	failN   int
	writeFn func(reg uint8, data []byte)
}

func (b *fakeBus) WriteReg(addr uint8, reg uint8, data []byte) error {
	if b.failN > 0 {
		b.failN--
		return errors.New("bus busy")
	}
	b.writes = append(b.writes, data)
	if b.writeFn != nil {
		b.writeFn(reg, data)
	}
	return nil
}

func TestSetFan_NotInitializedRetriesThenFails(t *testing.T) {
	bus := &fakeBus{}
	d := NewPCA9685Driver(bus, 0x40)

	err := d.SetFan(50, false)
	assert.Error(t, err)
	assert.Len(t, bus.writes, 0)
}

func TestSetFan_ZeroIsLiteralStop(t *testing.T) {
	bus := &fakeBus{}
	d := NewPCA9685Driver(bus, 0x40)
	assert.NoError(t, d.Init())

	err := d.SetFan(0, false)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x10}, bus.writes[len(bus.writes)-1])
}

func TestSetFan_RetriesOnTransientBusError(t *testing.T) {
	bus := &fakeBus{}
	d := NewPCA9685Driver(bus, 0x40)
	assert.NoError(t, d.Init())

	bus.failN = 2
	err := d.SetFan(100, false)
	assert.NoError(t, err)
}

func TestSetDamper_MapsToPulseWidthRange(t *testing.T) {
	assert.Equal(t, 500, servoPulseUs(0))
	assert.Equal(t, 2500, servoPulseUs(100))
	assert.Equal(t, 1500, servoPulseUs(50))
}

func TestSetFan_Reversed(t *testing.T) {
	bus := &fakeBus{}
	d := NewPCA9685Driver(bus, 0x40)
	assert.NoError(t, d.Init())

	assert.NoError(t, d.SetFan(30, true))
	onT, offT := dutyToTicks(70)
	assert.Equal(t, []byte{byte(onT), byte(onT >> 8), byte(offT), byte(offT >> 8)}, bus.writes[len(bus.writes)-1])
}
