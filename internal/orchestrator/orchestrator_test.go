package orchestrator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuri-rage/pit-ninja/internal/configuration"
	"github.com/yuri-rage/pit-ninja/internal/persistence"
)

type fakeDriver struct {
	fanCalls    []int
	fanErr      error
	damperCalls []int
}

func (f *fakeDriver) SetFan(speedPct int, reversed bool) error {
	f.fanCalls = append(f.fanCalls, speedPct)
	return f.fanErr
}

func (f *fakeDriver) SetDamper(positionPct int) error {
	f.damperCalls = append(f.damperCalls, positionPct)
	return nil
}

func (f *fakeDriver) Initialized() bool { return true }

func testConfig(t *testing.T) *configuration.Configuration {
	t.Helper()
	return &configuration.Configuration{
		DbPath:   t.TempDir() + "/pitmasterd.db",
		Units:    "F",
		SetPoint: 225,
		Pid:      configuration.PidConfig{P: 2.5, I: 0.0035, D: 6.0},
		Fan:      configuration.FanConfig{MinSpeed: 20, MaxSpeed: 100, MaxStartupSpeed: 100, ActiveFloor: 10},
		Servo:    configuration.ServoConfig{MinPosition: 0, MaxPosition: 100},
		Lid:      configuration.LidConfig{LidOpenOffset: 20, LidOpenDuration: 90 * time.Second},
	}
}

func TestNew_RestoresPersistedSetPointOverConfigDefault(t *testing.T) {
	cfg := testConfig(t)

	pers := persistence.New(cfg.DbPath)
	require.NoError(t, pers.Init())
	require.NoError(t, pers.SaveSetPoint(250))

	o, err := New(cfg, &fakeDriver{})
	require.NoError(t, err)

	assert.Equal(t, 250.0, o.cfg.SetPoint)
}

func TestNew_RestoresPersistedBlacklistOverConfigDefault(t *testing.T) {
	cfg := testConfig(t)
	cfg.Probes.Blacklist = []string{"AA:AA:AA:AA:AA:AA"}

	pers := persistence.New(cfg.DbPath)
	require.NoError(t, pers.Init())
	require.NoError(t, pers.SaveBlacklist([]string{"BB:BB:BB:BB:BB:BB"}))

	o, err := New(cfg, &fakeDriver{})
	require.NoError(t, err)

	assert.True(t, o.ProbeManager().IsBlacklisted("BB:BB:BB:BB:BB:BB"))
	assert.False(t, o.ProbeManager().IsBlacklisted("AA:AA:AA:AA:AA:AA"))
}

func TestShutdownActuators_ForcesFanOff(t *testing.T) {
	cfg := testConfig(t)
	driver := &fakeDriver{}
	o, err := New(cfg, driver)
	require.NoError(t, err)

	o.shutdownActuators()

	require.Len(t, driver.fanCalls, 1)
	assert.Equal(t, 0, driver.fanCalls[0])
}

func TestShutdownActuators_LogsButDoesNotPanicOnDriverError(t *testing.T) {
	cfg := testConfig(t)
	driver := &fakeDriver{fanErr: errors.New("bus timeout")}
	o, err := New(cfg, driver)
	require.NoError(t, err)

	assert.NotPanics(t, func() { o.shutdownActuators() })
}

func TestLatestBatteryLevels_ReflectsTrackedProbes(t *testing.T) {
	cfg := testConfig(t)
	o, err := New(cfg, &fakeDriver{})
	require.NoError(t, err)

	o.batteryMu.Lock()
	o.batteryPct["AA:BB:CC:DD:EE:FF"] = 80
	o.batteryMu.Unlock()

	levels := o.latestBatteryLevels()
	assert.Equal(t, map[string]uint8{"AA:BB:CC:DD:EE:FF": 80}, levels)
}
