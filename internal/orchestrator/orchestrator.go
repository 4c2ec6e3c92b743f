// Package orchestrator wires the Probe Manager, Pit Controller, motor
// driver, and display sink into a single run.Group-supervised process,
// mirroring fan2go's RunDaemon: sensors/fans/statistics/signal actors
// registered on one group, torn down together on the first exit.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yuri-rage/pit-ninja/internal/configuration"
	"github.com/yuri-rage/pit-ninja/internal/display"
	"github.com/yuri-rage/pit-ninja/internal/motor"
	"github.com/yuri-rage/pit-ninja/internal/persistence"
	"github.com/yuri-rage/pit-ninja/internal/pitcontrol"
	"github.com/yuri-rage/pit-ninja/internal/probes"
	"github.com/yuri-rage/pit-ninja/internal/statistics"
	"github.com/yuri-rage/pit-ninja/internal/ui"
	"github.com/yuri-rage/pit-ninja/internal/unit"
)

// shutdownDrainTimeout bounds how long the forced fan=0 write is allowed to
// block while the process is already exiting.
const shutdownDrainTimeout = 2 * time.Second

// Orchestrator owns every long-running collaborator and the glue
// goroutines connecting them. It holds no control-loop state of its own.
type Orchestrator struct {
	cfg    *configuration.Configuration
	pers   persistence.Persistence
	driver motor.Driver

	probeManager *probes.ProbeManager
	pitControl   *pitcontrol.PitController
	sink         *display.Sink

	batteryMu  sync.Mutex
	batteryPct map[string]uint8
}

// New assembles the orchestrator's collaborators from cfg but does not
// start anything; call Run to bring the system up.
func New(cfg *configuration.Configuration, driver motor.Driver) (*Orchestrator, error) {
	u, err := unit.Parse(cfg.Units)
	if err != nil {
		ui.Warning("orchestrator: unrecognized unit %q, defaulting to Fahrenheit", cfg.Units)
		u = unit.Fahrenheit
	}

	pers := persistence.New(cfg.DbPath)
	if err := pers.Init(); err != nil {
		return nil, fmt.Errorf("orchestrator: persistence init failed: %w", err)
	}

	blacklist := cfg.Probes.Blacklist
	if saved, err := pers.LoadBlacklist(); err != nil {
		ui.Warning("orchestrator: could not load saved blacklist: %v", err)
	} else if len(saved) > 0 {
		blacklist = saved
	}

	if savedSetPoint, found, err := pers.LoadSetPoint(); err != nil {
		ui.Warning("orchestrator: could not load saved set point: %v", err)
	} else if found {
		cfg.SetPoint = savedSetPoint
	}

	return &Orchestrator{
		cfg:          cfg,
		pers:         pers,
		driver:       driver,
		probeManager: probes.New(u, blacklist),
		pitControl:   pitcontrol.New(cfg),
		sink:         display.NewSink(),
		batteryPct:   make(map[string]uint8),
	}, nil
}

// ProbeManager exposes the underlying manager.
func (o *Orchestrator) ProbeManager() *probes.ProbeManager { return o.probeManager }

// PitController exposes the underlying controller, through which commands
// (set point, mode, gains) can be pushed into its run loop.
func (o *Orchestrator) PitController() *pitcontrol.PitController { return o.pitControl }

// Run brings the full system up and blocks until ctx is canceled or a
// termination signal arrives. On exit it forces the fan off once every
// actor has returned, that is after the Probe Manager has stopped and the
// HTTP server has shut down; the fan is not forced off before that
// teardown.
func (o *Orchestrator) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g run.Group

	g.Add(func() error {
		return o.pitControl.Run(runCtx)
	}, func(err error) {
		cancel()
	})

	g.Add(func() error {
		return o.probeManager.Run(runCtx)
	}, func(err error) {
		cancel()
	})

	g.Add(func() error {
		o.pumpProbeEvents(runCtx)
		return nil
	}, func(err error) {
		cancel()
	})

	g.Add(func() error {
		o.pumpOutputs(runCtx)
		return nil
	}, func(err error) {
		cancel()
	})

	g.Add(func() error {
		o.pumpStatus(runCtx)
		return nil
	}, func(err error) {
		cancel()
	})

	statistics.Register(statistics.NewPitCollector(o.sink.Latest))
	statistics.Register(statistics.NewProbeBatteryCollector(o.latestBatteryLevels))

	if o.cfg.Http.Enabled {
		server := display.NewServer(o.sink)
		server.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
		g.Add(func() error {
			return server.Start(o.cfg.Http.ListenAddress)
		}, func(err error) {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if shutErr := server.Shutdown(shutdownCtx); shutErr != nil {
				ui.Warning("orchestrator: error stopping display server: %v", shutErr)
			}
		})
	}

	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		g.Add(func() error {
			select {
			case <-sig:
				ui.Info("orchestrator: received termination signal, shutting down")
			case <-runCtx.Done():
			}
			return nil
		}, func(err error) {
			signal.Stop(sig)
			cancel()
		})
	}

	err := g.Run()
	o.shutdownActuators()
	return err
}

// shutdownActuators forces the fan off on the way out. Best effort: the
// process is exiting regardless of whether the write succeeds.
func (o *Orchestrator) shutdownActuators() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := o.driver.SetFan(0, o.cfg.Fan.Reverse); err != nil {
			ui.Warning("orchestrator: failed to force fan off on shutdown: %v", err)
		}
	}()
	select {
	case <-done:
	case <-time.After(shutdownDrainTimeout):
		ui.Warning("orchestrator: timed out forcing fan off on shutdown")
	}
}

// pumpProbeEvents feeds every Probe Manager event into the Pit Controller
// and keeps the battery-percentage snapshot used by statistics.Register
// up to date.
func (o *Orchestrator) pumpProbeEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-o.probeManager.Events():
			switch evt.Kind {
			case probes.EventUpdate:
				o.pitControl.UpdateProbe(evt.Reading.MAC, evt.Reading.Ambient, evt.Reading.Unit, evt.Reading.Timestamp)
				o.batteryMu.Lock()
				o.batteryPct[evt.Reading.MAC] = evt.Reading.BatteryPct
				o.batteryMu.Unlock()
			case probes.EventDisconnect:
				o.pitControl.RemoveProbe(evt.MAC)
				o.batteryMu.Lock()
				delete(o.batteryPct, evt.MAC)
				o.batteryMu.Unlock()
			case probes.EventConnect:
				ui.Info("orchestrator: probe %s connected (firmware %s, index %d)", evt.MAC, evt.Info.FirmwareVersion, evt.Info.ProbeIndex)
			case probes.EventConnectFailed:
				ui.Debug("orchestrator: probe %s failed to connect: %v", evt.MAC, evt.Err)
			}
		}
	}
}

// pumpOutputs relays committed fan/servo OutputEvents onto the motor
// driver. A driver write failure is logged, never fatal: the next heavy
// tick will simply try again with a fresh target.
func (o *Orchestrator) pumpOutputs(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-o.pitControl.Outputs():
			var err error
			switch evt.Type {
			case pitcontrol.OutputFan:
				err = o.driver.SetFan(int(evt.Value), o.cfg.Fan.Reverse)
			case pitcontrol.OutputServo:
				err = o.driver.SetDamper(int(evt.Value))
			}
			if err != nil {
				ui.Warning("orchestrator: failed to commit %s output: %v", evt.Type, err)
			}
		}
	}
}

// pumpStatus relays each heavy tick's snapshot to the display sink and
// persists the set point whenever it changes, so a restart resumes the
// same cook.
func (o *Orchestrator) pumpStatus(ctx context.Context) {
	var lastPersistedSetPoint float64
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-o.pitControl.Status():
			o.sink.Update(snap)
			if snap.SetPoint != lastPersistedSetPoint {
				if err := o.pers.SaveSetPoint(snap.SetPoint); err != nil {
					ui.Warning("orchestrator: failed to persist set point: %v", err)
				}
				lastPersistedSetPoint = snap.SetPoint
			}
		}
	}
}

// latestBatteryLevels snapshots the battery percentage most recently
// reported by each connected probe, keyed by MAC.
func (o *Orchestrator) latestBatteryLevels() map[string]uint8 {
	o.batteryMu.Lock()
	defer o.batteryMu.Unlock()
	snap := make(map[string]uint8, len(o.batteryPct))
	for mac, pct := range o.batteryPct {
		snap[mac] = pct
	}
	return snap
}
