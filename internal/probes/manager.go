package probes

import (
	"context"
	"strings"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/yuri-rage/pit-ninja/internal/ui"
	"github.com/yuri-rage/pit-ninja/internal/unit"
)

// maxConnectionFailures is the supervisory tick's restart threshold: once
// more than this many connect attempts have failed since the last restart,
// the next supervisory tick cancels every connection attempt that has not
// reached Streaming (see disconnectPending). The adapter is not re-acquired
// and its scan is not stopped or restarted.
const maxConnectionFailures = 10

// supervisoryTickPeriod is how often the supervisory tick checks for a
// pending restart. Discovered devices are not swept on this tick; each is
// checked for eligibility as it arrives from the scan.
const supervisoryTickPeriod = 1 * time.Second

// ProbeManager discovers eligible probes, maintains one connection per
// probe, and publishes normalized readings on a single event channel.
type ProbeManager struct {
	client adapterClient
	unit   unit.TempUnit
	events chan ProbeEvent

	blacklist cmap.ConcurrentMap[string, struct{}]
	connected cmap.ConcurrentMap[string, context.CancelFunc]
	seen      cmap.ConcurrentMap[string, struct{}]
	streaming cmap.ConcurrentMap[string, struct{}] // MACs that have emitted Connect and are still live

	discovered chan string

	mu               sync.Mutex // guards failureCount and restartRequested
	failureCount     int
	restartRequested bool
}

// New builds a ProbeManager bound to the default BLE adapter. blacklist is
// the initial set of MACs to skip (persisted state, restored at startup).
func New(u unit.TempUnit, blacklist []string) *ProbeManager {
	return newWithClient(newTinygoAdapterClient(), u, blacklist)
}

func newWithClient(client adapterClient, u unit.TempUnit, blacklist []string) *ProbeManager {
	m := &ProbeManager{
		client:     client,
		unit:       u,
		events:     make(chan ProbeEvent, 32),
		blacklist:  cmap.New[struct{}](),
		connected:  cmap.New[context.CancelFunc](),
		seen:       cmap.New[struct{}](),
		streaming:  cmap.New[struct{}](),
		discovered: make(chan string, 32),
	}
	for _, mac := range blacklist {
		m.blacklist.Set(normalizeMAC(mac), struct{}{})
	}
	return m
}

// Events returns the channel ProbeEvents (Connect/ConnectFailed/Update/
// Disconnect) are published on.
func (m *ProbeManager) Events() <-chan ProbeEvent { return m.events }

// Blacklist excludes mac from future discovery passes. Already-connected
// probes are not forcibly disconnected; they simply won't reconnect.
func (m *ProbeManager) Blacklist(mac string) {
	m.blacklist.Set(normalizeMAC(mac), struct{}{})
}

// Whitelist removes mac from the blacklist.
func (m *ProbeManager) Whitelist(mac string) {
	m.blacklist.Remove(normalizeMAC(mac))
}

// Restart requests a restart on the next supervisory tick: connection
// attempts that have not reached Streaming are dropped so those MACs are
// tried afresh, while streaming probes keep running and the adapter's scan
// is left enabled. Callable from any goroutine.
func (m *ProbeManager) Restart() {
	m.mu.Lock()
	m.restartRequested = true
	m.mu.Unlock()
}

// IsBlacklisted reports whether mac is currently excluded.
func (m *ProbeManager) IsBlacklisted(mac string) bool {
	return m.blacklist.Has(normalizeMAC(mac))
}

func normalizeMAC(mac string) string {
	return strings.ToUpper(mac)
}

// eligible reports whether mac should be connected to: vendor OUI match
// and not blacklisted.
func (m *ProbeManager) eligible(mac string) bool {
	mac = normalizeMAC(mac)
	if !strings.HasPrefix(mac, vendorOUI) {
		return false
	}
	return !m.blacklist.Has(mac)
}

// Run drives discovery and the supervisory tick until ctx is canceled.
// Intended for an oklog/run.Group alongside the Pit Controller.
func (m *ProbeManager) Run(ctx context.Context) error {
	if err := m.client.Enable(); err != nil {
		return err
	}

	scanCtx, cancelScan := context.WithCancel(ctx)
	defer cancelScan()
	go func() {
		_ = m.client.Scan(scanCtx, func(d discoveredDevice) {
			select {
			case m.discovered <- d.MAC:
			default:
				ui.Debug("probes: discovery backlog full, dropping %s", d.MAC)
			}
		})
	}()

	ticker := time.NewTicker(supervisoryTickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.stopAll()
			return ctx.Err()
		case mac := <-m.discovered:
			m.handleDiscovered(ctx, mac)
		case <-ticker.C:
			m.supervisoryTick(ctx)
		}
	}
}

func (m *ProbeManager) handleDiscovered(ctx context.Context, mac string) {
	mac = normalizeMAC(mac)
	if m.seen.Has(mac) || !m.eligible(mac) {
		return
	}
	m.seen.Set(mac, struct{}{})
	m.connect(ctx, mac)
}

func (m *ProbeManager) connect(ctx context.Context, mac string) {
	if m.connected.Has(mac) {
		return
	}
	probeCtx, cancel := context.WithCancel(ctx)
	m.connected.Set(mac, cancel)

	relay := make(chan ProbeEvent)
	go m.relayEvents(relay)

	go func() {
		defer func() {
			close(relay)
			m.connected.Remove(mac)
			m.seen.Remove(mac)
			m.streaming.Remove(mac)
		}()
		connectAndStream(probeCtx, m.client, mac, m.unit, relay)
	}()
}

// relayEvents forwards a probe's events to the manager's shared channel,
// tallying ConnectFailed events toward the restart threshold and tracking
// which MACs are actually streaming (as opposed to still connecting) on
// the way. Runs until relay is closed by the probe's own goroutine.
func (m *ProbeManager) relayEvents(relay <-chan ProbeEvent) {
	for evt := range relay {
		switch evt.Kind {
		case EventConnectFailed:
			m.mu.Lock()
			m.failureCount++
			if m.failureCount > maxConnectionFailures {
				m.restartRequested = true
				m.failureCount = 0
			}
			m.mu.Unlock()
		case EventConnect:
			m.streaming.Set(evt.MAC, struct{}{})
		case EventDisconnect:
			m.streaming.Remove(evt.MAC)
		}
		m.events <- evt
	}
}

func (m *ProbeManager) supervisoryTick(ctx context.Context) {
	m.mu.Lock()
	restart := m.restartRequested
	m.restartRequested = false
	m.mu.Unlock()

	if restart {
		ui.Warning("probes: connect failure threshold exceeded, restarting")
		m.disconnectPending()
	}
}

// disconnectPending cancels only the connection attempts that have not yet
// reached Streaming, clearing them from the dedup set so a fresh attempt is
// made on the next advertisement. Probes that already emitted Connect are
// left running: per spec, restart() "preserves the in-memory list of
// already-connected probes" and must not interrupt a live cook over an
// unrelated probe's flaky reconnects.
func (m *ProbeManager) disconnectPending() {
	for item := range m.connected.IterBuffered() {
		mac := item.Key
		if m.streaming.Has(mac) {
			continue
		}
		item.Val()
		m.connected.Remove(mac)
		m.seen.Remove(mac)
	}
}

// disconnectAll drops every tracked connection, streaming or not, and
// clears all dedup state. Only used on full shutdown.
func (m *ProbeManager) disconnectAll() {
	for item := range m.connected.IterBuffered() {
		item.Val()
	}
	m.connected.Clear()
	m.seen.Clear()
	m.streaming.Clear()
}

// stopAll is the full shutdown path: disconnect every probe and stop scanning.
func (m *ProbeManager) stopAll() {
	m.disconnectAll()
	_ = m.client.StopScan()
}
