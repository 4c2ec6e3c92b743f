package probes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yuri-rage/pit-ninja/internal/unit"
)

func newTestManager() *ProbeManager {
	return newWithClient(&fakeAdapterClient{}, unit.Fahrenheit, nil)
}

func TestEligible_RequiresVendorOUI(t *testing.T) {
	m := newTestManager()

	assert.True(t, m.eligible("B8:1F:5E:01:02:03"))
	assert.False(t, m.eligible("00:11:22:33:44:55"))
}

func TestEligible_ExcludesBlacklisted(t *testing.T) {
	m := newTestManager()
	m.Blacklist("b8:1f:5e:01:02:03")

	assert.False(t, m.eligible("B8:1F:5E:01:02:03"))
}

func TestBlacklistThenWhitelist_LeavesMembershipUnchanged(t *testing.T) {
	m := newTestManager()
	mac := "B8:1F:5E:01:02:03"

	before := m.IsBlacklisted(mac)
	m.Blacklist(mac)
	m.Whitelist(mac)
	after := m.IsBlacklisted(mac)

	assert.Equal(t, before, after)
	assert.False(t, after)
}

func TestNew_SeedsInitialBlacklist(t *testing.T) {
	m := newWithClient(&fakeAdapterClient{}, unit.Fahrenheit, []string{"aa:bb:cc:dd:ee:ff"})

	assert.True(t, m.IsBlacklisted("AA:BB:CC:DD:EE:FF"))
}

func TestRelayEvents_CountsFailuresTowardRestartThreshold(t *testing.T) {
	m := newTestManager()
	relay := make(chan ProbeEvent, maxConnectionFailures+2)
	for i := 0; i < maxConnectionFailures+1; i++ {
		relay <- ProbeEvent{Kind: EventConnectFailed}
	}
	close(relay)

	m.relayEvents(relay)

	m.mu.Lock()
	restart := m.restartRequested
	m.mu.Unlock()
	assert.True(t, restart)

	for i := 0; i < maxConnectionFailures+1; i++ {
		<-m.events
	}
}

func TestRestart_SetsRestartRequested(t *testing.T) {
	m := newTestManager()

	m.Restart()

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.True(t, m.restartRequested)
}

func TestDisconnectPending_PreservesStreamingProbes(t *testing.T) {
	// GIVEN one probe that is fully streaming and another still mid-connect
	m := newTestManager()
	streamingMAC := "B8:1F:5E:01:02:03"
	pendingMAC := "B8:1F:5E:04:05:06"

	streamingCanceled := false
	m.connected.Set(streamingMAC, func() { streamingCanceled = true })
	m.streaming.Set(streamingMAC, struct{}{})
	m.seen.Set(streamingMAC, struct{}{})

	pendingCanceled := false
	m.connected.Set(pendingMAC, func() { pendingCanceled = true })
	m.seen.Set(pendingMAC, struct{}{})

	// WHEN the restart-on-failure path runs
	m.disconnectPending()

	// THEN only the not-yet-streaming probe is torn down
	assert.False(t, streamingCanceled)
	assert.True(t, pendingCanceled)
	assert.True(t, m.connected.Has(streamingMAC))
	assert.False(t, m.connected.Has(pendingMAC))
	assert.True(t, m.seen.Has(streamingMAC))
	assert.False(t, m.seen.Has(pendingMAC))
}
