package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yuri-rage/pit-ninja/internal/pitcontrol"
)

func TestSink_LatestIsNilBeforeFirstUpdate(t *testing.T) {
	s := NewSink()
	assert.Nil(t, s.Latest())
}

func TestSink_UpdateStoresLatest(t *testing.T) {
	s := NewSink()
	snap := pitcontrol.StatusSnapshot{SetPoint: 225, Mode: pitcontrol.Normal}

	s.Update(snap)

	latest := s.Latest()
	assert.NotNil(t, latest)
	assert.Equal(t, 225.0, latest.SetPoint)
	assert.Equal(t, pitcontrol.Normal, latest.Mode)
}

func TestSink_UpdateOverwritesPreviousSnapshot(t *testing.T) {
	s := NewSink()
	s.Update(pitcontrol.StatusSnapshot{SetPoint: 225})
	s.Update(pitcontrol.StatusSnapshot{SetPoint: 250})

	assert.Equal(t, 250.0, s.Latest().SetPoint)
}
