package configuration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func resetConfig() {
	CurrentConfig = Configuration{
		Units:    "F",
		SetPoint: 225,
		Lid:      LidConfig{LidOpenDuration: 90 * time.Second},
		Fan:      FanConfig{ActiveFloor: 10},
	}
}

func TestValidate_RejectsMissingSetPoint(t *testing.T) {
	resetConfig()
	CurrentConfig.SetPoint = 0
	assert.Error(t, Validate())
}

func TestValidate_RejectsUnknownUnit(t *testing.T) {
	resetConfig()
	CurrentConfig.Units = "K"
	assert.Error(t, Validate())
}

func TestValidate_ClampsLidOpenDuration(t *testing.T) {
	resetConfig()
	CurrentConfig.Lid.LidOpenDuration = 5 * time.Second
	assert.NoError(t, Validate())
	assert.Equal(t, minLidOpenDuration, CurrentConfig.Lid.LidOpenDuration)
}

func TestValidate_ClampsActiveFloor(t *testing.T) {
	resetConfig()
	CurrentConfig.Fan.ActiveFloor = 150
	assert.NoError(t, Validate())
	assert.Equal(t, 99, CurrentConfig.Fan.ActiveFloor)
}
