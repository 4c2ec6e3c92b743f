package configuration

import (
	"fmt"

	"github.com/yuri-rage/pit-ninja/internal/ui"
)

// Validate checks CurrentConfig for structural problems that cannot be
// silently clamped (missing set point, unknown unit). Out-of-range
// numeric values are not rejected: lid.lidOpenDuration (minimum 30s) and
// fan.activeFloor ([0,99]) are clamped here with a logged warning. Other
// numeric values are not range-checked here; pitcontrol.New takes them as
// loaded, and only the Pit Controller's runtime setters clamp them.
func Validate() error {
	if CurrentConfig.SetPoint <= 0 {
		return fmt.Errorf("setPoint must be > 0, got %f", CurrentConfig.SetPoint)
	}

	switch CurrentConfig.Units {
	case "F", "C":
	default:
		return fmt.Errorf("units must be \"F\" or \"C\", got %q", CurrentConfig.Units)
	}

	if CurrentConfig.Lid.LidOpenDuration.Seconds() < 30 {
		ui.Warning(
			"lid.lidOpenDuration %s is below the 30s minimum auto-resume window, clamping",
			CurrentConfig.Lid.LidOpenDuration,
		)
		CurrentConfig.Lid.LidOpenDuration = minLidOpenDuration
	}

	if CurrentConfig.Fan.ActiveFloor < 0 || CurrentConfig.Fan.ActiveFloor > 99 {
		ui.Warning("fan.activeFloor %d out of range [0,99], clamping", CurrentConfig.Fan.ActiveFloor)
		CurrentConfig.Fan.ActiveFloor = clampInt(CurrentConfig.Fan.ActiveFloor, 0, 99)
	}

	return nil
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
