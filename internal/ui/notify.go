package ui

import (
	"os"
	"os/exec"
	"strings"
)

const (
	iconDialogWarn = "dialog-warning"

	urgencyNormal = "normal"
)

// NotifyWarn sends a desktop notification for the given title/text, best
// effort. Used by the lid-open hook; failures are logged, never fatal.
func NotifyWarn(title, text string) {
	notifySend(urgencyNormal, title, text, iconDialogWarn)
}

func notifySend(urgency, title, text, icon string) {
	display, exists := os.LookupEnv("DISPLAY")
	if !exists {
		Debug("Cannot send notification, missing env variable 'DISPLAY'")
		return
	}

	cmd := exec.Command("who")
	output, err := cmd.Output()
	if err != nil {
		Debug("Cannot send notification, unable to find user of display session: %v", err)
		return
	}
	var user string
	for _, line := range strings.Split(string(output), "\n") {
		if strings.Contains(line, display) {
			fields := strings.Fields(line)
			if len(fields) > 0 {
				user = fields[0]
			}
			break
		}
	}
	if len(user) == 0 {
		Debug("Cannot send notification, unable to detect user of current display session")
		return
	}

	cmd = exec.Command("id", "-u", user)
	output, err = cmd.Output()
	if err != nil {
		Debug("Cannot send notification, unable to detect user id: %v", err)
		return
	}
	userId := strings.TrimSpace(string(output))
	if len(userId) == 0 {
		return
	}

	cmd = exec.Command("sudo", "-u", user,
		"DISPLAY="+display,
		"DBUS_SESSION_BUS_ADDRESS=unix:path=/run/user/"+userId+"/bus",
		"notify-send",
		"-a", "pitmasterd",
		"-u", urgency,
		"-i", icon,
		title, text,
	)
	if err := cmd.Run(); err != nil {
		Debug("Error sending notification: %v", err)
	}
}
