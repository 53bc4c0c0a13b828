// Package autopilot gates which automated optimization actions may run
// unattended. The gatekeeper is a small per-tenant state machine driven
// by the current trust band, with an operator override that pins the
// mode until explicitly cleared.
package autopilot

import "fmt"

// Mode is the autopilot permission level.
type Mode string

const (
	ModeNormal   Mode = "normal"
	ModeLimited  Mode = "limited"
	ModeCutsOnly Mode = "cuts_only"
	ModeFrozen   Mode = "frozen"
)

// Modes returns all valid modes.
func Modes() []Mode {
	return []Mode{ModeNormal, ModeLimited, ModeCutsOnly, ModeFrozen}
}

// InvalidModeError reports an override request for a mode outside the
// four-state enum. The gatekeeper state is unchanged when it is returned.
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid autopilot mode %q", e.Mode)
}

// ParseMode converts a wire-format string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNormal, ModeLimited, ModeCutsOnly, ModeFrozen:
		return Mode(s), nil
	}
	return "", &InvalidModeError{Mode: s}
}
