// Package access probes whether clipper may observe global keys and
// synthesize input on this system.
package access

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied is returned when the OS withholds the accessibility
// (or equivalent) permission needed for hotkeys and paste injection.
var ErrPermissionDenied = errors.New("accessibility permission denied")

// Checker reports the current permission state. A nil error means granted;
// a denial wraps ErrPermissionDenied with a user-facing reason.
type Checker interface {
	Check() error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func() error

// Check calls f.
func (f CheckerFunc) Check() error {
	return f()
}

// Granted returns a Checker that always grants.
func Granted() Checker {
	return CheckerFunc(func() error { return nil })
}

// Denied returns a Checker that always denies with reason.
func Denied(reason string) Checker {
	return CheckerFunc(func() error { return denied(reason) })
}

// System returns the Checker for the running platform.
func System() Checker {
	return CheckerFunc(check)
}

func denied(reason string) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, reason)
}

// checkX11 requires an X11 display. Wayland sessions without XWayland do
// not expose global key grabs to ordinary clients.
func checkX11(getenv func(string) string) error {
	if getenv("DISPLAY") != "" {
		return nil
	}
	if getenv("WAYLAND_DISPLAY") != "" {
		return denied("global hotkeys need an X11 display; run under XWayland")
	}
	return denied("no display server (DISPLAY is unset)")
}
