//go:build !darwin && !linux && !windows

// Package systap registers global hotkeys with the operating system.
// This platform has no global hotkey support.
package systap

import (
	"fmt"
	"runtime"

	"github.com/yiblet/clipper/internal/hotkey"
)

// Tap implements hotkey.Tap.
type Tap struct{}

// New returns the system Tap.
func New() Tap {
	return Tap{}
}

// Register always fails on this platform.
func (Tap) Register(c hotkey.Combo, _ func()) (hotkey.Binding, error) {
	return nil, fmt.Errorf("global hotkeys are not supported on %s", runtime.GOOS)
}
