//go:build !darwin && !linux && !windows

package inject

import (
	"context"
	"fmt"
	"runtime"
)

type unsupported struct{}

// SystemKeystroker has no implementation on this platform.
func SystemKeystroker() Keystroker {
	return unsupported{}
}

// SystemFocus has no implementation on this platform.
func SystemFocus() Focus {
	return unsupported{}
}

func (unsupported) Paste(context.Context) error {
	return fmt.Errorf("synthetic input is not supported on %s", runtime.GOOS)
}

func (unsupported) Remember() error { return nil }

func (unsupported) Restore(context.Context) error { return nil }
