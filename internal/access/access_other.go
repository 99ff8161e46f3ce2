//go:build !darwin && !linux && !windows

package access

import "runtime"

func check() error {
	return denied("global hotkeys are not supported on " + runtime.GOOS)
}
