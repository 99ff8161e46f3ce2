//go:build linux

package access

import "os"

func check() error {
	return checkX11(os.Getenv)
}
