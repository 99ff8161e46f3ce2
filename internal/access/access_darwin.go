//go:build darwin

package access

// #cgo LDFLAGS: -framework ApplicationServices
// #include <ApplicationServices/ApplicationServices.h>
import "C"

func check() error {
	if C.AXIsProcessTrusted() != 0 {
		return nil
	}
	return denied("grant clipper Accessibility access in System Settings > Privacy & Security")
}
