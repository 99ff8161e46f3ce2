//go:build darwin

package inject

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa -framework ApplicationServices
// #import <Cocoa/Cocoa.h>
// #import <ApplicationServices/ApplicationServices.h>
//
// // kVK_ANSI_V
// static const CGKeyCode clipper_key_v = 9;
//
// int clipper_post_paste() {
//     CGEventSourceRef src = CGEventSourceCreate(kCGEventSourceStateCombinedSessionState);
//     CGEventRef down = CGEventCreateKeyboardEvent(src, clipper_key_v, true);
//     CGEventRef up = CGEventCreateKeyboardEvent(src, clipper_key_v, false);
//     if (down == NULL || up == NULL) {
//         if (down) CFRelease(down);
//         if (up) CFRelease(up);
//         if (src) CFRelease(src);
//         return -1;
//     }
//     CGEventSetFlags(down, kCGEventFlagMaskCommand);
//     CGEventSetFlags(up, kCGEventFlagMaskCommand);
//     CGEventPost(kCGHIDEventTap, down);
//     CGEventPost(kCGHIDEventTap, up);
//     CFRelease(down);
//     CFRelease(up);
//     if (src) CFRelease(src);
//     return 0;
// }
//
// int clipper_frontmost_pid() {
//     NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
//     if (app == nil) return -1;
//     return (int)app.processIdentifier;
// }
//
// int clipper_activate_pid(int pid) {
//     NSRunningApplication *app = [NSRunningApplication runningApplicationWithProcessIdentifier:pid];
//     if (app == nil) return -1;
//     return [app activateWithOptions:NSApplicationActivateIgnoringOtherApps] ? 0 : -1;
// }
import "C"

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

type cgKeystroker struct{}

// SystemKeystroker posts Cmd+V through Quartz event services.
func SystemKeystroker() Keystroker {
	return cgKeystroker{}
}

func (cgKeystroker) Paste(context.Context) error {
	if C.clipper_post_paste() != 0 {
		return errors.New("failed to create keyboard events")
	}
	return nil
}

type appFocus struct {
	mu  sync.Mutex
	pid C.int
}

// SystemFocus tracks the frontmost application by process id.
func SystemFocus() Focus {
	return &appFocus{pid: -1}
}

func (f *appFocus) Remember() error {
	pid := C.clipper_frontmost_pid()
	if pid < 0 {
		return errors.New("no frontmost application")
	}
	// Never hand focus back to ourselves.
	if int(pid) == os.Getpid() {
		return nil
	}
	f.mu.Lock()
	f.pid = pid
	f.mu.Unlock()
	return nil
}

func (f *appFocus) Restore(context.Context) error {
	f.mu.Lock()
	pid := f.pid
	f.mu.Unlock()
	if pid < 0 {
		return nil
	}
	if C.clipper_activate_pid(pid) != 0 {
		return fmt.Errorf("failed to activate process %d", int(pid))
	}
	return nil
}
