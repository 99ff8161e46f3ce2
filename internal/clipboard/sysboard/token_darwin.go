//go:build darwin

package sysboard

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
//
// NSInteger clipper_change_count() {
//     return [[NSPasteboard generalPasteboard] changeCount];
// }
//
// const char* clipper_frontmost_app() {
//     NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
//     if (app == nil || app.localizedName == nil) {
//         return NULL;
//     }
//     return [app.localizedName UTF8String];
// }
import "C"

const platformName = "macOS NSPasteboard"

// changeCounter reads NSPasteboard.changeCount directly.
type changeCounter struct{}

func (changeCounter) token() uint64 {
	return uint64(C.clipper_change_count())
}

// frontmostApp returns the name of the active application.
func frontmostApp() string {
	name := C.clipper_frontmost_app()
	if name == nil {
		return ""
	}
	return C.GoString(name)
}
