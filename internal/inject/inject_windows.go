//go:build windows

package inject

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sys/windows"
)

const (
	vkControl      = 0x11
	vkV            = 0x56
	keyeventfKeyUp = 0x0002
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procKeybdEvent          = user32.NewProc("keybd_event")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
)

type winKeystroker struct{}

// SystemKeystroker sends Ctrl+V with keybd_event.
func SystemKeystroker() Keystroker {
	return winKeystroker{}
}

func (winKeystroker) Paste(context.Context) error {
	if err := procKeybdEvent.Find(); err != nil {
		return err
	}
	steps := []struct {
		vk    uintptr
		flags uintptr
	}{
		{vkControl, 0},
		{vkV, 0},
		{vkV, keyeventfKeyUp},
		{vkControl, keyeventfKeyUp},
	}
	for _, s := range steps {
		procKeybdEvent.Call(s.vk, 0, s.flags, 0)
		time.Sleep(time.Millisecond)
	}
	return nil
}

type winFocus struct {
	mu   sync.Mutex
	hwnd windows.HWND
}

// SystemFocus tracks the foreground window handle.
func SystemFocus() Focus {
	return &winFocus{}
}

func (f *winFocus) Remember() error {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return errors.New("no foreground window")
	}
	f.mu.Lock()
	f.hwnd = hwnd
	f.mu.Unlock()
	return nil
}

func (f *winFocus) Restore(context.Context) error {
	f.mu.Lock()
	hwnd := f.hwnd
	f.mu.Unlock()
	if hwnd == 0 {
		return nil
	}
	if r, _, err := procSetForegroundWindow.Call(uintptr(hwnd)); r == 0 {
		return err
	}
	return nil
}
