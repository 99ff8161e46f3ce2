//go:build linux

package inject

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// xdotool drives X11 input; it is the de facto tool for synthetic keys.
const xdotool = "xdotool"

type xdoKeystroker struct{}

// SystemKeystroker sends Ctrl+V through xdotool.
func SystemKeystroker() Keystroker {
	return xdoKeystroker{}
}

func (xdoKeystroker) Paste(ctx context.Context) error {
	return runXdo(ctx, "key", "--clearmodifiers", "ctrl+v")
}

type xdoFocus struct {
	mu     sync.Mutex
	window string
}

// SystemFocus tracks the active X11 window id.
func SystemFocus() Focus {
	return &xdoFocus{}
}

func (f *xdoFocus) Remember() error {
	out, err := outputXdo(context.Background(), "getactivewindow")
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.window = strings.TrimSpace(out)
	f.mu.Unlock()
	return nil
}

func (f *xdoFocus) Restore(ctx context.Context) error {
	f.mu.Lock()
	window := f.window
	f.mu.Unlock()
	if window == "" {
		return nil
	}
	return runXdo(ctx, "windowactivate", "--sync", window)
}

func runXdo(ctx context.Context, args ...string) error {
	_, err := outputXdo(ctx, args...)
	return err
}

func outputXdo(ctx context.Context, args ...string) (string, error) {
	path, err := exec.LookPath(xdotool)
	if err != nil {
		return "", fmt.Errorf("xdotool not found in PATH: %w", err)
	}
	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("xdotool %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
