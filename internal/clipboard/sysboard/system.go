// Package sysboard implements clipboard.Board over the operating system
// clipboard using golang.design/x/clipboard. On macOS the change token is
// the pasteboard change count; elsewhere it is derived from a fingerprint
// of the clipboard content.
package sysboard

import (
	"fmt"

	"golang.design/x/clipboard"

	clip "github.com/yiblet/clipper/internal/clipboard"
	"github.com/yiblet/clipper/internal/store"
)

// SystemBoard implements clipboard.Board for the OS clipboard
type SystemBoard struct {
	changes changeCounter
}

var _ clip.Board = (*SystemBoard)(nil)

// New initializes the OS clipboard. It fails on systems without a usable
// clipboard (for example Linux without a display server).
func New() (*SystemBoard, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
	}
	return &SystemBoard{}, nil
}

// Name implements clipboard.Board.
func (s *SystemBoard) Name() string {
	return platformName
}

// ChangeToken implements clipboard.Board.
func (s *SystemBoard) ChangeToken() (uint64, error) {
	return s.changes.token(), nil
}

// Read implements clipboard.Board.
func (s *SystemBoard) Read() (clip.Payload, error) {
	text := clipboard.Read(clipboard.FmtText)
	img := clipboard.Read(clipboard.FmtImage)

	p, err := clip.Classify(text, img)
	if err != nil {
		return clip.Payload{}, err
	}
	p.Source = frontmostApp()
	return p, nil
}

// Write implements clipboard.Board.
func (s *SystemBoard) Write(p clip.Payload) error {
	switch p.Kind {
	case store.KindText:
		clipboard.Write(clipboard.FmtText, p.Data)
	case store.KindImage:
		clipboard.Write(clipboard.FmtImage, p.Data)
	default:
		return fmt.Errorf("unsupported payload kind: %s", p.Kind)
	}
	return nil
}
