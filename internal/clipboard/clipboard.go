// Package clipboard observes the system clipboard and feeds new payloads
// into the history.
//
// A Board abstracts one clipboard. The Watcher polls the Board's change
// token on a fixed interval and reads the clipboard only when the token
// moves, so an idle clipboard costs one cheap call per tick.
package clipboard

import (
	"bytes"
	"errors"
	"unicode"
	"unicode/utf8"

	"github.com/yiblet/clipper/internal/store"
)

// ErrUnsupported is returned by Board.Read when the clipboard holds nothing
// clipper retains: no text or PNG, or text that is empty or whitespace only.
var ErrUnsupported = errors.New("unsupported clipboard content")

// Payload is one clipboard value.
type Payload struct {
	Kind store.Kind
	Data []byte

	// Source is a best-effort label of the application that owns the
	// clipboard. Empty when unknown.
	Source string
}

// Board is a readable and writable clipboard.
type Board interface {
	// Name returns a human-readable name for the board.
	Name() string

	// ChangeToken returns a value that differs whenever the clipboard
	// content may have changed since the previous call.
	ChangeToken() (uint64, error)

	// Read returns the current clipboard payload, or ErrUnsupported.
	Read() (Payload, error)

	// Write replaces the clipboard content with p.
	Write(p Payload) error
}

// pngMagic is the 8-byte PNG file signature.
var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// IsPNG reports whether data starts with the PNG signature.
func IsPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngMagic)
}

// Classify picks the payload to retain from what a clipboard offers. An
// image wins over text when both are present. Text must be valid UTF-8 and
// contain a non-space character.
func Classify(text, image []byte) (Payload, error) {
	if len(image) > 0 && IsPNG(image) {
		return Payload{Kind: store.KindImage, Data: image}, nil
	}
	if len(text) == 0 || !utf8.Valid(text) {
		return Payload{}, ErrUnsupported
	}
	if len(bytes.TrimFunc(text, unicode.IsSpace)) == 0 {
		return Payload{}, ErrUnsupported
	}
	return Payload{Kind: store.KindText, Data: text}, nil
}
