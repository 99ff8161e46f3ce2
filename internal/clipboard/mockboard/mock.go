// Package mockboard provides an in-memory clipboard for tests and the demo.
package mockboard

import (
	"sync"

	"github.com/yiblet/clipper/internal/clipboard"
	"github.com/yiblet/clipper/internal/store"
)

// MockBoard implements clipboard.Board in memory. Every content change
// bumps the change token, the way a system pasteboard's change count does.
type MockBoard struct {
	mu sync.Mutex

	text   []byte
	image  []byte
	source string
	token  uint64

	readErr  error
	writeErr error
	writes   []clipboard.Payload
}

var _ clipboard.Board = (*MockBoard)(nil)

// New creates an empty MockBoard.
func New() *MockBoard {
	return &MockBoard{}
}

// Name implements clipboard.Board.
func (m *MockBoard) Name() string {
	return "mock"
}

// ChangeToken implements clipboard.Board.
func (m *MockBoard) ChangeToken() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

// Read implements clipboard.Board.
func (m *MockBoard) Read() (clipboard.Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readErr != nil {
		return clipboard.Payload{}, m.readErr
	}
	p, err := clipboard.Classify(m.text, m.image)
	if err != nil {
		return clipboard.Payload{}, err
	}
	p.Data = append([]byte(nil), p.Data...)
	p.Source = m.source
	return p, nil
}

// Write implements clipboard.Board.
func (m *MockBoard) Write(p clipboard.Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}
	data := append([]byte(nil), p.Data...)
	m.writes = append(m.writes, clipboard.Payload{Kind: p.Kind, Data: data, Source: p.Source})
	switch p.Kind {
	case store.KindImage:
		m.text, m.image = nil, data
	default:
		m.text, m.image = data, nil
	}
	m.source = ""
	m.token++
	return nil
}

// SetText replaces the clipboard with text, as if copied from source.
func (m *MockBoard) SetText(text, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text, m.image, m.source = []byte(text), nil, source
	m.token++
}

// SetImage replaces the clipboard with PNG bytes.
func (m *MockBoard) SetImage(png []byte, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text, m.image, m.source = nil, append([]byte(nil), png...), source
	m.token++
}

// SetBoth places text and an image on the clipboard at once.
func (m *MockBoard) SetBoth(text string, png []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text, m.image, m.source = []byte(text), append([]byte(nil), png...), ""
	m.token++
}

// Clear empties the clipboard.
func (m *MockBoard) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text, m.image, m.source = nil, nil, ""
	m.token++
}

// SetReadError makes subsequent reads fail with err (nil restores reads).
func (m *MockBoard) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetWriteError makes subsequent writes fail with err (nil restores writes).
func (m *MockBoard) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Writes returns every payload written so far.
func (m *MockBoard) Writes() []clipboard.Payload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]clipboard.Payload(nil), m.writes...)
}
