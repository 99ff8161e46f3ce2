package mockboard

import (
	"errors"
	"testing"

	"github.com/yiblet/clipper/internal/clipboard"
	"github.com/yiblet/clipper/internal/store"
)

func TestMockBoard_TokenMovesOnChange(t *testing.T) {
	m := New()
	t0, _ := m.ChangeToken()

	m.SetText("hello", "Editor")
	t1, _ := m.ChangeToken()
	if t1 == t0 {
		t.Fatal("token did not move after SetText")
	}

	p, err := m.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if p.Kind != store.KindText || string(p.Data) != "hello" || p.Source != "Editor" {
		t.Errorf("unexpected payload: %+v", p)
	}

	if t2, _ := m.ChangeToken(); t2 != t1 {
		t.Error("token moved without a change")
	}
}

func TestMockBoard_WriteRecords(t *testing.T) {
	m := New()
	png := []byte("\x89PNG\r\n\x1a\nrest")

	if err := m.Write(clipboard.Payload{Kind: store.KindImage, Data: png}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	p, err := m.Read()
	if err != nil || p.Kind != store.KindImage {
		t.Fatalf("Read() = %+v, %v; want image", p, err)
	}
	if len(m.Writes()) != 1 {
		t.Errorf("Writes() = %d, want 1", len(m.Writes()))
	}
}

func TestMockBoard_Errors(t *testing.T) {
	m := New()
	boom := errors.New("boom")

	m.SetReadError(boom)
	if _, err := m.Read(); !errors.Is(err, boom) {
		t.Errorf("Read() error = %v, want boom", err)
	}
	m.SetWriteError(boom)
	if err := m.Write(clipboard.Payload{Kind: store.KindText, Data: []byte("x")}); !errors.Is(err, boom) {
		t.Errorf("Write() error = %v, want boom", err)
	}

	m.SetReadError(nil)
	m.Clear()
	if _, err := m.Read(); !errors.Is(err, clipboard.ErrUnsupported) {
		t.Errorf("Read() on empty board error = %v, want ErrUnsupported", err)
	}
}
