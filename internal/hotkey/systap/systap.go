//go:build darwin || linux || windows

// Package systap registers global hotkeys with the operating system through
// golang.design/x/hotkey. On macOS the process must run its event loop on
// the main thread (see golang.design/x/hotkey/mainthread).
package systap

import (
	"fmt"
	"sync"

	xhotkey "golang.design/x/hotkey"

	"github.com/yiblet/clipper/internal/hotkey"
)

// Tap implements hotkey.Tap.
type Tap struct{}

var _ hotkey.Tap = Tap{}

// New returns the system Tap.
func New() Tap {
	return Tap{}
}

// Register grabs c globally and calls fn on every key down.
func (Tap) Register(c hotkey.Combo, fn func()) (hotkey.Binding, error) {
	key, ok := keyCode(c.Key)
	if !ok {
		return nil, fmt.Errorf("unsupported key: %s", c.Key)
	}
	mods := make([]xhotkey.Modifier, 0, len(c.Mods))
	for _, m := range c.Mods {
		mod, ok := modifiers[m]
		if !ok {
			return nil, fmt.Errorf("unsupported modifier on this platform: %s", m)
		}
		mods = append(mods, mod)
	}

	hk := xhotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return nil, err
	}

	b := &binding{hk: hk, done: make(chan struct{})}
	go b.loop(fn)
	return b, nil
}

type binding struct {
	hk   *xhotkey.Hotkey
	done chan struct{}
	once sync.Once
}

func (b *binding) loop(fn func()) {
	keydown := b.hk.Keydown()
	for {
		select {
		case <-b.done:
			return
		case _, ok := <-keydown:
			if !ok {
				return
			}
			fn()
		}
	}
}

// Unregister releases the grab. Calling it twice is harmless.
func (b *binding) Unregister() error {
	var err error
	b.once.Do(func() {
		close(b.done)
		err = b.hk.Unregister()
	})
	return err
}

func keyCode(k hotkey.Key) (xhotkey.Key, bool) {
	if code, ok := namedKeys[k]; ok {
		return code, true
	}
	if len(k) == 1 {
		if code, ok := charKeys[k[0]]; ok {
			return code, true
		}
	}
	return 0, false
}

var namedKeys = map[hotkey.Key]xhotkey.Key{
	hotkey.KeyUp:     xhotkey.KeyUp,
	hotkey.KeyDown:   xhotkey.KeyDown,
	hotkey.KeyReturn: xhotkey.KeyReturn,
	hotkey.KeyEscape: xhotkey.KeyEscape,
	hotkey.KeySpace:  xhotkey.KeySpace,
	hotkey.KeyTab:    xhotkey.KeyTab,
}

var charKeys = map[byte]xhotkey.Key{
	'A': xhotkey.KeyA, 'B': xhotkey.KeyB, 'C': xhotkey.KeyC, 'D': xhotkey.KeyD,
	'E': xhotkey.KeyE, 'F': xhotkey.KeyF, 'G': xhotkey.KeyG, 'H': xhotkey.KeyH,
	'I': xhotkey.KeyI, 'J': xhotkey.KeyJ, 'K': xhotkey.KeyK, 'L': xhotkey.KeyL,
	'M': xhotkey.KeyM, 'N': xhotkey.KeyN, 'O': xhotkey.KeyO, 'P': xhotkey.KeyP,
	'Q': xhotkey.KeyQ, 'R': xhotkey.KeyR, 'S': xhotkey.KeyS, 'T': xhotkey.KeyT,
	'U': xhotkey.KeyU, 'V': xhotkey.KeyV, 'W': xhotkey.KeyW, 'X': xhotkey.KeyX,
	'Y': xhotkey.KeyY, 'Z': xhotkey.KeyZ,
	'0': xhotkey.Key0, '1': xhotkey.Key1, '2': xhotkey.Key2, '3': xhotkey.Key3,
	'4': xhotkey.Key4, '5': xhotkey.Key5, '6': xhotkey.Key6, '7': xhotkey.Key7,
	'8': xhotkey.Key8, '9': xhotkey.Key9,
}
