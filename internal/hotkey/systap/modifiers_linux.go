//go:build linux

package systap

import (
	xhotkey "golang.design/x/hotkey"

	"github.com/yiblet/clipper/internal/hotkey"
)

// Mod1 is Alt and Mod4 is Super on standard X11 keymaps.
var modifiers = map[hotkey.Modifier]xhotkey.Modifier{
	hotkey.ModCmd:    xhotkey.ModCtrl,
	hotkey.ModCtrl:   xhotkey.ModCtrl,
	hotkey.ModOption: xhotkey.Mod1,
	hotkey.ModShift:  xhotkey.ModShift,
	hotkey.ModSuper:  xhotkey.Mod4,
}
