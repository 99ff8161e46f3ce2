//go:build windows

package systap

import (
	xhotkey "golang.design/x/hotkey"

	"github.com/yiblet/clipper/internal/hotkey"
)

var modifiers = map[hotkey.Modifier]xhotkey.Modifier{
	hotkey.ModCmd:    xhotkey.ModCtrl,
	hotkey.ModCtrl:   xhotkey.ModCtrl,
	hotkey.ModOption: xhotkey.ModAlt,
	hotkey.ModShift:  xhotkey.ModShift,
	hotkey.ModSuper:  xhotkey.ModWin,
}
