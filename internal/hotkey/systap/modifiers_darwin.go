//go:build darwin

package systap

import (
	xhotkey "golang.design/x/hotkey"

	"github.com/yiblet/clipper/internal/hotkey"
)

var modifiers = map[hotkey.Modifier]xhotkey.Modifier{
	hotkey.ModCmd:    xhotkey.ModCmd,
	hotkey.ModCtrl:   xhotkey.ModCtrl,
	hotkey.ModOption: xhotkey.ModOption,
	hotkey.ModShift:  xhotkey.ModShift,
}
