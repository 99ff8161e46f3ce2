package hotkey

import (
	"fmt"
	"slices"
	"strings"
)

// Modifier is a platform-neutral modifier name. On Linux and Windows,
// ModCmd maps to Control and ModOption to Alt.
type Modifier string

const (
	ModCmd    Modifier = "cmd"
	ModCtrl   Modifier = "ctrl"
	ModOption Modifier = "option"
	ModShift  Modifier = "shift"
	ModSuper  Modifier = "super"
)

var modifierAliases = map[string]Modifier{
	"cmd":     ModCmd,
	"command": ModCmd,
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"option":  ModOption,
	"opt":     ModOption,
	"alt":     ModOption,
	"shift":   ModShift,
	"super":   ModSuper,
	"win":     ModSuper,
	"meta":    ModSuper,
}

// Key is a platform-neutral key name: "A".."Z", "0".."9", or one of the
// named keys below.
type Key string

const (
	KeyUp     Key = "Up"
	KeyDown   Key = "Down"
	KeyReturn Key = "Return"
	KeyEscape Key = "Escape"
	KeySpace  Key = "Space"
	KeyTab    Key = "Tab"
)

var namedKeys = map[string]Key{
	"up":     KeyUp,
	"down":   KeyDown,
	"return": KeyReturn,
	"enter":  KeyReturn,
	"escape": KeyEscape,
	"esc":    KeyEscape,
	"space":  KeySpace,
	"tab":    KeyTab,
}

// Combo is a key plus the modifiers held with it.
type Combo struct {
	Mods []Modifier
	Key  Key
}

// DefaultToggle is Cmd+Option+V.
var DefaultToggle = Combo{Mods: []Modifier{ModCmd, ModOption}, Key: "V"}

// NewCombo validates a key and modifier names into a Combo. Modifiers are
// de-duplicated and sorted so equal combos compare equal.
func NewCombo(key string, mods []string) (Combo, error) {
	k, err := ParseKey(key)
	if err != nil {
		return Combo{}, err
	}
	c := Combo{Key: k}
	for _, m := range mods {
		mod, ok := modifierAliases[strings.ToLower(strings.TrimSpace(m))]
		if !ok {
			return Combo{}, fmt.Errorf("unknown modifier: %q", m)
		}
		if !slices.Contains(c.Mods, mod) {
			c.Mods = append(c.Mods, mod)
		}
	}
	slices.Sort(c.Mods)
	return c, nil
}

// ParseCombo parses "cmd+option+v" style strings.
func ParseCombo(s string) (Combo, error) {
	parts := strings.Split(s, "+")
	if len(parts) == 0 || strings.TrimSpace(parts[len(parts)-1]) == "" {
		return Combo{}, fmt.Errorf("invalid hotkey: %q", s)
	}
	return NewCombo(parts[len(parts)-1], parts[:len(parts)-1])
}

// ParseKey normalizes a key name.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if k, ok := namedKeys[strings.ToLower(s)]; ok {
		return k, nil
	}
	if len(s) == 1 {
		c := strings.ToUpper(s)[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return Key(string(c)), nil
		}
	}
	return "", fmt.Errorf("unsupported key: %q", s)
}

// String renders the combo in ParseCombo syntax.
func (c Combo) String() string {
	parts := make([]string, 0, len(c.Mods)+1)
	for _, m := range c.Mods {
		parts = append(parts, string(m))
	}
	parts = append(parts, strings.ToLower(string(c.Key)))
	return strings.Join(parts, "+")
}

// ModifierNames returns the modifiers as strings, for config round trips.
func (c Combo) ModifierNames() []string {
	out := make([]string, len(c.Mods))
	for i, m := range c.Mods {
		out[i] = string(m)
	}
	return out
}
