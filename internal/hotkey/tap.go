package hotkey

// Tap registers global key combinations with the operating system.
// Callbacks run on a goroutine owned by the Tap and must not block.
type Tap interface {
	Register(c Combo, fn func()) (Binding, error)
}

// Binding is one registered combination.
type Binding interface {
	Unregister() error
}
