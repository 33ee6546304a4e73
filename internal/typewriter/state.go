package typewriter

// Phase is the step of the type-pause-delete cycle the animator is in.
type Phase int

const (
	Typing Phase = iota
	Pausing
	Deleting
)

func (p Phase) String() string {
	switch p {
	case Typing:
		return "typing"
	case Pausing:
		return "pausing"
	case Deleting:
		return "deleting"
	default:
		return "unknown"
	}
}

// State is a snapshot of the animation.
type State struct {
	Index         int
	Text          string
	Phase         Phase
	CursorVisible bool
}

// IsDeleting reports whether characters are being removed.
func (s State) IsDeleting() bool {
	return s.Phase == Deleting
}

// Render returns the visible text followed by the cursor glyph when the
// cursor is shown, or a space of the same width when it is hidden.
func (s State) Render(cursor string) string {
	if s.CursorVisible {
		return s.Text + cursor
	}
	blank := make([]rune, len([]rune(cursor)))
	for i := range blank {
		blank[i] = ' '
	}
	return s.Text + string(blank)
}
