package mouse

// State tracks the pressed button, last reported position and drag status
// for one tracking session. It is not safe for concurrent use; callers
// serialize access the same way they serialize writes to the screen model.
type State struct {
	Config TrackingConfig

	pressed  Button
	lastRow  int
	lastCol  int
	drag     bool
	touched  bool
}

// New returns a State in its base invariant: no button pressed, no drag,
// no position recorded yet.
func New(cfg TrackingConfig) *State {
	return &State{Config: cfg, pressed: ButtonNone}
}

// Pressed returns the currently held button, or ButtonNone.
func (s *State) Pressed() Button { return s.pressed }

// Dragging reports whether a drag is currently in progress.
func (s *State) Dragging() bool { return s.drag }

// LastPosition returns the last accepted (row, col), 1-based.
func (s *State) LastPosition() (row, col int) { return s.lastRow, s.lastCol }

// ShouldHandleLocally implements the routing rule: true iff the event must
// be consumed locally (e.g. for text selection) rather than reported to
// the application.
func (s *State) ShouldHandleLocally(e Event) bool {
	if s.Config.Mode == Off {
		return true
	}
	if s.Config.SelectionPriority && e.Mods.Shift {
		return true
	}
	switch e.Type {
	case Motion:
		switch s.Config.Mode {
		case Click:
			return true
		case Button:
			return s.pressed == ButtonNone
		case Any:
			return false
		}
	}
	return false
}

// Process applies an event to the state machine. ok is false if the event
// was rejected (invalid coordinates, or a Press with no button) and left
// the state unchanged. changed
// is true only for a Motion event that actually moved the reported
// position while a button was held.
func (s *State) Process(e Event) (changed, ok bool) {
	if e.Row < 1 || e.Col < 1 {
		return false, false
	}

	switch e.Type {
	case Press:
		if e.Button == ButtonNone {
			return false, false
		}
		s.pressed = e.Button
		s.lastRow, s.lastCol = e.Row, e.Col
		s.drag = false
	case Motion:
		moved := !s.touched || s.lastRow != e.Row || s.lastCol != e.Col
		s.lastRow, s.lastCol = e.Row, e.Col
		if s.pressed != ButtonNone {
			s.drag = true
			changed = moved
		}
	case Release:
		s.pressed = ButtonNone
		s.drag = false
		s.lastRow, s.lastCol = e.Row, e.Col
	case Wheel:
		s.lastRow, s.lastCol = e.Row, e.Col
	}
	s.touched = true
	return changed, true
}

// IsConsistent reports whether the base invariant (drag implies pressed)
// currently holds.
func (s *State) IsConsistent() bool {
	if s.drag && s.pressed == ButtonNone {
		return false
	}
	return true
}

// Recover restores the base invariant if it was violated.
func (s *State) Recover() {
	if !s.IsConsistent() {
		s.drag = false
	}
}
