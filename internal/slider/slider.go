// Package slider implements the before/after comparison divider as pure
// state transitions, independent of any UI binding. The web front end
// mirrors this logic; the package is its tested reference.
package slider

// DefaultPosition is where the divider sits when a new result is shown.
const DefaultPosition = 50.0

// Box is the horizontal extent of the comparison area in pointer coordinates.
type Box struct {
	Left  float64
	Width float64
}

// Slider tracks the divider position as a percentage in [0,100] of the
// "after" image revealed from the left.
type Slider struct {
	position float64
	dragging bool
}

func New() *Slider {
	return &Slider{position: DefaultPosition}
}

// Position returns the current divider position.
func (s *Slider) Position() float64 { return s.position }

// Dragging reports whether a drag gesture is in flight.
func (s *Slider) Dragging() bool { return s.dragging }

// Press starts a drag gesture on the divider handle. Movement and release
// are tracked globally by the caller for the duration of the gesture.
func (s *Slider) Press() {
	s.dragging = true
}

// Move updates the position from the pointer's horizontal coordinate while
// a drag is in flight. Moves outside a drag are ignored.
func (s *Slider) Move(pointerX float64, box Box) {
	if !s.dragging {
		return
	}
	s.position = positionFor(pointerX, box)
}

// Release ends the drag gesture.
func (s *Slider) Release() {
	s.dragging = false
}

// Jump repositions the divider on a direct click inside the comparison area.
func (s *Slider) Jump(pointerX float64, box Box) {
	s.position = positionFor(pointerX, box)
}

// Reset returns the divider to the default position.
func (s *Slider) Reset() {
	s.position = DefaultPosition
	s.dragging = false
}

// positionFor maps a pointer coordinate into the box, clamped to [0,100].
func positionFor(pointerX float64, box Box) float64 {
	if box.Width <= 0 {
		return 0
	}
	pct := (pointerX - box.Left) / box.Width * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
