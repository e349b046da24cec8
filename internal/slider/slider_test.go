package slider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var box = Box{Left: 100, Width: 400}

func TestSlider_Defaults(t *testing.T) {
	s := New()
	assert.Equal(t, DefaultPosition, s.Position())
	assert.False(t, s.Dragging())
}

func TestSlider_DragLifecycle(t *testing.T) {
	s := New()

	// Moves before a press are ignored.
	s.Move(300, box)
	assert.Equal(t, DefaultPosition, s.Position())

	s.Press()
	assert.True(t, s.Dragging())

	s.Move(300, box)
	assert.InDelta(t, 50, s.Position(), 1e-9)

	s.Move(200, box)
	assert.InDelta(t, 25, s.Position(), 1e-9)

	s.Release()
	assert.False(t, s.Dragging())

	// Moves after release are ignored, position sticks.
	s.Move(500, box)
	assert.InDelta(t, 25, s.Position(), 1e-9)
}

func TestSlider_ClampsToRange(t *testing.T) {
	s := New()
	s.Press()

	tests := []struct {
		name     string
		pointerX float64
		want     float64
	}{
		{"far left of the widget", -1000, 0},
		{"exactly at the left edge", 100, 0},
		{"exactly at the right edge", 500, 100},
		{"far right of the widget", 5000, 100},
		{"quarter", 200, 25},
		{"three quarters", 400, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.Move(tt.pointerX, box)
			assert.InDelta(t, tt.want, s.Position(), 1e-9)
		})
	}
}

func TestSlider_JumpWithoutDrag(t *testing.T) {
	s := New()

	s.Jump(450, box)
	assert.InDelta(t, 87.5, s.Position(), 1e-9)
	assert.False(t, s.Dragging())

	s.Jump(-50, box)
	assert.Equal(t, 0.0, s.Position())
}

func TestSlider_Reset(t *testing.T) {
	s := New()
	s.Press()
	s.Move(480, box)
	assert.NotEqual(t, DefaultPosition, s.Position())

	// A new result resets position and cancels any drag.
	s.Reset()
	assert.Equal(t, DefaultPosition, s.Position())
	assert.False(t, s.Dragging())
}

func TestSlider_DegenerateBox(t *testing.T) {
	s := New()
	s.Jump(250, Box{Left: 250, Width: 0})
	assert.Equal(t, 0.0, s.Position())
}
