package viewer

import (
	"math"
	"testing"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/extrude/internal/engine/camera"
)

type stubInput struct {
	drag  map[uint32][2]int
	wheel float32
}

func (s stubInput) Dragged(button uint32) (int, int) {
	d := s.drag[button]
	return d[0], d[1]
}

func (s stubInput) Wheel() float32 {
	return s.wheel
}

func TestSteer(t *testing.T) {
	tests := []struct {
		name  string
		in    stubInput
		check func(t *testing.T, c *camera.MapCamera)
	}{
		{
			"idle",
			stubInput{},
			func(t *testing.T, c *camera.MapCamera) {
				if c.X != 0.5 || c.Y != 0.5 || c.Scale != 4 || c.Tilt != 0 {
					t.Errorf("expected unchanged camera, got %+v", c)
				}
			},
		},
		{
			"pan",
			stubInput{drag: map[uint32][2]int{sdl.BUTTON_LEFT: {512, 0}}},
			func(t *testing.T, c *camera.MapCamera) {
				if math.Abs(c.X-0.25) > 1e-9 || c.Y != 0.5 {
					t.Errorf("expected x 0.25, got %v,%v", c.X, c.Y)
				}
			},
		},
		{
			"tilt",
			stubInput{drag: map[uint32][2]int{sdl.BUTTON_RIGHT: {0, 100}}},
			func(t *testing.T, c *camera.MapCamera) {
				if c.Tilt <= 0 || c.X != 0.5 {
					t.Errorf("expected tilt without pan, got tilt %v x %v", c.Tilt, c.X)
				}
			},
		},
		{
			"zoom",
			stubInput{wheel: 2},
			func(t *testing.T, c *camera.MapCamera) {
				if c.Scale <= 4 {
					t.Errorf("expected zoom in, got scale %v", c.Scale)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := camera.NewMapCamera(0.5, 0.5, 4, 800, 600)
			steer(c, tt.in)
			tt.check(t, c)
		})
	}
}
