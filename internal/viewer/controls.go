package viewer

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/extrude/internal/engine/camera"
)

// frameInput is what the camera reads from one frame of input.
type frameInput interface {
	Dragged(button uint32) (dx, dy int)
	Wheel() float32
}

// steer applies one frame of input to the camera: left drag pans, right drag
// tilts and rotates, the wheel zooms.
func steer(c *camera.MapCamera, in frameInput) {
	if dx, dy := in.Dragged(sdl.BUTTON_LEFT); dx != 0 || dy != 0 {
		c.HandleDrag(float32(dx), float32(dy))
	}
	if dx, dy := in.Dragged(sdl.BUTTON_RIGHT); dx != 0 || dy != 0 {
		c.HandleTilt(float32(dy))
		c.HandleRotate(float32(dx))
	}
	if w := in.Wheel(); w != 0 {
		c.HandleZoom(w)
	}
}
