// Package camera provides the map camera and the per-frame viewport used to
// place extruded tiles.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/extrude/pkg/fixedpoint"
)

// MapCamera looks down on the map from above. It pans in screen pixels,
// zooms by scale factors and tilts around the screen centre.
type MapCamera struct {
	// Map centre in normalized coordinates
	X, Y float64
	// Scale is 2^zoom
	Scale float64

	// Tilt from straight down (radians)
	Tilt float32
	// Bearing around the vertical axis (radians)
	Bearing float32

	// Screen size in pixels
	Width, Height int

	// Constraints
	MinScale float64
	MaxScale float64
	MaxTilt  float32

	// Sensitivity
	TiltSensitivity float32
	ZoomSensitivity float64

	// FOV is the vertical field of view (radians)
	FOV float32
}

// NewMapCamera creates a camera over (x, y) at the given scale.
func NewMapCamera(x, y, scale float64, width, height int) *MapCamera {
	c := &MapCamera{
		X:               x,
		Y:               y,
		Scale:           scale,
		Width:           width,
		Height:          height,
		MinScale:        1,
		MaxScale:        1 << 20,
		MaxTilt:         1.05,
		TiltSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FOV:             mgl32.DegToRad(35),
	}
	c.clamp()
	return c
}

// Resize updates the screen size.
func (c *MapCamera) Resize(width, height int) {
	c.Width = width
	c.Height = height
}

// HandleDrag moves the map by a screen drag of (dx, dy) pixels.
func (c *MapCamera) HandleDrag(dx, dy float32) {
	// rotate the drag into map orientation
	sin := math.Sin(float64(c.Bearing))
	cos := math.Cos(float64(c.Bearing))
	mx := float64(dx)*cos - float64(dy)*sin
	my := float64(dx)*sin + float64(dy)*cos

	worldPixels := fixedpoint.TileSize * c.Scale
	c.X -= mx / worldPixels
	c.Y -= my / worldPixels
	c.clamp()
}

// HandleZoom scales the map by scroll wheel delta.
func (c *MapCamera) HandleZoom(delta float32) {
	c.Scale *= 1 + float64(delta)*c.ZoomSensitivity
	c.clamp()
}

// HandleTilt changes tilt by a vertical drag of dy pixels.
func (c *MapCamera) HandleTilt(dy float32) {
	c.Tilt += dy * c.TiltSensitivity
	c.clamp()
}

// HandleRotate changes the bearing by a horizontal drag of dx pixels.
func (c *MapCamera) HandleRotate(dx float32) {
	c.Bearing += dx * c.TiltSensitivity
}

// CenterOn moves the map centre to the given tile's centre and zooms to it.
func (c *MapCamera) CenterOn(tileX, tileY float64, zoom int) {
	n := float64(int64(1) << uint(zoom))
	c.X = tileX + 0.5/n
	c.Y = tileY + 0.5/n
	c.Scale = n
	c.clamp()
}

func (c *MapCamera) clamp() {
	if c.Scale < c.MinScale {
		c.Scale = c.MinScale
	}
	if c.Scale > c.MaxScale {
		c.Scale = c.MaxScale
	}
	if c.Tilt < 0 {
		c.Tilt = 0
	}
	if c.Tilt > c.MaxTilt {
		c.Tilt = c.MaxTilt
	}
	c.X = math.Min(math.Max(c.X, 0), 1)
	c.Y = math.Min(math.Max(c.Y, 0), 1)
}

// ViewProj returns the view-projection matrix. One unit on the ground plane is
// one screen pixel at the centre of an untilted view.
func (c *MapCamera) ViewProj() mgl32.Mat4 {
	w, h := float32(c.Width), float32(c.Height)
	if w <= 0 || h <= 0 {
		return mgl32.Ident4()
	}

	dist := h / 2 / float32(math.Tan(float64(c.FOV)/2))
	proj := mgl32.Perspective(c.FOV, w/h, dist/8, dist*8)

	// map y grows southward, screen y upward
	view := mgl32.Translate3D(0, 0, -dist).
		Mul4(mgl32.HomogRotate3DX(-c.Tilt)).
		Mul4(mgl32.HomogRotate3DZ(c.Bearing)).
		Mul4(mgl32.Scale3D(1, -1, 1))

	return proj.Mul4(view)
}

// Viewport fills v with the current position and matrices.
func (c *MapCamera) Viewport(v *Viewport) {
	v.SetPosition(c.X, c.Y, c.Scale)
	v.ViewProj = c.ViewProj()
}
