package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/extrude/pkg/fixedpoint"
)

// Viewport is the per-frame map position the renderer reads.
type Viewport struct {
	// X and Y are the map centre in normalized coordinates (0..1 across the
	// whole world).
	X, Y float64
	// Scale is 2^zoom with a fractional part.
	Scale float64
	// Zoom is the integer zoom level of Scale.
	Zoom int

	// ViewProj maps pixel coordinates relative to the map centre to clip space.
	ViewProj mgl32.Mat4
}

// NewViewport creates a viewport with an identity view-projection.
func NewViewport(x, y, scale float64) *Viewport {
	v := &Viewport{ViewProj: mgl32.Ident4()}
	v.SetPosition(x, y, scale)
	return v
}

// SetPosition moves the viewport and updates Zoom from scale.
func (v *Viewport) SetPosition(x, y, scale float64) {
	v.X = x
	v.Y = y
	v.Scale = scale
	v.Zoom = ZoomLevel(scale)
}

// ZoomLevel returns the integer zoom of a scale, never below zero.
func ZoomLevel(scale float64) int {
	if scale < 1 {
		return 0
	}
	return int(math.Log2(scale))
}

// ModelMatrix returns the model-view-projection matrix for geometry anchored
// at (anchorX, anchorY) and built at the given zoom level.
//
// The anchor is moved to its pixel position relative to the viewport centre,
// xy are scaled from fixed point to pixels and heights by a tenth of the tile
// scale. depthOffset biases the projected depth to separate coplanar passes.
func (v *Viewport) ModelMatrix(anchorX, anchorY float64, zoom, depthOffset int) mgl32.Mat4 {
	curScale := fixedpoint.TileSize * v.Scale
	scale := float32(v.Scale / float64(int64(1)<<uint(zoom)))

	x := float32((anchorX - v.X) * curScale)
	y := float32((anchorY - v.Y) * curScale)

	model := mgl32.Translate3D(x, y, 0).Mul4(
		mgl32.Scale3D(scale/fixedpoint.CoordScale, scale/fixedpoint.CoordScale, scale/10))

	return AddDepthOffset(v.ViewProj.Mul4(model), depthOffset)
}

// AddDepthOffset scales the depth row of m so that geometry drawn with a
// larger delta ends up slightly in front.
func AddDepthOffset(m mgl32.Mat4, delta int) mgl32.Mat4 {
	if delta == 0 {
		return m
	}
	m[10] *= 1 + float32(delta)/(1<<20)
	return m
}
