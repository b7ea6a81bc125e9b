package scene

import (
	"go.uber.org/zap"

	"github.com/Faultbox/extrude/internal/engine/camera"
	"github.com/Faultbox/extrude/internal/engine/extrusion"
	"github.com/Faultbox/extrude/internal/engine/scene/shaders"
	"github.com/Faultbox/extrude/internal/logger"
)

// Shader modes selected through u_mode.
const (
	modeDepth   = -1
	modeRoof    = 0
	modeSide    = 1
	modeSideOdd = 2
	modeOutline = 3
	modeMesh    = 4
)

// OutlineDepthOffset lifts outlines in front of the coplanar roof and walls.
const OutlineDepthOffset = 100

// RendererConfig selects how an extrusion layer is drawn.
type RendererConfig struct {
	// Alpha enables the depth pre-pass so translucent volumes only show
	// their nearest surface.
	Alpha bool
	// Mesh selects the triangle mesh program.
	Mesh bool
	// Debug draws every mesh in one blended pass with fixed colours.
	Debug bool
	// Fade scales the alpha of all colours.
	Fade float32
}

// DefaultRendererConfig returns an opaque building renderer.
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{Alpha: true, Fade: 1}
}

// Pass is a stage of the per-frame state machine.
type Pass int

// Render passes in frame order.
const (
	PassInit Pass = iota
	PassAlphaPrepass
	PassColor
	PassOutline
	PassMesh
	PassDebug
	PassDone
)

// String returns the pass name.
func (p Pass) String() string {
	switch p {
	case PassInit:
		return "init"
	case PassAlphaPrepass:
		return "alpha-prepass"
	case PassColor:
		return "color"
	case PassOutline:
		return "outline"
	case PassMesh:
		return "mesh"
	case PassDebug:
		return "debug"
	case PassDone:
		return "done"
	}
	return "unknown"
}

// FrameStats describes one Render call.
type FrameStats struct {
	// Passes lists every pass entered, in order.
	Passes []Pass

	Batches      int
	Meshes       int
	Skipped      int
	DrawCalls    int
	ColorUploads int
}

func (s *FrameStats) enter(p Pass) {
	for _, q := range s.Passes {
		if q == p {
			return
		}
	}
	s.Passes = append(s.Passes, p)
}

// DebugPalette is the fixed palette of debug mode: a light roof, two side
// colours differing slightly for contrast and a darker outline.
var DebugPalette = func() extrusion.Palette {
	const (
		a = 0.88
		r = 0xe9
		g = 0xe8
		b = 0xe6
		o = 20
		s = 4
	)
	return extrusion.Palette{
		{a * r / 255, a * g / 255, a * b / 255, 0.8},
		{a * ((r-s)/255.0 + 0.01), a * ((g-s)/255.0 + 0.01), a * (b - s) / 255, a},
		{a * (r - s) / 255, a * (g - s) / 255, a * (b - s) / 255, a},
		{(r - o) / 255.0, (g - o) / 255.0, (b - o) / 255.0, 0.9},
	}
}()

// ExtrusionRenderer draws batches of compiled extrusion meshes.
type ExtrusionRenderer struct {
	config RendererConfig

	dev     Device
	program ProgramHandle

	// Uniform locations
	locMVP   int32
	locColor int32
	locAlpha int32
	locMode  int32

	// Attribute locations
	aPos   int32
	aLight int32

	ready bool
}

// NewExtrusionRenderer creates a renderer. Setup must succeed before Render
// draws anything.
func NewExtrusionRenderer(cfg RendererConfig) *ExtrusionRenderer {
	if cfg.Fade == 0 {
		cfg.Fade = 1
	}
	return &ExtrusionRenderer{config: cfg}
}

// Setup compiles the shader program on dev. A failure disables the renderer.
func (r *ExtrusionRenderer) Setup(dev Device) bool {
	vert := shaders.ExtrusionVertexShader
	if r.config.Mesh {
		vert = shaders.ExtrusionMeshVertexShader
	}

	program, err := dev.CompileProgram(vert, shaders.ExtrusionFragmentShader)
	if err != nil {
		logger.Error("extrusion shader failed", zap.Bool("mesh", r.config.Mesh), zap.Error(err))
		r.ready = false
		return false
	}

	r.dev = dev
	r.program = program
	r.locMVP = dev.UniformLocation(program, "u_mvp")
	r.locColor = dev.UniformLocation(program, "u_color")
	r.locAlpha = dev.UniformLocation(program, "u_alpha")
	r.locMode = dev.UniformLocation(program, "u_mode")
	r.aPos = dev.AttribLocation(program, "a_pos")
	r.aLight = dev.AttribLocation(program, "a_light")
	r.ready = true

	logger.Debug("extrusion renderer ready",
		zap.Uint32("program", uint32(program)),
		zap.Bool("mesh", r.config.Mesh),
		zap.Bool("alpha", r.config.Alpha),
	)
	return true
}

// Ready reports whether Setup succeeded.
func (r *ExtrusionRenderer) Ready() bool {
	return r.ready
}

// Config returns the current configuration.
func (r *ExtrusionRenderer) Config() RendererConfig {
	return r.config
}

// SetDebug switches debug mode.
func (r *ExtrusionRenderer) SetDebug(on bool) {
	r.config.Debug = on
}

// SetFade sets the alpha applied to all colours.
func (r *ExtrusionRenderer) SetFade(alpha float32) {
	r.config.Fade = alpha
}

// Close deletes the shader program.
func (r *ExtrusionRenderer) Close() {
	if r.dev != nil && r.program != 0 {
		r.dev.DeleteProgram(r.program)
	}
	r.program = 0
	r.ready = false
}

// Render draws the batches for viewport v. Batches without uploaded buffers
// and empty meshes are skipped.
func (r *ExtrusionRenderer) Render(v *camera.Viewport, batches []*extrusion.Batch) FrameStats {
	var stats FrameStats
	stats.enter(PassInit)

	if !r.ready {
		stats.enter(PassDone)
		return stats
	}

	if r.config.Debug {
		r.renderDebug(v, batches, &stats)
	} else {
		r.render(v, batches, &stats)
	}

	stats.enter(PassDone)
	return stats
}

func (r *ExtrusionRenderer) renderDebug(v *camera.Viewport, batches []*extrusion.Batch, stats *FrameStats) {
	dev := r.dev
	stats.enter(PassDebug)

	dev.UseProgram(r.program)
	dev.EnableVertexAttribs(r.aPos, r.aLight)
	dev.Uniform1i(r.locMode, modeRoof)
	dev.Uniform4fv(r.locColor, DebugPalette.Floats(4))
	dev.Uniform1f(r.locAlpha, 1)
	stats.ColorUploads++

	dev.DepthTest(false)
	dev.DepthMask(false)
	dev.Blend(true)

	for _, b := range batches {
		if !b.Uploaded() {
			stats.Skipped += b.Len()
			continue
		}
		stats.Batches++

		dev.UniformMatrix4fv(r.locMVP, v.ModelMatrix(b.X, b.Y, b.Zoom, 0))
		r.renderCombined(b, true, stats)
	}
}

// renderCombined draws walls and roof of every mesh as one triangle range,
// then the triangle mesh bucket.
func (r *ExtrusionRenderer) renderCombined(b *extrusion.Batch, light bool, stats *FrameStats) {
	dev := r.dev
	dev.BindBuffers(b.Vertices, b.Indices)

	for m := b.First(); m != nil; m = m.Next() {
		if !m.Compiled() || m.Empty() {
			continue
		}
		r.setPointers(m, light)

		sum := m.Counts[extrusion.BucketSideEven] +
			m.Counts[extrusion.BucketSideOdd] +
			m.Counts[extrusion.BucketRoof]
		if sum > 0 {
			r.draw(Triangles, sum, m.IndexOffset, stats)
		}
		if n := m.Counts[extrusion.BucketMesh]; n > 0 {
			r.draw(Triangles, n, m.BucketOffset(extrusion.BucketMesh), stats)
		}
	}
}

func (r *ExtrusionRenderer) render(v *camera.Viewport, batches []*extrusion.Batch, stats *FrameStats) {
	dev := r.dev

	dev.DepthMask(true)
	dev.ClearDepth()
	dev.DepthTest(true)

	dev.UseProgram(r.program)
	dev.EnableVertexAttribs(r.aPos)
	dev.Blend(false)
	dev.CullFace(true)
	dev.SetDepthFunc(DepthLess)
	dev.Uniform1f(r.locAlpha, r.config.Fade)

	if r.config.Alpha {
		stats.enter(PassAlphaPrepass)

		dev.ColorMask(false)
		dev.Uniform1i(r.locMode, modeDepth)

		for _, b := range batches {
			if !b.Uploaded() {
				continue
			}
			dev.UniformMatrix4fv(r.locMVP, v.ModelMatrix(b.X, b.Y, b.Zoom, 0))
			r.renderCombined(b, false, stats)
		}

		dev.ColorMask(true)
		dev.DepthMask(false)
	}

	depthFunc := DepthLess
	if r.config.Alpha {
		depthFunc = DepthEqual
	}

	dev.Blend(true)
	dev.EnableVertexAttribs(r.aPos, r.aLight)

	colors := 4
	if r.config.Mesh {
		colors = 1
	}

	var (
		current    extrusion.Palette
		hasCurrent bool
	)

	stats.enter(PassColor)

	for _, b := range batches {
		if !b.Uploaded() {
			stats.Skipped += b.Len()
			continue
		}
		stats.Batches++

		dev.BindBuffers(b.Vertices, b.Indices)
		dev.SetDepthFunc(depthFunc)

		mvp := v.ModelMatrix(b.X, b.Y, b.Zoom, 0)
		dev.UniformMatrix4fv(r.locMVP, mvp)

		// set when an outline changed matrix and depth func
		dirty := false

		for m := b.First(); m != nil; m = m.Next() {
			if !m.Compiled() || m.Empty() {
				stats.Skipped++
				continue
			}
			stats.Meshes++

			if dirty {
				dev.UniformMatrix4fv(r.locMVP, mvp)
				dev.SetDepthFunc(depthFunc)
				dirty = false
			}

			if !hasCurrent || m.Palette != current {
				current = m.Palette
				hasCurrent = true
				dev.Uniform4fv(r.locColor, current.Floats(colors))
				stats.ColorUploads++
			}

			r.setPointers(m, true)

			if n := m.Counts[extrusion.BucketRoof]; n > 0 {
				dev.Uniform1i(r.locMode, modeRoof)
				r.draw(Triangles, n, m.BucketOffset(extrusion.BucketRoof), stats)
			}
			if n := m.Counts[extrusion.BucketSideEven]; n > 0 {
				dev.Uniform1i(r.locMode, modeSide)
				r.draw(Triangles, n, m.BucketOffset(extrusion.BucketSideEven), stats)
			}
			if n := m.Counts[extrusion.BucketSideOdd]; n > 0 {
				dev.Uniform1i(r.locMode, modeSideOdd)
				r.draw(Triangles, n, m.BucketOffset(extrusion.BucketSideOdd), stats)
			}

			if n := m.Counts[extrusion.BucketOutline]; n > 0 {
				stats.enter(PassOutline)

				// lines do not get the depth of the polygons they trace
				if r.config.Alpha {
					dev.SetDepthFunc(DepthLequal)
				}
				dev.UniformMatrix4fv(r.locMVP, camera.AddDepthOffset(mvp, OutlineDepthOffset))
				dev.Uniform1i(r.locMode, modeOutline)
				r.draw(Lines, n, m.BucketOffset(extrusion.BucketOutline), stats)
				dirty = true
			}

			if n := m.Counts[extrusion.BucketMesh]; n > 0 {
				stats.enter(PassMesh)

				if dirty {
					dev.UniformMatrix4fv(r.locMVP, mvp)
					dev.SetDepthFunc(depthFunc)
					dirty = false
				}
				dev.Uniform1i(r.locMode, modeMesh)
				r.draw(Triangles, n, m.BucketOffset(extrusion.BucketMesh), stats)
			}
		}
	}

	dev.DepthMask(false)
	dev.CullFace(false)
	dev.BindBuffers(0, 0)
}

func (r *ExtrusionRenderer) setPointers(m *extrusion.Mesh, light bool) {
	r.dev.VertexAttribPointer(r.aPos, 3, AttribShort, extrusion.VertexBytes, m.VertexOffset)
	if light {
		r.dev.VertexAttribPointer(r.aLight, 2, AttribUnsignedByte, extrusion.VertexBytes, m.VertexOffset+6)
	}
}

func (r *ExtrusionRenderer) draw(mode Primitive, count, offset int, stats *FrameStats) {
	r.dev.DrawElements(mode, count, offset)
	stats.DrawCalls++
}
