// Package renderer provides the OpenGL backend of the scene renderers.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/extrude/internal/engine/extrusion"
	"github.com/Faultbox/extrude/internal/engine/scene"
	"github.com/Faultbox/extrude/internal/engine/shader"
	"github.com/Faultbox/extrude/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	ClearColor [3]float32
}

// Renderer implements scene.Device and extrusion.Uploader on OpenGL 4.1.
type Renderer struct {
	config Config

	// Core profile requires a bound VAO for attribute state
	vao uint32

	enabled map[uint32]bool
	buffers int
}

var (
	_ scene.Device       = (*Renderer)(nil)
	_ extrusion.Uploader = (*Renderer)(nil)
)

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:  cfg,
		enabled: make(map[uint32]bool),
	}

	// Initialize OpenGL
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	// Log OpenGL info
	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	// Setup default OpenGL state
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA) // premultiplied colours
	gl.ClearColor(cfg.ClearColor[0], cfg.ClearColor[1], cfg.ClearColor[2], 1.0)

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer", zap.Int("buffers", r.buffers))
	if r.vao != 0 {
		gl.BindVertexArray(0)
		gl.DeleteVertexArrays(1, &r.vao)
		r.vao = 0
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.DepthMask(true)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.UseProgram(0)
}

// ReadPixels reads the default framebuffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}

// Buffers returns the number of live GPU buffers.
func (r *Renderer) Buffers() int {
	return r.buffers
}

// UploadVertices creates a vertex buffer from packed 16-bit vertices.
func (r *Renderer) UploadVertices(data []int16) extrusion.BufferHandle {
	if len(data) == 0 {
		return 0
	}
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*2, unsafe.Pointer(&data[0]), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	r.buffers++
	return extrusion.BufferHandle(vbo)
}

// UploadIndices creates an element buffer from 16-bit indices.
func (r *Renderer) UploadIndices(data []uint16) extrusion.BufferHandle {
	if len(data) == 0 {
		return 0
	}
	var ebo uint32
	gl.GenBuffers(1, &ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data)*2, unsafe.Pointer(&data[0]), gl.STATIC_DRAW)
	r.buffers++
	return extrusion.BufferHandle(ebo)
}

// DeleteBuffer frees a buffer created by UploadVertices or UploadIndices.
func (r *Renderer) DeleteBuffer(h extrusion.BufferHandle) {
	if h == 0 {
		return
	}
	id := uint32(h)
	gl.DeleteBuffers(1, &id)
	r.buffers--
}

// CompileProgram compiles and links a shader program.
func (r *Renderer) CompileProgram(vertexSrc, fragmentSrc string) (scene.ProgramHandle, error) {
	program, err := shader.CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return 0, err
	}
	logger.Debug("shader program created", zap.Uint32("program", program))
	return scene.ProgramHandle(program), nil
}

// DeleteProgram deletes a shader program.
func (r *Renderer) DeleteProgram(p scene.ProgramHandle) {
	gl.DeleteProgram(uint32(p))
}

// UseProgram binds a shader program.
func (r *Renderer) UseProgram(p scene.ProgramHandle) {
	gl.UseProgram(uint32(p))
}

// UniformLocation returns the location of a uniform, -1 if inactive.
func (r *Renderer) UniformLocation(p scene.ProgramHandle, name string) int32 {
	return shader.GetUniform(uint32(p), name)
}

// AttribLocation returns the location of a vertex attribute, -1 if inactive.
func (r *Renderer) AttribLocation(p scene.ProgramHandle, name string) int32 {
	return shader.GetAttrib(uint32(p), name)
}

func (r *Renderer) Uniform1i(loc int32, v int32) {
	gl.Uniform1i(loc, v)
}

func (r *Renderer) Uniform1f(loc int32, v float32) {
	gl.Uniform1f(loc, v)
}

func (r *Renderer) Uniform4fv(loc int32, v []float32) {
	if len(v) < 4 {
		return
	}
	gl.Uniform4fv(loc, int32(len(v)/4), &v[0])
}

func (r *Renderer) UniformMatrix4fv(loc int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

func (r *Renderer) ClearDepth() {
	gl.Clear(gl.DEPTH_BUFFER_BIT)
}

func (r *Renderer) DepthTest(enabled bool) {
	setCap(gl.DEPTH_TEST, enabled)
}

func (r *Renderer) DepthMask(write bool) {
	gl.DepthMask(write)
}

func (r *Renderer) SetDepthFunc(f scene.DepthFunc) {
	switch f {
	case scene.DepthEqual:
		gl.DepthFunc(gl.EQUAL)
	case scene.DepthLequal:
		gl.DepthFunc(gl.LEQUAL)
	default:
		gl.DepthFunc(gl.LESS)
	}
}

func (r *Renderer) ColorMask(write bool) {
	gl.ColorMask(write, write, write, write)
}

func (r *Renderer) Blend(enabled bool) {
	setCap(gl.BLEND, enabled)
}

func (r *Renderer) CullFace(enabled bool) {
	setCap(gl.CULL_FACE, enabled)
}

// EnableVertexAttribs enables exactly the given attribute arrays.
func (r *Renderer) EnableVertexAttribs(locs ...int32) {
	want := make(map[uint32]bool, len(locs))
	for _, l := range locs {
		if l >= 0 {
			want[uint32(l)] = true
		}
	}
	for l := range r.enabled {
		if !want[l] {
			gl.DisableVertexAttribArray(l)
			delete(r.enabled, l)
		}
	}
	for l := range want {
		if !r.enabled[l] {
			gl.EnableVertexAttribArray(l)
			r.enabled[l] = true
		}
	}
}

func (r *Renderer) BindBuffers(vertices, indices extrusion.BufferHandle) {
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(vertices))
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(indices))
}

func (r *Renderer) VertexAttribPointer(loc int32, size int, typ scene.AttribType, stride, offset int) {
	if loc < 0 {
		return
	}
	glType := uint32(gl.SHORT)
	if typ == scene.AttribUnsignedByte {
		glType = gl.UNSIGNED_BYTE
	}
	gl.VertexAttribPointerWithOffset(uint32(loc), int32(size), glType, false, int32(stride), uintptr(offset))
}

func (r *Renderer) DrawElements(mode scene.Primitive, count, offset int) {
	glMode := uint32(gl.TRIANGLES)
	if mode == scene.Lines {
		glMode = gl.LINES
	}
	gl.DrawElementsWithOffset(glMode, int32(count), gl.UNSIGNED_SHORT, uintptr(offset*2))
}

func setCap(c uint32, enabled bool) {
	if enabled {
		gl.Enable(c)
	} else {
		gl.Disable(c)
	}
}
