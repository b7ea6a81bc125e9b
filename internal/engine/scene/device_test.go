package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/extrude/internal/engine/extrusion"
)

const (
	locMVP = iota
	locColor
	locAlpha
	locMode
)

type drawCall struct {
	mode      Primitive
	count     int
	offset    int
	shader    int32
	depth     DepthFunc
	colorMask bool
	mvp       mgl32.Mat4
}

// fakeDevice records the GL state the renderer sets and every draw call.
type fakeDevice struct {
	failCompile bool

	programs []ProgramHandle
	deleted  []ProgramHandle

	mode      int32
	alpha     float32
	depth     DepthFunc
	depthTest bool
	colorMask bool
	mvp       mgl32.Mat4

	colors   [][]float32
	pointers []string
	enabled  []int32
	draws    []drawCall
	calls    []string

	nextBuffer extrusion.BufferHandle
	buffers    []extrusion.BufferHandle
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{colorMask: true}
}

func (d *fakeDevice) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) CompileProgram(vertexSrc, fragmentSrc string) (ProgramHandle, error) {
	if d.failCompile {
		return 0, errors.New("compile failed")
	}
	p := ProgramHandle(len(d.programs) + 1)
	d.programs = append(d.programs, p)
	return p, nil
}

func (d *fakeDevice) DeleteProgram(p ProgramHandle) {
	d.deleted = append(d.deleted, p)
}

func (d *fakeDevice) UseProgram(p ProgramHandle) {
	d.record("UseProgram(%d)", p)
}

func (d *fakeDevice) UniformLocation(p ProgramHandle, name string) int32 {
	switch name {
	case "u_mvp":
		return locMVP
	case "u_color":
		return locColor
	case "u_alpha":
		return locAlpha
	case "u_mode":
		return locMode
	}
	return -1
}

func (d *fakeDevice) AttribLocation(p ProgramHandle, name string) int32 {
	switch name {
	case "a_pos":
		return 0
	case "a_light":
		return 1
	}
	return -1
}

func (d *fakeDevice) Uniform1i(loc int32, v int32) {
	if loc == locMode {
		d.mode = v
	}
}

func (d *fakeDevice) Uniform1f(loc int32, v float32) {
	if loc == locAlpha {
		d.alpha = v
	}
}

func (d *fakeDevice) Uniform4fv(loc int32, v []float32) {
	if loc == locColor {
		d.colors = append(d.colors, append([]float32(nil), v...))
	}
}

func (d *fakeDevice) UniformMatrix4fv(loc int32, m mgl32.Mat4) {
	if loc == locMVP {
		d.mvp = m
	}
}

func (d *fakeDevice) ClearDepth() {
	d.record("ClearDepth")
}

func (d *fakeDevice) DepthTest(enabled bool) {
	d.depthTest = enabled
	d.record("DepthTest(%v)", enabled)
}

func (d *fakeDevice) DepthMask(write bool) {
	d.record("DepthMask(%v)", write)
}

func (d *fakeDevice) SetDepthFunc(f DepthFunc) {
	d.depth = f
}

func (d *fakeDevice) ColorMask(write bool) {
	d.colorMask = write
}

func (d *fakeDevice) Blend(enabled bool) {
	d.record("Blend(%v)", enabled)
}

func (d *fakeDevice) CullFace(enabled bool) {
	d.record("CullFace(%v)", enabled)
}

func (d *fakeDevice) EnableVertexAttribs(locs ...int32) {
	d.enabled = append(d.enabled[:0], locs...)
}

func (d *fakeDevice) BindBuffers(vertices, indices extrusion.BufferHandle) {
	d.record("BindBuffers(%d,%d)", vertices, indices)
}

func (d *fakeDevice) VertexAttribPointer(loc int32, size int, typ AttribType, stride, offset int) {
	d.pointers = append(d.pointers, fmt.Sprintf("%d:%d/%d@%d", loc, size, stride, offset))
}

func (d *fakeDevice) DrawElements(mode Primitive, count, offset int) {
	d.draws = append(d.draws, drawCall{
		mode:      mode,
		count:     count,
		offset:    offset,
		shader:    d.mode,
		depth:     d.depth,
		colorMask: d.colorMask,
		mvp:       d.mvp,
	})
}

func (d *fakeDevice) UploadVertices(data []int16) extrusion.BufferHandle {
	d.nextBuffer++
	return d.nextBuffer
}

func (d *fakeDevice) UploadIndices(data []uint16) extrusion.BufferHandle {
	d.nextBuffer++
	return d.nextBuffer
}

func (d *fakeDevice) DeleteBuffer(h extrusion.BufferHandle) {
	d.buffers = append(d.buffers, h)
}

// colorDraws returns the draws made with colour writes enabled.
func (d *fakeDevice) colorDraws() []drawCall {
	var out []drawCall
	for _, c := range d.draws {
		if c.colorMask {
			out = append(out, c)
		}
	}
	return out
}
