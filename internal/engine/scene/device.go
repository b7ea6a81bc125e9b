package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/extrude/internal/engine/extrusion"
)

// ProgramHandle identifies a linked shader program. Zero means none.
type ProgramHandle uint32

// DepthFunc selects the depth comparison.
type DepthFunc int

// Depth comparisons.
const (
	DepthLess DepthFunc = iota
	DepthEqual
	DepthLequal
)

// String returns the GL name of the comparison.
func (f DepthFunc) String() string {
	switch f {
	case DepthLess:
		return "LESS"
	case DepthEqual:
		return "EQUAL"
	case DepthLequal:
		return "LEQUAL"
	}
	return "unknown"
}

// Primitive is the topology of a draw call.
type Primitive int

// Draw topologies.
const (
	Triangles Primitive = iota
	Lines
)

// AttribType is the component type of a vertex attribute.
type AttribType int

// Attribute component types.
const (
	AttribShort AttribType = iota
	AttribUnsignedByte
)

// Device is the slice of GL state the scene renderers drive. The GL backend in
// internal/engine/renderer implements it; tests use a recording fake.
type Device interface {
	CompileProgram(vertexSrc, fragmentSrc string) (ProgramHandle, error)
	DeleteProgram(p ProgramHandle)
	UseProgram(p ProgramHandle)
	UniformLocation(p ProgramHandle, name string) int32
	AttribLocation(p ProgramHandle, name string) int32

	Uniform1i(loc int32, v int32)
	Uniform1f(loc int32, v float32)
	// Uniform4fv uploads len(v)/4 vec4 values.
	Uniform4fv(loc int32, v []float32)
	UniformMatrix4fv(loc int32, m mgl32.Mat4)

	ClearDepth()
	DepthTest(enabled bool)
	DepthMask(write bool)
	SetDepthFunc(f DepthFunc)
	ColorMask(write bool)
	Blend(enabled bool)
	CullFace(enabled bool)

	// EnableVertexAttribs enables exactly the given attribute locations.
	// Negative locations are ignored.
	EnableVertexAttribs(locs ...int32)
	BindBuffers(vertices, indices extrusion.BufferHandle)
	// VertexAttribPointer reads size components of typ from the bound vertex
	// buffer; stride and offset are in bytes.
	VertexAttribPointer(loc int32, size int, typ AttribType, stride, offset int)
	// DrawElements draws count 16-bit indices starting at element offset.
	DrawElements(mode Primitive, count, offset int)
}
