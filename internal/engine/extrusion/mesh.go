package extrusion

import (
	"image/color"

	"github.com/Faultbox/extrude/pkg/arena"
	"github.com/Faultbox/extrude/pkg/clip"
	"github.com/Faultbox/extrude/pkg/fixedpoint"
	"github.com/Faultbox/extrude/pkg/tessellate"
)

// Mesh is the extruded geometry of one footprint group or triangle mesh.
//
// A mesh is filled by Add* calls from a single goroutine, then flattened once
// by Compile. After Compile only the offsets, counts and palette remain and
// the mesh is read-only.
type Mesh struct {
	// Level orders meshes inside a batch.
	Level   int
	Palette Palette

	// VertexOffset is the byte offset of the first vertex in the shared
	// vertex buffer.
	VertexOffset int
	// IndexOffset is the element offset of the first index in the shared
	// index buffer.
	IndexOffset int
	// Counts holds the number of indices per bucket.
	Counts [NumBuckets]int

	// NumVertices and NumIndices are the totals added so far.
	NumVertices int
	NumIndices  int

	next *Mesh

	groundResolution float32
	pools            *Pools
	tess             Tessellator
	clipper          *clip.LineClipper
	dedup            *vertexIndex

	vertices *arena.Chain[int16]
	indices  [NumBuckets]*arena.Chain[uint16]

	compiled bool
}

// Option configures a mesh.
type Option func(*Mesh)

// WithPools makes the mesh borrow arenas from p instead of DefaultPools.
func WithPools(p *Pools) Option {
	return func(m *Mesh) {
		m.pools = p
	}
}

// WithTessellator replaces the ear-clipping tessellator used for concave and
// holed roofs.
func WithTessellator(t Tessellator) Option {
	return func(m *Mesh) {
		m.tess = t
	}
}

// NewMesh creates a mesh for extruded polygons. groundResolution is the size of
// a tile pixel in metres at the mesh's zoom level.
func NewMesh(level int, groundResolution float32, palette Palette, opts ...Option) *Mesh {
	m := &Mesh{
		Level:            level,
		Palette:          palette,
		groundResolution: groundResolution,
		pools:            defaultPools,
		tess:             tessellate.Earcut{},
		clipper:          clip.NewLineClipper(0, 0, fixedpoint.TileSize, fixedpoint.TileSize),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.vertices = arena.NewChain(m.pools.Vertices)
	for i := range m.indices {
		m.indices[i] = arena.NewChain(m.pools.Indices)
	}
	return m
}

// NewTriangleMesh creates a mesh for triangle input drawn in a single colour.
func NewTriangleMesh(level int, groundResolution float32, c color.NRGBA, opts ...Option) *Mesh {
	return NewMesh(level, groundResolution, UniformPalette(c), opts...)
}

// Next returns the following mesh of the batch.
func (m *Mesh) Next() *Mesh {
	return m.next
}

// Compiled reports whether Compile has run.
func (m *Mesh) Compiled() bool {
	return m.compiled
}

// Empty reports whether the mesh has nothing to draw.
func (m *Mesh) Empty() bool {
	if !m.compiled {
		return m.NumIndices == 0
	}
	for _, n := range m.Counts {
		if n > 0 {
			return false
		}
	}
	return true
}

// building reports whether Add* calls may still append geometry.
func (m *Mesh) building() bool {
	return !m.compiled && m.vertices != nil
}

// Len returns the number of indices in bucket b. Before Compile it counts the
// indices added so far.
func (m *Mesh) Len(b Bucket) int {
	if m.compiled {
		return m.Counts[b]
	}
	if c := m.indices[b]; c != nil {
		return c.Len()
	}
	return 0
}

// BucketOffset returns the element offset of bucket b in the shared index buffer.
func (m *Mesh) BucketOffset(b Bucket) int {
	off := m.IndexOffset
	for i := Bucket(0); i < b; i++ {
		off += m.Counts[i]
	}
	return off
}

func (m *Mesh) addVertex(x, y, z int16, n uint16) {
	m.vertices.Append(x, y, z, int16(n))
}

func (m *Mesh) addIndices(b Bucket, ids ...int) {
	c := m.indices[b]
	for _, id := range ids {
		c.Append(uint16(id))
	}
	m.NumIndices += len(ids)
}

// Clear returns all build-time arenas to the pools. It is safe to call on an
// abandoned, partially built mesh and more than once.
func (m *Mesh) Clear() {
	m.clipper = nil
	if m.dedup != nil {
		m.pools.releaseVertexIndex(m.dedup)
		m.dedup = nil
	}
	if m.vertices != nil {
		m.vertices.Release()
		m.vertices = nil
	}
	for i, c := range m.indices {
		if c != nil {
			c.Release()
			m.indices[i] = nil
		}
	}
}
