// Package extrusion turns building footprints and triangle meshes into packed
// 16-bit vertex and index data for extruded 3D volumes.
//
// A Mesh collects geometry into pooled arena chains while it is being built,
// one vertex chain plus one index chain per Bucket. Compile flattens the
// chains into shared buffers and keeps only offsets and counts. Meshes of one
// tile are grouped into a Batch which owns the uploaded GPU buffers.
package extrusion

import (
	"image/color"
	"sync"

	"github.com/Faultbox/extrude/pkg/arena"
)

// Bucket selects one of the index streams of a mesh. The order is the order of
// the streams in the compiled index buffer.
type Bucket int

// Index buckets.
const (
	BucketSideEven Bucket = iota
	BucketSideOdd
	BucketRoof
	BucketOutline
	BucketMesh

	NumBuckets = 5
)

// String returns the bucket name.
func (b Bucket) String() string {
	switch b {
	case BucketSideEven:
		return "side-even"
	case BucketSideOdd:
		return "side-odd"
	case BucketRoof:
		return "roof"
	case BucketOutline:
		return "outline"
	case BucketMesh:
		return "mesh"
	}
	return "unknown"
}

const (
	// MaxVertices is the size of the 16-bit index space.
	MaxVertices = 1 << 16

	// VertexStride is the size of one vertex in int16 values: x, y, z and the
	// packed lighting or normal attribute.
	VertexStride = 4
	// VertexBytes is the size of one vertex in bytes.
	VertexBytes = VertexStride * 2
)

// Palette holds premultiplied RGBA colours for roof, even sides, odd sides and
// outline, in that order.
type Palette [4][4]float32

// Palette slots.
const (
	ColorRoof = iota
	ColorSideEven
	ColorSideOdd
	ColorOutline
)

// NewPalette builds a palette from four colours.
func NewPalette(roof, sideEven, sideOdd, outline color.NRGBA) Palette {
	return Palette{
		premultiply(roof),
		premultiply(sideEven),
		premultiply(sideOdd),
		premultiply(outline),
	}
}

// UniformPalette uses one colour for every slot. Triangle meshes are drawn with
// the first slot only.
func UniformPalette(c color.NRGBA) Palette {
	p := premultiply(c)
	return Palette{p, p, p, p}
}

// Floats returns the first n colours as a flat slice for uniform upload.
func (p *Palette) Floats(n int) []float32 {
	out := make([]float32, 0, n*4)
	for i := 0; i < n && i < len(p); i++ {
		out = append(out, p[i][:]...)
	}
	return out
}

func premultiply(c color.NRGBA) [4]float32 {
	a := float32(c.A) / 255
	return [4]float32{
		a * float32(c.R) / 255,
		a * float32(c.G) / 255,
		a * float32(c.B) / 255,
		a,
	}
}

// Tessellator triangulates a polygon with holes. points holds x,y pairs of all
// rings in order, rings the point count per ring with the outer ring first.
// The result lists triangle corners as indices into the points.
type Tessellator interface {
	Tessellate(points []float32, rings []int) []int
}

// BufferHandle identifies a GPU buffer. Zero means no buffer.
type BufferHandle uint32

// Uploader is the GPU side of a batch: it turns compiled buffers into buffer
// objects and frees them again.
type Uploader interface {
	UploadVertices(data []int16) BufferHandle
	UploadIndices(data []uint16) BufferHandle
	DeleteBuffer(h BufferHandle)
}

// Buffers receives compiled meshes. Vertices holds VertexStride values per
// vertex, Indices the bucket streams of every mesh back to back.
type Buffers struct {
	Vertices []int16
	Indices  []uint16
}

// Reset empties the buffers keeping their capacity.
func (b *Buffers) Reset() {
	b.Vertices = b.Vertices[:0]
	b.Indices = b.Indices[:0]
}

// Pools holds the arena and dedup-map pools shared by all mesh builders.
// All methods are safe for concurrent use.
type Pools struct {
	Vertices *arena.Pool[int16]
	Indices  *arena.Pool[uint16]

	maps sync.Pool
}

// NewPools creates an independent set of pools.
func NewPools() *Pools {
	return NewPoolsSize(0)
}

// NewPoolsSize creates pools keeping at most maxFree idle blocks each.
func NewPoolsSize(maxFree int) *Pools {
	p := &Pools{
		Vertices: arena.NewPool[int16](maxFree),
		Indices:  arena.NewPool[uint16](maxFree),
	}
	p.maps.New = func() any {
		return newVertexIndex()
	}
	return p
}

var defaultPools = NewPools()

// DefaultPools returns the process wide pools used by NewMesh.
func DefaultPools() *Pools {
	return defaultPools
}
