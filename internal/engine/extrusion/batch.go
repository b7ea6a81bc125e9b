package extrusion

import (
	"go.uber.org/zap"

	"github.com/Faultbox/extrude/internal/logger"
)

// Batch groups the meshes of one tile. They share one vertex and one index
// buffer and are placed relative to the tile anchor.
type Batch struct {
	// X and Y are the tile origin in normalized map coordinates.
	X, Y float64
	// Zoom is the zoom level the geometry was built for.
	Zoom int

	// Vertices and Indices are the uploaded GPU buffers.
	Vertices BufferHandle
	Indices  BufferHandle

	head  *Mesh
	count int

	buffers *Buffers
}

// NewBatch creates an empty batch anchored at (x, y) for the given zoom level.
func NewBatch(x, y float64, zoom int) *Batch {
	return &Batch{X: x, Y: y, Zoom: zoom}
}

// Add inserts m after all meshes with a level lower or equal to m.Level.
func (b *Batch) Add(m *Mesh) {
	b.count++
	if b.head == nil || b.head.Level > m.Level {
		m.next = b.head
		b.head = m
		return
	}
	p := b.head
	for p.next != nil && p.next.Level <= m.Level {
		p = p.next
	}
	m.next = p.next
	p.next = m
}

// First returns the first mesh, use Mesh.Next to walk the rest.
func (b *Batch) First() *Mesh {
	return b.head
}

// Len returns the number of meshes.
func (b *Batch) Len() int {
	return b.count
}

// Find returns the mesh with the given level, or nil.
func (b *Batch) Find(level int) *Mesh {
	for m := b.head; m != nil; m = m.next {
		if m.Level == level {
			return m
		}
	}
	return nil
}

// Compile flattens every mesh into one pair of buffers. It returns nil when
// the batch holds no vertices.
func (b *Batch) Compile() *Buffers {
	buf := &Buffers{}
	for m := b.head; m != nil; m = m.next {
		m.Compile(buf)
	}
	if len(buf.Vertices) == 0 {
		return nil
	}
	b.buffers = buf
	return buf
}

// Buffers returns the compiled buffers waiting for upload, or nil.
func (b *Batch) Buffers() *Buffers {
	return b.buffers
}

// Upload compiles the batch if needed and hands the buffers to u. It reports
// whether there was anything to upload.
func (b *Batch) Upload(u Uploader) bool {
	if b.Indices != 0 {
		return true
	}
	buf := b.buffers
	if buf == nil {
		buf = b.Compile()
	}
	if buf == nil || len(buf.Indices) == 0 {
		b.buffers = nil
		return false
	}

	b.Vertices = u.UploadVertices(buf.Vertices)
	b.Indices = u.UploadIndices(buf.Indices)

	logger.Debug("extrusion batch uploaded",
		zap.Int("meshes", b.count),
		zap.Int("vertices", len(buf.Vertices)/VertexStride),
		zap.Int("indices", len(buf.Indices)),
	)

	b.buffers = nil
	return true
}

// Uploaded reports whether GPU buffers exist for the batch.
func (b *Batch) Uploaded() bool {
	return b.Indices != 0
}

// Release frees the GPU buffers and any arenas still held by meshes.
func (b *Batch) Release(u Uploader) {
	if u != nil {
		if b.Vertices != 0 {
			u.DeleteBuffer(b.Vertices)
		}
		if b.Indices != 0 {
			u.DeleteBuffer(b.Indices)
		}
	}
	b.Vertices = 0
	b.Indices = 0
	b.buffers = nil

	for m := b.head; m != nil; m = m.next {
		m.Clear()
	}
}
