package extrusion

// Compile appends the mesh geometry to buf and releases the build-time arenas.
//
// Indices are written bucket by bucket in Bucket order starting at
// IndexOffset; vertices start at VertexOffset bytes. A mesh without vertices
// writes nothing. Compile runs at most once; later calls do nothing.
func (m *Mesh) Compile(buf *Buffers) {
	if m.compiled {
		return
	}
	m.compiled = true

	if m.NumVertices == 0 || m.vertices == nil {
		m.Clear()
		return
	}

	m.IndexOffset = len(buf.Indices)
	for i, c := range m.indices {
		if c == nil {
			continue
		}
		m.Counts[i] = c.Len()
		buf.Indices = c.AppendTo(buf.Indices)
	}

	m.VertexOffset = len(buf.Vertices) * 2
	buf.Vertices = m.vertices.AppendTo(buf.Vertices)

	m.Clear()
}
