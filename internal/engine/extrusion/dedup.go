package extrusion

// vertexKey identifies a triangle-mesh vertex: quantized position plus the
// encoded face normal. Two vertices are shared only if all four match.
type vertexKey struct {
	x, y, z int16
	n       uint16
}

// vertexIndex maps vertex keys to vertex ids of one mesh.
type vertexIndex struct {
	ids map[vertexKey]uint16
}

func newVertexIndex() *vertexIndex {
	return &vertexIndex{ids: make(map[vertexKey]uint16, 2048)}
}

func (vi *vertexIndex) lookup(k vertexKey) (uint16, bool) {
	id, ok := vi.ids[k]
	return id, ok
}

func (vi *vertexIndex) insert(k vertexKey, id uint16) {
	vi.ids[k] = id
}

func (vi *vertexIndex) len() int {
	return len(vi.ids)
}

// getVertexIndex borrows an empty index from the pool.
func (p *Pools) getVertexIndex() *vertexIndex {
	return p.maps.Get().(*vertexIndex)
}

// releaseVertexIndex empties vi and returns it to the pool.
func (p *Pools) releaseVertexIndex(vi *vertexIndex) {
	if vi == nil {
		return
	}
	clear(vi.ids)
	p.maps.Put(vi)
}
