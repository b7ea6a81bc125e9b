package extrusion

import (
	"go.uber.org/zap"

	"github.com/Faultbox/extrude/internal/logger"
	"github.com/Faultbox/extrude/pkg/fixedpoint"
)

// AddTriangleMesh adds triangles with flat face normals, sharing vertices
// whose quantized position and normal are equal.
//
// points holds x,y,z triples in mesh units (4096 per tile), index three point
// numbers per triangle and may be terminated by a negative entry. Once the
// 16-bit vertex space is exhausted, triangles that would need new vertices are
// dropped while triangles over known vertices are still added.
func (m *Mesh) AddTriangleMesh(points []float32, index []int) {
	if !m.building() {
		return
	}
	if m.dedup == nil {
		m.dedup = m.pools.getVertexIndex()
	}

	vertexCnt := m.NumVertices
	dropped := 0

	for k := 0; k+2 < len(index); k += 3 {
		i1, i2, i3 := index[k], index[k+1], index[k+2]
		if i1 < 0 || i2 < 0 || i3 < 0 {
			break
		}

		v1, v2, v3 := i1*3, i2*3, i3*3
		if v1+2 >= len(points) || v2+2 >= len(points) || v3+2 >= len(points) {
			logger.Debug("triangle index exceeds points", zap.Int("triangle", k/3))
			break
		}

		vx1, vy1, vz1 := points[v1], points[v1+1], points[v1+2]
		vx2, vy2, vz2 := points[v2], points[v2+1], points[v2+2]
		vx3, vy3, vz3 := points[v3], points[v3+1], points[v3+2]

		ax, ay, az := vx2-vx1, vy2-vy1, vz2-vz1
		bx, by, bz := vx3-vx1, vy3-vy1, vz3-vz1

		normal := fixedpoint.EncodeNormal(
			ay*bz-az*by,
			az*bx-ax*bz,
			ax*by-ay*bx,
		)

		keys := [3]vertexKey{
			meshKey(vx1, vy1, vz1, normal),
			meshKey(vx2, vy2, vz2, normal),
			meshKey(vx3, vy3, vz3, normal),
		}

		// resolve known vertices first so the limit check sees how many
		// new ones the triangle needs
		var ids [3]int
		added := 0
		for j, key := range keys {
			if id, ok := m.dedup.lookup(key); ok {
				ids[j] = int(id)
				continue
			}
			ids[j] = -1
			for p := 0; p < j; p++ {
				if keys[p] == key && ids[p] < 0 {
					ids[j] = -2 - p
					break
				}
			}
			if ids[j] == -1 {
				added++
			}
		}

		if vertexCnt+added > MaxVertices {
			dropped++
			continue
		}

		for j, key := range keys {
			switch {
			case ids[j] == -1:
				ids[j] = vertexCnt
				m.dedup.insert(key, uint16(vertexCnt))
				m.addVertex(key.x, key.y, key.z, key.n)
				vertexCnt++
			case ids[j] <= -2:
				// same corner as an earlier new one of this triangle
				ids[j] = ids[-2-ids[j]]
			}
		}

		m.addIndices(BucketMesh, ids[0], ids[1], ids[2])
	}

	if dropped > 0 {
		logger.Debug("triangle mesh truncated at vertex limit",
			zap.Int("dropped", dropped), zap.Int("vertices", vertexCnt))
	}

	m.NumVertices = vertexCnt
}

func meshKey(x, y, z float32, n uint16) vertexKey {
	return vertexKey{
		x: fixedpoint.MeshCoord(x),
		y: fixedpoint.MeshCoord(y),
		z: fixedpoint.MeshCoord(z),
		n: n,
	}
}

// AddTriangleMeshRaw adds pre-triangulated geometry without normals or vertex
// sharing. points holds x,y,z triples in tile pixels and is only scaled by the
// fixed-point factor; index holds point numbers relative to points.
func (m *Mesh) AddTriangleMeshRaw(points []float32, index []int) {
	if !m.building() {
		return
	}

	numPoints := len(points) / 3
	first := m.NumVertices
	if first+numPoints > MaxVertices {
		logger.Debug("raw mesh exceeds vertex limit",
			zap.Int("vertices", first), zap.Int("points", numPoints))
		return
	}

	for k := 0; k+2 < len(index); k += 3 {
		i1, i2, i3 := index[k], index[k+1], index[k+2]
		if i1 < 0 || i2 < 0 || i3 < 0 {
			break
		}
		if i1 >= numPoints || i2 >= numPoints || i3 >= numPoints {
			logger.Debug("raw mesh index exceeds points", zap.Int("triangle", k/3))
			break
		}
		m.addIndices(BucketMesh, first+i1, first+i2, first+i3)
	}

	for j := 0; j+2 < len(points); j += 3 {
		m.addVertex(
			fixedpoint.Coord(points[j]),
			fixedpoint.Coord(points[j+1]),
			fixedpoint.Coord(points[j+2]),
			0,
		)
	}
	m.NumVertices += numPoints
}
