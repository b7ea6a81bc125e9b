package extrusion

import (
	"go.uber.org/zap"

	"github.com/Faultbox/extrude/internal/logger"
	"github.com/Faultbox/extrude/pkg/clip"
	"github.com/Faultbox/extrude/pkg/fixedpoint"
)

// AddPolygon extrudes footprint rings between minHeight and height, both in
// centimetres.
//
// index lists the coordinate count (two per point) of each ring in points.
// A zero entry starts a new polygon, whose first ring is the outer ring and
// whose following rings are holes. A negative entry ends the input.
func (m *Mesh) AddPolygon(points []float32, index []int, height, minHeight float32) {
	if !m.building() {
		return
	}

	h := fixedpoint.Height(height, m.groundResolution)
	mh := fixedpoint.Height(minHeight, m.groundResolution)

	complexOutline := false
	simpleOutline := true

	// first vertex of the current polygon
	startVertex := m.NumVertices

	for ipos, ppos := 0, 0; ipos < len(index); ipos++ {
		length := index[ipos]
		if length < 0 {
			break
		}

		if length == 0 {
			startVertex = m.NumVertices
			simpleOutline = true
			complexOutline = false
			continue
		}

		pos := ppos
		ppos += length
		if ppos > len(points) {
			logger.Debug("polygon index exceeds points",
				zap.Int("length", length), zap.Int("points", len(points)))
			break
		}

		l := ringLength(points, pos, length)
		if l < 6 {
			continue
		}

		if simpleOutline && ipos < len(index)-1 && index[ipos+1] > 0 {
			simpleOutline = false
		}

		if m.NumVertices+wallVertexCount(l) > MaxVertices {
			logger.Debug("polygon exceeds vertex limit", zap.Int("vertices", m.NumVertices))
			break
		}

		ringStart := m.NumVertices
		convex := m.addOutline(points, pos, l, mh, h, simpleOutline)

		if simpleOutline && (convex || l <= 8) {
			m.addRoofSimple(startVertex, l)
		} else if !complexOutline {
			complexOutline = true
			m.addRoof(ringStart, points, index, ipos, pos)
		}
	}
}

// ringLength returns the coordinate count of the ring at pos, dropping the
// last point of explicitly closed rings.
func ringLength(points []float32, pos, length int) int {
	if length >= 4 &&
		points[pos] == points[pos+length-2] &&
		points[pos+1] == points[pos+length-1] {
		logger.Debug("explicit closed polygon", zap.Int("points", length/2-1))
		return length - 2
	}
	return length
}

// wallVertexCount returns the number of wall vertices for a ring of l
// coordinates. Rings with an odd number of points repeat their first point so
// that the zigzag faces alternate evenly.
func wallVertexCount(l int) int {
	if l%4 != 0 {
		return l + 2
	}
	return l
}

// addOutline emits a bottom and a top vertex per ring point and the wall and
// roof outline indices for every edge inside the tile. It reports whether the
// ring looks convex; convexity is only tracked while convex is passed in true.
func (m *Mesh) addOutline(points []float32, pos, l int, minHeight, height int16, convex bool) bool {
	addFace := l%4 != 0
	vertexCnt := wallVertexCount(l)

	cx := points[pos+l-2]
	cy := points[pos+l-1]
	nx := points[pos]
	ny := points[pos+1]

	// vector to next point
	vx := nx - cx
	vy := ny - cy

	color1 := fixedpoint.EdgeLight(vx, vy)
	fcolor := color1

	even := 0
	changeX := 0
	changeY := 0
	angleSign := 0

	vOffset := m.NumVertices

	m.clipper.ClipStart(int(nx), int(ny))

	for i := 2; i < vertexCnt+2; i += 2 {
		cx, cy = nx, ny

		// vector from previous point
		ux, uy := vx, vy

		x := fixedpoint.Coord(cx)
		y := fixedpoint.Coord(cy)

		if i < l {
			nx = points[pos+i]
			ny = points[pos+i+1]
		} else if i == l {
			nx = points[pos]
			ny = points[pos+1]
		} else {
			// repeated first point closing an odd ring
			light := fixedpoint.PackPair(color1, fcolor)
			m.addVertex(x, y, minHeight, light)
			m.addVertex(x, y, height, light)
			break
		}

		vx = nx - cx
		vy = ny - cy

		color2 := fixedpoint.EdgeLight(vx, vy)
		var light uint16
		if even == 0 {
			light = fixedpoint.PackPair(color1, color2)
		} else {
			light = fixedpoint.PackPair(color2, color1)
		}
		m.addVertex(x, y, minHeight, light)
		m.addVertex(x, y, height, light)
		color1 = color2

		if convex {
			if (ux < 0) != (vx < 0) {
				changeX++
			}
			if (uy < 0) != (vy < 0) {
				changeY++
			}
			if changeX > 2 || changeY > 2 {
				convex = false
			}

			cross := ux*vy - uy*vx
			if cross > 0 {
				if angleSign == -1 {
					convex = false
				}
				angleSign = 1
			} else if cross < 0 {
				if angleSign == 1 {
					convex = false
				}
				angleSign = -1
			}
		}

		// skip walls of edges outside the tile
		if m.clipper.ClipNext(int(nx), int(ny)) == clip.Outside {
			even = (even + 1) % 2
			continue
		}

		s0 := vOffset + i - 2
		s1 := s0 + 1
		s2 := s0 + 2
		s3 := s0 + 3

		// connect the last face to the first when the ring was not padded
		if !addFace && i == l {
			s2 -= l
			s3 -= l
		}

		m.addIndices(Bucket(even), s0, s2, s1, s1, s2, s3)
		even = (even + 1) % 2

		m.addIndices(BucketOutline, s1, s3)
	}

	m.NumVertices += vertexCnt
	return convex
}

// addRoofSimple fans the roof of a convex ring from its first top vertex.
func (m *Mesh) addRoofSimple(startVertex, l int) {
	first := startVertex + 1
	for k := 0; k < l-4; k += 2 {
		m.addIndices(BucketRoof, first, first+k+2, first+k+4)
	}
}

// addRoof tessellates the polygon starting at ring ipos together with its
// holes and maps the result onto the top vertices of the walls.
func (m *Mesh) addRoof(startVertex int, points []float32, index []int, ipos, ppos int) {
	var (
		ringPoints []float32
		rings      []int
		ids        []int
	)

	vertex := startVertex
	for i, pos := ipos, ppos; i < len(index) && index[i] > 0; i++ {
		length := index[i]
		if pos+length > len(points) {
			break
		}
		l := ringLength(points, pos, length)
		pos += length
		if l < 6 {
			continue
		}

		ringPoints = append(ringPoints, points[pos-length:pos-length+l]...)
		rings = append(rings, l/2)
		for j := 0; j < l/2; j++ {
			ids = append(ids, vertex+2*j+1)
		}
		vertex += wallVertexCount(l)
	}

	if vertex > MaxVertices {
		logger.Debug("roof exceeds vertex limit", zap.Int("vertices", vertex))
		return
	}

	tris := m.tess.Tessellate(ringPoints, rings)
	n := len(tris) - len(tris)%3
	for k := 0; k < n; k += 3 {
		a, b, c := tris[k], tris[k+1], tris[k+2]
		if !validPoint(a, ids) || !validPoint(b, ids) || !validPoint(c, ids) {
			continue
		}
		m.addIndices(BucketRoof, ids[a], ids[b], ids[c])
	}

	if n == 0 {
		logger.Debug("roof tessellation produced no triangles", zap.Ints("rings", rings))
	}
}

func validPoint(i int, ids []int) bool {
	return i >= 0 && i < len(ids)
}
