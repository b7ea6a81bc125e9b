// Package tessellate triangulates polygons with holes by ear clipping.
//
// The outer ring comes first, holes follow. Holes are bridged into the outer
// ring so that a single linked ring can be clipped; degenerate input falls back
// to progressively more forgiving passes instead of failing.
package tessellate

import (
	"math"
	"sort"
)

// Earcut is a stateless tessellator. The zero value is ready to use.
type Earcut struct{}

// Tessellate implements extrusion.Tessellator.
func (Earcut) Tessellate(points []float32, rings []int) []int {
	return Triangulate(points, rings)
}

// Triangulate returns triangle corners as indices into the points of all rings
// (x,y pairs, concatenated in ring order). rings holds the point count of each
// ring. Triangles share the winding of the outer ring.
func Triangulate(points []float32, rings []int) []int {
	if len(rings) == 0 || rings[0] < 3 {
		return nil
	}

	total := 0
	for _, n := range rings {
		total += n
	}
	if total*2 > len(points) {
		return nil
	}

	outerLen := rings[0]
	outer := linkedList(points, 0, outerLen, true)
	if outer == nil || outer.next == outer.prev {
		return nil
	}

	if len(rings) > 1 {
		outer = eliminateHoles(points, rings, outer)
	}

	var tris []int
	earcutLinked(outer, &tris, 0)

	// the linked list was built clockwise; flip back if the input was not
	if signedArea(points, 0, outerLen) <= 0 {
		for i := 0; i+2 < len(tris); i += 3 {
			tris[i+1], tris[i+2] = tris[i+2], tris[i+1]
		}
	}
	return tris
}

type node struct {
	i          int
	x, y       float64
	prev, next *node
	steiner    bool
}

// linkedList creates a circular list from points [start, end) in the
// requested orientation.
func linkedList(points []float32, start, end int, clockwise bool) *node {
	var last *node
	if clockwise == (signedArea(points, start, end) > 0) {
		for i := start; i < end; i++ {
			last = insertNode(i, points[2*i], points[2*i+1], last)
		}
	} else {
		for i := end - 1; i >= start; i-- {
			last = insertNode(i, points[2*i], points[2*i+1], last)
		}
	}

	if last != nil && equals(last, last.next) {
		removeNode(last)
		last = last.next
	}
	return last
}

func signedArea(points []float32, start, end int) float64 {
	var sum float64
	j := end - 1
	for i := start; i < end; i++ {
		sum += (float64(points[2*j]) - float64(points[2*i])) *
			(float64(points[2*i+1]) + float64(points[2*j+1]))
		j = i
	}
	return sum
}

func earcutLinked(ear *node, tris *[]int, pass int) {
	if ear == nil {
		return
	}

	stop := ear
	for ear.prev != ear.next {
		prev, next := ear.prev, ear.next

		if isEar(ear) {
			*tris = append(*tris, prev.i, ear.i, next.i)
			removeNode(ear)

			// skipping the next vertex leads to less sliver triangles
			ear = next.next
			stop = next.next
			continue
		}

		ear = next
		if ear == stop {
			switch pass {
			case 0:
				earcutLinked(filterPoints(ear, nil), tris, 1)
			case 1:
				ear = cureLocalIntersections(filterPoints(ear, nil), tris)
				earcutLinked(ear, tris, 2)
			case 2:
				splitEarcut(ear, tris)
			}
			return
		}
	}
}

func isEar(ear *node) bool {
	a, b, c := ear.prev, ear, ear.next
	if area(a, b, c) >= 0 {
		return false // reflex
	}

	for p := ear.next.next; p != ear.prev; p = p.next {
		if pointInTriangle(a.x, a.y, b.x, b.y, c.x, c.y, p.x, p.y) &&
			area(p.prev, p, p.next) >= 0 {
			return false
		}
	}
	return true
}

// filterPoints drops duplicate and collinear points.
func filterPoints(start, end *node) *node {
	if start == nil {
		return start
	}
	if end == nil {
		end = start
	}

	p := start
	for {
		again := false
		if !p.steiner && (equals(p, p.next) || area(p.prev, p, p.next) == 0) {
			removeNode(p)
			p = p.prev
			end = p
			if p == p.next {
				break
			}
			again = true
		} else {
			p = p.next
		}
		if !again && p == end {
			break
		}
	}
	return end
}

// cureLocalIntersections clips small self-intersections away.
func cureLocalIntersections(start *node, tris *[]int) *node {
	p := start
	for {
		a, b := p.prev, p.next.next

		if !equals(a, b) && intersects(a, p, p.next, b) &&
			locallyInside(a, b) && locallyInside(b, a) {
			*tris = append(*tris, a.i, p.i, b.i)
			removeNode(p)
			removeNode(p.next)
			p = b
			start = b
		}
		p = p.next
		if p == start {
			break
		}
	}
	return filterPoints(p, nil)
}

// splitEarcut splits the polygon along a valid diagonal and clips both halves.
func splitEarcut(start *node, tris *[]int) {
	a := start
	for {
		for b := a.next.next; b != a.prev; b = b.next {
			if a.i != b.i && isValidDiagonal(a, b) {
				c := splitPolygon(a, b)
				a = filterPoints(a, a.next)
				c = filterPoints(c, c.next)
				earcutLinked(a, tris, 0)
				earcutLinked(c, tris, 0)
				return
			}
		}
		a = a.next
		if a == start {
			return
		}
	}
}

func eliminateHoles(points []float32, rings []int, outer *node) *node {
	var queue []*node

	start := rings[0]
	for _, n := range rings[1:] {
		end := start + n
		if n >= 3 {
			list := linkedList(points, start, end, false)
			if list != nil {
				if list == list.next {
					list.steiner = true
				}
				queue = append(queue, leftmost(list))
			}
		}
		start = end
	}

	sort.Slice(queue, func(i, j int) bool {
		if queue[i].x != queue[j].x {
			return queue[i].x < queue[j].x
		}
		return queue[i].y < queue[j].y
	})

	for _, h := range queue {
		outer = eliminateHole(h, outer)
	}
	return outer
}

func eliminateHole(hole, outer *node) *node {
	bridge := findHoleBridge(hole, outer)
	if bridge == nil {
		return outer
	}

	bridgeReverse := splitPolygon(bridge, hole)
	filterPoints(bridgeReverse, bridgeReverse.next)
	return filterPoints(bridge, bridge.next)
}

// findHoleBridge finds an outer ring vertex visible from the leftmost hole point.
func findHoleBridge(hole, outer *node) *node {
	p := outer
	hx, hy := hole.x, hole.y
	qx := math.Inf(-1)
	var m *node

	// segment intersected by a ray from the hole point to the left
	for {
		if hy <= p.y && hy >= p.next.y && p.next.y != p.y {
			x := p.x + (hy-p.y)*(p.next.x-p.x)/(p.next.y-p.y)
			if x <= hx && x > qx {
				qx = x
				if p.x < p.next.x {
					m = p
				} else {
					m = p.next
				}
				if x == hx {
					return m
				}
			}
		}
		p = p.next
		if p == outer {
			break
		}
	}
	if m == nil {
		return nil
	}

	// look for points inside the triangle (hole, intersection, m) and take the
	// one with the smallest angle to the ray
	stop := m
	mx, my := m.x, m.y
	tanMin := math.Inf(1)

	p = m
	for {
		ax, cx := qx, hx
		if hy < my {
			ax, cx = hx, qx
		}
		if hx >= p.x && p.x >= mx && hx != p.x &&
			pointInTriangle(ax, hy, mx, my, cx, hy, p.x, p.y) {
			tan := math.Abs(hy-p.y) / (hx - p.x)
			if locallyInside(p, hole) &&
				(tan < tanMin || (tan == tanMin && (p.x > m.x || (p.x == m.x && sectorContainsSector(m, p))))) {
				m = p
				tanMin = tan
			}
		}
		p = p.next
		if p == stop {
			break
		}
	}
	return m
}

func sectorContainsSector(m, p *node) bool {
	return area(m.prev, m, p.prev) < 0 && area(p.next, m, m.next) < 0
}

func leftmost(start *node) *node {
	p, left := start, start
	for {
		if p.x < left.x || (p.x == left.x && p.y < left.y) {
			left = p
		}
		p = p.next
		if p == start {
			return left
		}
	}
}

func isValidDiagonal(a, b *node) bool {
	return a.next.i != b.i && a.prev.i != b.i && !intersectsPolygon(a, b) &&
		((locallyInside(a, b) && locallyInside(b, a) && middleInside(a, b) &&
			(area(a.prev, a, b.prev) != 0 || area(a, b.prev, b) != 0)) ||
			(equals(a, b) && area(a.prev, a, a.next) > 0 && area(b.prev, b, b.next) > 0))
}

func area(p, q, r *node) float64 {
	return (q.y-p.y)*(r.x-q.x) - (q.x-p.x)*(r.y-q.y)
}

func pointInTriangle(ax, ay, bx, by, cx, cy, px, py float64) bool {
	return (cx-px)*(ay-py)-(ax-px)*(cy-py) >= 0 &&
		(ax-px)*(by-py)-(bx-px)*(ay-py) >= 0 &&
		(bx-px)*(cy-py)-(cx-px)*(by-py) >= 0
}

func equals(a, b *node) bool {
	return a.x == b.x && a.y == b.y
}

func intersects(p1, q1, p2, q2 *node) bool {
	o1 := sign(area(p1, q1, p2))
	o2 := sign(area(p1, q1, q2))
	o3 := sign(area(p2, q2, p1))
	o4 := sign(area(p2, q2, q1))

	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == 0 && onSegment(p1, p2, q1) {
		return true
	}
	if o2 == 0 && onSegment(p1, q2, q1) {
		return true
	}
	if o3 == 0 && onSegment(p2, p1, q2) {
		return true
	}
	if o4 == 0 && onSegment(p2, q1, q2) {
		return true
	}
	return false
}

// onSegment reports whether q lies on segment pr, given collinear points.
func onSegment(p, q, r *node) bool {
	return q.x <= math.Max(p.x, r.x) && q.x >= math.Min(p.x, r.x) &&
		q.y <= math.Max(p.y, r.y) && q.y >= math.Min(p.y, r.y)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func intersectsPolygon(a, b *node) bool {
	p := a
	for {
		if p.i != a.i && p.next.i != a.i && p.i != b.i && p.next.i != b.i &&
			intersects(p, p.next, a, b) {
			return true
		}
		p = p.next
		if p == a {
			return false
		}
	}
}

func locallyInside(a, b *node) bool {
	if area(a.prev, a, a.next) < 0 {
		return area(a, b, a.next) >= 0 && area(a, a.prev, b) >= 0
	}
	return area(a, b, a.prev) < 0 || area(a, a.next, b) < 0
}

func middleInside(a, b *node) bool {
	p := a
	inside := false
	px, py := (a.x+b.x)/2, (a.y+b.y)/2
	for {
		if (p.y > py) != (p.next.y > py) && p.next.y != p.y &&
			px < (p.next.x-p.x)*(py-p.y)/(p.next.y-p.y)+p.x {
			inside = !inside
		}
		p = p.next
		if p == a {
			return inside
		}
	}
}

// splitPolygon links a and b with a bridge. Returns the node starting the
// second ring.
func splitPolygon(a, b *node) *node {
	a2 := &node{i: a.i, x: a.x, y: a.y}
	b2 := &node{i: b.i, x: b.x, y: b.y}
	an, bp := a.next, b.prev

	a.next = b
	b.prev = a

	a2.next = an
	an.prev = a2

	b2.next = a2
	a2.prev = b2

	bp.next = b2
	b2.prev = bp

	return b2
}

func insertNode(i int, x, y float32, last *node) *node {
	p := &node{i: i, x: float64(x), y: float64(y)}
	if last == nil {
		p.prev = p
		p.next = p
	} else {
		p.next = last.next
		p.prev = last
		last.next.prev = p
		last.next = p
	}
	return p
}

func removeNode(p *node) {
	p.next.prev = p.prev
	p.prev.next = p.next
}
