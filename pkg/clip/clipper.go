// Package clip tests polyline segments against an axis aligned rectangle.
package clip

// Result of clipping one segment.
const (
	Outside    = 0
	Inside     = 1
	Intersects = -1
)

const (
	codeInside = 0
	codeLeft   = 1
	codeRight  = 2
	codeBottom = 4
	codeTop    = 8
)

// LineClipper walks a polyline point by point and reports for every segment
// whether it lies inside, outside or across the clip rectangle.
type LineClipper struct {
	xmin, ymin, xmax, ymax int

	prevX, prevY int
	prevCode     int
}

// NewLineClipper creates a clipper for the rectangle [xmin,xmax] x [ymin,ymax].
func NewLineClipper(xmin, ymin, xmax, ymax int) *LineClipper {
	return &LineClipper{xmin: xmin, ymin: ymin, xmax: xmax, ymax: ymax}
}

// ClipStart sets the first point of the polyline.
func (c *LineClipper) ClipStart(x, y int) {
	c.prevX = x
	c.prevY = y
	c.prevCode = c.outcode(x, y)
}

// ClipNext classifies the segment from the previous point to (x, y) and
// advances to (x, y).
func (c *LineClipper) ClipNext(x, y int) int {
	code := c.outcode(x, y)

	var result int
	switch {
	case c.prevCode|code == codeInside:
		result = Inside
	case c.prevCode&code != 0:
		// both points on the same outer side
		result = Outside
	case c.crosses(c.prevX, c.prevY, x, y):
		result = Intersects
	default:
		result = Outside
	}

	c.prevX = x
	c.prevY = y
	c.prevCode = code
	return result
}

func (c *LineClipper) outcode(x, y int) int {
	code := codeInside
	if x < c.xmin {
		code |= codeLeft
	} else if x > c.xmax {
		code |= codeRight
	}
	if y < c.ymin {
		code |= codeBottom
	} else if y > c.ymax {
		code |= codeTop
	}
	return code
}

// crosses reports whether the segment touches the rectangle. It is only
// called when the trivial accept/reject tests failed.
func (c *LineClipper) crosses(x0, y0, x1, y1 int) bool {
	if c.outcode(x0, y0) == codeInside || c.outcode(x1, y1) == codeInside {
		return true
	}

	// The segment misses the rectangle iff all four corners lie strictly on
	// the same side of the line through it.
	dx := int64(x1 - x0)
	dy := int64(y1 - y0)
	side := func(px, py int) int {
		v := dx*int64(py-y0) - dy*int64(px-x0)
		switch {
		case v > 0:
			return 1
		case v < 0:
			return -1
		}
		return 0
	}

	s0 := side(c.xmin, c.ymin)
	corners := [3][2]int{{c.xmax, c.ymin}, {c.xmax, c.ymax}, {c.xmin, c.ymax}}
	if s0 == 0 {
		return true
	}
	for _, p := range corners {
		if side(p[0], p[1]) != s0 {
			return true
		}
	}
	return false
}
