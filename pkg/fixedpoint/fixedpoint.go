// Package fixedpoint converts tile-local float coordinates, heights and normals
// into the 16-bit values stored in extrusion vertex buffers.
package fixedpoint

import (
	"math"

	"github.com/chewxy/math32"
)

const (
	// CoordScale is the fixed-point factor applied to tile pixel coordinates.
	CoordScale = 8
	// TileSize is the edge length of a tile in pixels.
	TileSize = 512
	// MeshScale maps triangle-mesh coordinates (4096 units per tile) to fixed point.
	MeshScale = float64(CoordScale) * TileSize / 4096

	// HeightStep is the size of one height unit in centimetres.
	HeightStep = 10

	earthCircumference = 2 * math.Pi * 6378137.0
	maxLatitude        = 85.05112877980659
)

// Coord converts a tile pixel coordinate to fixed point. The value is truncated
// toward zero and wraps like a 16-bit store.
func Coord(v float32) int16 {
	return int16(int32(v * CoordScale))
}

// MeshCoord converts a triangle-mesh coordinate to fixed point.
func MeshCoord(v float32) int16 {
	return int16(int32(float64(v) * MeshScale))
}

// Height converts a height in centimetres into tile-local units for the given
// ground resolution (metres per pixel).
func Height(cm, groundResolution float32) int16 {
	return int16(int32(cm / HeightStep / groundResolution))
}

// HeightUnits is Height without the final truncation.
func HeightUnits(cm, groundResolution float32) float32 {
	return cm / HeightStep / groundResolution
}

// EncodeNormal packs a face normal into two bytes using a hemispherical
// projection: p = sqrt(z/len*8 + 8), m = clamp(127 + c/len/p*128, 0, 255).
// The result is (my << 8) | mx.
func EncodeNormal(x, y, z float32) uint16 {
	l := math.Sqrt(float64(x)*float64(x) + float64(y)*float64(y) + float64(z)*float64(z))
	if l == 0 {
		return PackPair(127, 127)
	}
	p := math.Sqrt(float64(z)/l*8.0 + 8.0)
	if p == 0 {
		// straight down, the projection is undefined
		return PackPair(127, 127)
	}
	mx := clampByte(127 + int(float64(x)/l/p*128))
	my := clampByte(127 + int(float64(y)/l/p*128))
	return PackPair(mx, my)
}

// DecodeNormal reverses EncodeNormal up to quantization error.
func DecodeNormal(n uint16) (x, y, z float32) {
	fx := 4 * (float64(n&0xff) - 127) / 128
	fy := 4 * (float64(n>>8) - 127) / 128
	f := fx*fx + fy*fy
	if f > 4 {
		f = 4
	}
	g := math.Sqrt(1 - f/4)
	return float32(fx * g), float32(fy * g), float32(1 - f/2)
}

// EdgeLight returns the lighting byte for a wall facing along (dx, dy).
func EdgeLight(dx, dy float32) uint8 {
	l := math32.Sqrt(dx*dx + dy*dy)
	if l == 0 {
		return 127
	}
	return clampByte(int((1 + dx/l) * 127))
}

// PackPair stores lo in the low byte and hi in the high byte.
func PackPair(lo, hi uint8) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

// GroundResolution returns metres per pixel at the given latitude and zoom level.
func GroundResolution(latitude float64, zoom int) float32 {
	if latitude > maxLatitude {
		latitude = maxLatitude
	} else if latitude < -maxLatitude {
		latitude = -maxLatitude
	}
	mapSize := float64(int64(TileSize) << uint(zoom))
	return float32(math.Cos(latitude*math.Pi/180) * earthCircumference / mapSize)
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
