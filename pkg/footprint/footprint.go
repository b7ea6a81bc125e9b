// Package footprint reads building footprint scenes: map tiles holding
// extruded buildings and triangle meshes, stored as YAML.
package footprint

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/extrude/pkg/fixedpoint"
)

// MaxZoom is the deepest supported zoom level.
const MaxZoom = 22

// Scene format errors.
var (
	ErrNoTiles       = errors.New("scene has no tiles")
	ErrInvalidTile   = errors.New("invalid tile")
	ErrInvalidColor  = errors.New("invalid color")
	ErrInvalidHeight = errors.New("invalid height")
	ErrInvalidMesh   = errors.New("invalid mesh")
)

// Scene is a set of tiles.
type Scene struct {
	Name string `yaml:"name,omitempty"`
	// Colors apply to buildings without their own colours.
	Colors Colors `yaml:"colors,omitempty"`
	Tiles  []Tile `yaml:"tiles"`
}

// Tile addresses one map tile and its content. Coordinates of buildings and
// meshes are tile pixels, 0..512 across the tile.
type Tile struct {
	Col  int `yaml:"col"`
	Row  int `yaml:"row"`
	Zoom int `yaml:"zoom"`

	Buildings []Building `yaml:"buildings,omitempty"`
	Meshes    []Mesh     `yaml:"meshes,omitempty"`
}

// Building is a footprint with holes extruded between MinHeight and Height,
// both in metres.
type Building struct {
	ID    string `yaml:"id,omitempty"`
	Level int    `yaml:"level,omitempty"`
	// Rings holds the outer ring first, then holes. Closing points are optional.
	Rings     [][][2]float32 `yaml:"rings"`
	Height    float32        `yaml:"height"`
	MinHeight float32        `yaml:"min_height,omitempty"`
	Colors    Colors         `yaml:"colors,omitempty"`
}

// Mesh is a triangle mesh drawn in one colour. Points are x,y,z in mesh
// units (4096 across the tile) unless Raw is set, then in tile pixels.
type Mesh struct {
	ID        string       `yaml:"id,omitempty"`
	Level     int          `yaml:"level,omitempty"`
	Color     string       `yaml:"color,omitempty"`
	Raw       bool         `yaml:"raw,omitempty"`
	Points    [][3]float32 `yaml:"points"`
	Triangles [][3]int     `yaml:"triangles"`
}

// Colors names the four building colours as #rgb, #rrggbb or #rrggbbaa.
// Empty entries fall back to the scene colours, then to DefaultColors.
type Colors struct {
	Roof    string `yaml:"roof,omitempty"`
	Side    string `yaml:"side,omitempty"`
	SideOdd string `yaml:"side_odd,omitempty"`
	Outline string `yaml:"outline,omitempty"`
}

// DefaultColors is the light grey building style.
var DefaultColors = Colors{
	Roof:    "#e9e8e6",
	Side:    "#dcdad6",
	SideOdd: "#d3d1cd",
	Outline: "#d5d4d2",
}

// DefaultMeshColor colours meshes without a colour.
const DefaultMeshColor = "#c8c4bc"

// Parse reads and validates a scene.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding scene: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseFile reads and validates the scene at path.
func ParseFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Marshal encodes the scene as YAML.
func (s *Scene) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Validate checks tile addresses, heights, colours and mesh indices.
func (s *Scene) Validate() error {
	if len(s.Tiles) == 0 {
		return ErrNoTiles
	}
	if _, err := s.Colors.Resolve(DefaultColors); err != nil {
		return fmt.Errorf("scene colors: %w", err)
	}
	for i := range s.Tiles {
		if err := s.Tiles[i].validate(); err != nil {
			return fmt.Errorf("tile %d: %w", i, err)
		}
	}
	return nil
}

func (t *Tile) validate() error {
	if t.Zoom < 0 || t.Zoom > MaxZoom {
		return fmt.Errorf("%w: zoom %d", ErrInvalidTile, t.Zoom)
	}
	n := 1 << uint(t.Zoom)
	if t.Col < 0 || t.Col >= n || t.Row < 0 || t.Row >= n {
		return fmt.Errorf("%w: %d/%d/%d", ErrInvalidTile, t.Zoom, t.Col, t.Row)
	}

	for i, b := range t.Buildings {
		if b.Height < b.MinHeight {
			return fmt.Errorf("building %d: %w: %v below min %v", i, ErrInvalidHeight, b.Height, b.MinHeight)
		}
		if _, err := b.Colors.Resolve(DefaultColors); err != nil {
			return fmt.Errorf("building %d: %w", i, err)
		}
	}

	for i, m := range t.Meshes {
		if m.Color != "" {
			if _, err := ParseColor(m.Color); err != nil {
				return fmt.Errorf("mesh %d: %w", i, err)
			}
		}
		for j, tri := range m.Triangles {
			for _, p := range tri {
				if p < 0 || p >= len(m.Points) {
					return fmt.Errorf("mesh %d triangle %d: %w: point %d of %d",
						i, j, ErrInvalidMesh, p, len(m.Points))
				}
			}
		}
	}
	return nil
}

// Anchor returns the tile origin in normalized map coordinates.
func (t *Tile) Anchor() (x, y float64) {
	n := float64(int64(1) << uint(t.Zoom))
	return float64(t.Col) / n, float64(t.Row) / n
}

// Latitude returns the latitude of the tile centre in degrees.
func (t *Tile) Latitude() float64 {
	n := float64(int64(1) << uint(t.Zoom))
	y := (float64(t.Row) + 0.5) / n
	return math.Atan(math.Sinh(math.Pi*(1-2*y))) * 180 / math.Pi
}

// GroundResolution returns metres per tile pixel at the tile centre.
func (t *Tile) GroundResolution() float32 {
	return fixedpoint.GroundResolution(t.Latitude(), t.Zoom)
}

// Key returns "zoom/col/row".
func (t *Tile) Key() string {
	return fmt.Sprintf("%d/%d/%d", t.Zoom, t.Col, t.Row)
}

// Flatten returns the rings as x,y pairs and the coordinate count per ring.
func (b *Building) Flatten() (points []float32, index []int) {
	for _, ring := range b.Rings {
		if len(ring) == 0 {
			continue
		}
		for _, p := range ring {
			points = append(points, p[0], p[1])
		}
		index = append(index, len(ring)*2)
	}
	return points, index
}

// HeightCM returns height and min height in centimetres.
func (b *Building) HeightCM() (height, minHeight float32) {
	return b.Height * 100, b.MinHeight * 100
}

// Flatten returns the points as x,y,z triples and three point numbers per
// triangle.
func (m *Mesh) Flatten() (points []float32, index []int) {
	points = make([]float32, 0, len(m.Points)*3)
	for _, p := range m.Points {
		points = append(points, p[0], p[1], p[2])
	}
	index = make([]int, 0, len(m.Triangles)*3)
	for _, t := range m.Triangles {
		index = append(index, t[0], t[1], t[2])
	}
	return points, index
}

// MeshColor returns the mesh colour or DefaultMeshColor.
func (m *Mesh) MeshColor() color.NRGBA {
	c, err := ParseColor(m.Color)
	if err != nil {
		c, _ = ParseColor(DefaultMeshColor)
	}
	return c
}

// ColorSet holds resolved roof, side, odd side and outline colours.
type ColorSet [4]color.NRGBA

// Resolve parses the colours, taking empty entries from def and then from
// DefaultColors.
func (c Colors) Resolve(def Colors) (ColorSet, error) {
	c = c.Merge(def).Merge(DefaultColors)

	var out ColorSet
	for i, s := range [4]string{c.Roof, c.Side, c.SideOdd, c.Outline} {
		col, err := ParseColor(s)
		if err != nil {
			return ColorSet{}, err
		}
		out[i] = col
	}
	return out, nil
}

// Merge returns c with empty entries taken from def.
func (c Colors) Merge(def Colors) Colors {
	if c.Roof == "" {
		c.Roof = def.Roof
	}
	if c.Side == "" {
		c.Side = def.Side
	}
	if c.SideOdd == "" {
		c.SideOdd = def.SideOdd
	}
	if c.Outline == "" {
		c.Outline = def.Outline
	}
	return c
}

// ParseColor parses #rgb, #rrggbb or #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// Stats counts the content of a scene.
type Stats struct {
	Tiles     int
	Buildings int
	Rings     int
	Meshes    int
	Triangles int
}

// Stats returns content counts.
func (s *Scene) Stats() Stats {
	st := Stats{Tiles: len(s.Tiles)}
	for _, t := range s.Tiles {
		st.Buildings += len(t.Buildings)
		for _, b := range t.Buildings {
			st.Rings += len(b.Rings)
		}
		st.Meshes += len(t.Meshes)
		for _, m := range t.Meshes {
			st.Triangles += len(m.Triangles)
		}
	}
	return st
}
