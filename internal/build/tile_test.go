package build

import (
	"errors"
	"testing"

	"github.com/Faultbox/extrude/internal/engine/extrusion"
	"github.com/Faultbox/extrude/pkg/footprint"
)

func square(x, y, size float32) [][2]float32 {
	return [][2]float32{{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}}
}

func testTile() *footprint.Tile {
	return &footprint.Tile{
		Col: 35198, Row: 21494, Zoom: 16,
		Buildings: []footprint.Building{
			{Rings: [][][2]float32{square(100, 100, 50)}, Height: 10},
			{Rings: [][][2]float32{square(200, 100, 50)}, Height: 20},
			{Level: 1, Rings: [][][2]float32{square(300, 300, 50)}, Height: 5,
				Colors: footprint.Colors{Roof: "#c33"}},
		},
		Meshes: []footprint.Mesh{
			{
				Points:    [][3]float32{{0, 0, 0}, {100, 0, 0}, {100, 100, 0}, {0, 100, 0}},
				Triangles: [][3]int{{0, 1, 2}, {0, 2, 3}},
			},
		},
	}
}

func TestBuildTile(t *testing.T) {
	pools := extrusion.NewPools()
	tile, err := BuildTile(testTile(), footprint.Colors{}, pools)
	if err != nil {
		t.Fatalf("BuildTile: %v", err)
	}
	defer tile.Release(nil)

	if tile.Key != "16/35198/21494" {
		t.Errorf("unexpected key %s", tile.Key)
	}

	b := tile.Buildings
	if b == nil {
		t.Fatal("expected building batch")
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 grouped meshes, got %d", b.Len())
	}
	first := b.First()
	if first.Level != 0 || first.NumVertices != 16 {
		t.Errorf("expected level 0 with 16 vertices, got level %d with %d", first.Level, first.NumVertices)
	}
	if !first.Compiled() {
		t.Error("expected compiled mesh")
	}
	if b.Find(1) == nil {
		t.Error("expected level 1 mesh")
	}

	x, y := testTile().Anchor()
	if b.X != x || b.Y != y || b.Zoom != 16 {
		t.Errorf("unexpected anchor %v,%v zoom %d", b.X, b.Y, b.Zoom)
	}

	m := tile.Meshes
	if m == nil || m.Len() != 1 {
		t.Fatal("expected one triangle mesh")
	}
	if got := m.First().Counts[extrusion.BucketMesh]; got != 6 {
		t.Errorf("expected 6 mesh indices, got %d", got)
	}
	if got := m.First().NumVertices; got != 4 {
		t.Errorf("expected 4 shared vertices, got %d", got)
	}
}

func TestBuildTileEmpty(t *testing.T) {
	tests := []struct {
		name string
		tile footprint.Tile
	}{
		{"nothing", footprint.Tile{Zoom: 3}},
		{
			"degenerate ring",
			footprint.Tile{Zoom: 3, Buildings: []footprint.Building{
				{Rings: [][][2]float32{{{0, 0}, {10, 0}}}, Height: 3},
			}},
		},
		{
			"index out of range",
			footprint.Tile{Zoom: 3, Meshes: []footprint.Mesh{
				{Points: [][3]float32{{0, 0, 0}, {1, 1, 1}}, Triangles: [][3]int{{0, 1, 5}}},
			}},
		},
	}

	pools := extrusion.NewPools()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile, err := BuildTile(&tt.tile, footprint.Colors{}, pools)
			if err != nil {
				t.Fatalf("BuildTile: %v", err)
			}
			if tile.Buildings != nil || tile.Meshes != nil {
				t.Error("expected no batches")
			}
		})
	}

	if n := pools.Vertices.InUse(); n != 0 {
		t.Errorf("expected all vertex blocks returned, %d in use", n)
	}
}

func TestBuildTileBadColor(t *testing.T) {
	tile := testTile()
	tile.Buildings[2].Colors.Roof = "red"

	pools := extrusion.NewPools()
	_, err := BuildTile(tile, footprint.Colors{}, pools)
	if !errors.Is(err, footprint.ErrInvalidColor) {
		t.Fatalf("expected ErrInvalidColor, got %v", err)
	}
	if n := pools.Vertices.InUse(); n != 0 {
		t.Errorf("expected all vertex blocks returned, %d in use", n)
	}
}
