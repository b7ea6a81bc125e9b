package footprint

import (
	"errors"
	"image/color"
	"math"
	"slices"
	"testing"
)

func TestParseFile(t *testing.T) {
	s, err := ParseFile("testdata/block.yaml")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if s.Name != "block" {
		t.Errorf("expected name block, got %q", s.Name)
	}

	st := s.Stats()
	want := Stats{Tiles: 2, Buildings: 3, Rings: 4, Meshes: 1, Triangles: 3}
	if st != want {
		t.Errorf("expected stats %+v, got %+v", want, st)
	}

	tile := s.Tiles[0]
	if tile.Key() != "16/35198/21494" {
		t.Errorf("unexpected key %s", tile.Key())
	}

	court := tile.Buildings[1]
	if court.Level != 1 || court.Height != 20 || court.MinHeight != 4 {
		t.Errorf("unexpected courtyard %+v", court)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  error
	}{
		{"no tiles", "name: empty\n", ErrNoTiles},
		{"zoom", "tiles: [{col: 0, row: 0, zoom: 30}]", ErrInvalidTile},
		{"column", "tiles: [{col: 4, row: 0, zoom: 2}]", ErrInvalidTile},
		{"negative row", "tiles: [{col: 0, row: -1, zoom: 2}]", ErrInvalidTile},
		{
			"height",
			"tiles: [{col: 0, row: 0, zoom: 1, buildings: [{rings: [[[0,0],[1,0],[1,1]]], height: 2, min_height: 5}]}]",
			ErrInvalidHeight,
		},
		{
			"building color",
			"tiles: [{col: 0, row: 0, zoom: 1, buildings: [{rings: [], height: 2, colors: {roof: red}}]}]",
			ErrInvalidColor,
		},
		{
			"scene color",
			"colors: {side: '#12'}\ntiles: [{col: 0, row: 0, zoom: 1}]",
			ErrInvalidColor,
		},
		{
			"mesh index",
			"tiles: [{col: 0, row: 0, zoom: 1, meshes: [{points: [[0,0,0],[1,0,0],[0,1,0]], triangles: [[0,1,3]]}]}]",
			ErrInvalidMesh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}

	if _, err := Parse([]byte("tiles: [")); err == nil {
		t.Error("expected error for broken YAML")
	}
	if _, err := ParseFile("testdata/missing.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTileGeometry(t *testing.T) {
	tile := Tile{Col: 1, Row: 1, Zoom: 1}

	x, y := tile.Anchor()
	if x != 0.5 || y != 0.5 {
		t.Errorf("expected anchor 0.5,0.5, got %v,%v", x, y)
	}

	// southern half, centre of the quarter
	if lat := tile.Latitude(); lat >= 0 || lat < -85.06 {
		t.Errorf("expected southern latitude, got %v", lat)
	}

	equator := Tile{Col: 0, Row: 0, Zoom: 0}
	if lat := equator.Latitude(); math.Abs(lat) > 1e-9 {
		t.Errorf("expected equator for the world tile, got %v", lat)
	}
	// 40075 km over 512 pixels
	if gr := equator.GroundResolution(); math.Abs(float64(gr)-78271.52) > 0.1 {
		t.Errorf("expected ~78271.52 m/px, got %v", gr)
	}
}

func TestBuildingFlatten(t *testing.T) {
	b := Building{
		Rings: [][][2]float32{
			{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
			{},
			{{2, 2}, {2, 4}, {4, 4}},
		},
		Height:    12.5,
		MinHeight: 2,
	}

	points, index := b.Flatten()
	if !slices.Equal(index, []int{8, 6}) {
		t.Errorf("expected index [8 6], got %v", index)
	}
	if len(points) != 14 || points[8] != 2 || points[13] != 4 {
		t.Errorf("unexpected points %v", points)
	}

	h, mh := b.HeightCM()
	if h != 1250 || mh != 200 {
		t.Errorf("expected 1250/200 cm, got %v/%v", h, mh)
	}
}

func TestMeshFlatten(t *testing.T) {
	m := Mesh{
		Points:    [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 2}},
		Triangles: [][3]int{{0, 1, 2}, {2, 1, 0}},
	}

	points, index := m.Flatten()
	if !slices.Equal(points, []float32{0, 0, 0, 1, 0, 0, 0, 1, 2}) {
		t.Errorf("unexpected points %v", points)
	}
	if !slices.Equal(index, []int{0, 1, 2, 2, 1, 0}) {
		t.Errorf("unexpected index %v", index)
	}

	def, _ := ParseColor(DefaultMeshColor)
	if m.MeshColor() != def {
		t.Errorf("expected default colour, got %v", m.MeshColor())
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}, true},
		{"#c33", color.NRGBA{0xcc, 0x33, 0x33, 255}, true},
		{"#e9e8e6", color.NRGBA{0xe9, 0xe8, 0xe6, 255}, true},
		{" #80808080 ", color.NRGBA{0x80, 0x80, 0x80, 0x80}, true},
		{"e9e8e6", color.NRGBA{}, false},
		{"#12", color.NRGBA{}, false},
		{"#gggggg", color.NRGBA{}, false},
		{"", color.NRGBA{}, false},
	}

	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.ok != (err == nil) {
			t.Errorf("ParseColor(%q): unexpected error state %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseColor(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestColorsResolve(t *testing.T) {
	scene := Colors{Roof: "#f0eee8"}
	building := Colors{Roof: "#c33", Outline: "#80808080"}

	set, err := building.Resolve(scene)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if set[0] != (color.NRGBA{0xcc, 0x33, 0x33, 255}) {
		t.Errorf("expected building roof, got %v", set[0])
	}
	side, _ := ParseColor(DefaultColors.Side)
	if set[1] != side {
		t.Errorf("expected default side, got %v", set[1])
	}

	set, err = Colors{}.Resolve(scene)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if set[0] != (color.NRGBA{0xf0, 0xee, 0xe8, 255}) {
		t.Errorf("expected scene roof, got %v", set[0])
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	s, err := ParseFile("testdata/block.yaml")
	if err != nil {
		t.Fatal(err)
	}
	data, err := s.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	again, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if again.Stats() != s.Stats() {
		t.Errorf("expected %+v after round trip, got %+v", s.Stats(), again.Stats())
	}
}
