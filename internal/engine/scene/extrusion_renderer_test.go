package scene

import (
	"image/color"
	"slices"
	"testing"

	"github.com/Faultbox/extrude/internal/engine/camera"
	"github.com/Faultbox/extrude/internal/engine/extrusion"
)

var (
	grey = extrusion.NewPalette(
		color.NRGBA{R: 200, G: 200, B: 200, A: 255},
		color.NRGBA{R: 180, G: 180, B: 180, A: 255},
		color.NRGBA{R: 160, G: 160, B: 160, A: 255},
		color.NRGBA{R: 100, G: 100, B: 100, A: 255},
	)
	red = extrusion.UniformPalette(color.NRGBA{R: 255, A: 255})
)

var square = []float32{0, 0, 10, 0, 10, 10, 0, 10, 0, 0}

// newBuilding returns a square building with a triangle on its roof.
func newBuilding(level int, p extrusion.Palette, pools *extrusion.Pools) *extrusion.Mesh {
	m := extrusion.NewMesh(level, 1, p, extrusion.WithPools(pools))
	m.AddPolygon(square, []int{len(square)}, 30, 0)
	m.AddTriangleMesh([]float32{0, 0, 30, 10, 0, 30, 10, 10, 30}, []int{0, 1, 2})
	return m
}

func newUploadedBatch(t *testing.T, dev *fakeDevice, meshes ...*extrusion.Mesh) *extrusion.Batch {
	t.Helper()
	b := extrusion.NewBatch(0.5, 0.5, 16)
	for _, m := range meshes {
		b.Add(m)
	}
	if !b.Upload(dev) {
		t.Fatal("expected batch upload")
	}
	return b
}

func newReadyRenderer(t *testing.T, dev *fakeDevice, cfg RendererConfig) *ExtrusionRenderer {
	t.Helper()
	r := NewExtrusionRenderer(cfg)
	if !r.Setup(dev) {
		t.Fatal("expected setup to succeed")
	}
	return r
}

func testViewport() *camera.Viewport {
	return camera.NewViewport(0.5, 0.5, 1<<16)
}

func TestRenderSetupFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.failCompile = true

	r := NewExtrusionRenderer(DefaultRendererConfig())
	if r.Setup(dev) {
		t.Fatal("expected setup failure")
	}
	if r.Ready() {
		t.Error("expected renderer to be disabled")
	}

	pools := extrusion.NewPools()
	b := newUploadedBatch(t, dev, newBuilding(0, grey, pools))

	stats := r.Render(testViewport(), []*extrusion.Batch{b})
	if len(dev.draws) != 0 {
		t.Errorf("expected no draws, got %d", len(dev.draws))
	}
	if !slices.Equal(stats.Passes, []Pass{PassInit, PassDone}) {
		t.Errorf("unexpected passes %v", stats.Passes)
	}
}

func TestRenderAlpha(t *testing.T) {
	dev := newFakeDevice()
	r := newReadyRenderer(t, dev, DefaultRendererConfig())
	b := newUploadedBatch(t, dev, newBuilding(0, grey, extrusion.NewPools()))
	v := testViewport()

	stats := r.Render(v, []*extrusion.Batch{b})

	wantPasses := []Pass{PassInit, PassAlphaPrepass, PassColor, PassOutline, PassMesh, PassDone}
	if !slices.Equal(stats.Passes, wantPasses) {
		t.Errorf("expected passes %v, got %v", wantPasses, stats.Passes)
	}

	mvp := v.ModelMatrix(b.X, b.Y, b.Zoom, 0)
	outlineMVP := camera.AddDepthOffset(mvp, OutlineDepthOffset)

	want := []drawCall{
		// depth pre-pass: walls and roof, then the mesh bucket
		{Triangles, 30, 0, modeDepth, DepthLess, false, mvp},
		{Triangles, 3, 38, modeDepth, DepthLess, false, mvp},
		// colour pass
		{Triangles, 6, 24, modeRoof, DepthEqual, true, mvp},
		{Triangles, 12, 0, modeSide, DepthEqual, true, mvp},
		{Triangles, 12, 12, modeSideOdd, DepthEqual, true, mvp},
		{Lines, 8, 30, modeOutline, DepthLequal, true, outlineMVP},
		{Triangles, 3, 38, modeMesh, DepthEqual, true, mvp},
	}

	if len(dev.draws) != len(want) {
		t.Fatalf("expected %d draws, got %d: %+v", len(want), len(dev.draws), dev.draws)
	}
	for i, w := range want {
		if dev.draws[i] != w {
			t.Errorf("draw %d: expected %+v, got %+v", i, w, dev.draws[i])
		}
	}

	if stats.Meshes != 1 || stats.Batches != 1 || stats.DrawCalls != len(want) {
		t.Errorf("unexpected stats %+v", stats)
	}
	if dev.alpha != 1 {
		t.Errorf("expected fade 1, got %v", dev.alpha)
	}
	if !slices.Contains(dev.calls, "ClearDepth") {
		t.Error("expected depth buffer to be cleared")
	}
	if last := dev.calls[len(dev.calls)-1]; last != "BindBuffers(0,0)" {
		t.Errorf("expected buffers unbound at the end, got %s", last)
	}
}

func TestRenderOpaque(t *testing.T) {
	dev := newFakeDevice()
	r := newReadyRenderer(t, dev, RendererConfig{Fade: 0.5})
	b := newUploadedBatch(t, dev, newBuilding(0, grey, extrusion.NewPools()))

	stats := r.Render(testViewport(), []*extrusion.Batch{b})

	wantPasses := []Pass{PassInit, PassColor, PassOutline, PassMesh, PassDone}
	if !slices.Equal(stats.Passes, wantPasses) {
		t.Errorf("expected passes %v, got %v", wantPasses, stats.Passes)
	}
	if len(dev.draws) != 5 {
		t.Fatalf("expected 5 draws, got %d", len(dev.draws))
	}
	for _, d := range dev.draws {
		if d.depth != DepthLess {
			t.Errorf("mode %d: expected LESS without pre-pass, got %s", d.shader, d.depth)
		}
		if !d.colorMask {
			t.Error("expected colour writes")
		}
	}
	if dev.alpha != 0.5 {
		t.Errorf("expected fade 0.5, got %v", dev.alpha)
	}
}

func TestRenderPointers(t *testing.T) {
	dev := newFakeDevice()
	r := newReadyRenderer(t, dev, RendererConfig{})

	pools := extrusion.NewPools()
	first := newBuilding(0, grey, pools)
	second := newBuilding(1, grey, pools)
	b := newUploadedBatch(t, dev, first, second)

	r.Render(testViewport(), []*extrusion.Batch{b})

	// 11 vertices of 8 bytes precede the second mesh
	want := []string{"0:3/8@0", "1:2/8@6", "0:3/8@88", "1:2/8@94"}
	if !slices.Equal(dev.pointers, want) {
		t.Errorf("expected pointers %v, got %v", want, dev.pointers)
	}

	// second mesh draws start after the 41 indices of the first
	var offsets []int
	for _, d := range dev.draws[5:] {
		offsets = append(offsets, d.offset)
	}
	if !slices.Equal(offsets, []int{41 + 24, 41, 41 + 12, 41 + 30, 41 + 38}) {
		t.Errorf("unexpected second mesh offsets %v", offsets)
	}

	// the outline bias does not carry over to the next mesh
	mvp := testViewport().ModelMatrix(b.X, b.Y, b.Zoom, 0)
	if dev.draws[5].mvp != mvp {
		t.Error("expected second mesh to start from the batch matrix")
	}
}

func TestRenderPaletteCoalescing(t *testing.T) {
	tests := []struct {
		name     string
		palettes []extrusion.Palette
		uploads  int
	}{
		{"same palette", []extrusion.Palette{grey, grey, grey}, 1},
		{"equal copies", []extrusion.Palette{grey, extrusion.Palette(grey)}, 1},
		{"alternating", []extrusion.Palette{grey, red, grey}, 3},
		{"runs", []extrusion.Palette{grey, grey, red, red}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice()
			r := newReadyRenderer(t, dev, RendererConfig{})

			pools := extrusion.NewPools()
			var meshes []*extrusion.Mesh
			for i, p := range tt.palettes {
				meshes = append(meshes, newBuilding(i, p, pools))
			}
			b := newUploadedBatch(t, dev, meshes...)

			stats := r.Render(testViewport(), []*extrusion.Batch{b})
			if stats.ColorUploads != tt.uploads {
				t.Errorf("expected %d colour uploads, got %d", tt.uploads, stats.ColorUploads)
			}
			if len(dev.colors) != tt.uploads {
				t.Errorf("expected %d uniform uploads, got %d", tt.uploads, len(dev.colors))
			}
			for _, c := range dev.colors {
				if len(c) != 16 {
					t.Errorf("expected 4 colours, got %d floats", len(c))
				}
			}
		})
	}
}

func TestRenderMeshProgram(t *testing.T) {
	dev := newFakeDevice()
	r := newReadyRenderer(t, dev, RendererConfig{Mesh: true})

	m := extrusion.NewTriangleMesh(0, 1, color.NRGBA{G: 255, A: 255}, extrusion.WithPools(extrusion.NewPools()))
	m.AddTriangleMesh([]float32{0, 0, 0, 10, 0, 0, 10, 10, 0}, []int{0, 1, 2})
	b := newUploadedBatch(t, dev, m)

	stats := r.Render(testViewport(), []*extrusion.Batch{b})

	if len(dev.colors) != 1 || len(dev.colors[0]) != 4 {
		t.Errorf("expected a single colour upload, got %v", dev.colors)
	}
	if len(dev.draws) != 1 || dev.draws[0].shader != modeMesh || dev.draws[0].count != 3 {
		t.Errorf("expected one mesh draw, got %+v", dev.draws)
	}
	if slices.Contains(stats.Passes, PassOutline) {
		t.Error("expected no outline pass without walls")
	}
}

func TestRenderSkips(t *testing.T) {
	dev := newFakeDevice()
	r := newReadyRenderer(t, dev, RendererConfig{})
	pools := extrusion.NewPools()

	// never uploaded
	pending := extrusion.NewBatch(0, 0, 16)
	pending.Add(newBuilding(0, grey, pools))

	// uploaded batch with an empty mesh in the middle
	empty := extrusion.NewMesh(1, 1, grey, extrusion.WithPools(pools))
	b := newUploadedBatch(t, dev, newBuilding(0, grey, pools), empty, newBuilding(2, grey, pools))

	stats := r.Render(testViewport(), []*extrusion.Batch{pending, b})

	if stats.Batches != 1 {
		t.Errorf("expected 1 drawn batch, got %d", stats.Batches)
	}
	if stats.Meshes != 2 {
		t.Errorf("expected 2 drawn meshes, got %d", stats.Meshes)
	}
	if stats.Skipped != 2 {
		t.Errorf("expected 2 skipped meshes, got %d", stats.Skipped)
	}
	if len(dev.draws) != 10 {
		t.Errorf("expected 10 draws, got %d", len(dev.draws))
	}

	pending.Release(nil)
}

func TestRenderDebug(t *testing.T) {
	dev := newFakeDevice()
	r := newReadyRenderer(t, dev, DefaultRendererConfig())
	r.SetDebug(true)

	b := newUploadedBatch(t, dev, newBuilding(0, grey, extrusion.NewPools()))
	stats := r.Render(testViewport(), []*extrusion.Batch{b})

	if !slices.Equal(stats.Passes, []Pass{PassInit, PassDebug, PassDone}) {
		t.Errorf("unexpected passes %v", stats.Passes)
	}
	if dev.depthTest {
		t.Error("expected depth test off in debug mode")
	}
	if !slices.Contains(dev.calls, "Blend(true)") {
		t.Error("expected blending in debug mode")
	}
	if len(dev.colors) != 1 || !slices.Equal(dev.colors[0], DebugPalette.Floats(4)) {
		t.Errorf("expected debug palette, got %v", dev.colors)
	}

	want := []drawCall{
		{Triangles, 30, 0, modeRoof, DepthLess, true, dev.draws[0].mvp},
		{Triangles, 3, 38, modeRoof, DepthLess, true, dev.draws[0].mvp},
	}
	if !slices.Equal(dev.draws, want) {
		t.Errorf("expected combined draws %+v, got %+v", want, dev.draws)
	}
}

func TestDebugPalette(t *testing.T) {
	p := DebugPalette

	if p[extrusion.ColorRoof][3] != 0.8 {
		t.Errorf("expected roof alpha 0.8, got %v", p[extrusion.ColorRoof][3])
	}
	if p[extrusion.ColorSideEven][3] != 0.88 || p[extrusion.ColorSideOdd][3] != 0.88 {
		t.Error("expected side alpha 0.88")
	}
	if p[extrusion.ColorOutline][3] != 0.9 {
		t.Errorf("expected outline alpha 0.9, got %v", p[extrusion.ColorOutline][3])
	}

	// adjacent sides differ only in red and green
	even, odd := p[extrusion.ColorSideEven], p[extrusion.ColorSideOdd]
	if even[0] <= odd[0] || even[1] <= odd[1] || even[2] != odd[2] {
		t.Errorf("unexpected side contrast %v / %v", even, odd)
	}
}

func TestRendererClose(t *testing.T) {
	dev := newFakeDevice()
	r := newReadyRenderer(t, dev, RendererConfig{})
	r.Close()

	if r.Ready() {
		t.Error("expected closed renderer to be disabled")
	}
	if len(dev.deleted) != 1 {
		t.Errorf("expected program deleted, got %v", dev.deleted)
	}
}
