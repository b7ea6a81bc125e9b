// Package build turns footprint tiles into extrusion batches on a pool of
// worker goroutines.
package build

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/extrude/internal/engine/extrusion"
	"github.com/Faultbox/extrude/internal/logger"
	"github.com/Faultbox/extrude/pkg/footprint"
)

// Tile holds the batches built for one footprint tile. Either batch is nil
// when the tile has nothing for that layer.
type Tile struct {
	Key       string
	Buildings *extrusion.Batch
	Meshes    *extrusion.Batch
}

// Release frees the arenas and GPU buffers of both batches.
func (t *Tile) Release(u extrusion.Uploader) {
	if t.Buildings != nil {
		t.Buildings.Release(u)
	}
	if t.Meshes != nil {
		t.Meshes.Release(u)
	}
}

type groupKey struct {
	level  int
	colors footprint.ColorSet
}

// BuildTile extrudes the buildings and meshes of t. Buildings sharing a level
// and colours go into one mesh, as do meshes sharing a level and colour.
// Both batches are compiled and ready for upload.
func BuildTile(t *footprint.Tile, colors footprint.Colors, pools *extrusion.Pools) (*Tile, error) {
	gr := t.GroundResolution()
	x, y := t.Anchor()
	out := &Tile{Key: t.Key()}

	groups := make(map[groupKey]*extrusion.Mesh)
	var order []*extrusion.Mesh
	group := func(k groupKey, create func() *extrusion.Mesh) *extrusion.Mesh {
		m, ok := groups[k]
		if !ok {
			m = create()
			groups[k] = m
			order = append(order, m)
		}
		return m
	}

	for i := range t.Buildings {
		b := &t.Buildings[i]
		set, err := b.Colors.Resolve(colors)
		if err != nil {
			releaseMeshes(order)
			return nil, fmt.Errorf("tile %s building %d: %w", out.Key, i, err)
		}
		m := group(groupKey{b.Level, set}, func() *extrusion.Mesh {
			return extrusion.NewMesh(b.Level, gr,
				extrusion.NewPalette(set[0], set[1], set[2], set[3]),
				extrusion.WithPools(pools))
		})
		points, index := b.Flatten()
		height, minHeight := b.HeightCM()
		m.AddPolygon(points, index, height, minHeight)
	}
	out.Buildings = batch(x, y, t.Zoom, order)

	clear(groups)
	order = nil
	for i := range t.Meshes {
		tm := &t.Meshes[i]
		c := tm.MeshColor()
		m := group(groupKey{level: tm.Level, colors: footprint.ColorSet{c}}, func() *extrusion.Mesh {
			return extrusion.NewTriangleMesh(tm.Level, gr, c, extrusion.WithPools(pools))
		})
		points, index := tm.Flatten()
		if tm.Raw {
			m.AddTriangleMeshRaw(points, index)
		} else {
			m.AddTriangleMesh(points, index)
		}
	}
	out.Meshes = batch(x, y, t.Zoom, order)

	logger.Debug("tile built",
		zap.String("tile", out.Key),
		zap.Int("buildings", len(t.Buildings)),
		zap.Int("meshes", len(t.Meshes)),
	)
	return out, nil
}

// batch collects the non-empty meshes and compiles them. It returns nil when
// nothing is left to draw.
func batch(x, y float64, zoom int, meshes []*extrusion.Mesh) *extrusion.Batch {
	b := extrusion.NewBatch(x, y, zoom)
	for _, m := range meshes {
		if m.Empty() {
			m.Clear()
			continue
		}
		b.Add(m)
	}
	if b.Len() == 0 || b.Compile() == nil {
		b.Release(nil)
		return nil
	}
	return b
}

func releaseMeshes(meshes []*extrusion.Mesh) {
	for _, m := range meshes {
		m.Clear()
	}
}
