// Package scene renders extruded map layers: building volumes and triangle
// meshes grouped into per-tile batches.
package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/extrude/internal/engine/camera"
	"github.com/Faultbox/extrude/internal/engine/extrusion"
	"github.com/Faultbox/extrude/internal/logger"
)

// Layer selects the renderer a batch is drawn with.
type Layer int

// Scene layers in draw order.
const (
	LayerBuildings Layer = iota
	LayerMeshes

	numLayers
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerBuildings:
		return "buildings"
	case LayerMeshes:
		return "meshes"
	}
	return "unknown"
}

// Config contains scene configuration options.
type Config struct {
	// Alpha enables the depth pre-pass for translucent buildings.
	Alpha bool
	// Debug starts in debug drawing mode.
	Debug bool
	// Fade is the alpha applied to all layers.
	Fade float32
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{
		Alpha: true,
		Fade:  1,
	}
}

// Scene owns the uploaded batches of every layer and the renderers that draw
// them. All methods must be called on the render thread.
type Scene struct {
	config Config

	dev Device
	up  extrusion.Uploader

	renderers [numLayers]*ExtrusionRenderer
	batches   [numLayers][]*extrusion.Batch

	// Stats of the last frame, per layer
	Stats [numLayers]FrameStats
}

// New creates a scene and sets up its shader programs.
func New(dev Device, up extrusion.Uploader, cfg Config) (*Scene, error) {
	s := &Scene{
		config: cfg,
		dev:    dev,
		up:     up,
	}

	s.renderers[LayerBuildings] = NewExtrusionRenderer(RendererConfig{
		Alpha: cfg.Alpha,
		Debug: cfg.Debug,
		Fade:  cfg.Fade,
	})
	s.renderers[LayerMeshes] = NewExtrusionRenderer(RendererConfig{
		Alpha: cfg.Alpha,
		Mesh:  true,
		Debug: cfg.Debug,
		Fade:  cfg.Fade,
	})

	for l, r := range s.renderers {
		if !r.Setup(dev) {
			s.Close()
			return nil, fmt.Errorf("setting up %s renderer", Layer(l))
		}
	}

	return s, nil
}

// Add uploads b and adds it to layer l. Batches with nothing to draw are
// released and reported as false.
func (s *Scene) Add(l Layer, b *extrusion.Batch) bool {
	if !b.Upload(s.up) {
		b.Release(s.up)
		return false
	}
	s.batches[l] = append(s.batches[l], b)
	return true
}

// Batches returns the batches of layer l.
func (s *Scene) Batches(l Layer) []*extrusion.Batch {
	return s.batches[l]
}

// Clear releases every batch.
func (s *Scene) Clear() {
	for l := range s.batches {
		for _, b := range s.batches[l] {
			b.Release(s.up)
		}
		s.batches[l] = nil
	}
}

// Debug reports whether debug drawing is on.
func (s *Scene) Debug() bool {
	return s.config.Debug
}

// SetDebug switches debug drawing for all layers.
func (s *Scene) SetDebug(on bool) {
	s.config.Debug = on
	for _, r := range s.renderers {
		r.SetDebug(on)
	}
	logger.Debug("scene debug drawing", zap.Bool("enabled", on))
}

// SetFade sets the alpha of all layers.
func (s *Scene) SetFade(alpha float32) {
	s.config.Fade = alpha
	for _, r := range s.renderers {
		r.SetFade(alpha)
	}
}

// Render draws all layers for viewport v.
func (s *Scene) Render(v *camera.Viewport) {
	for l, r := range s.renderers {
		if len(s.batches[l]) == 0 {
			s.Stats[l] = FrameStats{}
			continue
		}
		s.Stats[l] = r.Render(v, s.batches[l])
	}
}

// Close releases batches and shader programs.
func (s *Scene) Close() {
	s.Clear()
	for _, r := range s.renderers {
		if r != nil {
			r.Close()
		}
	}
}
