// Package viewer implements the interactive extrusion viewer loop.
package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/extrude/internal/build"
	"github.com/Faultbox/extrude/internal/config"
	"github.com/Faultbox/extrude/internal/engine/camera"
	"github.com/Faultbox/extrude/internal/engine/debug"
	"github.com/Faultbox/extrude/internal/engine/input"
	"github.com/Faultbox/extrude/internal/engine/renderer"
	"github.com/Faultbox/extrude/internal/engine/scene"
	"github.com/Faultbox/extrude/internal/engine/window"
	"github.com/Faultbox/extrude/internal/logger"
	"github.com/Faultbox/extrude/pkg/footprint"
)

const title = "Extrude"

// Viewer is the main viewer instance.
type Viewer struct {
	config  *config.Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.MapCamera
	viewport *camera.Viewport
	scene    *scene.Scene
	pool     *build.WorkerPool
	shots    *debug.Screenshots
	capture  bool

	path  string
	tiles []*build.Tile
	home  *footprint.Tile
	watch *sceneWatcher
}

// New creates the window, GL renderer, scene and build pool.
func New(cfg *config.Config) (*Viewer, error) {
	logger.Info("initializing viewer",
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
	)

	v := &Viewer{config: cfg}

	var err error
	v.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Samples:    cfg.Window.Samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// renderer needs the GL context of the window
	dw, dh := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:      dw,
		Height:     dh,
		ClearColor: cfg.Render.ClearColor,
	})
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.scene, err = scene.New(v.renderer, v.renderer, scene.Config{
		Alpha: cfg.Render.Alpha,
		Debug: cfg.Render.Debug,
		Fade:  cfg.Render.Fade,
	})
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}

	v.input = input.New()
	v.camera = camera.NewMapCamera(0.5, 0.5, 1, dw, dh)
	v.viewport = camera.NewViewport(0.5, 0.5, 1)
	v.pool = build.NewWorkerPool(build.OptionsFromConfig(cfg.Build))
	v.shots = debug.NewScreenshots(cfg.Data.Screenshots, "extrude")

	logger.Info("viewer initialized", zap.Int("workers", v.pool.Workers()))
	return v, nil
}

// Load builds the footprint scene at path and replaces the current one.
func (v *Viewer) Load(ctx context.Context, path string) error {
	s, err := footprint.ParseFile(path)
	if err != nil {
		return err
	}

	tiles, err := v.pool.Build(ctx, s)
	if err != nil {
		return err
	}

	v.scene.Clear()
	v.tiles = v.tiles[:0]
	for _, t := range tiles {
		added := false
		if t.Buildings != nil {
			added = v.scene.Add(scene.LayerBuildings, t.Buildings) || added
		}
		if t.Meshes != nil {
			added = v.scene.Add(scene.LayerMeshes, t.Meshes) || added
		}
		if added {
			v.tiles = append(v.tiles, t)
		}
	}

	// a reload keeps the camera where it is
	moved := v.path != path
	if moved {
		v.watchScene(path)
	}
	v.path = path
	v.home = nil
	if len(s.Tiles) > 0 {
		v.home = &s.Tiles[0]
		if moved {
			v.recenter()
		}
	}

	st := s.Stats()
	logger.Info("scene loaded",
		zap.String("path", path),
		zap.Int("tiles", len(v.tiles)),
		zap.Int("buildings", st.Buildings),
		zap.Int("meshes", st.Meshes),
		zap.Int("gpu_buffers", v.renderer.Buffers()),
	)
	return nil
}

func (v *Viewer) watchScene(path string) {
	if v.watch != nil {
		v.watch.Close()
		v.watch = nil
	}
	if !v.config.Data.Watch {
		return
	}
	w, err := newSceneWatcher(path, 200*time.Millisecond)
	if err != nil {
		logger.Warn("scene not watched", zap.String("path", path), zap.Error(err))
		return
	}
	v.watch = w
}

func (v *Viewer) reload() {
	if v.path == "" {
		return
	}
	if err := v.Load(context.Background(), v.path); err != nil {
		logger.Error("reload failed", zap.String("path", v.path), zap.Error(err))
	}
}

func (v *Viewer) recenter() {
	if v.home == nil {
		return
	}
	x, y := v.home.Anchor()
	v.camera.CenterOn(x, y, v.home.Zoom)
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	var minFrame time.Duration
	if v.config.Render.FPSLimit > 0 {
		minFrame = time.Second / time.Duration(v.config.Render.FPSLimit)
	}

	logger.Info("starting viewer loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()
		if v.watch != nil && v.watch.Changed() {
			logger.Info("scene changed", zap.String("path", v.path))
			v.reload()
		}
		steer(v.camera, v.input)

		v.render()
		if v.capture {
			// read back before the swap leaves the back buffer undefined
			v.screenshot()
			v.capture = false
		}
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			st := v.scene.Stats[scene.LayerBuildings]
			v.window.SetTitle(fmt.Sprintf("%s - %d fps, %d draws", title, frameCount,
				st.DrawCalls+v.scene.Stats[scene.LayerMeshes].DrawCalls))
			logger.Debug("fps",
				zap.Int("count", frameCount),
				zap.Duration("dt", dt),
				zap.Int("batches", st.Batches),
				zap.Int("meshes", st.Meshes),
				zap.Int("skipped", st.Skipped),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}

		if minFrame > 0 {
			if spent := time.Since(now); spent < minFrame {
				time.Sleep(minFrame - spent)
			}
		}
	}

	return nil
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			// the event carries points, GL wants pixels
			w, h := v.window.DrawableSize()
			v.renderer.Resize(w, h)
			v.camera.Resize(w, h)
		case input.EventKeyDown:
			v.handleKey(event.Key)
		}
	}
}

func (v *Viewer) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		v.running = false
	case sdl.SCANCODE_D:
		v.scene.SetDebug(!v.scene.Debug())
	case sdl.SCANCODE_HOME:
		v.recenter()
	case sdl.SCANCODE_R:
		v.reload()
	case sdl.SCANCODE_F12:
		v.capture = true
	case sdl.SCANCODE_MINUS:
		v.config.Render.Fade = max(v.config.Render.Fade-0.1, 0)
		v.scene.SetFade(v.config.Render.Fade)
	case sdl.SCANCODE_EQUALS:
		v.config.Render.Fade = min(v.config.Render.Fade+0.1, 1)
		v.scene.SetFade(v.config.Render.Fade)
	}
}

func (v *Viewer) screenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	name, err := v.shots.SavePixels(pixels, w, h)
	if err != nil {
		logger.Error("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", name))
}

func (v *Viewer) render() {
	v.renderer.Begin()
	v.camera.Viewport(v.viewport)
	v.scene.Render(v.viewport)
	v.renderer.End()
}

// Close releases the scene, the pool and the window.
func (v *Viewer) Close() {
	logger.Info("closing viewer")

	if v.watch != nil {
		v.watch.Close()
	}
	if v.pool != nil {
		v.pool.Shutdown()
	}
	if v.scene != nil {
		v.scene.Close()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
