package build

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Faultbox/extrude/internal/config"
	"github.com/Faultbox/extrude/internal/engine/extrusion"
	"github.com/Faultbox/extrude/pkg/footprint"
)

func testScene(n int) *footprint.Scene {
	s := &footprint.Scene{Name: "grid"}
	for i := range n {
		t := *testTile()
		t.Col += i
		s.Tiles = append(s.Tiles, t)
	}
	return s
}

func TestWorkerPoolBuild(t *testing.T) {
	tests := []struct {
		workers, queue int
	}{
		{1, 0},
		{2, 1},
		{4, 16},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", tt.workers, tt.queue), func(t *testing.T) {
			pools := extrusion.NewPools()
			p := NewWorkerPool(Options{Workers: tt.workers, QueueSize: tt.queue, Pools: pools})
			defer p.Shutdown()

			s := testScene(6)
			tiles, err := p.Build(context.Background(), s)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if len(tiles) != 6 {
				t.Fatalf("expected 6 tiles, got %d", len(tiles))
			}
			for i, tile := range tiles {
				if tile.Key != s.Tiles[i].Key() {
					t.Errorf("tile %d: expected %s, got %s", i, s.Tiles[i].Key(), tile.Key)
				}
				if tile.Buildings == nil || tile.Meshes == nil {
					t.Errorf("tile %d: missing batches", i)
				}
				tile.Release(nil)
			}

			if n := pools.Vertices.InUse(); n != 0 {
				t.Errorf("expected all vertex blocks returned, %d in use", n)
			}
		})
	}
}

func TestWorkerPoolSkipsFailedTiles(t *testing.T) {
	p := NewWorkerPool(Options{Workers: 2})
	defer p.Shutdown()

	s := testScene(3)
	s.Tiles[1].Buildings[0].Colors.Side = "#nope"

	tiles, err := p.Build(context.Background(), s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tiles) != 2 {
		t.Fatalf("expected 2 tiles, got %d", len(tiles))
	}
	if tiles[1].Key != s.Tiles[2].Key() {
		t.Errorf("expected order to be kept, got %s", tiles[1].Key)
	}
}

func TestWorkerPoolCancelled(t *testing.T) {
	p := NewWorkerPool(Options{Workers: 1})
	defer p.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Build(ctx, testScene(2))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWorkerPoolShutdown(t *testing.T) {
	p := NewWorkerPool(Options{Workers: 2})
	p.Shutdown()

	results := make(chan Result, 1)
	err := p.Submit(context.Background(), Job{Tile: testTile(), Result: results})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled after shutdown, got %v", err)
	}
}

func TestTrySubmit(t *testing.T) {
	p := NewWorkerPool(Options{Workers: 1, QueueSize: 1})
	p.Shutdown()

	results := make(chan Result, 2)
	if !p.TrySubmit(Job{Tile: testTile(), Result: results}) {
		t.Fatal("expected the first job to be queued")
	}
	if p.TrySubmit(Job{Tile: testTile(), Result: results}) {
		t.Error("expected a full queue")
	}
	if p.QueueLength() != 1 {
		t.Errorf("expected queue length 1, got %d", p.QueueLength())
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default().Build
	cfg.Workers = 3

	opts := OptionsFromConfig(cfg)
	if opts.Workers != 3 || opts.QueueSize != cfg.QueueSize || opts.Timeout != cfg.Timeout {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.Pools == nil || opts.Pools == extrusion.DefaultPools() {
		t.Error("expected dedicated pools")
	}

	p := NewWorkerPool(Options{})
	defer p.Shutdown()
	if p.Workers() <= 0 {
		t.Error("expected at least one worker")
	}
	if p.Pools() != extrusion.DefaultPools() {
		t.Error("expected default pools")
	}
}
