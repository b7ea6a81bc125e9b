package build

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/extrude/internal/config"
	"github.com/Faultbox/extrude/internal/engine/extrusion"
	"github.com/Faultbox/extrude/internal/logger"
	"github.com/Faultbox/extrude/pkg/footprint"
)

// Job asks a worker to build one tile.
type Job struct {
	Index  int
	Tile   *footprint.Tile
	Colors footprint.Colors
	// Result receives the outcome of the job.
	Result chan<- Result
}

// Result is the outcome of a Job.
type Result struct {
	Index int
	Tile  *Tile
	Err   error
}

// Options configures a WorkerPool.
type Options struct {
	// Workers is the number of goroutines, 0 uses one per CPU.
	Workers int
	// QueueSize is the number of jobs that may wait for a worker.
	QueueSize int
	// Timeout bounds Build, 0 for none.
	Timeout time.Duration
	// Pools provides the mesh arenas, nil uses extrusion.DefaultPools.
	Pools *extrusion.Pools
}

// OptionsFromConfig converts the build section of the application config.
func OptionsFromConfig(c config.BuildConfig) Options {
	return Options{
		Workers:   c.Workers,
		QueueSize: c.QueueSize,
		Timeout:   c.Timeout,
		Pools:     extrusion.NewPoolsSize(c.ArenaMaxFree),
	}
}

// WorkerPool builds tiles on a fixed set of goroutines.
type WorkerPool struct {
	opts     Options
	jobQueue chan Job
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	log      *zap.Logger
}

// NewWorkerPool starts the workers.
func NewWorkerPool(opts Options) *WorkerPool {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.QueueSize < 0 {
		opts.QueueSize = 0
	}
	if opts.Pools == nil {
		opts.Pools = extrusion.DefaultPools()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		opts:     opts,
		jobQueue: make(chan Job, opts.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
		log:      logger.Named("build"),
	}

	for i := range opts.Workers {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.log.Debug("pool started",
		zap.Int("workers", opts.Workers),
		zap.Int("queue", opts.QueueSize),
	)
	return p
}

// Workers returns the number of worker goroutines.
func (p *WorkerPool) Workers() int {
	return p.opts.Workers
}

// Pools returns the arenas the workers build into.
func (p *WorkerPool) Pools() *extrusion.Pools {
	return p.opts.Pools
}

// Submit queues job, blocking until there is room. It fails when ctx is done
// or the pool is shut down.
func (p *WorkerPool) Submit(ctx context.Context, job Job) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return context.Canceled
	}
}

// TrySubmit queues job without blocking. It reports false when the queue is
// full.
func (p *WorkerPool) TrySubmit(job Job) bool {
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false
	}
}

// QueueLength returns the number of jobs waiting for a worker.
func (p *WorkerPool) QueueLength() int {
	return len(p.jobQueue)
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			tile, err := BuildTile(job.Tile, job.Colors, p.opts.Pools)
			if err != nil {
				p.log.Warn("tile build failed", zap.Int("worker", id), zap.Error(err))
			}

			select {
			case job.Result <- Result{Index: job.Index, Tile: tile, Err: err}:
			case <-p.ctx.Done():
				if tile != nil {
					tile.Release(nil)
				}
				return
			}

		case <-p.ctx.Done():
			return
		}
	}
}

// Build extrudes every tile of s and returns them in scene order. Tiles that
// fail are logged and left out. On cancellation or timeout all built tiles are
// released.
func (p *WorkerPool) Build(ctx context.Context, s *footprint.Scene) ([]*Tile, error) {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("building scene %q: %w", s.Name, err)
	}

	start := time.Now()
	results := make(chan Result, len(s.Tiles))
	tiles := make([]*Tile, len(s.Tiles))

	abort := func(err error) ([]*Tile, error) {
		for _, t := range tiles {
			if t != nil {
				t.Release(nil)
			}
		}
		return nil, fmt.Errorf("building scene %q: %w", s.Name, err)
	}

	submitted := 0
	for i := range s.Tiles {
		job := Job{Index: i, Tile: &s.Tiles[i], Colors: s.Colors, Result: results}
		if err := p.Submit(ctx, job); err != nil {
			// drain what was queued so the arenas return to the pool
			for range submitted {
				select {
				case r := <-results:
					tiles[r.Index] = r.Tile
				case <-p.ctx.Done():
					return abort(err)
				}
			}
			return abort(err)
		}
		submitted++
	}

	failed := 0
	for range submitted {
		select {
		case r := <-results:
			if r.Err != nil {
				failed++
				continue
			}
			tiles[r.Index] = r.Tile
		case <-ctx.Done():
			return abort(ctx.Err())
		}
	}

	out := tiles[:0]
	for _, t := range tiles {
		if t != nil {
			out = append(out, t)
		}
	}

	p.log.Info("scene built",
		zap.String("scene", s.Name),
		zap.Int("tiles", len(out)),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start)),
	)
	return out, nil
}

// Shutdown stops the workers and waits for them to exit.
func (p *WorkerPool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
