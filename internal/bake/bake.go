// Package bake orchestrates a river bake: reset colliders, rasterize the
// collision mask, then run the filter pipeline into the two composites.
package bake

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/waterways/internal/engine/atlas"
	"github.com/Faultbox/waterways/internal/engine/filter"
	"github.com/Faultbox/waterways/internal/engine/imaging"
	"github.com/Faultbox/waterways/internal/engine/picking"
	"github.com/Faultbox/waterways/internal/engine/raster"
	"github.com/Faultbox/waterways/internal/engine/rivermesh"
	"github.com/Faultbox/waterways/internal/logger"
	"github.com/Faultbox/waterways/pkg/math"
)

var (
	// ErrBakeInProgress is returned when a bake is requested while another
	// one is running on the same Baker.
	ErrBakeInProgress = errors.New("bake: bake already in progress")
	// ErrStaleGeometry is returned when a bake is cancelled because the
	// river changed underneath it.
	ErrStaleGeometry = errors.New("bake: geometry changed during bake")
	// ErrNoExecutor is returned for a job without a filter executor.
	ErrNoExecutor = errors.New("bake: no filter executor")
)

// Progress messages.
const (
	MessageFilters  = "Applying filters"
	MessageFinished = "finished"
)

// rasterShare is the part of the progress range spent rasterizing.
const rasterShare = 0.9

// State is the lifecycle of a Baker.
type State int

// Baker states.
const (
	Idle State = iota
	RasterizingCollision
	ApplyingFilters
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RasterizingCollision:
		return "rasterizing_collision"
	case ApplyingFilters:
		return "applying_filters"
	case Done:
		return "done"
	}
	return "unknown"
}

// ProgressFunc receives bake progress in [0,1].
type ProgressFunc func(fraction float32, message string)

// Job is everything one bake needs.
type Job struct {
	Mesh            *rivermesh.Mesh
	Transform       math.Mat4
	Caster          picking.Caster
	Executor        filter.Executor
	Resolution      int
	RaycastDistance float32
	Layers          uint32
	// Filters holds the per-cell filter distances. Resolution and Side are
	// filled in from the job and the mesh layout.
	Filters filter.Settings
	// NoiseTile is tiled into the alpha channel; nil leaves alpha at 1.
	NoiseTile *imaging.Image
	Progress  ProgressFunc
	// OnStage, when set, also sees every filter stage output.
	OnStage filter.StageFunc
	Workers int
}

// Result is a finished bake.
type Result struct {
	FlowFoamNoise *imaging.Image
	DistPressure  *imaging.Image
	Side          int
	Resolution    int
	Stats         []StageStat
	Took          time.Duration
}

// Baker runs one bake at a time.
type Baker struct {
	mu     sync.Mutex
	state  State
	cancel context.CancelCauseFunc
}

// NewBaker returns an idle Baker.
func NewBaker() *Baker {
	return &Baker{}
}

// State returns the current state.
func (b *Baker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Baker) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// Running reports whether a bake is in flight.
func (b *Baker) Running() bool {
	s := b.State()
	return s == RasterizingCollision || s == ApplyingFilters
}

// Cancel interrupts the in-flight bake, which then fails with
// ErrStaleGeometry. It reports whether a bake was running.
func (b *Baker) Cancel() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel == nil {
		return false
	}
	b.cancel(ErrStaleGeometry)
	return true
}

// Bake runs job to completion. Only one bake runs at a time; a concurrent
// call fails with ErrBakeInProgress. On any error nothing is returned and
// the Baker goes back to Idle.
func (b *Baker) Bake(ctx context.Context, job Job) (*Result, error) {
	if job.Mesh == nil {
		return nil, raster.ErrNoMesh
	}
	if job.Executor == nil {
		return nil, ErrNoExecutor
	}

	b.mu.Lock()
	if b.cancel != nil {
		b.mu.Unlock()
		return nil, ErrBakeInProgress
	}
	ctx, cancel := context.WithCancelCause(ctx)
	b.cancel = cancel
	b.state = RasterizingCollision
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.cancel = nil
		b.mu.Unlock()
		cancel(nil)
	}()

	res, err := b.bake(ctx, job)
	if err != nil {
		b.setState(Idle)
		if errors.Is(context.Cause(ctx), ErrStaleGeometry) {
			return nil, ErrStaleGeometry
		}
		return nil, err
	}
	b.setState(Done)
	return res, nil
}

func (b *Baker) bake(ctx context.Context, job Job) (*Result, error) {
	log := logger.Named("bake")
	start := time.Now()
	progress := job.Progress
	if progress == nil {
		progress = func(float32, string) {}
	}

	if r, ok := job.Caster.(picking.ColliderResetter); ok {
		if err := r.ResetColliders(); err != nil {
			return nil, fmt.Errorf("reset colliders: %w", err)
		}
	}

	var stats []StageStat
	rasterStart := time.Now()
	mask, err := raster.Rasterize(ctx, raster.Input{
		Mesh:            job.Mesh,
		Transform:       job.Transform,
		Resolution:      job.Resolution,
		RaycastDistance: job.RaycastDistance,
		Layers:          job.Layers,
		Workers:         job.Workers,
	}, job.Caster, func(f float32, msg string) {
		progress(f*rasterShare, msg)
	})
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	stats = append(stats, newStageStat("collision", time.Since(rasterStart), mask))

	b.setState(ApplyingFilters)
	progress(0.95, MessageFilters)

	side := job.Mesh.Layout.Side
	if side < 1 {
		side = atlas.Side(job.Mesh.Layout.Steps)
	}
	settings := job.Filters
	settings.Resolution = job.Resolution
	settings.Side = side

	pipeline := filter.NewPipeline(job.Executor, func(stage string, took time.Duration, img *imaging.Image) {
		stats = append(stats, newStageStat(stage, took, img))
		if job.OnStage != nil {
			job.OnStage(stage, took, img)
		}
	})
	out, err := pipeline.Run(ctx, mask, job.NoiseTile, settings)
	if err != nil {
		return nil, err
	}
	// A cancel that lands after the last stage still invalidates the result.
	if err := context.Cause(ctx); err != nil {
		return nil, err
	}

	progress(1, MessageFinished)
	took := time.Since(start)
	log.Info("bake finished",
		zap.Int("resolution", job.Resolution),
		zap.Int("side", side),
		zap.Int("stages", len(stats)),
		zap.Duration("took", took))

	return &Result{
		FlowFoamNoise: out.FlowFoamNoise,
		DistPressure:  out.DistPressure,
		Side:          side,
		Resolution:    job.Resolution,
		Stats:         stats,
		Took:          took,
	}, nil
}
