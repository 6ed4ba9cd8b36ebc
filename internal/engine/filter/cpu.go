package filter

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/waterways/internal/engine/imaging"
	"github.com/Faultbox/waterways/internal/logger"
)

// kernel computes one shader on the CPU.
type kernel func(ctx context.Context, req Request, workers int) (*imaging.Image, error)

var kernels = map[ShaderID]kernel{
	ShaderDilatePass1:      dilatePass1,
	ShaderDilatePass2:      dilatePass2,
	ShaderDilatePass3:      dilatePass3,
	ShaderNormalFromHeight: normalFromHeight,
	ShaderNormalToFlow:     normalToFlow,
	ShaderBlurHorizontal:   blurHorizontal,
	ShaderBlurVertical:     blurVertical,
	ShaderFoam:             foam,
	ShaderFlowPressure:     flowPressure,
	ShaderCombine:          combine,
	ShaderTiling:           tiling,
}

// CPUExecutor runs filters as row-parallel Go kernels.
type CPUExecutor struct {
	workers int
}

// NewCPUExecutor creates an executor using up to workers goroutines per
// filter. workers <= 0 uses GOMAXPROCS.
func NewCPUExecutor(workers int) *CPUExecutor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &CPUExecutor{workers: workers}
}

// Workers returns the per-filter parallelism.
func (e *CPUExecutor) Workers() int {
	return e.workers
}

// Apply implements Executor.
func (e *CPUExecutor) Apply(ctx context.Context, req Request) *Future {
	if err := Validate(req); err != nil {
		return Resolved(nil, fmt.Errorf("%s: %w", req.Shader, err))
	}
	k := kernels[req.Shader]
	if k == nil {
		return Resolved(nil, fmt.Errorf("%s: %w", req.Shader, ErrUnknownShader))
	}

	f, resolve := NewFuture()
	go func() {
		start := time.Now()
		img, err := k(ctx, req, e.workers)
		if err != nil {
			resolve(nil, fmt.Errorf("%s: %w", req.Shader, err))
			return
		}
		logger.Named("filter").Debug("cpu filter done",
			zap.Stringer("shader", req.Shader),
			zap.Int("width", img.Width),
			zap.Int("height", img.Height),
			zap.Duration("took", time.Since(start)))
		resolve(img, nil)
	}()
	return f
}

// forRows calls fn for every row in [0, height), spreading contiguous bands
// of rows over at most workers goroutines.
func forRows(ctx context.Context, height, workers int, fn func(y int)) error {
	if workers < 1 {
		workers = 1
	}
	bands := workers * 4
	if bands > height {
		bands = height
	}
	if bands < 1 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	per := (height + bands - 1) / bands
	for start := 0; start < height; start += per {
		start, end := start, min(start+per, height)
		g.Go(func() error {
			for y := start; y < end; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				fn(y)
			}
			return nil
		})
	}
	return g.Wait()
}

func gray(v float32) [4]float32 {
	return [4]float32{v, v, v, 1}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
