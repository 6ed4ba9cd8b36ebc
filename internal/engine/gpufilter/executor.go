// Package gpufilter runs the bake filters as OpenGL fragment programs.
//
// All GL work happens on a single goroutine locked to its OS thread; Apply
// only enqueues requests, so the executor is safe for concurrent use.
package gpufilter

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/waterways/internal/engine/filter"
	"github.com/Faultbox/waterways/internal/engine/framebuffer"
	"github.com/Faultbox/waterways/internal/engine/imaging"
	"github.com/Faultbox/waterways/internal/engine/shader"
	"github.com/Faultbox/waterways/internal/engine/window"
	"github.com/Faultbox/waterways/internal/logger"
)

// ErrClosed is returned for requests issued after Close.
var ErrClosed = errors.New("gpufilter: executor closed")

type job struct {
	ctx     context.Context
	req     filter.Request
	resolve func(*imaging.Image, error)
}

// Executor implements filter.Executor on the GPU.
type Executor struct {
	jobs chan job
	quit chan struct{}
	done chan struct{}

	mu     sync.RWMutex
	closed bool
}

// New creates the hidden GL context, compiles every filter program and
// starts the render goroutine. It fails when no GL 4.1 context is available.
func New(cfg window.Config) (*Executor, error) {
	e := &Executor{
		jobs: make(chan job, 16),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	ready := make(chan error, 1)
	go e.loop(cfg, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return e, nil
}

// Apply implements filter.Executor.
func (e *Executor) Apply(ctx context.Context, req filter.Request) *filter.Future {
	if err := filter.Validate(req); err != nil {
		return filter.Resolved(nil, fmt.Errorf("%s: %w", req.Shader, err))
	}
	f, resolve := filter.NewFuture()

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		resolve(nil, ErrClosed)
		return f
	}
	select {
	case e.jobs <- job{ctx: ctx, req: req, resolve: resolve}:
	case <-ctx.Done():
		resolve(nil, ctx.Err())
	}
	return f
}

// Close stops the render goroutine and releases the GL context. Pending
// requests fail with ErrClosed.
func (e *Executor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.quit)
	e.mu.Unlock()
	<-e.done
	return nil
}

type renderer struct {
	win      *window.Window
	programs map[filter.ShaderID]*shader.Program
	vao      uint32
}

func (e *Executor) loop(cfg window.Config, ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(e.done)

	r, err := newRenderer(cfg)
	if err != nil {
		ready <- err
		return
	}
	defer r.close()
	ready <- nil

	log := logger.Named("gpufilter")
	for {
		select {
		case <-e.quit:
			for {
				select {
				case j := <-e.jobs:
					j.resolve(nil, ErrClosed)
				default:
					return
				}
			}
		case j := <-e.jobs:
			if err := j.ctx.Err(); err != nil {
				j.resolve(nil, err)
				continue
			}
			start := time.Now()
			img, err := r.run(j.req)
			if err != nil {
				j.resolve(nil, fmt.Errorf("%s: %w", j.req.Shader, err))
				continue
			}
			log.Debug("gpu filter done",
				zap.Stringer("shader", j.req.Shader),
				zap.Int("width", img.Width),
				zap.Int("height", img.Height),
				zap.Duration("took", time.Since(start)))
			j.resolve(img, nil)
		}
	}
}

func newRenderer(cfg window.Config) (*renderer, error) {
	win, err := window.NewHidden(cfg)
	if err != nil {
		return nil, err
	}
	if err := win.MakeCurrent(); err != nil {
		win.Close()
		return nil, fmt.Errorf("make context current: %w", err)
	}
	if err := gl.Init(); err != nil {
		win.Close()
		return nil, fmt.Errorf("gl.Init: %w", err)
	}

	r := &renderer{win: win, programs: make(map[filter.ShaderID]*shader.Program)}
	for id, src := range fragmentSources {
		p, err := shader.CompileProgram(shader.FullscreenVertex, src)
		if err != nil {
			r.close()
			return nil, fmt.Errorf("compile %s: %w", id, err)
		}
		r.programs[id] = p
	}
	// Core profile needs a bound VAO even without attributes.
	gl.GenVertexArrays(1, &r.vao)

	logger.Named("gpufilter").Info("gpu filter executor ready",
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.Int("programs", len(r.programs)))
	return r, nil
}

func (r *renderer) run(req filter.Request) (*imaging.Image, error) {
	p := r.programs[req.Shader]
	if p == nil {
		return nil, filter.ErrUnknownShader
	}
	w, h := filter.OutputSize(req)

	var textures [4]uint32
	defer func() {
		for _, t := range textures {
			framebuffer.DeleteTexture(t)
		}
	}()

	fb, err := framebuffer.New(int32(w), int32(h))
	if err != nil {
		return nil, err
	}
	defer fb.Destroy()

	p.Use()
	for i := 0; i < 4; i++ {
		unit := fmt.Sprintf("u_input%d", i)
		has := fmt.Sprintf("u_has%d", i)
		if i >= len(req.Inputs) || req.Inputs[i] == nil {
			p.SetInt(has, 0)
			continue
		}
		in := req.Inputs[i]
		textures[i] = framebuffer.NewTexture(int32(in.Width), int32(in.Height), in.Pix, req.Shader == filter.ShaderTiling)
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, textures[i])
		p.SetInt(unit, int32(i))
		p.SetInt(has, 1)
	}

	params := req.Params
	p.SetFloat("u_radius", params.Radius)
	p.SetFloat("u_resolution", params.Resolution)
	p.SetFloat("u_fill", params.Fill)
	p.SetFloat("u_cutoff", params.Cutoff)
	p.SetFloat("u_offset", params.Offset)
	p.SetInt("u_row_count", int32(params.RowCount))
	p.SetInt("u_tiles", int32(params.Tiles))
	p.SetIVec2("u_size", int32(w), int32(h))

	fb.Bind()
	gl.Disable(gl.BLEND)
	gl.Disable(gl.DEPTH_TEST)
	gl.BindVertexArray(r.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	fb.Unbind()

	if code := gl.GetError(); code != gl.NO_ERROR {
		return nil, fmt.Errorf("gl error 0x%x", code)
	}
	return &imaging.Image{Width: w, Height: h, Pix: fb.ReadPixels()}, nil
}

func (r *renderer) close() {
	for _, p := range r.programs {
		p.Delete()
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	r.win.Close()
}
