// Package filter implements the bake's image filter chain.
//
// Filters are issued as requests to an Executor, which returns a Future for
// the output image. The CPU executor in this package runs every shader as a
// row-parallel Go kernel; package gpufilter runs the same shaders on the GPU.
package filter

import (
	"context"
	"errors"

	"github.com/Faultbox/waterways/internal/engine/imaging"
)

var (
	// ErrUnknownShader is returned for a shader ID the executor cannot run.
	ErrUnknownShader = errors.New("filter: unknown shader")
	// ErrBadInput is returned when a request's inputs are missing or mismatched.
	ErrBadInput = errors.New("filter: bad input")
)

// ShaderID names a filter program.
type ShaderID int

// Filter programs.
const (
	ShaderDilatePass1 ShaderID = iota + 1
	ShaderDilatePass2
	ShaderDilatePass3
	ShaderNormalFromHeight
	ShaderNormalToFlow
	ShaderBlurHorizontal
	ShaderBlurVertical
	ShaderFoam
	ShaderFlowPressure
	ShaderCombine
	ShaderTiling
)

var shaderNames = map[ShaderID]string{
	ShaderDilatePass1:      "dilate_pass1",
	ShaderDilatePass2:      "dilate_pass2",
	ShaderDilatePass3:      "dilate_pass3",
	ShaderNormalFromHeight: "normal_from_height",
	ShaderNormalToFlow:     "normal_to_flow",
	ShaderBlurHorizontal:   "blur_horizontal",
	ShaderBlurVertical:     "blur_vertical",
	ShaderFoam:             "foam",
	ShaderFlowPressure:     "flow_pressure",
	ShaderCombine:          "combine",
	ShaderTiling:           "tiling",
}

func (s ShaderID) String() string {
	if n, ok := shaderNames[s]; ok {
		return n
	}
	return "unknown"
}

// Shaders returns every known shader ID in pipeline order.
func Shaders() []ShaderID {
	out := make([]ShaderID, 0, len(shaderNames))
	for id := ShaderDilatePass1; id <= ShaderTiling; id++ {
		out = append(out, id)
	}
	return out
}

// Params are the uniforms of a filter request. Distances are in pixels.
type Params struct {
	// Radius of dilate and blur passes.
	Radius float32
	// Resolution scales Sobel gradients from per-pixel to per-UV.
	Resolution float32
	// Fill is the dilate pass 3 threshold at or below which the fill image
	// (second input) is used.
	Fill float32
	// Cutoff and Offset drive foam extraction.
	Cutoff float32
	Offset float32
	// RowCount is the number of atlas cells across the image (flow pressure).
	RowCount int
	// Tiles, Width and Height shape the tiling output.
	Tiles  int
	Width  int
	Height int
}

// Request asks an executor to run one shader over its inputs.
type Request struct {
	Shader ShaderID
	Params Params
	Inputs []*imaging.Image
}

// Executor runs filter requests. Apply must not block on the filter work.
type Executor interface {
	Apply(ctx context.Context, req Request) *Future
}

// Future is the pending result of a request.
type Future struct {
	done chan struct{}
	img  *imaging.Image
	err  error
}

// NewFuture returns an unresolved future and the function that resolves it.
// The resolve function must be called exactly once.
func NewFuture() (*Future, func(*imaging.Image, error)) {
	f := &Future{done: make(chan struct{})}
	return f, func(img *imaging.Image, err error) {
		f.img, f.err = img, err
		close(f.done)
	}
}

// Resolved returns an already completed future.
func Resolved(img *imaging.Image, err error) *Future {
	f, resolve := NewFuture()
	resolve(img, err)
	return f
}

// Done is closed when the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is ready or ctx is done.
func (f *Future) Wait(ctx context.Context) (*imaging.Image, error) {
	select {
	case <-f.done:
		return f.img, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run issues req and waits for it.
func Run(ctx context.Context, exec Executor, req Request) (*imaging.Image, error) {
	return exec.Apply(ctx, req).Wait(ctx)
}

// Validate checks the input arity of a request. It is shared by executors.
func Validate(req Request) error {
	if _, ok := shaderNames[req.Shader]; !ok {
		return ErrUnknownShader
	}
	// Combine accepts any subset of its four inputs.
	need := 1
	if req.Shader == ShaderCombine {
		need = 0
	}
	if len(req.Inputs) < need {
		return ErrBadInput
	}
	var first *imaging.Image
	for i, in := range req.Inputs {
		if in == nil {
			if i < need {
				return ErrBadInput
			}
			continue
		}
		if in.Width <= 0 || in.Height <= 0 {
			return ErrBadInput
		}
		// Tiling samples a tile of any size; other shaders work per pixel.
		if req.Shader == ShaderTiling {
			continue
		}
		if first == nil {
			first = in
		} else if !first.SameSize(in) {
			return ErrBadInput
		}
	}
	if req.Shader == ShaderCombine && first == nil && (req.Params.Width <= 0 || req.Params.Height <= 0) {
		return ErrBadInput
	}
	if req.Shader == ShaderTiling && (req.Params.Width <= 0 || req.Params.Height <= 0) {
		return ErrBadInput
	}
	return nil
}

// OutputSize returns the size of the image a valid request produces.
func OutputSize(req Request) (width, height int) {
	if req.Shader == ShaderTiling {
		return req.Params.Width, req.Params.Height
	}
	for _, in := range req.Inputs {
		if in != nil {
			return in.Width, in.Height
		}
	}
	return req.Params.Width, req.Params.Height
}
