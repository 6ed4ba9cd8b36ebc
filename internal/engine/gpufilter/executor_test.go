package gpufilter

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Faultbox/waterways/internal/engine/filter"
	"github.com/Faultbox/waterways/internal/engine/imaging"
	"github.com/Faultbox/waterways/internal/engine/window"
)

func newExecutor(t *testing.T) *Executor {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping GPU test in short mode")
	}
	exec, err := New(window.DefaultConfig())
	if err != nil {
		t.Skipf("no GL context available: %v", err)
	}
	t.Cleanup(func() { exec.Close() })
	return exec
}

// obstacleMask is a 32x32 mask with a lit block off centre.
func obstacleMask() *imaging.Image {
	img := imaging.New(32, 32)
	for y := 10; y < 16; y++ {
		for x := 12; x < 20; x++ {
			img.SetRGBA(x, y, [4]float32{1, 1, 1, 1})
		}
	}
	return img
}

func gradient() *imaging.Image {
	img := imaging.New(32, 32)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v := float32(x+y) / 62
			img.SetRGBA(x, y, [4]float32{v, 1 - v, v * v, 1})
		}
	}
	return img
}

func maxDiff(a, b *imaging.Image) float64 {
	var d float64
	for i := range a.Pix {
		d = math.Max(d, math.Abs(float64(a.Pix[i]-b.Pix[i])))
	}
	return d
}

func TestMatchesCPU(t *testing.T) {
	exec := newExecutor(t)
	cpu := filter.NewCPUExecutor(2)
	ctx := context.Background()
	mask := obstacleMask()
	grad := gradient()
	tile := imaging.NewFilled(8, 8, [4]float32{0.3, 0.3, 0.3, 0.3})

	tests := []struct {
		name string
		req  filter.Request
		tol  float64
	}{
		{"dilate1", filter.Request{Shader: filter.ShaderDilatePass1, Params: filter.Params{Radius: 5}, Inputs: []*imaging.Image{mask}}, 1e-5},
		{"normal", filter.Request{Shader: filter.ShaderNormalFromHeight, Params: filter.Params{Resolution: 32}, Inputs: []*imaging.Image{grad}}, 1e-4},
		{"normal_to_flow", filter.Request{Shader: filter.ShaderNormalToFlow, Inputs: []*imaging.Image{grad}}, 1e-5},
		{"blur_h", filter.Request{Shader: filter.ShaderBlurHorizontal, Params: filter.Params{Radius: 4}, Inputs: []*imaging.Image{grad}}, 1e-4},
		{"blur_v", filter.Request{Shader: filter.ShaderBlurVertical, Params: filter.Params{Radius: 4}, Inputs: []*imaging.Image{mask}}, 1e-4},
		{"foam", filter.Request{Shader: filter.ShaderFoam, Params: filter.Params{Cutoff: 0.2, Offset: 3}, Inputs: []*imaging.Image{grad}}, 1e-4},
		{"pressure", filter.Request{Shader: filter.ShaderFlowPressure, Params: filter.Params{RowCount: 3}, Inputs: []*imaging.Image{mask}}, 1e-5},
		{"combine", filter.Request{Shader: filter.ShaderCombine, Inputs: []*imaging.Image{grad, nil, mask}}, 1e-6},
		{"tiling", filter.Request{Shader: filter.ShaderTiling, Params: filter.Params{Tiles: 2, Width: 16, Height: 16}, Inputs: []*imaging.Image{tile}}, 1e-3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := filter.Run(ctx, cpu, tt.req)
			if err != nil {
				t.Fatalf("cpu: %v", err)
			}
			got, err := filter.Run(ctx, exec, tt.req)
			if err != nil {
				t.Fatalf("gpu: %v", err)
			}
			if got.Width != want.Width || got.Height != want.Height {
				t.Fatalf("size = %dx%d, want %dx%d", got.Width, got.Height, want.Width, want.Height)
			}
			if d := maxDiff(got, want); d > tt.tol {
				t.Errorf("max difference %g exceeds %g", d, tt.tol)
			}
		})
	}
}

func TestDilateChainMatchesCPU(t *testing.T) {
	exec := newExecutor(t)
	ctx := context.Background()

	cpuOut, err := filter.NewPipeline(filter.NewCPUExecutor(2), nil).Dilate(ctx, obstacleMask(), 6, nil)
	if err != nil {
		t.Fatal(err)
	}
	gpuOut, err := filter.NewPipeline(exec, nil).Dilate(ctx, obstacleMask(), 6, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d := maxDiff(gpuOut, cpuOut); d > 1e-4 {
		t.Errorf("max difference %g", d)
	}
}

func TestValidationHappensBeforeQueueing(t *testing.T) {
	exec := newExecutor(t)
	_, err := filter.Run(context.Background(), exec, filter.Request{Shader: filter.ShaderFoam})
	if !errors.Is(err, filter.ErrBadInput) {
		t.Errorf("err = %v, want ErrBadInput", err)
	}
}

func TestClosedExecutor(t *testing.T) {
	exec := newExecutor(t)
	if err := exec.Close(); err != nil {
		t.Fatal(err)
	}
	// Close is idempotent.
	if err := exec.Close(); err != nil {
		t.Fatal(err)
	}
	req := filter.Request{Shader: filter.ShaderNormalToFlow, Inputs: []*imaging.Image{gradient()}}
	if _, err := filter.Run(context.Background(), exec, req); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}
