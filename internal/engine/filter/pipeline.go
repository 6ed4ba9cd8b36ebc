package filter

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/waterways/internal/engine/imaging"
	"github.com/Faultbox/waterways/internal/logger"
)

// Settings are the bake-level filter parameters. Distances are expressed in
// atlas cells and converted to pixels as base / Side * Resolution.
type Settings struct {
	Resolution   int
	Side         int
	Dilate       float32
	FlowmapBlur  float32
	FoamCutoff   float32
	FoamOffset   float32
	FoamBlur     float32
	PressureBlur float32
}

// DefaultPressureBlur is the flow pressure blur in atlas cells.
const DefaultPressureBlur = 0.04

// Pixels converts a per-cell distance into pixels.
func (s Settings) Pixels(base float32) float32 {
	return base / float32(s.Side) * float32(s.Resolution)
}

// Margin returns the padding added around the atlas: one cell.
func (s Settings) Margin() int {
	return int(math.Round(float64(s.Resolution) / float64(s.Side)))
}

// Output holds the two composites of a bake, cropped back to Resolution.
type Output struct {
	// FlowFoamNoise packs flow (RG), foam (B) and tiled noise (A).
	FlowFoamNoise *imaging.Image
	// DistPressure packs the distance field (R) and flow pressure (G).
	DistPressure *imaging.Image
}

// StageFunc observes each completed stage.
type StageFunc func(stage string, took time.Duration, img *imaging.Image)

// Pipeline runs the fixed filter sequence on an executor. Each stage waits
// for the previous one.
type Pipeline struct {
	exec    Executor
	onStage StageFunc
}

// NewPipeline creates a pipeline on exec. onStage may be nil.
func NewPipeline(exec Executor, onStage StageFunc) *Pipeline {
	return &Pipeline{exec: exec, onStage: onStage}
}

func (p *Pipeline) run(ctx context.Context, stage string, req Request) (*imaging.Image, error) {
	start := time.Now()
	img, err := Run(ctx, p.exec, req)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", stage, err)
	}
	if p.onStage != nil {
		p.onStage(stage, time.Since(start), img)
	}
	return img, nil
}

// blur runs a separable blur, or only its vertical pass.
func (p *Pipeline) blur(ctx context.Context, stage string, img *imaging.Image, radius float32, verticalOnly bool) (*imaging.Image, error) {
	var err error
	if !verticalOnly {
		img, err = p.run(ctx, stage+"_h", Request{Shader: ShaderBlurHorizontal, Params: Params{Radius: radius}, Inputs: []*imaging.Image{img}})
		if err != nil {
			return nil, err
		}
	}
	return p.run(ctx, stage+"_v", Request{Shader: ShaderBlurVertical, Params: Params{Radius: radius}, Inputs: []*imaging.Image{img}})
}

// Dilate runs the three dilate passes on a mask.
func (p *Pipeline) Dilate(ctx context.Context, mask *imaging.Image, radius float32, fill *imaging.Image) (*imaging.Image, error) {
	params := Params{Radius: radius}
	d, err := p.run(ctx, "dilate_1", Request{Shader: ShaderDilatePass1, Params: params, Inputs: []*imaging.Image{mask}})
	if err != nil {
		return nil, err
	}
	d, err = p.run(ctx, "dilate_2", Request{Shader: ShaderDilatePass2, Params: params, Inputs: []*imaging.Image{d}})
	if err != nil {
		return nil, err
	}
	inputs := []*imaging.Image{d}
	if fill != nil {
		inputs = append(inputs, fill)
	}
	return p.run(ctx, "dilate_3", Request{Shader: ShaderDilatePass3, Params: params, Inputs: inputs})
}

// Run turns a resolution×resolution collision mask into the bake
// composites. noiseTile may be nil, in which case the noise channel is 1.
func (p *Pipeline) Run(ctx context.Context, mask, noiseTile *imaging.Image, s Settings) (*Output, error) {
	if mask == nil || s.Side < 1 || s.Resolution < 1 {
		return nil, ErrBadInput
	}
	if s.PressureBlur == 0 {
		s.PressureBlur = DefaultPressureBlur
	}
	log := logger.Named("filter")
	margin := s.Margin()
	padded := imaging.AddMargins(mask, s.Resolution, margin)
	size := padded.Width
	cells := s.Side + 2

	pressure, err := p.run(ctx, "flow_pressure", Request{
		Shader: ShaderFlowPressure,
		Params: Params{RowCount: cells},
		Inputs: []*imaging.Image{padded},
	})
	if err != nil {
		return nil, err
	}
	pressure, err = p.blur(ctx, "pressure_blur", pressure, s.Pixels(s.PressureBlur), true)
	if err != nil {
		return nil, err
	}

	dilated, err := p.Dilate(ctx, padded, s.Pixels(s.Dilate), nil)
	if err != nil {
		return nil, err
	}

	normal, err := p.run(ctx, "normal_from_height", Request{
		Shader: ShaderNormalFromHeight,
		Params: Params{Resolution: float32(s.Resolution)},
		Inputs: []*imaging.Image{dilated},
	})
	if err != nil {
		return nil, err
	}
	flow, err := p.run(ctx, "normal_to_flow", Request{Shader: ShaderNormalToFlow, Inputs: []*imaging.Image{normal}})
	if err != nil {
		return nil, err
	}
	flow, err = p.blur(ctx, "flow_blur", flow, s.Pixels(s.FlowmapBlur), false)
	if err != nil {
		return nil, err
	}

	foamImg, err := p.run(ctx, "foam", Request{
		Shader: ShaderFoam,
		Params: Params{Cutoff: s.FoamCutoff, Offset: s.Pixels(s.FoamOffset)},
		Inputs: []*imaging.Image{dilated},
	})
	if err != nil {
		return nil, err
	}
	foamImg, err = p.blur(ctx, "foam_blur", foamImg, s.Pixels(s.FoamBlur), false)
	if err != nil {
		return nil, err
	}

	var noise *imaging.Image
	if noiseTile != nil {
		noise, err = p.run(ctx, "tiling", Request{
			Shader: ShaderTiling,
			Params: Params{Tiles: cells, Width: size, Height: size},
			Inputs: []*imaging.Image{noiseTile},
		})
		if err != nil {
			return nil, err
		}
	}

	ffn, err := p.run(ctx, "combine_flow_foam_noise", Request{
		Shader: ShaderCombine,
		Inputs: []*imaging.Image{flow, flow, foamImg, noise},
	})
	if err != nil {
		return nil, err
	}
	dp, err := p.run(ctx, "combine_dist_pressure", Request{
		Shader: ShaderCombine,
		Inputs: []*imaging.Image{dilated, pressure},
	})
	if err != nil {
		return nil, err
	}

	log.Debug("filter pipeline complete",
		zap.Int("resolution", s.Resolution),
		zap.Int("side", s.Side),
		zap.Int("margin", margin))

	return &Output{
		FlowFoamNoise: imaging.CropMargins(ffn, margin),
		DistPressure:  imaging.CropMargins(dp, margin),
	}, nil
}
