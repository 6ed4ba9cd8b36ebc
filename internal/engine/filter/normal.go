package filter

import (
	"context"

	"github.com/Faultbox/waterways/internal/engine/imaging"
	"github.com/Faultbox/waterways/pkg/math"
)

// normalFromHeight treats the red channel as a height field and encodes its
// Sobel normal as n*0.5+0.5. Gradients are scaled from per-pixel to per-UV
// by Params.Resolution.
func normalFromHeight(ctx context.Context, req Request, workers int) (*imaging.Image, error) {
	in := req.Inputs[0]
	scale := req.Params.Resolution / 8
	if scale <= 0 {
		scale = float32(in.Width) / 8
	}
	out := imaging.New(in.Width, in.Height)

	err := forRows(ctx, in.Height, workers, func(y int) {
		for x := 0; x < in.Width; x++ {
			h := func(dx, dy int) float32 { return in.ClampedValue(x+dx, y+dy, 0) }
			gx := (h(1, -1) + 2*h(1, 0) + h(1, 1)) - (h(-1, -1) + 2*h(-1, 0) + h(-1, 1))
			gy := (h(-1, 1) + 2*h(0, 1) + h(1, 1)) - (h(-1, -1) + 2*h(0, -1) + h(1, -1))
			n := math.Vec3{X: -gx * scale, Y: -gy * scale, Z: 1}.Normalize()
			out.SetRGBA(x, y, [4]float32{n.X*0.5 + 0.5, n.Y*0.5 + 0.5, n.Z*0.5 + 0.5, 1})
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// normalToFlow projects an encoded normal onto the surface plane: the flow
// vector is the normal's xy, re-encoded into RG.
func normalToFlow(ctx context.Context, req Request, workers int) (*imaging.Image, error) {
	in := req.Inputs[0]
	out := imaging.New(in.Width, in.Height)

	err := forRows(ctx, in.Height, workers, func(y int) {
		for x := 0; x < in.Width; x++ {
			c := in.RGBA(x, y)
			fx := c[0]*2 - 1
			fy := c[1]*2 - 1
			out.SetRGBA(x, y, [4]float32{clamp01(fx*0.5 + 0.5), clamp01(fy*0.5 + 0.5), 0, 1})
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
