package filter

import (
	"context"

	"github.com/Faultbox/waterways/internal/engine/imaging"
)

// blurHorizontal convolves each row with a Gaussian of Params.Radius,
// extending edge pixels.
func blurHorizontal(ctx context.Context, req Request, workers int) (*imaging.Image, error) {
	return convolve(ctx, req.Inputs[0], CachedGaussianKernel(req.Params.Radius), true, workers)
}

// blurVertical convolves each column.
func blurVertical(ctx context.Context, req Request, workers int) (*imaging.Image, error) {
	return convolve(ctx, req.Inputs[0], CachedGaussianKernel(req.Params.Radius), false, workers)
}

func convolve(ctx context.Context, in *imaging.Image, kernel []float32, horizontal bool, workers int) (*imaging.Image, error) {
	if len(kernel) == 1 {
		return in.Clone(), nil
	}
	half := len(kernel) / 2
	out := imaging.New(in.Width, in.Height)

	err := forRows(ctx, in.Height, workers, func(y int) {
		for x := 0; x < in.Width; x++ {
			var acc [4]float32
			for k, weight := range kernel {
				sx, sy := x, y
				if horizontal {
					sx = clampInt(x+k-half, 0, in.Width-1)
				} else {
					sy = clampInt(y+k-half, 0, in.Height-1)
				}
				c := in.RGBA(sx, sy)
				acc[0] += c[0] * weight
				acc[1] += c[1] * weight
				acc[2] += c[2] * weight
				acc[3] += c[3] * weight
			}
			out.SetRGBA(x, y, acc)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
