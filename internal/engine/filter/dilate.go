package filter

import (
	"context"
	"math"

	"github.com/Faultbox/waterways/internal/engine/imaging"
)

// maskThreshold separates lit from unlit mask pixels.
const maskThreshold = 0.5

// dilateReach returns the effective radius and its whole-pixel reach.
func dilateReach(p Params) (float32, int) {
	r := p.Radius
	if r < 1 {
		r = 1
	}
	return r, int(r)
}

// dilatePass1 writes, per pixel, the horizontal distance to the nearest lit
// pixel of the same row divided by the radius, or 1 when none is in reach.
func dilatePass1(ctx context.Context, req Request, workers int) (*imaging.Image, error) {
	in := req.Inputs[0]
	r, reach := dilateReach(req.Params)
	out := imaging.New(in.Width, in.Height)
	w := in.Width

	err := forRows(ctx, in.Height, workers, func(y int) {
		left := make([]int, w)
		last := -1 << 30
		for x := 0; x < w; x++ {
			if in.Value(x, y, 0) > maskThreshold {
				last = x
			}
			left[x] = x - last
		}
		next := 1 << 30
		for x := w - 1; x >= 0; x-- {
			if in.Value(x, y, 0) > maskThreshold {
				next = x
			}
			d := min(left[x], next-x)
			v := float32(1)
			if d <= reach {
				v = min(float32(d)/r, 1)
			}
			out.SetRGBA(x, y, gray(v))
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// dilatePass2 combines the horizontal distances vertically into a
// Euclidean distance, normalized by the radius and clamped to 1.
func dilatePass2(ctx context.Context, req Request, workers int) (*imaging.Image, error) {
	in := req.Inputs[0]
	r, reach := dilateReach(req.Params)
	out := imaging.New(in.Width, in.Height)

	err := forRows(ctx, in.Height, workers, func(y int) {
		y0 := max(0, y-reach)
		y1 := min(in.Height-1, y+reach)
		for x := 0; x < in.Width; x++ {
			best := float32(1)
			for yy := y0; yy <= y1; yy++ {
				h := in.Value(x, yy, 0)
				if h >= best {
					continue
				}
				dy := float32(yy-y) / r
				d := float32(math.Sqrt(float64(h*h + dy*dy)))
				if d < best {
					best = d
				}
			}
			out.SetRGBA(x, y, gray(best))
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// dilatePass3 turns the distance into a 1-d falloff. Values at or below
// Params.Fill take the fill image (second input) or 0.
func dilatePass3(ctx context.Context, req Request, workers int) (*imaging.Image, error) {
	in := req.Inputs[0]
	var fill *imaging.Image
	if len(req.Inputs) > 1 {
		fill = req.Inputs[1]
	}
	out := imaging.New(in.Width, in.Height)

	err := forRows(ctx, in.Height, workers, func(y int) {
		for x := 0; x < in.Width; x++ {
			v := 1 - in.Value(x, y, 0)
			switch {
			case v > req.Params.Fill:
				out.SetRGBA(x, y, gray(v))
			case fill != nil:
				out.SetRGBA(x, y, fill.RGBA(x, y))
			default:
				out.SetRGBA(x, y, gray(0))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
