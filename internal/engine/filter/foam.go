package filter

import (
	"context"
	"math"

	"github.com/Faultbox/waterways/internal/engine/imaging"
)

// foam marks pixels whose upstream neighbour, Params.Offset pixels against
// the river direction (-V), sits closer to an obstacle than they do.
// Foam is the upstream distance value remapped from [Cutoff, 1] to [0, 1].
func foam(ctx context.Context, req Request, workers int) (*imaging.Image, error) {
	in := req.Inputs[0]
	offset := int(math.Round(float64(req.Params.Offset)))
	cutoff := min(req.Params.Cutoff, 0.999)
	out := imaging.New(in.Width, in.Height)

	err := forRows(ctx, in.Height, workers, func(y int) {
		for x := 0; x < in.Width; x++ {
			here := in.Value(x, y, 0)
			up := in.ClampedValue(x, y-offset, 0)
			var v float32
			if up > here {
				v = clamp01((up - cutoff) / (1 - cutoff))
			}
			out.SetRGBA(x, y, gray(v))
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
