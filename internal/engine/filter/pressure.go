package filter

import (
	"context"
	"math"

	"github.com/Faultbox/waterways/internal/engine/imaging"
)

// flowPressure writes, for every pixel, the fraction of occluded pixels on
// its row within its own atlas cell. The image is Params.RowCount cells wide.
func flowPressure(ctx context.Context, req Request, workers int) (*imaging.Image, error) {
	in := req.Inputs[0]
	cells := max(req.Params.RowCount, 1)
	cellWidth := float64(in.Width) / float64(cells)
	out := imaging.New(in.Width, in.Height)

	err := forRows(ctx, in.Height, workers, func(y int) {
		for c := 0; c < cells; c++ {
			x0 := int(math.Round(float64(c) * cellWidth))
			x1 := min(int(math.Round(float64(c+1)*cellWidth)), in.Width)
			if x1 <= x0 {
				continue
			}
			occluded := 0
			for x := x0; x < x1; x++ {
				if in.Value(x, y, 0) > maskThreshold {
					occluded++
				}
			}
			p := gray(float32(occluded) / float32(x1-x0))
			for x := x0; x < x1; x++ {
				out.SetRGBA(x, y, p)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
