package filter

import (
	"context"

	"github.com/Faultbox/waterways/internal/engine/imaging"
)

// combine builds an image whose channel i is channel i of input i.
// Missing inputs contribute 0, or 1 for alpha.
func combine(ctx context.Context, req Request, workers int) (*imaging.Image, error) {
	w, h := OutputSize(req)
	out := imaging.New(w, h)
	var src [4]*imaging.Image
	copy(src[:], req.Inputs)

	err := forRows(ctx, h, workers, func(y int) {
		for x := 0; x < w; x++ {
			c := [4]float32{0, 0, 0, 1}
			for i, in := range src {
				if in != nil {
					c[i] = in.Value(x, y, i)
				}
			}
			out.SetRGBA(x, y, c)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// tiling repeats the input tile Params.Tiles times across both axes of a
// Params.Width × Params.Height output, sampling with wrap-around.
func tiling(ctx context.Context, req Request, workers int) (*imaging.Image, error) {
	tile := req.Inputs[0]
	n := float32(max(req.Params.Tiles, 1))
	w, h := req.Params.Width, req.Params.Height
	out := imaging.New(w, h)

	err := forRows(ctx, h, workers, func(y int) {
		v := (float32(y) + 0.5) / float32(h) * n
		for x := 0; x < w; x++ {
			u := (float32(x) + 0.5) / float32(w) * n
			out.SetRGBA(x, y, tile.SampleWrapped(u, v))
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
