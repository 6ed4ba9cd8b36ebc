package rivermesh

import (
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/Faultbox/waterways/internal/engine/atlas"
	"github.com/Faultbox/waterways/internal/logger"
	"github.com/Faultbox/waterways/pkg/curve"
	"github.com/Faultbox/waterways/pkg/math"
)

// Generate builds the river mesh for curve c with one half-width per control
// point. A degenerate curve (fewer than two points, zero length or no
// positive width) yields a minimal straight one-step mesh instead of an
// error.
func Generate(c *curve.Curve, widths []float32, s Settings) (*Mesh, error) {
	n := 0
	if c != nil {
		n = c.Len()
	}
	if len(widths) != n {
		return nil, fmt.Errorf("%w: %d widths for %d points", ErrWidthMismatch, len(widths), n)
	}
	s = s.Clamped()

	sampler, err := curve.NewSampler(c)
	if err != nil {
		if errors.Is(err, curve.ErrTooFewPoints) || errors.Is(err, curve.ErrZeroLength) {
			logger.Named("rivermesh").Warn("degenerate curve, building fallback mesh",
				zap.Int("points", n), zap.Error(err))
			return fallback(c, s)
		}
		return nil, err
	}

	avg := averageWidth(widths)
	if avg <= 0 {
		logger.Named("rivermesh").Warn("non-positive average width, building fallback mesh",
			zap.Float32("average", avg))
		return fallback(c, s)
	}

	profile, err := newWidthProfile(sampler, widths, s.WidthResolution)
	if err != nil {
		return nil, err
	}

	steps := int(gomath.Round(float64(sampler.Length() / avg)))
	if steps < 1 {
		steps = 1
	}
	m := build(sampler, profile.at, steps, s)
	logger.Named("rivermesh").Debug("mesh generated",
		zap.Int("steps", steps),
		zap.Int("side", m.Layout.Side),
		zap.Int("triangles", m.TriangleCount()),
		zap.Float32("length", m.Length))
	return m, nil
}

// fallback builds a one-step unit mesh starting at the curve's first point.
func fallback(c *curve.Curve, s Settings) (*Mesh, error) {
	var origin math.Vec3
	if c != nil && c.Len() > 0 {
		origin = c.Points[0].Position
	}
	sampler, err := curve.NewSampler(curve.Line(origin, origin.Add(math.Vec3{X: 1})))
	if err != nil {
		return nil, err
	}
	m := build(sampler, func(math.Vec3) float32 { return 1 }, 1, s)
	m.Fallback = true
	return m, nil
}

// build samples steps*LengthDivisions+1 rows along the curve and emits the
// triangle list in atlas order: step, sub-cell (row-major), triangle.
func build(sampler *curve.Sampler, widthAt func(math.Vec3) float32, steps int, s Settings) *Mesh {
	layout := atlas.NewLayout(steps, s.LengthDivisions, s.WidthDivisions)
	ld, wd := layout.LengthDivisions, layout.WidthDivisions
	rows := steps * ld
	cols := wd + 1

	// Grid of positions, one row per longitudinal sample.
	grid := make([]math.Vec3, (rows+1)*cols)
	uvs := make([]math.Vec2, (rows+1)*cols)
	for i := 0; i <= rows; i++ {
		f := float32(i) / float32(rows)
		p := sampler.PositionAt(f)
		right := rightVector(sampler, i, rows, s.Smoothness)
		w := widthAt(p)
		for j := 0; j < cols; j++ {
			across := float32(j) / float32(wd)
			grid[i*cols+j] = p.Add(right.Scale(w * (1 - 2*across)))
			uvs[i*cols+j] = math.Vec2{X: across, Y: float32(i) / float32(ld)}
		}
	}

	tris := layout.Triangles()
	vertices := make([]Vertex, 0, tris*3)
	indices := make([]uint32, 0, tris*3)
	bounds := Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}

	for step := 0; step < steps; step++ {
		for r := 0; r < ld; r++ {
			i := step*ld + r
			for j := 0; j < wd; j++ {
				sub := r*wd + j
				for k := 0; k < 2; k++ {
					uv2 := layout.TriangleUV2(step, sub, k)
					var corner [3]math.Vec3
					for ci, c := range atlas.Corners[k] {
						idx := (i+c[1])*cols + j + c[0]
						corner[ci] = grid[idx]
						v := Vertex{
							Position: grid[idx].Array(),
							UV:       uvs[idx].Array(),
							UV2:      uv2[ci].Array(),
						}
						updateBounds(&bounds, v.Position)
						indices = append(indices, uint32(len(vertices)))
						vertices = append(vertices, v)
					}
					n := corner[1].Sub(corner[0]).Cross(corner[2].Sub(corner[0])).Normalize()
					base := len(vertices) - 3
					for vi := base; vi < base+3; vi++ {
						vertices[vi].Normal = n.Array()
					}
				}
			}
		}
	}

	SmoothNormals(vertices)
	ComputeTangents(vertices)

	return &Mesh{
		Vertices: vertices,
		Indices:  indices,
		Bounds:   bounds,
		Layout:   layout,
		Length:   sampler.Length(),
	}
}

// rightVector returns tangent × up at row i of rows, where the tangent is a
// finite difference between rows i-smoothness and i+smoothness.
func rightVector(sampler *curve.Sampler, i, rows int, smoothness float32) math.Vec3 {
	n := float32(rows)
	a := sampler.PositionAt((float32(i) - smoothness) / n)
	b := sampler.PositionAt((float32(i) + smoothness) / n)
	tangent := b.Sub(a).Normalize()
	if tangent == (math.Vec3{}) {
		tangent = sampler.TangentAt(float32(i) / n)
	}
	right := tangent.Cross(math.Up)
	if right.LengthSqr() < 1e-10 {
		// Vertical tangent: any horizontal axis is as good as another.
		return math.Vec3{Z: 1}
	}
	return right.Normalize()
}

func averageWidth(widths []float32) float32 {
	if len(widths) == 0 {
		return 0
	}
	w := make([]float64, len(widths))
	for i, v := range widths {
		w[i] = float64(v)
	}
	return float32(floats.Sum(w) / float64(len(w)))
}

// widthProfile interpolates control-point widths along the curve parameter.
type widthProfile struct {
	sampler    *curve.Sampler
	fit        interp.PiecewiseLinear
	resolution int
}

func newWidthProfile(sampler *curve.Sampler, widths []float32, resolution int) (*widthProfile, error) {
	xs := make([]float64, len(widths))
	ys := make([]float64, len(widths))
	for i, w := range widths {
		xs[i] = float64(i)
		ys[i] = float64(w)
	}
	wp := &widthProfile{sampler: sampler, resolution: resolution}
	if err := wp.fit.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("fit width profile: %w", err)
	}
	return wp, nil
}

// at returns the width at the curve point nearest to p.
func (wp *widthProfile) at(p math.Vec3) float32 {
	seg, t := wp.sampler.ClosestParam(p, wp.resolution)
	return float32(wp.fit.Predict(float64(seg) + float64(t)))
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}
