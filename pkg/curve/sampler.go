package curve

import (
	gomath "math"

	"gonum.org/v1/gonum/interp"

	"github.com/Faultbox/waterways/pkg/math"
)

// denseSamples is the number of raw Bezier evaluations per segment used to
// measure arc length before resampling at the bake interval.
const denseSamples = 64

// DefaultClosestResolution is the per-segment sample count of ClosestParam.
const DefaultClosestResolution = 100

// Sampler answers arc-length queries against a baked table of points spaced
// every bake interval along the curve. It is immutable once built.
type Sampler struct {
	curve    *Curve
	interval float32
	length   float32
	baked    []math.Vec3
}

// NewSampler bakes the arc-length table for c. The curve is copied.
func NewSampler(c *Curve) (*Sampler, error) {
	if c == nil || c.Len() < 2 {
		return nil, ErrTooFewPoints
	}
	cc := c.Clone()
	interval := cc.BakeInterval
	if interval <= 0 {
		interval = DefaultBakeInterval
	}

	// Cumulative distance -> global parameter, strictly increasing in distance.
	xs := []float64{0}
	ys := []float64{0}
	prev := cc.Interpolate(0, 0)
	var dist float64
	for seg := 0; seg < cc.Segments(); seg++ {
		for j := 1; j <= denseSamples; j++ {
			t := float32(j) / denseSamples
			p := cc.Interpolate(seg, t)
			d := float64(p.Distance(prev))
			prev = p
			if d <= 1e-9 {
				continue
			}
			dist += d
			xs = append(xs, dist)
			ys = append(ys, float64(seg)+float64(t))
		}
	}
	if len(xs) < 2 || dist < 1e-6 {
		return nil, ErrZeroLength
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, err
	}

	count := int(gomath.Ceil(dist / float64(interval)))
	baked := make([]math.Vec3, 0, count+1)
	for k := 0; k < count; k++ {
		d := float64(k) * float64(interval)
		if d >= dist {
			break
		}
		baked = append(baked, cc.InterpolateParam(pl.Predict(d)))
	}
	baked = append(baked, cc.Interpolate(cc.Segments()-1, 1))

	return &Sampler{
		curve:    cc,
		interval: interval,
		length:   float32(dist),
		baked:    baked,
	}, nil
}

// Curve returns the sampler's copy of the curve.
func (s *Sampler) Curve() *Curve {
	return s.curve
}

// Length returns the total arc length.
func (s *Sampler) Length() float32 {
	return s.length
}

// BakedPoints returns the number of baked table entries.
func (s *Sampler) BakedPoints() int {
	return len(s.baked)
}

// PositionAtDistance returns the point at arc length d, clamped to [0, Length].
func (s *Sampler) PositionAtDistance(d float32) math.Vec3 {
	if d <= 0 {
		return s.baked[0]
	}
	last := len(s.baked) - 1
	if d >= s.length {
		return s.baked[last]
	}
	idx := int(d / s.interval)
	if idx >= last {
		return s.baked[last]
	}
	start := float32(idx) * s.interval
	span := s.interval
	if idx == last-1 {
		span = s.length - start
	}
	frac := float32(0)
	if span > 0 {
		frac = clampf((d-start)/span, 0, 1)
	}
	return s.baked[idx].Lerp(s.baked[idx+1], frac)
}

// PositionAt returns the point at a fraction of the total length.
func (s *Sampler) PositionAt(fraction float32) math.Vec3 {
	return s.PositionAtDistance(clampf(fraction, 0, 1) * s.length)
}

// TangentAt returns the unit tangent at a fraction of the total length,
// estimated by a central difference of one bake interval.
func (s *Sampler) TangentAt(fraction float32) math.Vec3 {
	d := clampf(fraction, 0, 1) * s.length
	a := s.PositionAtDistance(d - s.interval)
	b := s.PositionAtDistance(d + s.interval)
	t := b.Sub(a).Normalize()
	if t == (math.Vec3{}) {
		return s.baked[len(s.baked)-1].Sub(s.baked[0]).Normalize()
	}
	return t
}

// ClosestParam returns the segment and local parameter of the raw curve
// nearest to p, found by brute force over `resolution` samples per segment.
func (s *Sampler) ClosestParam(p math.Vec3, resolution int) (segment int, t float32) {
	if resolution <= 0 {
		resolution = DefaultClosestResolution
	}
	best := float32(gomath.MaxFloat32)
	for seg := 0; seg < s.curve.Segments(); seg++ {
		for i := 0; i <= resolution; i++ {
			u := float32(i) / float32(resolution)
			d := s.curve.Interpolate(seg, u).Sub(p).LengthSqr()
			if d < best {
				best = d
				segment, t = seg, u
			}
		}
	}
	return segment, t
}
