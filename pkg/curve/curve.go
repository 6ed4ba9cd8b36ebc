// Package curve implements the river centerline: a chain of cubic Bezier segments
// with per-point tangent handles, and an arc-length sampler over it.
package curve

import (
	"errors"
	"fmt"

	"github.com/Faultbox/waterways/pkg/math"
)

// DefaultBakeInterval is the arc-length spacing of the baked sample table.
const DefaultBakeInterval = 0.05

var (
	// ErrTooFewPoints is returned when a curve has fewer than two control points.
	ErrTooFewPoints = errors.New("curve: at least 2 points required")
	// ErrZeroLength is returned when all control points coincide.
	ErrZeroLength = errors.New("curve: zero length")
	// ErrIndexOutOfRange is returned by point edits with a bad index.
	ErrIndexOutOfRange = errors.New("curve: point index out of range")
)

// Point is a control point. In and Out are handle offsets relative to Position.
type Point struct {
	Position math.Vec3 `yaml:"position"`
	In       math.Vec3 `yaml:"in"`
	Out      math.Vec3 `yaml:"out"`
}

// Curve is an ordered list of control points. Segment i is the cubic Bezier
// Position[i], Position[i]+Out[i], Position[i+1]+In[i+1], Position[i+1].
type Curve struct {
	Points       []Point `yaml:"points"`
	BakeInterval float32 `yaml:"bake_interval"`
}

// New creates a curve from control points.
func New(points ...Point) *Curve {
	c := &Curve{BakeInterval: DefaultBakeInterval}
	c.Points = append(c.Points, points...)
	return c
}

// Line creates a straight two-point curve with handles pointing along it.
func Line(from, to math.Vec3) *Curve {
	dir := to.Sub(from).Scale(0.25)
	return New(
		Point{Position: from, In: dir.Neg(), Out: dir},
		Point{Position: to, In: dir.Neg(), Out: dir},
	)
}

// Len returns the number of control points.
func (c *Curve) Len() int {
	return len(c.Points)
}

// Clone returns a deep copy.
func (c *Curve) Clone() *Curve {
	out := &Curve{BakeInterval: c.BakeInterval}
	out.Points = append([]Point(nil), c.Points...)
	return out
}

// Segments returns the number of Bezier segments.
func (c *Curve) Segments() int {
	if len(c.Points) < 2 {
		return 0
	}
	return len(c.Points) - 1
}

// Interpolate evaluates segment at local parameter t in [0,1].
// Out-of-range segments and parameters are clamped.
func (c *Curve) Interpolate(segment int, t float32) math.Vec3 {
	n := len(c.Points)
	switch {
	case n == 0:
		return math.Vec3{}
	case n == 1:
		return c.Points[0].Position
	}
	if segment < 0 {
		segment, t = 0, 0
	}
	if segment >= n-1 {
		segment, t = n-2, 1
	}
	t = clampf(t, 0, 1)

	a := c.Points[segment]
	b := c.Points[segment+1]
	p0 := a.Position
	p1 := a.Position.Add(a.Out)
	p2 := b.Position.Add(b.In)
	p3 := b.Position

	mt := 1 - t
	w0 := mt * mt * mt
	w1 := 3 * mt * mt * t
	w2 := 3 * mt * t * t
	w3 := t * t * t
	return p0.Scale(w0).Add(p1.Scale(w1)).Add(p2.Scale(w2)).Add(p3.Scale(w3))
}

// InterpolateParam evaluates the curve at a global parameter in [0, Segments()].
func (c *Curve) InterpolateParam(param float64) math.Vec3 {
	seg := int(param)
	return c.Interpolate(seg, float32(param-float64(seg)))
}

// AddPoint inserts a point after index `after`; after < 0 appends.
// A zero dir derives mirrored handles a quarter of the neighbour distance long.
func (c *Curve) AddPoint(pos math.Vec3, after int, dir math.Vec3) (int, error) {
	if len(c.Points) == 0 {
		c.Points = append(c.Points, Point{Position: pos})
		return 0, nil
	}

	if after < 0 || after >= len(c.Points)-1 {
		last := c.Points[len(c.Points)-1]
		if dir == (math.Vec3{}) {
			dist := pos.Distance(last.Position)
			dir = pos.Sub(last.Position).Sub(last.Out).Normalize().Scale(0.25 * dist)
		}
		c.Points = append(c.Points, Point{Position: pos, In: dir.Neg(), Out: dir})
		return len(c.Points) - 1, nil
	}

	a := c.Points[after].Position
	b := c.Points[after+1].Position
	if dir == (math.Vec3{}) {
		dir = b.Sub(a).Normalize().Scale(0.25 * a.Distance(b))
	}
	idx := after + 1
	c.Points = append(c.Points, Point{})
	copy(c.Points[idx+1:], c.Points[idx:])
	c.Points[idx] = Point{Position: pos, In: dir.Neg(), Out: dir}
	return idx, nil
}

// RemovePoint deletes the point at index.
func (c *Curve) RemovePoint(index int) error {
	if index < 0 || index >= len(c.Points) {
		return fmt.Errorf("remove %d of %d: %w", index, len(c.Points), ErrIndexOutOfRange)
	}
	c.Points = append(c.Points[:index], c.Points[index+1:]...)
	return nil
}

// SetPoint replaces the point at index.
func (c *Curve) SetPoint(index int, p Point) error {
	if index < 0 || index >= len(c.Points) {
		return fmt.Errorf("set %d of %d: %w", index, len(c.Points), ErrIndexOutOfRange)
	}
	c.Points[index] = p
	return nil
}

// MirrorHandles sets In to -Out at index, restoring C1 continuity there.
func (c *Curve) MirrorHandles(index int) error {
	if index < 0 || index >= len(c.Points) {
		return fmt.Errorf("mirror %d of %d: %w", index, len(c.Points), ErrIndexOutOfRange)
	}
	c.Points[index].In = c.Points[index].Out.Neg()
	return nil
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
