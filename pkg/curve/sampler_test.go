package curve

import (
	"errors"
	"testing"

	"github.com/Faultbox/waterways/pkg/math"
)

func TestNewSamplerTooFewPoints(t *testing.T) {
	c := New(Point{Position: math.Vec3{X: 1, Y: 2, Z: 3}})
	if _, err := NewSampler(c); !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("err = %v, want ErrTooFewPoints", err)
	}
	if _, err := NewSampler(nil); !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("nil curve err = %v, want ErrTooFewPoints", err)
	}
}

func TestNewSamplerZeroLength(t *testing.T) {
	p := math.Vec3{X: 1, Y: 0, Z: 1}
	c := New(Point{Position: p}, Point{Position: p})
	if _, err := NewSampler(c); !errors.Is(err, ErrZeroLength) {
		t.Errorf("err = %v, want ErrZeroLength", err)
	}
}

func TestStraightLineLength(t *testing.T) {
	s, err := NewSampler(Line(math.Vec3{X: 0, Y: 0, Z: 0}, math.Vec3{X: 10, Y: 0, Z: 0}))
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	if !near(s.Length(), 10, 1e-3) {
		t.Errorf("Length = %v, want 10", s.Length())
	}
	// 10 / 0.05 intervals plus the end point.
	if s.BakedPoints() < 200 || s.BakedPoints() > 202 {
		t.Errorf("BakedPoints = %d, want ~201", s.BakedPoints())
	}
}

func TestPositionAtIsArcLengthParameterized(t *testing.T) {
	// Handles bunch the raw parameter towards the ends; arc-length sampling
	// must still place the midpoint at x=5.
	c := New(
		Point{Position: math.Vec3{X: 0, Y: 0, Z: 0}, Out: math.Vec3{X: 4, Y: 0, Z: 0}},
		Point{Position: math.Vec3{X: 10, Y: 0, Z: 0}, In: math.Vec3{X: -4, Y: 0, Z: 0}},
	)
	s, err := NewSampler(c)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	tests := []struct {
		fraction float32
		wantX    float32
	}{
		{0, 0},
		{0.25, 2.5},
		{0.5, 5},
		{0.9, 9},
		{1, 10},
		{-1, 0},
		{2, 10},
	}
	for _, tt := range tests {
		got := s.PositionAt(tt.fraction)
		if !near(got.X, tt.wantX, 0.01) || !near(got.Y, 0, 1e-4) || !near(got.Z, 0, 1e-4) {
			t.Errorf("PositionAt(%v) = %v, want x=%v", tt.fraction, got, tt.wantX)
		}
	}
}

func TestTangentAt(t *testing.T) {
	s, err := NewSampler(Line(math.Vec3{X: 0, Y: 0, Z: 0}, math.Vec3{X: 0, Y: 0, Z: 6}))
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	for _, f := range []float32{0, 0.5, 1} {
		tan := s.TangentAt(f)
		if !near(tan.Z, 1, 1e-3) || !near(tan.Length(), 1, 1e-3) {
			t.Errorf("TangentAt(%v) = %v, want +Z unit", f, tan)
		}
	}
}

func TestClosestParam(t *testing.T) {
	c := Line(math.Vec3{X: 0, Y: 0, Z: 0}, math.Vec3{X: 10, Y: 0, Z: 0})
	if _, err := c.AddPoint(math.Vec3{X: 20, Y: 0, Z: 0}, -1, math.Vec3{}); err != nil {
		t.Fatal(err)
	}
	s, err := NewSampler(c)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	seg, u := s.ClosestParam(math.Vec3{X: 15, Y: 0, Z: 0.5}, 0)
	if seg != 1 {
		t.Errorf("segment = %d, want 1", seg)
	}
	p := c.Interpolate(seg, u)
	if !near(p.X, 15, 0.2) {
		t.Errorf("closest point = %v, want x~15", p)
	}
}
