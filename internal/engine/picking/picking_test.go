package picking

import (
	"errors"
	gomath "math"
	"sync"
	"testing"

	"github.com/Faultbox/waterways/pkg/math"
)

func near(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-4
}

func TestIntersectAABB(t *testing.T) {
	box := NewAABB(math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1})

	tests := []struct {
		name       string
		ray        Ray
		wantHit    bool
		wantT      float32
		wantNormal math.Vec3
	}{
		{"from_above", Ray{math.Vec3{Y: 5}, math.Vec3{Y: -1}}, true, 4, math.Vec3{Y: 1}},
		{"from_below", Ray{math.Vec3{Y: -5}, math.Vec3{Y: 1}}, true, 4, math.Vec3{Y: -1}},
		{"from_side", Ray{math.Vec3{X: -3}, math.Vec3{X: 1}}, true, 2, math.Vec3{X: -1}},
		{"miss", Ray{math.Vec3{X: 3, Y: 5}, math.Vec3{Y: -1}}, false, 0, math.Vec3{}},
		{"pointing_away", Ray{math.Vec3{Y: 5}, math.Vec3{Y: 1}}, false, 0, math.Vec3{}},
		{"inside", Ray{math.Vec3{}, math.Vec3{Y: 1}}, false, 0, math.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tHit, n, hit := tt.ray.IntersectAABB(box)
			if hit != tt.wantHit {
				t.Fatalf("hit = %v, want %v", hit, tt.wantHit)
			}
			if !hit {
				return
			}
			if !near(tHit, tt.wantT) {
				t.Errorf("t = %v, want %v", tHit, tt.wantT)
			}
			if n != tt.wantNormal {
				t.Errorf("normal = %v, want %v", n, tt.wantNormal)
			}
		})
	}
}

func TestIntersectTriangleReportsFaceNormal(t *testing.T) {
	// Counter-clockwise seen from above: normal +Y.
	a := math.Vec3{X: 0, Z: 0}
	b := math.Vec3{X: 0, Z: 1}
	c := math.Vec3{X: 1, Z: 0}

	down := Ray{Origin: math.Vec3{X: 0.2, Y: 2, Z: 0.2}, Direction: math.Vec3{Y: -1}}
	tHit, n, ok := down.IntersectTriangle(a, b, c)
	if !ok || !near(tHit, 2) {
		t.Fatalf("down ray: ok=%v t=%v", ok, tHit)
	}
	if !near(n.Y, -1) && !near(n.Y, 1) {
		t.Fatalf("normal not vertical: %v", n)
	}
	up := Ray{Origin: math.Vec3{X: 0.2, Y: -2, Z: 0.2}, Direction: math.Vec3{Y: 1}}
	_, n2, ok := up.IntersectTriangle(a, b, c)
	if !ok {
		t.Fatal("triangles must be double sided")
	}
	if n2 != n {
		t.Errorf("face normal depends on ray side: %v vs %v", n, n2)
	}

	outside := Ray{Origin: math.Vec3{X: 0.9, Y: 2, Z: 0.9}, Direction: math.Vec3{Y: -1}}
	if _, _, ok := outside.IntersectTriangle(a, b, c); ok {
		t.Error("ray outside the triangle should miss")
	}
}

func TestIntersectPlaneY(t *testing.T) {
	r := Ray{Origin: math.Vec3{X: 1, Y: 10, Z: 2}, Direction: math.Vec3{X: 1, Y: -1}}
	x, z, ok := r.IntersectPlaneY(0)
	if !ok || !near(x, 11) || !near(z, 2) {
		t.Errorf("got (%v, %v, %v), want (11, 2, true)", x, z, ok)
	}
	if _, _, ok := (Ray{Direction: math.Vec3{X: 1}}).IntersectPlaneY(0); ok {
		t.Error("parallel ray should not intersect")
	}
}

func TestWorldCastRaySegment(t *testing.T) {
	w := NewWorld()
	id := w.Add(Box{NewAABB(math.Vec3{Y: 1}, math.Vec3{X: 1, Y: 1, Z: 1})}, 1)

	// Segment ends at y=3, above the box top at y=2.
	if _, ok := w.CastRay(math.Vec3{Y: 10}, math.Vec3{Y: -7}, AllLayers); ok {
		t.Error("segment shorter than the distance to the box should miss")
	}

	hit, ok := w.CastRay(math.Vec3{Y: 10}, math.Vec3{Y: -10}, AllLayers)
	if !ok {
		t.Fatal("expected hit")
	}
	if hit.ColliderID != id || !near(hit.Point.Y, 2) || !near(hit.Normal.Y, 1) || !near(hit.Fraction, 0.8) {
		t.Errorf("hit = %+v", hit)
	}
}

func TestWorldLayers(t *testing.T) {
	w := NewWorld()
	w.Add(Plane{Point: math.Vec3{}, Normal: math.Vec3{Y: 1}}, 1<<2)

	if _, ok := w.CastRay(math.Vec3{Y: 1}, math.Vec3{Y: -2}, 1); ok {
		t.Error("collider on another layer should be ignored")
	}
	if _, ok := w.CastRay(math.Vec3{Y: 1}, math.Vec3{Y: -2}, 1<<2|1); !ok {
		t.Error("collider on a requested layer should hit")
	}
}

func TestWorldNearestHitWins(t *testing.T) {
	w := NewWorld()
	w.Add(Plane{Point: math.Vec3{}, Normal: math.Vec3{Y: 1}}, AllLayers)
	top := w.Add(Box{NewAABB(math.Vec3{Y: 3}, math.Vec3{X: 1, Y: 0.5, Z: 1})}, AllLayers)

	hit, ok := w.CastRay(math.Vec3{Y: 10}, math.Vec3{Y: -20}, AllLayers)
	if !ok || hit.ColliderID != top {
		t.Errorf("hit = %+v, want collider %d", hit, top)
	}
}

func TestWorldRemoveAndReset(t *testing.T) {
	w := NewWorld()
	id := w.Add(Box{NewAABB(math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1})}, AllLayers)
	if err := w.ResetColliders(); err != nil {
		t.Fatalf("ResetColliders: %v", err)
	}
	if !w.Remove(id) || w.Len() != 0 {
		t.Error("Remove failed")
	}
	if w.Remove(id) {
		t.Error("second Remove should report false")
	}

	w.Add(Plane{Point: math.Vec3{}}, AllLayers)
	if err := w.ResetColliders(); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("err = %v, want ErrInvalidShape", err)
	}
}

func TestWorldTriangleMesh(t *testing.T) {
	w := NewWorld()
	// A horizontal quad at y=1, wound counter-clockwise from above.
	quad := TriangleMesh{Triangles: [][3]math.Vec3{
		{{X: -1, Y: 1, Z: -1}, {X: -1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: -1}},
		{{X: 1, Y: 1, Z: -1}, {X: -1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}},
	}}
	w.Add(quad, AllLayers)

	hit, ok := w.CastRay(math.Vec3{Y: 5}, math.Vec3{Y: -5}, AllLayers)
	if !ok || !near(hit.Point.Y, 1) || hit.Normal.Y <= 0 {
		t.Errorf("down hit = %+v ok=%v", hit, ok)
	}
	hit, ok = w.CastRay(math.Vec3{}, math.Vec3{Y: 5}, AllLayers)
	if !ok || hit.Normal.Y <= 0 {
		t.Errorf("up hit should report the same +Y face normal, got %+v ok=%v", hit, ok)
	}
}

func TestWorldConcurrentReads(t *testing.T) {
	w := NewWorld()
	w.Add(Box{NewAABB(math.Vec3{}, math.Vec3{X: 5, Y: 1, Z: 5})}, AllLayers)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				x := float32(i-4) * 0.5
				if _, ok := w.CastRay(math.Vec3{X: x, Y: 5}, math.Vec3{Y: -10}, AllLayers); !ok {
					t.Errorf("missed at x=%v", x)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
