// Package picking provides ray intersection tests and a collider world that
// answers "first surface hit along a segment" queries.
package picking

import (
	gomath "math"

	"github.com/Faultbox/waterways/pkg/math"
)

// Ray is a segment-capable ray: points are Origin + t*Direction. Direction
// is not required to be normalized; CastRay treats t in [0,1] as the segment.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
}

// At returns the point at parameter t.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min [3]float32
	Max [3]float32
}

// NewAABB creates an AABB from center and half-extents.
func NewAABB(center, halfExtents math.Vec3) AABB {
	return AABB{
		Min: center.Sub(halfExtents).Array(),
		Max: center.Add(halfExtents).Array(),
	}
}

// Contains reports whether p is inside or on the box.
func (b AABB) Contains(p math.Vec3) bool {
	a := p.Array()
	for i := 0; i < 3; i++ {
		if a[i] < b.Min[i] || a[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Union returns the smallest box containing both b and o.
func (b AABB) Union(o AABB) AABB {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], o.Min[i])
		b.Max[i] = max(b.Max[i], o.Max[i])
	}
	return b
}

// IntersectPlaneY intersects a ray with a horizontal plane at the given Y level.
// Returns the intersection point (X, Z) and whether the intersection is valid.
func (r Ray) IntersectPlaneY(planeY float32) (x, z float32, ok bool) {
	if gomath.Abs(float64(r.Direction.Y)) < 0.001 {
		return 0, 0, false // Ray parallel to plane
	}

	t := (planeY - r.Origin.Y) / r.Direction.Y
	if t < 0 {
		return 0, 0, false // Intersection behind ray origin
	}

	return r.Origin.X + t*r.Direction.X, r.Origin.Z + t*r.Direction.Z, true
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box
// using the slab method. It returns the entry parameter and the outward
// normal of the entry face. Rays starting inside the box do not hit.
func (r Ray) IntersectAABB(box AABB) (t float32, normal math.Vec3, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)
	axis := -1
	origin := r.Origin.Array()
	dir := r.Direction.Array()

	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if origin[i] < box.Min[i] || origin[i] > box.Max[i] {
				return 0, math.Vec3{}, false
			}
			continue
		}
		t1 := (box.Min[i] - origin[i]) / dir[i]
		t2 := (box.Max[i] - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
			axis = i
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	if tmax < tmin || tmin < 0 || axis < 0 {
		return 0, math.Vec3{}, false
	}

	var n [3]float32
	if dir[axis] > 0 {
		n[axis] = -1
	} else {
		n[axis] = 1
	}
	return tmin, math.Vec3FromArray(n), true
}

// IntersectPlane intersects the ray with the plane through point with the
// given normal. Both sides of the plane are hit; the reported normal is the
// plane's own.
func (r Ray) IntersectPlane(point, normal math.Vec3) (t float32, hit bool) {
	denom := normal.Dot(r.Direction)
	if gomath.Abs(float64(denom)) < 1e-8 {
		return 0, false
	}
	t = point.Sub(r.Origin).Dot(normal) / denom
	if t < 0 {
		return 0, false
	}
	return t, true
}

// IntersectTriangle is the Möller–Trumbore test. Triangles are double sided;
// the returned normal is the counter-clockwise face normal, so callers can
// tell whether the back face was hit.
func (r Ray) IntersectTriangle(a, b, c math.Vec3) (t float32, normal math.Vec3, hit bool) {
	const epsilon = 1e-7
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if gomath.Abs(float64(det)) < epsilon {
		return 0, math.Vec3{}, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, math.Vec3{}, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, math.Vec3{}, false
	}
	t = e2.Dot(q) * inv
	if t < 0 {
		return 0, math.Vec3{}, false
	}
	return t, e1.Cross(e2).Normalize(), true
}
