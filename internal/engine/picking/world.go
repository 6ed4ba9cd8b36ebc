package picking

import (
	"errors"
	"fmt"
	gomath "math"
	"sync"

	"github.com/Faultbox/waterways/pkg/math"
)

// AllLayers matches every collision layer.
const AllLayers uint32 = 0xFFFFFFFF

// ErrInvalidShape is returned by ResetColliders when a shape cannot be used.
var ErrInvalidShape = errors.New("picking: invalid collider shape")

// Hit describes the first surface met by a ray.
type Hit struct {
	Point      math.Vec3
	Normal     math.Vec3
	ColliderID int
	// Fraction is the hit position along the cast segment, in [0,1].
	Fraction float32
}

// Caster answers raycasts. The ray is the segment origin -> origin+direction
// and only colliders on one of the given layers are considered.
// Implementations must be safe for concurrent use.
type Caster interface {
	CastRay(origin, direction math.Vec3, layers uint32) (Hit, bool)
}

// ColliderResetter is implemented by casters whose collision state must be
// refreshed before a bake.
type ColliderResetter interface {
	ResetColliders() error
}

// Shape is a collider geometry.
type Shape interface {
	Intersect(r Ray) (t float32, normal math.Vec3, hit bool)
	Bounds() AABB
}

// Box is an axis-aligned box collider.
type Box struct {
	AABB
}

// Intersect implements Shape.
func (b Box) Intersect(r Ray) (float32, math.Vec3, bool) {
	return r.IntersectAABB(b.AABB)
}

// Bounds implements Shape.
func (b Box) Bounds() AABB {
	return b.AABB
}

// Plane is an infinite plane collider.
type Plane struct {
	Point  math.Vec3
	Normal math.Vec3
}

// Intersect implements Shape.
func (p Plane) Intersect(r Ray) (float32, math.Vec3, bool) {
	n := p.Normal.Normalize()
	t, ok := r.IntersectPlane(p.Point, n)
	return t, n, ok
}

// Bounds implements Shape. Planes are unbounded.
func (p Plane) Bounds() AABB {
	const inf = float32(gomath.MaxFloat32)
	return AABB{Min: [3]float32{-inf, -inf, -inf}, Max: [3]float32{inf, inf, inf}}
}

// TriangleMesh is a concave collider made of counter-clockwise triangles.
type TriangleMesh struct {
	Triangles [][3]math.Vec3
}

// Intersect implements Shape and returns the nearest triangle hit.
func (m TriangleMesh) Intersect(r Ray) (float32, math.Vec3, bool) {
	best := float32(gomath.MaxFloat32)
	var normal math.Vec3
	found := false
	for _, tri := range m.Triangles {
		t, n, ok := r.IntersectTriangle(tri[0], tri[1], tri[2])
		if ok && t < best {
			best, normal, found = t, n, true
		}
	}
	return best, normal, found
}

// Bounds implements Shape.
func (m TriangleMesh) Bounds() AABB {
	b := AABB{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
	for _, tri := range m.Triangles {
		for _, p := range tri {
			b = b.Union(AABB{Min: p.Array(), Max: p.Array()})
		}
	}
	return b
}

type collider struct {
	id     int
	layers uint32
	shape  Shape
	bounds AABB
}

// World is an in-memory collision world. Reads are concurrent; edits take
// the write lock.
type World struct {
	mu        sync.RWMutex
	colliders []collider
	nextID    int
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{nextID: 1}
}

// Add registers a shape on the given layers and returns its collider ID.
func (w *World) Add(shape Shape, layers uint32) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextID
	w.nextID++
	w.colliders = append(w.colliders, collider{id: id, layers: layers, shape: shape, bounds: shape.Bounds()})
	return id
}

// Remove deletes a collider. It reports whether the ID existed.
func (w *World) Remove(id int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, c := range w.colliders {
		if c.id == id {
			w.colliders = append(w.colliders[:i], w.colliders[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of colliders.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.colliders)
}

// ResetColliders recomputes cached bounds and validates every shape.
func (w *World) ResetColliders() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.colliders {
		c := &w.colliders[i]
		b := c.shape.Bounds()
		if _, isPlane := c.shape.(Plane); !isPlane {
			for k := 0; k < 3; k++ {
				if isNaN(b.Min[k]) || isNaN(b.Max[k]) || b.Min[k] > b.Max[k] {
					return fmt.Errorf("%w: collider %d bounds %v", ErrInvalidShape, c.id, b)
				}
			}
		} else if p := c.shape.(Plane); p.Normal.LengthSqr() == 0 {
			return fmt.Errorf("%w: collider %d has a zero plane normal", ErrInvalidShape, c.id)
		}
		c.bounds = b
	}
	return nil
}

// CastRay implements Caster.
func (w *World) CastRay(origin, direction math.Vec3, layers uint32) (Hit, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	r := Ray{Origin: origin, Direction: direction}
	best := Hit{Fraction: 2}
	for _, c := range w.colliders {
		if c.layers&layers == 0 {
			continue
		}
		if _, isPlane := c.shape.(Plane); !isPlane && !c.bounds.Contains(origin) {
			if _, _, ok := r.IntersectAABB(c.bounds); !ok {
				continue
			}
		}
		t, n, ok := c.shape.Intersect(r)
		if !ok || t > 1 || t >= best.Fraction {
			continue
		}
		best = Hit{Point: r.At(t), Normal: n, ColliderID: c.id, Fraction: t}
	}
	return best, best.Fraction <= 1
}

func isNaN(f float32) bool {
	return f != f
}
