// Package raster renders the collision mask of a river: for every atlas
// pixel it finds the mesh point that maps there and asks the world whether
// something pokes through the water surface at that point.
package raster

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/waterways/internal/engine/imaging"
	"github.com/Faultbox/waterways/internal/engine/picking"
	"github.com/Faultbox/waterways/internal/engine/rivermesh"
	"github.com/Faultbox/waterways/internal/logger"
	"github.com/Faultbox/waterways/pkg/math"
)

// ErrNoMesh is returned when rasterizing without a mesh.
var ErrNoMesh = errors.New("raster: no mesh")

// ProgressMessage is reported with every rasterization progress event.
const ProgressMessage = "Calculating Collisions"

// containsEpsilon widens triangles slightly so pixels on shared edges are
// never lost between two triangles.
const containsEpsilon = 1e-4

// Input describes one rasterization.
type Input struct {
	Mesh            *rivermesh.Mesh
	Transform       math.Mat4
	Resolution      int
	RaycastDistance float32
	Layers          uint32
	// Workers bounds parallel columns; <= 0 uses GOMAXPROCS.
	Workers int
}

// ProgressFunc receives the completed fraction in [0,1].
type ProgressFunc func(fraction float32, message string)

// Rasterize renders the collision mask at in.Resolution. Pixels where an
// obstacle covers the water surface are 1; open water and pixels outside
// the mesh are 0. The caster must be safe for concurrent use.
func Rasterize(ctx context.Context, in Input, caster picking.Caster, progress ProgressFunc) (*imaging.Image, error) {
	if in.Mesh == nil || len(in.Mesh.Indices) == 0 {
		return nil, ErrNoMesh
	}
	res := in.Resolution
	if res < 1 {
		return nil, errors.New("raster: resolution must be positive")
	}
	workers := in.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if in.Transform == (math.Mat4{}) {
		in.Transform = math.Identity()
	}

	start := time.Now()
	out := imaging.NewFilled(res, res, [4]float32{0, 0, 0, 1})
	r := &rasterizer{in: in, caster: caster}

	var (
		done       atomic.Int64
		progressMu sync.Mutex
		reported   int
	)
	step := max(res/10, 1)
	report := func() {
		if progress == nil {
			return
		}
		n := int(done.Add(1))
		if n%step != 0 && n != res {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		if n <= reported {
			return
		}
		reported = n
		progress(float32(n)/float32(res), ProgressMessage)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for x := 0; x < res; x++ {
		x := x
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			u := (float32(x) + 0.5) / float32(res)
			for y := 0; y < res; y++ {
				v := (float32(y) + 0.5) / float32(res)
				if r.collides(u, v) {
					out.SetRGBA(x, y, [4]float32{1, 1, 1, 1})
				}
			}
			report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Named("raster").Debug("collision mask rasterized",
		zap.Int("resolution", res),
		zap.Int("triangles", in.Mesh.TriangleCount()),
		zap.Duration("took", time.Since(start)))
	return out, nil
}

type rasterizer struct {
	in     Input
	caster picking.Caster
}

// collides classifies the atlas position (u, v).
func (r *rasterizer) collides(u, v float32) bool {
	p, ok := r.worldPoint(u, v)
	if !ok {
		return false
	}
	dist := r.in.RaycastDistance
	up := math.Up.Scale(dist)

	// A downward hit means something sits on top of the water here, unless
	// the upward ray shows we are underneath it looking at its underside.
	if _, down := r.caster.CastRay(p.Add(up), up.Neg(), r.in.Layers); !down {
		return false
	}
	upHit, upOK := r.caster.CastRay(p, up, r.in.Layers)
	return !(upOK && upHit.Normal.Y < 0)
}

// worldPoint finds the mesh triangle whose UV2 covers (u, v) and returns
// the matching world-space point.
func (r *rasterizer) worldPoint(u, v float32) (math.Vec3, bool) {
	layout := r.in.Mesh.Layout
	step, sub, ok := layout.Locate(u, v)
	if !ok {
		return math.Vec3{}, false
	}
	p := math.Vec2{X: u, Y: v}

	for k := 0; k < 2; k++ {
		if w, ok := r.tryTriangle(layout.TriangleIndex(step, sub, k), p); ok {
			return w, true
		}
	}
	// Float error at sub-cell edges: scan the whole step cell.
	first := layout.TriangleIndex(step, 0, 0)
	for t := first; t < first+layout.TrianglesPerStep(); t++ {
		if w, ok := r.tryTriangle(t, p); ok {
			return w, true
		}
	}
	return math.Vec3{}, false
}

func (r *rasterizer) tryTriangle(t int, p math.Vec2) (math.Vec3, bool) {
	if t < 0 || t >= r.in.Mesh.TriangleCount() {
		return math.Vec3{}, false
	}
	tri := r.in.Mesh.Triangle(t)
	wa, wb, wc, ok := Barycentric(
		math.Vec2{X: tri[0].UV2[0], Y: tri[0].UV2[1]},
		math.Vec2{X: tri[1].UV2[0], Y: tri[1].UV2[1]},
		math.Vec2{X: tri[2].UV2[0], Y: tri[2].UV2[1]},
		p,
	)
	if !ok || wa < -containsEpsilon || wb < -containsEpsilon || wc < -containsEpsilon {
		return math.Vec3{}, false
	}
	local := math.Vec3FromArray(tri[0].Position).Scale(wa).
		Add(math.Vec3FromArray(tri[1].Position).Scale(wb)).
		Add(math.Vec3FromArray(tri[2].Position).Scale(wc))
	return r.in.Transform.TransformPoint(local), true
}

// Barycentric returns the weights of p in triangle (a, b, c) such that
// p = wa*a + wb*b + wc*c and wa+wb+wc = 1. ok is false for degenerate
// triangles.
func Barycentric(a, b, c, p math.Vec2) (wa, wb, wc float32, ok bool) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)

	denom := v0.Cross(v1)
	if denom > -1e-12 && denom < 1e-12 {
		return 0, 0, 0, false
	}
	wb = v2.Cross(v1) / denom
	wc = v0.Cross(v2) / denom
	wa = 1 - wb - wc
	return wa, wb, wc, true
}
