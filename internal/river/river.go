// Package river is the river entity: a spline with per-point widths, the
// mesh generated from it, its bake and the material the bake feeds.
//
// A River has a single writer. Every shape edit rebuilds the mesh, bumps the
// generation, invalidates the material and cancels a running bake.
package river

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/waterways/internal/bake"
	"github.com/Faultbox/waterways/internal/engine/filter"
	"github.com/Faultbox/waterways/internal/engine/imaging"
	"github.com/Faultbox/waterways/internal/engine/noise"
	"github.com/Faultbox/waterways/internal/engine/picking"
	"github.com/Faultbox/waterways/internal/engine/rivermesh"
	"github.com/Faultbox/waterways/internal/engine/water"
	"github.com/Faultbox/waterways/internal/logger"
	"github.com/Faultbox/waterways/pkg/curve"
	"github.com/Faultbox/waterways/pkg/math"
)

// DefaultWidth pads the width list of a river that has none.
const DefaultWidth = 1.0

// River is safe for concurrent use.
type River struct {
	mu         sync.Mutex
	curve      *curve.Curve
	widths     []float32
	shape      rivermesh.Settings
	bake       BakeSettings
	transform  math.Mat4
	mesh       *rivermesh.Mesh
	generation uint64

	noiseSeed int64
	noiseTile *imaging.Image

	onStage filter.StageFunc

	material *water.Material
	baker    *bake.Baker
	log      *zap.Logger
}

// New creates a river and builds its mesh. widths are repaired to match the
// curve's point count.
func New(c *curve.Curve, widths []float32, shape rivermesh.Settings, bs BakeSettings) (*River, error) {
	if c == nil {
		c = curve.New()
	}
	r := &River{
		curve:     c.Clone(),
		widths:    append([]float32(nil), widths...),
		shape:     shape.Clamped(),
		bake:      bs,
		transform: math.Identity(),
		material:  water.NewMaterial(water.DefaultParams()),
		baker:     bake.NewBaker(),
		log:       logger.Named("river"),
	}
	if err := r.rebuildLocked(); err != nil {
		return nil, err
	}
	return r, nil
}

// RepairWidths returns widths resized to n: missing entries repeat the last
// width, or DefaultWidth when there is none, and extra entries are dropped.
func RepairWidths(widths []float32, n int) []float32 {
	out := make([]float32, n)
	fill := float32(DefaultWidth)
	for i := range out {
		if i < len(widths) {
			out[i] = widths[i]
			fill = widths[i]
		} else {
			out[i] = fill
		}
	}
	return out
}

// rebuildLocked regenerates the mesh from the current shape. r.mu is held.
func (r *River) rebuildLocked() error {
	if len(r.widths) != r.curve.Len() {
		r.log.Debug("repairing widths", zap.Int("widths", len(r.widths)), zap.Int("points", r.curve.Len()))
		r.widths = RepairWidths(r.widths, r.curve.Len())
	}
	m, err := rivermesh.Generate(r.curve, r.widths, r.shape)
	if err != nil {
		return fmt.Errorf("generate mesh: %w", err)
	}
	r.mesh = m
	r.invalidateLocked()
	return nil
}

// invalidateLocked marks the current bake stale. r.mu is held.
func (r *River) invalidateLocked() {
	r.generation++
	r.material.Invalidate()
	if r.baker.Cancel() {
		r.log.Info("cancelled bake of stale geometry", zap.Uint64("generation", r.generation))
	}
}

// edit applies fn to the shape under the lock and rebuilds.
func (r *River) edit(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	return r.rebuildLocked()
}

// AddPoint inserts a control point after index after (after < 0 appends)
// and returns its index. The new width is the mean of its neighbours.
func (r *River) AddPoint(pos math.Vec3, after int) (int, error) {
	var idx int
	err := r.edit(func() error {
		r.widths = RepairWidths(r.widths, r.curve.Len())
		var err error
		idx, err = r.curve.AddPoint(pos, after, math.Vec3{})
		if err != nil {
			return err
		}
		w := float32(DefaultWidth)
		switch {
		case idx > 0 && idx < len(r.widths):
			w = (r.widths[idx-1] + r.widths[idx]) / 2
		case idx > 0:
			w = r.widths[idx-1]
		}
		r.widths = append(r.widths, 0)
		copy(r.widths[idx+1:], r.widths[idx:])
		r.widths[idx] = w
		return nil
	})
	return idx, err
}

// RemovePoint deletes a control point and its width.
func (r *River) RemovePoint(index int) error {
	return r.edit(func() error {
		if err := r.curve.RemovePoint(index); err != nil {
			return err
		}
		if index < len(r.widths) {
			r.widths = append(r.widths[:index], r.widths[index+1:]...)
		}
		return nil
	})
}

// SetPoint replaces a control point.
func (r *River) SetPoint(index int, p curve.Point) error {
	return r.edit(func() error {
		return r.curve.SetPoint(index, p)
	})
}

// SetWidth sets the width at one control point.
func (r *River) SetWidth(index int, w float32) error {
	return r.edit(func() error {
		if index < 0 || index >= r.curve.Len() {
			return fmt.Errorf("width %d of %d: %w", index, r.curve.Len(), curve.ErrIndexOutOfRange)
		}
		r.widths = RepairWidths(r.widths, r.curve.Len())
		r.widths[index] = w
		return nil
	})
}

// SetWidths replaces all widths; the list is repaired to the point count.
func (r *River) SetWidths(widths []float32) error {
	return r.edit(func() error {
		r.widths = append([]float32(nil), widths...)
		return nil
	})
}

// SetShape changes the mesh settings.
func (r *River) SetShape(s rivermesh.Settings) error {
	return r.edit(func() error {
		r.shape = s.Clamped()
		return nil
	})
}

// SetTransform moves the river. The mesh is unchanged but the bake is
// stale because collisions are cast in world space.
func (r *River) SetTransform(m math.Mat4) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transform = m
	r.invalidateLocked()
}

// SetBakeSettings changes the bake parameters used by the next bake.
func (r *River) SetBakeSettings(s BakeSettings) {
	r.mu.Lock()
	r.bake = s
	r.mu.Unlock()
}

// SetStageHook installs a function that sees every filter stage output of
// later bakes. nil removes it.
func (r *River) SetStageHook(fn filter.StageFunc) {
	r.mu.Lock()
	r.onStage = fn
	r.mu.Unlock()
}

// Curve returns a copy of the spline.
func (r *River) Curve() *curve.Curve {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.curve.Clone()
}

// Widths returns a copy of the widths.
func (r *River) Widths() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float32(nil), r.widths...)
}

// Mesh returns the current mesh. It must not be modified.
func (r *River) Mesh() *rivermesh.Mesh {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mesh
}

// Shape returns the mesh settings.
func (r *River) Shape() rivermesh.Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shape
}

// BakeSettings returns the bake parameters.
func (r *River) BakeSettings() BakeSettings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bake
}

// Transform returns the river's world transform.
func (r *River) Transform() math.Mat4 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transform
}

// Generation increases with every edit that invalidates the bake.
func (r *River) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

// Material returns the river's material.
func (r *River) Material() *water.Material {
	return r.material
}

// BakeState returns the state of the river's baker.
func (r *River) BakeState() bake.State {
	return r.baker.State()
}

// noiseTileLocked returns the noise tile for the current settings,
// generating it once per seed. r.mu is held.
func (r *River) noiseTileLocked() (*imaging.Image, error) {
	if r.bake.NoiseTile != "" {
		return noise.LoadTile(r.bake.NoiseTile, 0)
	}
	if r.noiseTile == nil || r.noiseSeed != r.bake.NoiseSeed {
		r.noiseTile = noise.Tile(r.bake.NoiseSettings())
		r.noiseSeed = r.bake.NoiseSeed
	}
	return r.noiseTile, nil
}

// Bake bakes the current geometry against caster and publishes the result
// to the material. If the river is edited while baking, the bake fails
// with bake.ErrStaleGeometry and nothing is published.
func (r *River) Bake(ctx context.Context, caster picking.Caster, exec filter.Executor, progress bake.ProgressFunc) (*bake.Result, error) {
	r.mu.Lock()
	if err := r.bake.Validate(); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	tile, err := r.noiseTileLocked()
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	gen := r.generation
	job := bake.Job{
		Mesh:            r.mesh,
		Transform:       r.transform,
		Caster:          caster,
		Executor:        exec,
		Resolution:      r.bake.Resolution,
		RaycastDistance: r.bake.RaycastDistance,
		Layers:          r.bake.RaycastLayers,
		Filters:         r.bake.Filters(),
		NoiseTile:       tile,
		Progress:        progress,
		OnStage:         r.onStage,
	}
	r.mu.Unlock()

	res, err := r.baker.Bake(ctx, job)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != gen {
		return nil, bake.ErrStaleGeometry
	}
	r.material.Publish(res.FlowFoamNoise, res.DistPressure, res.Side)
	r.log.Info("bake published",
		zap.Uint64("generation", gen),
		zap.Int("resolution", res.Resolution),
		zap.Int("side", res.Side))
	return res, nil
}
