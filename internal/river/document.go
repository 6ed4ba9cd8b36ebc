package river

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/waterways/internal/engine/picking"
	"github.com/Faultbox/waterways/internal/engine/rivermesh"
	"github.com/Faultbox/waterways/pkg/curve"
	"github.com/Faultbox/waterways/pkg/math"
)

// ErrUnknownCollider is returned for a collider kind the document cannot build.
var ErrUnknownCollider = errors.New("river: unknown collider kind")

// Collider kinds.
const (
	ColliderBox       = "box"
	ColliderPlane     = "plane"
	ColliderTriangles = "triangles"
)

// Document is the on-disk description of a river and the scene it is baked
// against.
type Document struct {
	Points    []curve.Point      `yaml:"points"`
	Widths    []float32          `yaml:"widths"`
	Shape     rivermesh.Settings `yaml:"shape"`
	Bake      BakeSettings       `yaml:"bake"`
	Transform Transform          `yaml:"transform"`
	Colliders []Collider         `yaml:"colliders,omitempty"`
}

// Transform is a position, Euler rotation in degrees and scale.
type Transform struct {
	Position math.Vec3 `yaml:"position"`
	Rotation math.Vec3 `yaml:"rotation"`
	Scale    math.Vec3 `yaml:"scale"`
}

// Matrix returns the transform as a matrix. A zero scale counts as 1.
func (t Transform) Matrix() math.Mat4 {
	scale := t.Scale
	if scale == (math.Vec3{}) {
		scale = math.Vec3{X: 1, Y: 1, Z: 1}
	}
	rot := math.QuatFromEulerDegrees(t.Rotation.X, t.Rotation.Y, t.Rotation.Z)
	return math.Compose(t.Position, rot, scale)
}

// Collider is one scene collider. Which fields are used depends on Kind.
type Collider struct {
	Kind   string `yaml:"kind"`
	Layers uint32 `yaml:"layers,omitempty"`
	// Box.
	Center      math.Vec3 `yaml:"center,omitempty"`
	HalfExtents math.Vec3 `yaml:"half_extents,omitempty"`
	// Plane.
	Point  math.Vec3 `yaml:"point,omitempty"`
	Normal math.Vec3 `yaml:"normal,omitempty"`
	// Triangle mesh.
	Triangles [][3]math.Vec3 `yaml:"triangles,omitempty"`
}

// Shape converts the collider to a picking shape.
func (c Collider) Shape() (picking.Shape, error) {
	switch c.Kind {
	case ColliderBox:
		return picking.Box{AABB: picking.NewAABB(c.Center, c.HalfExtents)}, nil
	case ColliderPlane:
		return picking.Plane{Point: c.Point, Normal: c.Normal}, nil
	case ColliderTriangles:
		return picking.TriangleMesh{Triangles: c.Triangles}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCollider, c.Kind)
}

// NewDocument returns a document with default settings and no points.
func NewDocument() *Document {
	return &Document{
		Shape: rivermesh.DefaultSettings(),
		Bake:  DefaultBakeSettings(),
	}
}

// LoadDocument reads a YAML document. Missing sections keep their defaults.
func LoadDocument(path string) (*Document, error) {
	return ReadDocument(path, NewDocument())
}

// ReadDocument reads a YAML document over base, so keys missing from the
// file keep base's values.
func ReadDocument(path string, base *Document) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return base, nil
}

// Save writes the document as YAML, creating parent directories.
func (d *Document) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// River builds the river described by the document.
func (d *Document) River() (*River, error) {
	r, err := New(curve.New(d.Points...), d.Widths, d.Shape, d.Bake)
	if err != nil {
		return nil, err
	}
	r.SetTransform(d.Transform.Matrix())
	return r, nil
}

// World builds a collision world from the document's colliders. Colliders
// without layers go on layer 1.
func (d *Document) World() (*picking.World, error) {
	w := picking.NewWorld()
	for i, c := range d.Colliders {
		shape, err := c.Shape()
		if err != nil {
			return nil, fmt.Errorf("collider %d: %w", i, err)
		}
		layers := c.Layers
		if layers == 0 {
			layers = 1
		}
		w.Add(shape, layers)
	}
	if err := w.ResetColliders(); err != nil {
		return nil, err
	}
	return w, nil
}

// Document captures the river's shape and settings. The transform and
// colliders belong to the scene and are left for the caller to fill in.
func (r *River) Document() *Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Document{
		Points: append([]curve.Point(nil), r.curve.Points...),
		Widths: append([]float32(nil), r.widths...),
		Shape:  r.shape,
		Bake:   r.bake,
	}
}
