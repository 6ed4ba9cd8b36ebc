package river

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/waterways/internal/engine/rivermesh"
	"github.com/Faultbox/waterways/pkg/curve"
	"github.com/Faultbox/waterways/pkg/math"
)

const sampleDocument = `
points:
  - position: {x: 0, y: 0, z: 0}
    out: {x: 2, y: 0, z: 0}
  - position: {x: 10, y: 0, z: 0}
    in: {x: -2, y: 0, z: 0}
widths: [2, 2]
shape:
  length_divisions: 2
bake:
  resolution: 128
transform:
  position: {x: 100, y: 0, z: 0}
colliders:
  - kind: box
    center: {x: 105, y: 0, z: 0}
    half_extents: {x: 1, y: 1, z: 0.5}
  - kind: plane
    point: {x: 0, y: -5, z: 0}
    normal: {x: 0, y: 1, z: 0}
    layers: 2
`

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "river.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDocument(t *testing.T) {
	doc, err := LoadDocument(writeDocument(t, sampleDocument))
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if len(doc.Points) != 2 || doc.Points[1].In.X != -2 {
		t.Errorf("points = %+v", doc.Points)
	}
	if doc.Shape.LengthDivisions != 2 || doc.Shape.WidthDivisions != 1 {
		t.Errorf("shape = %+v, want defaults merged", doc.Shape)
	}
	if doc.Bake.Resolution != 128 || doc.Bake.Dilate != DefaultBakeSettings().Dilate {
		t.Errorf("bake = %+v, want defaults merged", doc.Bake)
	}

	r, err := doc.River()
	if err != nil {
		t.Fatalf("River: %v", err)
	}
	if got := r.Transform().TransformPoint(math.Vec3{}); got.X != 100 {
		t.Errorf("transform moves origin to %v", got)
	}

	w, err := doc.World()
	if err != nil {
		t.Fatalf("World: %v", err)
	}
	if w.Len() != 2 {
		t.Errorf("world has %d colliders", w.Len())
	}
	if _, hit := w.CastRay(math.Vec3{X: 105, Y: 5}, math.Vec3{Y: -10}, 1); !hit {
		t.Error("box collider not hit on layer 1")
	}
	if _, hit := w.CastRay(math.Vec3{X: 50, Y: 0}, math.Vec3{Y: -10}, 1); hit {
		t.Error("plane on layer 2 hit through layer 1")
	}
}

func TestLoadDocumentErrors(t *testing.T) {
	if _, err := LoadDocument(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadDocument(writeDocument(t, "points: [oops")); err == nil {
		t.Error("expected error for invalid YAML")
	}

	doc, err := LoadDocument(writeDocument(t, "colliders:\n  - kind: sphere\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := doc.World(); !errors.Is(err, ErrUnknownCollider) {
		t.Errorf("World() err = %v, want ErrUnknownCollider", err)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	r, err := New(curve.Line(math.Vec3{}, math.Vec3{X: 6}), []float32{1, 2}, rivermesh.DefaultSettings(), DefaultBakeSettings())
	if err != nil {
		t.Fatal(err)
	}
	doc := r.Document()
	doc.Colliders = []Collider{{Kind: ColliderTriangles, Triangles: [][3]math.Vec3{{{X: 0}, {Z: 1}, {X: 1}}}}}

	path := filepath.Join(t.TempDir(), "nested", "river.yaml")
	if err := doc.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if len(loaded.Points) != 2 || loaded.Points[1].Position.X != 6 {
		t.Errorf("points = %+v", loaded.Points)
	}
	if len(loaded.Widths) != 2 || loaded.Widths[1] != 2 {
		t.Errorf("widths = %v", loaded.Widths)
	}
	if loaded.Bake != doc.Bake || loaded.Shape != doc.Shape {
		t.Error("settings changed in round trip")
	}
	if len(loaded.Colliders) != 1 || loaded.Colliders[0].Triangles[0][2].X != 1 {
		t.Errorf("colliders = %+v", loaded.Colliders)
	}
}
