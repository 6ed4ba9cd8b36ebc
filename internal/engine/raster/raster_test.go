package raster

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Faultbox/waterways/internal/engine/picking"
	"github.com/Faultbox/waterways/internal/engine/rivermesh"
	"github.com/Faultbox/waterways/internal/logger"
	"github.com/Faultbox/waterways/pkg/curve"
	"github.com/Faultbox/waterways/pkg/math"
)

func init() {
	logger.InitNop()
}

// testMesh is a straight river along +X of length 10 and half-width 2:
// five steps in a 3x3 atlas.
func testMesh(t *testing.T) *rivermesh.Mesh {
	t.Helper()
	m, err := rivermesh.Generate(curve.Line(math.Vec3{}, math.Vec3{X: 10}), []float32{2, 2}, rivermesh.DefaultSettings())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return m
}

func input(m *rivermesh.Mesh) Input {
	return Input{
		Mesh:            m,
		Transform:       math.Identity(),
		Resolution:      48,
		RaycastDistance: 10,
		Layers:          picking.AllLayers,
		Workers:         4,
	}
}

func TestBarycentric(t *testing.T) {
	a, b, c := math.Vec2{}, math.Vec2{X: 1}, math.Vec2{Y: 1}
	tests := []struct {
		p          math.Vec2
		wa, wb, wc float32
	}{
		{a, 1, 0, 0},
		{b, 0, 1, 0},
		{c, 0, 0, 1},
		{math.Vec2{X: 0.25, Y: 0.25}, 0.5, 0.25, 0.25},
	}
	for _, tt := range tests {
		wa, wb, wc, ok := Barycentric(a, b, c, tt.p)
		if !ok || wa != tt.wa || wb != tt.wb || wc != tt.wc {
			t.Errorf("Barycentric(%v) = %v %v %v %v", tt.p, wa, wb, wc, ok)
		}
	}
	if _, _, _, ok := Barycentric(a, a, c, c); ok {
		t.Error("degenerate triangle should not be ok")
	}
}

func TestRasterizeEmptyWorld(t *testing.T) {
	img, err := Rasterize(context.Background(), input(testMesh(t)), picking.NewWorld(), nil)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if img.Value(x, y, 0) != 0 {
				t.Fatalf("(%d,%d) marked without colliders", x, y)
			}
		}
	}
}

func TestRasterizeObstacle(t *testing.T) {
	world := picking.NewWorld()
	world.Add(picking.Box{AABB: picking.NewAABB(math.Vec3{X: 5}, math.Vec3{X: 1, Y: 1, Z: 0.5})}, picking.AllLayers)

	img, err := Rasterize(context.Background(), input(testMesh(t)), world, nil)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}

	tests := []struct {
		name string
		x, y int
		want float32
	}{
		{"obstacle_centre", 8, 40, 1},
		{"upstream_step", 8, 8, 0},
		{"bank_beside_obstacle", 1, 40, 0},
		{"unused_cell", 40, 40, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := img.Value(tt.x, tt.y, 0); got != tt.want {
				t.Errorf("(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestRasterizeIgnoresOverheadStructures(t *testing.T) {
	world := picking.NewWorld()
	// A bridge spanning the whole river, two units above the water.
	world.Add(picking.Box{AABB: picking.AABB{Min: [3]float32{-1, 2, -5}, Max: [3]float32{11, 3, 5}}}, picking.AllLayers)

	img, err := Rasterize(context.Background(), input(testMesh(t)), world, nil)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			t.Fatalf("pixel %d marked under a bridge", i/4)
		}
	}
}

func TestRasterizeAppliesTransform(t *testing.T) {
	world := picking.NewWorld()
	world.Add(picking.Box{AABB: picking.NewAABB(math.Vec3{X: 105}, math.Vec3{X: 1, Y: 1, Z: 0.5})}, picking.AllLayers)

	in := input(testMesh(t))
	img, err := Rasterize(context.Background(), in, world, nil)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if img.Value(8, 40, 0) != 0 {
		t.Error("untransformed mesh should not reach the obstacle")
	}

	in.Transform = math.Translate(100, 0, 0)
	img, err = Rasterize(context.Background(), in, world, nil)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if img.Value(8, 40, 0) != 1 {
		t.Error("translated mesh should hit the obstacle")
	}
}

func TestRasterizeLayers(t *testing.T) {
	world := picking.NewWorld()
	world.Add(picking.Box{AABB: picking.NewAABB(math.Vec3{X: 5}, math.Vec3{X: 1, Y: 1, Z: 0.5})}, 1<<3)

	in := input(testMesh(t))
	in.Layers = 1
	img, err := Rasterize(context.Background(), in, world, nil)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if img.Value(8, 40, 0) != 0 {
		t.Error("collider outside the raycast layers was hit")
	}
}

func TestRasterizeProgress(t *testing.T) {
	var (
		mu    sync.Mutex
		fracs []float32
	)
	_, err := Rasterize(context.Background(), input(testMesh(t)), picking.NewWorld(), func(f float32, msg string) {
		mu.Lock()
		defer mu.Unlock()
		if msg != ProgressMessage {
			t.Errorf("message = %q", msg)
		}
		fracs = append(fracs, f)
	})
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if len(fracs) == 0 || len(fracs) > 12 {
		t.Errorf("got %d progress events, want between 1 and 12", len(fracs))
	}
	for i := 1; i < len(fracs); i++ {
		if fracs[i] <= fracs[i-1] {
			t.Errorf("progress not increasing: %v", fracs)
			break
		}
	}
	if len(fracs) > 0 && fracs[len(fracs)-1] != 1 {
		t.Errorf("last progress = %v, want 1", fracs[len(fracs)-1])
	}
}

func TestRasterizeErrors(t *testing.T) {
	if _, err := Rasterize(context.Background(), Input{Resolution: 8}, picking.NewWorld(), nil); !errors.Is(err, ErrNoMesh) {
		t.Errorf("err = %v, want ErrNoMesh", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Rasterize(ctx, input(testMesh(t)), picking.NewWorld(), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
