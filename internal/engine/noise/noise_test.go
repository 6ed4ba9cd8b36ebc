package noise

import (
	gomath "math"
	"path/filepath"
	"testing"

	"github.com/Faultbox/waterways/internal/engine/imaging"
)

func TestTileRangeAndChannels(t *testing.T) {
	s := DefaultTileSettings()
	s.Size = 32
	img := Tile(s)
	if img.Width != 32 || img.Height != 32 {
		t.Fatalf("size %dx%d", img.Width, img.Height)
	}
	lo, hi := float32(1), float32(0)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			c := img.RGBA(x, y)
			if c[0] != c[1] || c[0] != c[2] || c[0] != c[3] {
				t.Fatalf("channels differ at (%d,%d): %v", x, y, c)
			}
			lo = min(lo, c[0])
			hi = max(hi, c[0])
		}
	}
	if lo < 0 || hi > 1 {
		t.Errorf("values outside [0,1]: [%v, %v]", lo, hi)
	}
	if hi-lo < 0.05 {
		t.Errorf("tile is nearly flat: [%v, %v]", lo, hi)
	}
}

func TestTileIsSeamless(t *testing.T) {
	s := DefaultTileSettings()
	s.Size = 64
	img := Tile(s)

	// Steps across the wrap edge should be no larger than steps inside.
	var inner, edge float64
	for y := 0; y < 64; y++ {
		inner = gomath.Max(inner, gomath.Abs(float64(img.Value(32, y, 0)-img.Value(31, y, 0))))
		edge = gomath.Max(edge, gomath.Abs(float64(img.Value(0, y, 0)-img.Value(63, y, 0))))
	}
	if edge > inner*3+1e-3 {
		t.Errorf("wrap seam %v much larger than interior step %v", edge, inner)
	}
}

func TestTileDeterministicPerSeed(t *testing.T) {
	s := DefaultTileSettings()
	s.Size = 16
	a, b := Tile(s), Tile(s)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatal("same seed produced different tiles")
		}
	}
	s.Seed = 42
	c := Tile(s)
	same := true
	for i := range a.Pix {
		if a.Pix[i] != c.Pix[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical tiles")
	}
}

func TestLoadTileResamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.png")
	if err := imaging.SavePNG(path, imaging.NewFilled(8, 8, [4]float32{0.5, 0.5, 0.5, 1})); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	img, err := LoadTile(path, 16)
	if err != nil {
		t.Fatalf("LoadTile: %v", err)
	}
	if img.Width != 16 || img.Height != 16 {
		t.Errorf("size %dx%d, want 16x16", img.Width, img.Height)
	}
	if _, err := LoadTile(filepath.Join(t.TempDir(), "missing.png"), 0); err == nil {
		t.Error("expected error for missing file")
	}
}
