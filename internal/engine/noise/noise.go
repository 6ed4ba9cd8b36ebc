// Package noise generates the seamless noise tile packed into the alpha
// channel of the flow/foam/noise bake.
package noise

import (
	"fmt"
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/Faultbox/waterways/internal/engine/imaging"
)

// TileSettings controls tile generation.
type TileSettings struct {
	Size        int     `yaml:"size"`
	Seed        int64   `yaml:"seed"`
	Frequency   float64 `yaml:"frequency"` // features per tile
	Octaves     int     `yaml:"octaves"`
	Persistence float64 `yaml:"persistence"`
}

// DefaultTileSettings returns the settings used when no tile is supplied.
func DefaultTileSettings() TileSettings {
	return TileSettings{
		Size:        256,
		Seed:        0,
		Frequency:   4,
		Octaves:     3,
		Persistence: 0.5,
	}
}

// Tile renders a tile that wraps on both axes. Each axis is mapped onto a
// circle, so the 4D sample point traces a torus and opposite edges meet.
// The value is written to every channel, alpha included.
func Tile(s TileSettings) *imaging.Image {
	if s.Size < 1 {
		s.Size = DefaultTileSettings().Size
	}
	if s.Octaves < 1 {
		s.Octaves = 1
	}
	src := opensimplex.NewNormalized(s.Seed)
	img := imaging.New(s.Size, s.Size)

	for y := 0; y < s.Size; y++ {
		b := 2 * math.Pi * float64(y) / float64(s.Size)
		for x := 0; x < s.Size; x++ {
			a := 2 * math.Pi * float64(x) / float64(s.Size)

			var sum, norm float64
			amp := 1.0
			radius := s.Frequency / (2 * math.Pi)
			for o := 0; o < s.Octaves; o++ {
				sum += amp * src.Eval4(
					radius*math.Cos(a), radius*math.Sin(a),
					radius*math.Cos(b), radius*math.Sin(b),
				)
				norm += amp
				amp *= s.Persistence
				radius *= 2
			}
			v := float32(sum / norm)
			img.SetRGBA(x, y, [4]float32{v, v, v, v})
		}
	}
	return img
}

// LoadTile reads a PNG or TGA tile and resamples it to size×size when size > 0.
func LoadTile(path string, size int) (*imaging.Image, error) {
	img, err := imaging.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("loading noise tile: %w", err)
	}
	if size > 0 && (img.Width != size || img.Height != size) {
		img = imaging.Resize(img, size, size)
	}
	return img, nil
}
