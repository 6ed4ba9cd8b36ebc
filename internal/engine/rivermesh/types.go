// Package rivermesh builds the water-surface mesh of a river from its spline
// and width profile.
package rivermesh

import (
	"errors"

	"github.com/Faultbox/waterways/internal/engine/atlas"
)

// ErrWidthMismatch is returned when the width profile does not have exactly
// one entry per control point.
var ErrWidthMismatch = errors.New("rivermesh: width count does not match point count")

// Vertex is one corner of a mesh triangle. The mesh is not indexed-shared:
// every triangle owns its three vertices because UV2 is per triangle.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Tangent  [4]float32 // xyz + handedness
	UV       [2]float32 // across, along (in steps)
	UV2      [2]float32 // atlas
}

// Bounds holds the axis-aligned bounding box of the mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Mesh holds the generated river surface.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
	Layout   atlas.Layout

	// Length is the arc length of the source curve.
	Length float32
	// Fallback is set when the input was degenerate and a placeholder was built.
	Fallback bool
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns the three vertices of triangle i.
func (m *Mesh) Triangle(i int) [3]Vertex {
	return [3]Vertex{
		m.Vertices[m.Indices[i*3]],
		m.Vertices[m.Indices[i*3+1]],
		m.Vertices[m.Indices[i*3+2]],
	}
}

// Settings controls mesh subdivision.
type Settings struct {
	// LengthDivisions subdivides each step along the river (1..8).
	LengthDivisions int `yaml:"length_divisions"`
	// WidthDivisions subdivides each step across the river (1..8).
	WidthDivisions int `yaml:"width_divisions"`
	// Smoothness is the tangent finite-difference offset in rows (0.1..5).
	Smoothness float32 `yaml:"smoothness"`
	// WidthResolution is the per-segment sample count of the nearest-point
	// search used for width interpolation.
	WidthResolution int `yaml:"width_resolution"`
}

// Setting limits.
const (
	MinDivisions  = 1
	MaxDivisions  = 8
	MinSmoothness = 0.1
	MaxSmoothness = 5.0
)

// DefaultSettings returns the default subdivision settings.
func DefaultSettings() Settings {
	return Settings{
		LengthDivisions: 1,
		WidthDivisions:  1,
		Smoothness:      0.5,
		WidthResolution: 100,
	}
}

// Clamped returns s with every field forced into its valid range.
func (s Settings) Clamped() Settings {
	s.LengthDivisions = clampInt(s.LengthDivisions, MinDivisions, MaxDivisions)
	s.WidthDivisions = clampInt(s.WidthDivisions, MinDivisions, MaxDivisions)
	if s.Smoothness < MinSmoothness {
		s.Smoothness = MinSmoothness
	}
	if s.Smoothness > MaxSmoothness {
		s.Smoothness = MaxSmoothness
	}
	if s.WidthResolution <= 0 {
		s.WidthResolution = DefaultSettings().WidthResolution
	}
	return s
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
