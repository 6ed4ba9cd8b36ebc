// Package atlas packs river steps into the square UV2 grid shared by mesh
// generation and collision rasterization.
//
// Steps are laid out column-major: step s occupies column s/Side and row
// s%Side, so walking down a column follows the river and the next column
// continues where the previous one ended. Each step cell is split into
// WidthDivisions x LengthDivisions sub-cells, two triangles each.
package atlas

import (
	gomath "math"

	"github.com/Faultbox/waterways/pkg/math"
)

// Corners maps triangle k of a sub-cell to its three corners as
// (column, row) offsets in the sub-cell grid. Mesh vertex order and UV2
// order are both derived from this table.
var Corners = [2][3][2]int{
	{{0, 0}, {0, 1}, {1, 0}},
	{{1, 0}, {0, 1}, {1, 1}},
}

// Layout describes how a river's steps are packed into UV2 space.
type Layout struct {
	Steps           int
	LengthDivisions int
	WidthDivisions  int
	Side            int
	Cell            float32
}

// Side returns the smallest grid side whose square holds steps cells.
func Side(steps int) int {
	if steps < 1 {
		steps = 1
	}
	side := int(gomath.Ceil(gomath.Sqrt(float64(steps))))
	// Guard against sqrt rounding on perfect squares.
	for side > 1 && (side-1)*(side-1) >= steps {
		side--
	}
	for side*side < steps {
		side++
	}
	return side
}

// NewLayout creates a layout; counts below 1 are raised to 1.
func NewLayout(steps, lengthDivisions, widthDivisions int) Layout {
	if steps < 1 {
		steps = 1
	}
	if lengthDivisions < 1 {
		lengthDivisions = 1
	}
	if widthDivisions < 1 {
		widthDivisions = 1
	}
	side := Side(steps)
	return Layout{
		Steps:           steps,
		LengthDivisions: lengthDivisions,
		WidthDivisions:  widthDivisions,
		Side:            side,
		Cell:            1 / float32(side),
	}
}

// SubCells returns the number of sub-cells per step.
func (l Layout) SubCells() int {
	return l.LengthDivisions * l.WidthDivisions
}

// TrianglesPerStep returns the number of triangles packed into one step cell.
func (l Layout) TrianglesPerStep() int {
	return l.SubCells() * 2
}

// Triangles returns the total triangle count of the river mesh.
func (l Layout) Triangles() int {
	return l.Steps * l.TrianglesPerStep()
}

// CellOffset returns the top-left corner of a step's cell.
func (l Layout) CellOffset(step int) math.Vec2 {
	col := step / l.Side
	row := step % l.Side
	return math.Vec2{X: float32(col) * l.Cell, Y: float32(row) * l.Cell}
}

// SubCellSize returns the UV2 extent of one sub-cell.
func (l Layout) SubCellSize() math.Vec2 {
	return math.Vec2{
		X: l.Cell / float32(l.WidthDivisions),
		Y: l.Cell / float32(l.LengthDivisions),
	}
}

// SubCellOffset returns the top-left corner of sub-cell sub of step.
// sub = row*WidthDivisions + column, rows running along the river.
func (l Layout) SubCellOffset(step, sub int) math.Vec2 {
	base := l.CellOffset(step)
	size := l.SubCellSize()
	col := sub % l.WidthDivisions
	row := sub / l.WidthDivisions
	return math.Vec2{
		X: base.X + float32(col)*size.X,
		Y: base.Y + float32(row)*size.Y,
	}
}

// TriangleIndex returns the position of triangle k of (step, sub) in the
// mesh triangle list.
func (l Layout) TriangleIndex(step, sub, k int) int {
	return (step*l.SubCells()+sub)*2 + k
}

// TriangleUV2 returns the UV2 corners of triangle k of (step, sub).
func (l Layout) TriangleUV2(step, sub, k int) [3]math.Vec2 {
	o := l.SubCellOffset(step, sub)
	size := l.SubCellSize()
	var out [3]math.Vec2
	for i, c := range Corners[k] {
		out[i] = math.Vec2{
			X: o.X + float32(c[0])*size.X,
			Y: o.Y + float32(c[1])*size.Y,
		}
	}
	return out
}

// Locate decodes a UV2 position into the step and sub-cell containing it.
// ok is false outside [0,1]² or inside the unused tail cells of the grid.
func (l Layout) Locate(u, v float32) (step, sub int, ok bool) {
	if u < 0 || v < 0 || u > 1 || v > 1 {
		return 0, 0, false
	}
	side := float64(l.Side)
	fu := float64(u) * side
	fv := float64(v) * side
	col := clampInt(int(fu), 0, l.Side-1)
	row := clampInt(int(fv), 0, l.Side-1)

	step = col*l.Side + row
	if step >= l.Steps {
		return 0, 0, false
	}

	lu := fu - float64(col)
	lv := fv - float64(row)
	sc := clampInt(int(lu*float64(l.WidthDivisions)), 0, l.WidthDivisions-1)
	sr := clampInt(int(lv*float64(l.LengthDivisions)), 0, l.LengthDivisions-1)
	return step, sr*l.WidthDivisions + sc, true
}

// MarginPixels returns the wrap border width for a bake resolution: one cell.
func (l Layout) MarginPixels(resolution int) int {
	return int(gomath.Round(float64(resolution) / float64(l.Side)))
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
