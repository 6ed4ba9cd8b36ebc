package atlas

import (
	"testing"
)

func TestSide(t *testing.T) {
	tests := []struct {
		steps int
		want  int
	}{
		{-3, 1},
		{0, 1},
		{1, 1},
		{2, 2},
		{4, 2},
		{5, 3},
		{9, 3},
		{10, 4},
		{16, 4},
		{17, 5},
		{1000000, 1000},
		{1000001, 1001},
	}
	for _, tt := range tests {
		if got := Side(tt.steps); got != tt.want {
			t.Errorf("Side(%d) = %d, want %d", tt.steps, got, tt.want)
		}
	}
}

func TestSideIsSmallestSquare(t *testing.T) {
	for steps := 1; steps <= 2000; steps++ {
		s := Side(steps)
		if s*s < steps {
			t.Fatalf("Side(%d)=%d does not hold all steps", steps, s)
		}
		if (s-1)*(s-1) >= steps {
			t.Fatalf("Side(%d)=%d is not minimal", steps, s)
		}
	}
}

func TestCellOffsetColumnMajor(t *testing.T) {
	l := NewLayout(5, 1, 1) // side 3
	tests := []struct {
		step  int
		wantX float32
		wantY float32
	}{
		{0, 0, 0},
		{1, 0, 1.0 / 3},
		{2, 0, 2.0 / 3},
		{3, 1.0 / 3, 0},
		{4, 1.0 / 3, 1.0 / 3},
	}
	for _, tt := range tests {
		got := l.CellOffset(tt.step)
		if got.X != tt.wantX || got.Y != tt.wantY {
			t.Errorf("CellOffset(%d) = %v, want (%v,%v)", tt.step, got, tt.wantX, tt.wantY)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	layouts := []Layout{
		NewLayout(1, 1, 1),
		NewLayout(5, 1, 1),
		NewLayout(7, 3, 2),
		NewLayout(12, 2, 4),
		NewLayout(30, 5, 3),
	}
	for _, l := range layouts {
		size := l.SubCellSize()
		seen := make(map[[2]int]bool)
		for step := 0; step < l.Steps; step++ {
			for sub := 0; sub < l.SubCells(); sub++ {
				o := l.SubCellOffset(step, sub)
				u := o.X + size.X/2
				v := o.Y + size.Y/2
				gotStep, gotSub, ok := l.Locate(u, v)
				if !ok || gotStep != step || gotSub != sub {
					t.Fatalf("layout %+v: Locate(encode(%d,%d)) = (%d,%d,%v)", l, step, sub, gotStep, gotSub, ok)
				}
				if o.X < 0 || o.Y < 0 || o.X+size.X > 1.0001 || o.Y+size.Y > 1.0001 {
					t.Fatalf("sub-cell (%d,%d) outside unit square: %v", step, sub, o)
				}
				key := [2]int{int(o.X/size.X + 0.5), int(o.Y/size.Y + 0.5)}
				if seen[key] {
					t.Fatalf("sub-cell (%d,%d) overlaps another", step, sub)
				}
				seen[key] = true
			}
		}
	}
}

func TestLocateRejectsUnusedCells(t *testing.T) {
	l := NewLayout(5, 1, 1) // cells 5..8 unused
	if _, _, ok := l.Locate(0.9, 0.9); ok {
		t.Error("Locate in the unused tail cell should fail")
	}
	if _, _, ok := l.Locate(-0.1, 0.5); ok {
		t.Error("Locate outside [0,1] should fail")
	}
	if step, _, ok := l.Locate(1, 0.1); ok {
		t.Errorf("u=1 lands in column 2, step %d should be unused", step)
	}
}

func TestTriangleUV2InsideSubCell(t *testing.T) {
	l := NewLayout(7, 2, 3)
	for step := 0; step < l.Steps; step++ {
		for sub := 0; sub < l.SubCells(); sub++ {
			for k := 0; k < 2; k++ {
				tri := l.TriangleUV2(step, sub, k)
				cx := (tri[0].X + tri[1].X + tri[2].X) / 3
				cy := (tri[0].Y + tri[1].Y + tri[2].Y) / 3
				gotStep, gotSub, ok := l.Locate(cx, cy)
				if !ok || gotStep != step || gotSub != sub {
					t.Fatalf("centroid of tri (%d,%d,%d) decodes to (%d,%d,%v)", step, sub, k, gotStep, gotSub, ok)
				}
			}
		}
	}
}

func TestTriangleIndexOrder(t *testing.T) {
	l := NewLayout(3, 2, 2)
	want := 0
	for step := 0; step < l.Steps; step++ {
		for sub := 0; sub < l.SubCells(); sub++ {
			for k := 0; k < 2; k++ {
				if got := l.TriangleIndex(step, sub, k); got != want {
					t.Fatalf("TriangleIndex(%d,%d,%d) = %d, want %d", step, sub, k, got, want)
				}
				want++
			}
		}
	}
	if l.Triangles() != want {
		t.Errorf("Triangles() = %d, want %d", l.Triangles(), want)
	}
}

func TestMarginPixels(t *testing.T) {
	if got := NewLayout(5, 1, 1).MarginPixels(256); got != 85 {
		t.Errorf("MarginPixels(256) side 3 = %d, want 85", got)
	}
	if got := NewLayout(16, 1, 1).MarginPixels(256); got != 64 {
		t.Errorf("MarginPixels(256) side 4 = %d, want 64", got)
	}
}
