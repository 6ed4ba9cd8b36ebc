package rivermesh

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Faultbox/waterways/pkg/curve"
	"github.com/Faultbox/waterways/pkg/math"
)

func TestWriteOBJ(t *testing.T) {
	m, err := Generate(curve.Line(math.Vec3{}, math.Vec3{X: 10}), []float32{2, 2}, DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteOBJ(&buf, m); err != nil {
		t.Fatalf("WriteOBJ: %v", err)
	}

	counts := map[string]int{}
	for _, line := range strings.Split(buf.String(), "\n") {
		if f := strings.Fields(line); len(f) > 0 {
			counts[f[0]]++
		}
	}
	if counts["v"] != len(m.Vertices) || counts["vt"] != len(m.Vertices) || counts["vn"] != len(m.Vertices) {
		t.Errorf("vertex records = %v, want %d each", counts, len(m.Vertices))
	}
	if counts["f"] != m.TriangleCount() {
		t.Errorf("faces = %d, want %d", counts["f"], m.TriangleCount())
	}
	if !strings.Contains(buf.String(), "f 1/1/1 2/2/2 3/3/3\n") {
		t.Error("first face should reference the first three vertices, 1-based")
	}
}
