package water

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/waterways/internal/engine/imaging"
)

func near(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-5
}

func TestFlowPhases(t *testing.T) {
	tests := []struct {
		time, speed           float32
		phase0, phase1, blend float32
	}{
		{0, 1, 0, 0.5, 1},
		{0.25, 1, 0.25, 0.75, 0.5},
		{0.5, 1, 0.5, 0, 0},
		{1.75, 1, 0.75, 0.25, 0.5},
		{1, 0.5, 0.5, 0, 0},
	}
	for _, tt := range tests {
		p0, p1, b := FlowPhases(tt.time, tt.speed)
		if !near(p0, tt.phase0) || !near(p1, tt.phase1) || !near(b, tt.blend) {
			t.Errorf("FlowPhases(%v, %v) = %v %v %v, want %v %v %v",
				tt.time, tt.speed, p0, p1, b, tt.phase0, tt.phase1, tt.blend)
		}
	}
}

func TestMaterialPublishInvalidate(t *testing.T) {
	m := NewMaterial(DefaultParams())
	if m.Valid() {
		t.Fatal("new material should not be valid")
	}

	ffn := imaging.New(4, 4)
	dp := imaging.New(4, 4)
	m.Publish(ffn, dp, 3)
	if !m.Valid() {
		t.Fatal("published material should be valid")
	}
	gotFFN, gotDP, sides := m.Textures()
	if gotFFN != ffn || gotDP != dp || sides != 3 {
		t.Error("Textures returned different images")
	}

	m.Invalidate()
	if m.Valid() {
		t.Error("invalidated material should not be valid")
	}
	if gotFFN, _, _ := m.Textures(); gotFFN != ffn {
		t.Error("invalidation should keep the stale textures")
	}

	m.Publish(nil, dp, 3)
	if m.Valid() {
		t.Error("publishing without both images should not be valid")
	}
}

func TestMaterialUniforms(t *testing.T) {
	p := DefaultParams()
	p.FlowSpeed = 2
	m := NewMaterial(p)
	m.Publish(imaging.New(1, 1), imaging.New(1, 1), 4)

	u := m.Uniforms(0.125)
	if u["flow_speed"] != float32(2) {
		t.Errorf("flow_speed = %v", u["flow_speed"])
	}
	if !near(u["flow_phase0"].(float32), 0.25) {
		t.Errorf("flow_phase0 = %v, want 0.25", u["flow_phase0"])
	}
	if u["uv2_sides"] != 4 || u["valid_flowmap"] != true {
		t.Errorf("uv2_sides = %v valid = %v", u["uv2_sides"], u["valid_flowmap"])
	}
}
