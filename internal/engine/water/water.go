// Package water holds the river material: the baked textures published by a
// bake plus the shading parameters a host shader needs to animate them.
package water

import (
	"math"
	"sync"

	"github.com/Faultbox/waterways/internal/engine/imaging"
)

// DefaultFlowSpeed is the flowmap animation speed if not specified.
const DefaultFlowSpeed = 1.0

// Params are the shading parameters of a river.
type Params struct {
	FlowSpeed      float32 `yaml:"flow_speed"`
	FlowBase       float32 `yaml:"flow_base"`
	FlowSteepness  float32 `yaml:"flow_steepness"`
	FlowDistance   float32 `yaml:"flow_distance"`
	FlowPressure   float32 `yaml:"flow_pressure"`
	FlowMax        float32 `yaml:"flow_max"`
	FoamAmount     float32 `yaml:"foam_amount"`
	FoamSmoothness float32 `yaml:"foam_smoothness"`
	Roughness      float32 `yaml:"roughness"`
	Clarity        float32 `yaml:"clarity"`
}

// DefaultParams returns the default shading parameters.
func DefaultParams() Params {
	return Params{
		FlowSpeed:      DefaultFlowSpeed,
		FlowBase:       0,
		FlowSteepness:  2,
		FlowDistance:   1,
		FlowPressure:   1,
		FlowMax:        4,
		FoamAmount:     2,
		FoamSmoothness: 0.3,
		Roughness:      0.2,
		Clarity:        10,
	}
}

// Material is safe for concurrent use.
type Material struct {
	mu            sync.RWMutex
	params        Params
	flowFoamNoise *imaging.Image
	distPressure  *imaging.Image
	uv2Sides      int
	valid         bool
}

// NewMaterial creates a material with no baked textures.
func NewMaterial(p Params) *Material {
	return &Material{params: p}
}

// Publish attaches a finished bake. Both images are required.
func (m *Material) Publish(flowFoamNoise, distPressure *imaging.Image, uv2Sides int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flowFoamNoise = flowFoamNoise
	m.distPressure = distPressure
	m.uv2Sides = uv2Sides
	m.valid = flowFoamNoise != nil && distPressure != nil && uv2Sides > 0
}

// Invalidate marks the baked textures stale. They are kept so a host can
// keep rendering the old bake until a new one is published.
func (m *Material) Invalidate() {
	m.mu.Lock()
	m.valid = false
	m.mu.Unlock()
}

// Valid reports whether the textures match the current geometry.
func (m *Material) Valid() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.valid
}

// Textures returns the baked images and the atlas side they were baked for.
func (m *Material) Textures() (flowFoamNoise, distPressure *imaging.Image, uv2Sides int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flowFoamNoise, m.distPressure, m.uv2Sides
}

// Params returns the shading parameters.
func (m *Material) Params() Params {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.params
}

// SetParams replaces the shading parameters. Baked textures are unaffected.
func (m *Material) SetParams(p Params) {
	m.mu.Lock()
	m.params = p
	m.mu.Unlock()
}

// FlowPhases returns the two flowmap phases and the blend weight of the
// second one. The phases are half a cycle apart so one of them is always
// mid-cycle while the other resets.
func FlowPhases(time, speed float32) (phase0, phase1, blend float32) {
	t := float64(time * speed)
	phase0 = float32(t - math.Floor(t))
	p1 := t + 0.5
	phase1 = float32(p1 - math.Floor(p1))
	blend = float32(math.Abs(float64(1 - 2*phase0)))
	return phase0, phase1, blend
}

// Uniforms returns the shader uniforms for the given time in seconds.
func (m *Material) Uniforms(time float32) map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := m.params
	phase0, phase1, blend := FlowPhases(time, p.FlowSpeed)
	return map[string]any{
		"flow_speed":      p.FlowSpeed,
		"flow_base":       p.FlowBase,
		"flow_steepness":  p.FlowSteepness,
		"flow_distance":   p.FlowDistance,
		"flow_pressure":   p.FlowPressure,
		"flow_max":        p.FlowMax,
		"foam_amount":     p.FoamAmount,
		"foam_smoothness": p.FoamSmoothness,
		"roughness":       p.Roughness,
		"clarity":         p.Clarity,
		"flow_phase0":     phase0,
		"flow_phase1":     phase1,
		"flow_blend":      blend,
		"uv2_sides":       m.uv2Sides,
		"valid_flowmap":   m.valid,
	}
}
