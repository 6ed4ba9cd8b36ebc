package river

import (
	"fmt"

	"github.com/Faultbox/waterways/internal/engine/filter"
	"github.com/Faultbox/waterways/internal/engine/noise"
)

// Resolutions are the supported bake sizes.
var Resolutions = []int{64, 128, 256, 512, 1024}

// BakeSettings are the per-river bake parameters. Filter distances are in
// atlas cells.
type BakeSettings struct {
	Resolution      int     `yaml:"resolution"`
	RaycastDistance float32 `yaml:"raycast_distance"`
	RaycastLayers   uint32  `yaml:"raycast_layers"`
	Dilate          float32 `yaml:"dilate"`
	FlowmapBlur     float32 `yaml:"flowmap_blur"`
	FoamCutoff      float32 `yaml:"foam_cutoff"`
	FoamOffset      float32 `yaml:"foam_offset"`
	FoamBlur        float32 `yaml:"foam_blur"`
	PressureBlur    float32 `yaml:"pressure_blur"`
	NoiseSeed       int64   `yaml:"noise_seed"`
	// NoiseTile is an optional PNG used instead of the generated tile.
	NoiseTile string `yaml:"noise_tile,omitempty"`
}

// DefaultBakeSettings returns the default bake parameters.
func DefaultBakeSettings() BakeSettings {
	return BakeSettings{
		Resolution:      256,
		RaycastDistance: 10,
		RaycastLayers:   1,
		Dilate:          0.6,
		FlowmapBlur:     0.04,
		FoamCutoff:      0.9,
		FoamOffset:      0.1,
		FoamBlur:        0.02,
		PressureBlur:    filter.DefaultPressureBlur,
	}
}

// ValidResolution reports whether res is one of Resolutions.
func ValidResolution(res int) bool {
	for _, r := range Resolutions {
		if r == res {
			return true
		}
	}
	return false
}

// Validate checks the settings.
func (s BakeSettings) Validate() error {
	if !ValidResolution(s.Resolution) {
		return fmt.Errorf("bake resolution %d: must be one of %v", s.Resolution, Resolutions)
	}
	if s.RaycastDistance <= 0 {
		return fmt.Errorf("raycast distance %v: must be positive", s.RaycastDistance)
	}
	if s.FoamCutoff < 0 || s.FoamCutoff >= 1 {
		return fmt.Errorf("foam cutoff %v: must be in [0, 1)", s.FoamCutoff)
	}
	return nil
}

// Filters converts the settings for the filter pipeline. Resolution and
// Side are filled in by the baker.
func (s BakeSettings) Filters() filter.Settings {
	return filter.Settings{
		Dilate:       s.Dilate,
		FlowmapBlur:  s.FlowmapBlur,
		FoamCutoff:   s.FoamCutoff,
		FoamOffset:   s.FoamOffset,
		FoamBlur:     s.FoamBlur,
		PressureBlur: s.PressureBlur,
	}
}

// NoiseSettings returns the tile settings for the river's noise channel.
func (s BakeSettings) NoiseSettings() noise.TileSettings {
	t := noise.DefaultTileSettings()
	t.Seed = s.NoiseSeed
	return t
}
