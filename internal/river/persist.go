package river

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/waterways/internal/engine/imaging"
)

// Files written by SaveBake.
const (
	FlowFoamNoiseFile = "flow_foam_noise.png"
	DistPressureFile  = "dist_pressure.png"
	BakeMetaFile      = "bake.yaml"
)

var (
	// ErrNoBake is returned when saving a river without a valid bake.
	ErrNoBake = errors.New("river: no valid bake")
	// ErrBakeMismatch is returned when a stored bake does not fit the
	// river's current atlas layout.
	ErrBakeMismatch = errors.New("river: stored bake does not match geometry")
)

// BakeMeta describes a stored bake.
type BakeMeta struct {
	Resolution int          `yaml:"resolution"`
	Side       int          `yaml:"side"`
	Steps      int          `yaml:"steps"`
	Settings   BakeSettings `yaml:"settings"`
	Created    time.Time    `yaml:"created"`
}

// SaveBake writes the published bake to dir as two 16-bit PNGs and a YAML
// metadata file.
func (r *River) SaveBake(dir string) error {
	ffn, dp, side := r.material.Textures()
	if !r.material.Valid() || ffn == nil || dp == nil {
		return ErrNoBake
	}
	r.mu.Lock()
	meta := BakeMeta{
		Resolution: ffn.Width,
		Side:       side,
		Steps:      r.mesh.Layout.Steps,
		Settings:   r.bake,
		Created:    time.Now().UTC(),
	}
	r.mu.Unlock()

	if err := imaging.SavePNG(filepath.Join(dir, FlowFoamNoiseFile), ffn); err != nil {
		return fmt.Errorf("saving flow map: %w", err)
	}
	if err := imaging.SavePNG(filepath.Join(dir, DistPressureFile), dp); err != nil {
		return fmt.Errorf("saving distance map: %w", err)
	}
	data, err := yaml.Marshal(&meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, BakeMetaFile), data, 0644); err != nil {
		return err
	}
	r.log.Info("bake saved", zap.String("dir", dir), zap.Int("resolution", meta.Resolution))
	return nil
}

// ReadBakeMeta reads the metadata of a stored bake.
func ReadBakeMeta(dir string) (*BakeMeta, error) {
	data, err := os.ReadFile(filepath.Join(dir, BakeMetaFile))
	if err != nil {
		return nil, err
	}
	var meta BakeMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing bake metadata: %w", err)
	}
	return &meta, nil
}

// LoadBake reads a bake written by SaveBake and publishes it to the
// material. The bake must have been made for the same atlas layout.
func (r *River) LoadBake(dir string) error {
	meta, err := ReadBakeMeta(dir)
	if err != nil {
		return err
	}
	ffn, err := imaging.LoadPNG(filepath.Join(dir, FlowFoamNoiseFile))
	if err != nil {
		return fmt.Errorf("loading flow map: %w", err)
	}
	dp, err := imaging.LoadPNG(filepath.Join(dir, DistPressureFile))
	if err != nil {
		return fmt.Errorf("loading distance map: %w", err)
	}
	if !ffn.SameSize(dp) || ffn.Width != meta.Resolution || ffn.Height != meta.Resolution {
		return fmt.Errorf("%w: images are %dx%d and %dx%d, metadata says %d",
			ErrBakeMismatch, ffn.Width, ffn.Height, dp.Width, dp.Height, meta.Resolution)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	layout := r.mesh.Layout
	if meta.Side != layout.Side || meta.Steps != layout.Steps {
		return fmt.Errorf("%w: stored %d steps in %d², river has %d in %d²",
			ErrBakeMismatch, meta.Steps, meta.Side, layout.Steps, layout.Side)
	}
	r.material.Publish(ffn, dp, meta.Side)
	return nil
}
