// Package debug provides debug dumps of bake intermediates.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/waterways/internal/engine/imaging"
	"github.com/Faultbox/waterways/internal/logger"
)

// StageDumper writes every intermediate filter image to a directory.
type StageDumper struct {
	mu        sync.Mutex
	outputDir string
	prefix    string
	count     int
	written   []string
	err       error
}

// NewStageDumper creates a dumper writing <prefix>_<nn>_<stage>.png files.
func NewStageDumper(outputDir, prefix string) *StageDumper {
	return &StageDumper{
		outputDir: outputDir,
		prefix:    prefix,
	}
}

// Dump writes one stage image. Its signature matches filter.StageFunc.
// The first write error is kept and later dumps are skipped.
func (d *StageDumper) Dump(stage string, took time.Duration, img *imaging.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil || img == nil {
		return
	}
	d.count++

	// Create output directory if needed
	if err := os.MkdirAll(d.outputDir, 0755); err != nil {
		d.err = fmt.Errorf("creating output dir: %w", err)
		return
	}

	filename := filepath.Join(d.outputDir, fmt.Sprintf("%s_%02d_%s.png", d.prefix, d.count, stage))
	if err := imaging.SavePNG(filename, img); err != nil {
		d.err = fmt.Errorf("dumping stage %s: %w", stage, err)
		return
	}
	d.written = append(d.written, filename)
	logger.Debug("stage dumped", zap.String("file", filename), zap.Duration("took", took))
}

// Files returns the paths written so far.
func (d *StageDumper) Files() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.written...)
}

// Err returns the first write error.
func (d *StageDumper) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}
