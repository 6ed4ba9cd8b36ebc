package bake

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/Faultbox/waterways/internal/engine/imaging"
)

// StageStat is the timing of one bake stage.
type StageStat struct {
	Stage  string  `csv:"stage"`
	Millis float64 `csv:"millis"`
	Width  int     `csv:"width"`
	Height int     `csv:"height"`
}

func newStageStat(stage string, took time.Duration, img *imaging.Image) StageStat {
	s := StageStat{Stage: stage, Millis: float64(took.Microseconds()) / 1000}
	if img != nil {
		s.Width, s.Height = img.Width, img.Height
	}
	return s
}

// WriteReport writes stats as CSV with a header row.
func WriteReport(w io.Writer, stats []StageStat) error {
	if err := gocsv.Marshal(stats, w); err != nil {
		return fmt.Errorf("writing bake report: %w", err)
	}
	return nil
}

// ReadReport parses a report written by WriteReport.
func ReadReport(r io.Reader) ([]StageStat, error) {
	var stats []StageStat
	if err := gocsv.Unmarshal(r, &stats); err != nil {
		return nil, fmt.Errorf("reading bake report: %w", err)
	}
	return stats, nil
}
