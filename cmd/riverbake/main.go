// riverbake is a CLI for generating river meshes and baking their flow maps.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/waterways/internal/bake"
	"github.com/Faultbox/waterways/internal/config"
	"github.com/Faultbox/waterways/internal/engine/debug"
	"github.com/Faultbox/waterways/internal/engine/filter"
	"github.com/Faultbox/waterways/internal/engine/gpufilter"
	"github.com/Faultbox/waterways/internal/engine/imaging"
	"github.com/Faultbox/waterways/internal/engine/noise"
	"github.com/Faultbox/waterways/internal/engine/rivermesh"
	"github.com/Faultbox/waterways/internal/engine/window"
	"github.com/Faultbox/waterways/internal/logger"
	"github.com/Faultbox/waterways/internal/river"
)

func main() {
	// Parse global flags first; the command follows them
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("Config: %+v", cfg)

	command := args[0]
	args = args[1:]

	switch command {
	case "mesh":
		err = cmdMesh(cfg, args)
	case "bake":
		err = cmdBake(cfg, args)
	case "noise":
		err = cmdNoise(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`riverbake - river mesh generator and flow map baker

Usage:
  riverbake [flags] <command> [options]

Commands:
  mesh <river.yaml> [out.obj]     Generate the mesh, print stats, optionally export OBJ
  bake <river.yaml>               Bake flow/foam/noise and distance/pressure maps
  noise [-seed N] [-size N] <out.png>
                                  Write a seamless noise tile

Flags:
  -config <path>       Config file (default ./riverbake.yaml)
  -debug               Enable debug logging
  -resolution <n>      Bake resolution: 64, 128, 256, 512 or 1024
  -gpu / -cpu          Run filters on the GPU or the CPU
  -out <dir>           Output directory for baked textures
  -report <path>       Write stage timings as CSV
  -dump-stages <dir>   Write every intermediate filter image as PNG

Examples:
  riverbake mesh river.yaml river.obj
  riverbake -resolution 512 -out textures bake river.yaml
  riverbake noise -seed 7 noise.png`)
}

// loadDocument reads a river document over the configured defaults.
func loadDocument(cfg *config.Config, path string) (*river.Document, error) {
	base := river.NewDocument()
	base.Shape = cfg.Shape
	base.Bake = cfg.Bake
	doc, err := river.ReadDocument(path, base)
	if err != nil {
		return nil, err
	}
	config.OverrideBake(&doc.Bake)
	return doc, nil
}

func cmdMesh(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: riverbake mesh <river.yaml> [out.obj]")
	}
	doc, err := loadDocument(cfg, args[0])
	if err != nil {
		return err
	}
	r, err := doc.River()
	if err != nil {
		return err
	}
	m := r.Mesh()

	fmt.Printf("River:     %s\n", args[0])
	fmt.Printf("Points:    %d\n", len(doc.Points))
	fmt.Printf("Length:    %.2f\n", m.Length)
	fmt.Printf("Steps:     %d (atlas %dx%d)\n", m.Layout.Steps, m.Layout.Side, m.Layout.Side)
	fmt.Printf("Vertices:  %d\n", len(m.Vertices))
	fmt.Printf("Triangles: %d\n", m.TriangleCount())
	fmt.Printf("Bounds:    %v - %v\n", m.Bounds.Min, m.Bounds.Max)
	if m.Fallback {
		fmt.Println("Warning:   degenerate spline, fallback mesh generated")
	}

	if len(args) < 2 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(args[1]), 0755); err != nil {
		return err
	}
	f, err := os.Create(args[1])
	if err != nil {
		return err
	}
	if err := rivermesh.WriteOBJ(f, m); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", args[1])
	return nil
}

// newExecutor returns the GPU executor when enabled and available, and the
// CPU executor otherwise. The returned func releases it.
func newExecutor(cfg *config.Config) (filter.Executor, func()) {
	if cfg.GPU.Enabled {
		exec, err := gpufilter.New(window.DefaultConfig())
		if err == nil {
			return exec, func() { exec.Close() }
		}
		logger.Warn("GPU filters unavailable, falling back to CPU", zap.Error(err))
	}
	return filter.NewCPUExecutor(cfg.GPU.Workers), func() {}
}

func cmdBake(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: riverbake bake <river.yaml>")
	}
	doc, err := loadDocument(cfg, args[0])
	if err != nil {
		return err
	}
	r, err := doc.River()
	if err != nil {
		return err
	}
	world, err := doc.World()
	if err != nil {
		return err
	}

	var dumper *debug.StageDumper
	if cfg.Output.DumpStages != "" {
		dumper = debug.NewStageDumper(cfg.Output.DumpStages, "stage")
		r.SetStageHook(dumper.Dump)
	}

	exec, release := newExecutor(cfg)
	defer release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	last := -1
	res, err := r.Bake(ctx, world, exec, func(fraction float32, message string) {
		if pct := int(fraction * 100); pct != last {
			last = pct
			fmt.Fprintf(os.Stderr, "\r%3d%% %-24s", pct, message)
		}
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	if dumper != nil {
		if err := dumper.Err(); err != nil {
			logger.Warn("stage dump incomplete", zap.Error(err))
		}
		fmt.Printf("Dumped %d stages to %s\n", len(dumper.Files()), cfg.Output.DumpStages)
	}

	if err := r.SaveBake(cfg.Output.Dir); err != nil {
		return err
	}
	fmt.Printf("Baked %dx%d (atlas %dx%d) in %v to %s\n",
		res.Resolution, res.Resolution, res.Side, res.Side, res.Took, cfg.Output.Dir)

	if cfg.Output.Report != "" {
		if err := writeReport(cfg.Output.Report, res.Stats); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", cfg.Output.Report)
	}
	return nil
}

func writeReport(path string, stats []bake.StageStat) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bake.WriteReport(f, stats); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func cmdNoise(args []string) error {
	fs := flag.NewFlagSet("noise", flag.ExitOnError)
	defaults := noise.DefaultTileSettings()
	seed := fs.Int64("seed", defaults.Seed, "Noise seed")
	size := fs.Int("size", defaults.Size, "Tile size in pixels")
	octaves := fs.Int("octaves", defaults.Octaves, "Number of octaves")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: riverbake noise [-seed N] [-size N] <out.png>")
	}
	s := defaults
	s.Seed = *seed
	s.Size = *size
	s.Octaves = *octaves

	if err := imaging.SavePNG(fs.Arg(0), noise.Tile(s)); err != nil {
		return err
	}
	fmt.Printf("Wrote %dx%d noise tile to %s\n", s.Size, s.Size, fs.Arg(0))
	return nil
}
