package config

import (
	"flag"

	"github.com/Faultbox/waterways/internal/river"
)

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagResolution = flag.Int("resolution", 0, "Bake resolution (64, 128, 256, 512 or 1024)")
	flagGPU        = flag.Bool("gpu", false, "Run filters on the GPU")
	flagCPU        = flag.Bool("cpu", false, "Run filters on the CPU")
	flagOut        = flag.String("out", "", "Output directory")
	flagReport     = flag.String("report", "", "Write stage timings as CSV to this path")
	flagDump       = flag.String("dump-stages", "", "Write every intermediate filter image to this directory")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	OverrideBake(&cfg.Bake)
	if *flagGPU {
		cfg.GPU.Enabled = true
	}
	if *flagCPU {
		cfg.GPU.Enabled = false
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	if *flagReport != "" {
		cfg.Output.Report = *flagReport
	}
	if *flagDump != "" {
		cfg.Output.DumpStages = *flagDump
	}
}

// OverrideBake applies the bake flags to settings read from elsewhere, such
// as a river document.
func OverrideBake(b *river.BakeSettings) {
	if *flagResolution > 0 {
		b.Resolution = *flagResolution
	}
}
