// Package config handles riverbake configuration loading and management.
package config

import (
	"github.com/Faultbox/waterways/internal/engine/rivermesh"
	"github.com/Faultbox/waterways/internal/river"
)

// Config holds all tool settings.
type Config struct {
	Bake    river.BakeSettings `yaml:"bake"`
	Shape   rivermesh.Settings `yaml:"shape"`
	GPU     GPUConfig          `yaml:"gpu"`
	Output  OutputConfig       `yaml:"output"`
	Logging LoggingConfig      `yaml:"logging"`
}

// GPUConfig selects the filter executor.
type GPUConfig struct {
	Enabled bool `yaml:"enabled"` // Run filters on the GPU when a context is available
	Workers int  `yaml:"workers"` // CPU workers; 0 uses all cores
}

// OutputConfig holds bake output settings.
type OutputConfig struct {
	Dir        string `yaml:"dir"`         // Directory for baked textures
	Report     string `yaml:"report"`      // Stage timing CSV; empty disables it
	DumpStages string `yaml:"dump_stages"` // Directory for intermediate images; empty disables it
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Bake:  river.DefaultBakeSettings(),
		Shape: rivermesh.DefaultSettings(),
		GPU: GPUConfig{
			Enabled: true,
			Workers: 0,
		},
		Output: OutputConfig{
			Dir:        "bake",
			Report:     "",
			DumpStages: "",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
