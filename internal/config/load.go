package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// EnvConfig names a config file when -config is not given.
const EnvConfig = "RIVERBAKE_CONFIG"

const fileName = "riverbake.yaml"

// Load builds the configuration. Later sources win: defaults, then the
// config file, then command-line flags. The bake settings are validated.
func Load() (*Config, error) {
	cfg := Default()

	if path := resolveConfigPath(); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Bake.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bake settings: %w", err)
	}
	return cfg, nil
}

// resolveConfigPath picks the config file: -config, then $RIVERBAKE_CONFIG,
// then the first existing default location. Explicit paths are returned
// even when missing so Load reports them.
func resolveConfigPath() string {
	if p := ConfigPath(); p != "" {
		return p
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return findConfigFile()
}

// findConfigFile returns the first config found in the working directory
// or ConfigDir, or "".
func findConfigFile() string {
	for _, path := range []string{fileName, filepath.Join(ConfigDir(), fileName)} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory for riverbake.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Waterways")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Waterways")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "waterways")
	}
	return filepath.Join(home, ".config", "waterways")
}

// loadFromFile merges a YAML file over cfg; keys absent from the file keep
// their current values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
