// Package rconfig loads the solver and CLI tunables (tolerance, iteration
// cap, default output format) from a per-project .rationlp/config.yaml,
// with flag and RLP_* environment overrides layered on top. Each load uses
// a scoped viper instance rather than the global one.
package rconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	defaultTolerance     = 1e-9
	defaultMaxIterations = 10000
	defaultFormat        = "pretty"
)

// Config holds the layered configuration values a CLI invocation needs.
// The core packages (internal/lp, internal/simplex) stay pure functions of
// their explicit arguments; Config only supplies those arguments at the
// CLI edge, never threading a global into the solver itself.
type Config struct {
	Tolerance     float64
	MaxIterations int
	Format        string
}

// Default returns the built-in defaults with no file or environment layer
// applied.
func Default() Config {
	return Config{Tolerance: defaultTolerance, MaxIterations: defaultMaxIterations, Format: defaultFormat}
}

// Load resolves precedence flag > environment (RLP_*) > .rationlp/config.yaml
// (or config.toml) > built-in default. flagFormat/flagTolerance/
// flagMaxIterations are the values bound to cobra flags by the caller; a
// zero value (empty string, 0) means "flag not set" and falls through to
// the next layer.
func Load(projectDir string, flagFormat string, flagTolerance float64, flagMaxIterations int) (Config, error) {
	cfg := Default()

	if path := findConfigFile(projectDir, "config.yaml"); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return cfg, err
		}
	} else if path := findConfigFile(projectDir, "config.toml"); path != "" {
		if err := loadTOML(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := os.Getenv("RLP_TOLERANCE"); v != "" {
		if _, err := fmt.Sscanf(v, "%g", &cfg.Tolerance); err != nil {
			return cfg, fmt.Errorf("RLP_TOLERANCE: %w", err)
		}
	}
	if v := os.Getenv("RLP_MAX_ITERATIONS"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &cfg.MaxIterations); err != nil {
			return cfg, fmt.Errorf("RLP_MAX_ITERATIONS: %w", err)
		}
	}
	if v := os.Getenv("RLP_FORMAT"); v != "" {
		cfg.Format = v
	}

	if flagTolerance != 0 {
		cfg.Tolerance = flagTolerance
	}
	if flagMaxIterations != 0 {
		cfg.MaxIterations = flagMaxIterations
	}
	if flagFormat != "" {
		cfg.Format = flagFormat
	}

	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if v.IsSet("solver.tolerance") {
		cfg.Tolerance = v.GetFloat64("solver.tolerance")
	}
	if v.IsSet("solver.max_iterations") {
		cfg.MaxIterations = v.GetInt("solver.max_iterations")
	}
	if v.IsSet("output.format") {
		cfg.Format = v.GetString("output.format")
	}
	return nil
}

func loadTOML(path string, cfg *Config) error {
	var raw struct {
		Solver struct {
			Tolerance     float64 `toml:"tolerance"`
			MaxIterations int     `toml:"max_iterations"`
		} `toml:"solver"`
		Output struct {
			Format string `toml:"format"`
		} `toml:"output"`
	}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if raw.Solver.Tolerance != 0 {
		cfg.Tolerance = raw.Solver.Tolerance
	}
	if raw.Solver.MaxIterations != 0 {
		cfg.MaxIterations = raw.Solver.MaxIterations
	}
	if raw.Output.Format != "" {
		cfg.Format = raw.Output.Format
	}
	return nil
}

// findConfigFile walks up from dir looking for .rationlp/name, stopping at
// the filesystem root.
func findConfigFile(dir, name string) string {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return ""
		}
	}
	for {
		candidate := filepath.Join(dir, ".rationlp", name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// configFile is the on-disk shape of .rationlp/config.yaml, written out
// directly with yaml.v3 rather than through viper (which only reads).
type configFile struct {
	Solver struct {
		Tolerance     float64 `yaml:"tolerance"`
		MaxIterations int     `yaml:"max_iterations"`
	} `yaml:"solver"`
	Output struct {
		Format string `yaml:"format"`
	} `yaml:"output"`
}

// WriteDefault scaffolds a .rationlp/config.yaml under projectDir seeded
// with cfg, for `rationc config init`. It overwrites any existing file.
func WriteDefault(projectDir string, cfg Config) error {
	dir := filepath.Join(projectDir, ".rationlp")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	var raw configFile
	raw.Solver.Tolerance = cfg.Tolerance
	raw.Solver.MaxIterations = cfg.MaxIterations
	raw.Output.Format = cfg.Format

	data, err := yaml.Marshal(&raw)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// IsValidFormat reports whether format names a supported --format value.
func IsValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "pretty", "json":
		return true
	default:
		return false
	}
}
