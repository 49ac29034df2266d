// Package config loads the xdl configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete xdl configuration
type Config struct {
	BaseDir     string            `yaml:"-"` // Directory containing the config file, for resolving relative paths
	Interpreter InterpreterConfig `yaml:"interpreter"`
	REPL        REPLConfig        `yaml:"repl"`
	Watch       WatchConfig       `yaml:"watch"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// InterpreterConfig holds runtime limits and startup behaviour
type InterpreterConfig struct {
	MaxRecursionDepth int    `yaml:"max_recursion_depth"` // Routine call depth limit (default: 500)
	MaxArrayElements  int    `yaml:"max_array_elements"`  // Allocation limit for array constructors (default: 10000000)
	Startup           string `yaml:"startup"`             // Script run before the REPL or a script file
}

// REPLConfig holds interactive session settings
type REPLConfig struct {
	Prompt             string `yaml:"prompt"`
	ContinuationPrompt string `yaml:"continuation_prompt"`
	HistoryFile        string `yaml:"history_file"`
	HistorySize        int    `yaml:"history_size"`
	NoBanner           bool   `yaml:"no_banner"`
}

// WatchConfig holds the -watch mode settings
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"` // Delay before re-running after a change
}

// LoggingConfig holds script output settings
type LoggingConfig struct {
	Output string `yaml:"output"` // stdout, stderr, or a file path
}

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	return &Config{
		Interpreter: InterpreterConfig{
			MaxRecursionDepth: 500,
			MaxArrayElements:  10_000_000,
		},
		REPL: REPLConfig{
			Prompt:             "XDL> ",
			ContinuationPrompt: "...> ",
			HistoryFile:        filepath.Join(os.TempDir(), ".xdl_history"),
			HistorySize:        1000,
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Output: "stdout",
		},
	}
}

// Load reads and parses a YAML config file, interpolating ${VAR} and
// ${VAR:-default} references through getenv. Missing file fields keep
// their defaults.
func Load(path string, getenv func(string) string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	cfg.BaseDir = filepath.Dir(abs)

	if cfg.Interpreter.MaxRecursionDepth <= 0 {
		return nil, fmt.Errorf("config %s: max_recursion_depth must be positive", path)
	}
	if cfg.Interpreter.MaxArrayElements <= 0 {
		return nil, fmt.Errorf("config %s: max_array_elements must be positive", path)
	}
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// interpolateEnv substitutes ${VAR} and ${VAR:-default} in raw YAML
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		m := envRef.FindSubmatch(ref)
		if v := getenv(string(m[1])); v != "" {
			return []byte(v)
		}
		if len(m[2]) > 0 {
			return m[3]
		}
		return nil
	})
}

// ResolvePath resolves a possibly relative path against the config
// file's directory
func (c *Config) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || c.BaseDir == "" {
		return path
	}
	return filepath.Join(c.BaseDir, path)
}
