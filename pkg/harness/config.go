// Package harness drives benchmark generation runs: it loads the run
// configuration, resolves API keys, and walks the task list through a
// decoder, writing samples as they arrive.
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/calebmor/genbench/pkg/decoder"
)

// Config is the root YAML configuration for a generation run.
type Config struct {
	Decoder decoder.Config `yaml:"decoder"`
	Run     RunConfig      `yaml:"run"`
	Log     LogConfig      `yaml:"log"`
}

// RunConfig controls the generation loop.
type RunConfig struct {
	Tasks      string `yaml:"tasks"`       // Path to the task JSONL file.
	Output     string `yaml:"output"`      // Path to the sample JSONL file.
	NumSamples int    `yaml:"num_samples"` // Samples per task (default 1).
	DoSample   bool   `yaml:"do_sample"`   // Nucleus sampling instead of greedy decoding.
	Resume     bool   `yaml:"resume"`      // Skip tasks that already have enough samples.
	CacheTTL   string `yaml:"cache_ttl"`   // Greedy result cache TTL; empty disables the cache.
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error.
	Format string `yaml:"format"` // console or json.
}

// LoadConfig reads a YAML config file, expanding ${VAR} references from
// the environment before parsing so API keys never live in the file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("harness: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("harness: parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks the fields the generation loop relies on. The decoder
// section is validated separately when the backend is built.
func (c Config) Validate() error {
	if c.Run.Tasks == "" {
		return fmt.Errorf("harness: config: run.tasks is required")
	}
	if c.Run.Output == "" {
		return fmt.Errorf("harness: config: run.output is required")
	}
	if c.Run.NumSamples < 0 {
		return fmt.Errorf("harness: config: run.num_samples must be >= 1, got %d", c.Run.NumSamples)
	}

	return nil
}

// SamplesPerTask returns the configured sample count, defaulting to 1.
func (c Config) SamplesPerTask() int {
	if c.Run.NumSamples > 0 {
		return c.Run.NumSamples
	}

	return 1
}
