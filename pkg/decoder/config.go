package decoder

import "fmt"

// RateLimitConfig controls per-decoder request throttling. Zero values
// disable the corresponding limit.
type RateLimitConfig struct {
	InputTPM   int    `yaml:"input_tpm"`   // Input tokens per minute (0 = no limit).
	OutputTPM  int    `yaml:"output_tpm"`  // Output tokens per minute (0 = no limit).
	RPM        int    `yaml:"rpm"`         // Requests per minute (0 = no limit).
	MaxRetries int    `yaml:"max_retries"` // Max retries on 429 (default 3).
	BaseDelay  string `yaml:"base_delay"`  // Initial backoff delay as a duration string (e.g. "1s").
}

// Enabled reports whether any throttling or retry setting is configured.
func (r RateLimitConfig) Enabled() bool {
	return r.InputTPM > 0 || r.OutputTPM > 0 || r.RPM > 0 || r.MaxRetries > 0 || r.BaseDelay != ""
}

// Config selects and parameterizes a backend. Every field is passed
// through unchanged to the backend's native API.
type Config struct {
	Kind         string            `yaml:"kind"`          // Backend kind: vllm, tgi, openai, mistral, anthropic, google.
	Model        string            `yaml:"model"`         // Model identifier.
	BaseURL      string            `yaml:"base_url"`      // API base URL; empty selects the backend default.
	APIKey       string            `yaml:"api_key"`       // API key; usually expanded from the environment.
	Dataset      string            `yaml:"dataset"`       // Dataset name; selects extra direct-completion EOS markers.
	BatchSize    int               `yaml:"batch_size"`    // Samples per call (default 1).
	Temperature  float64           `yaml:"temperature"`   // Sampling temperature (default 0).
	MaxNewTokens int               `yaml:"max_new_tokens"`// Generation budget per sample (default 1280).
	ChatTemplate string            `yaml:"chat_template"` // Local backends: chat template family; empty = direct completion.
	Headers      map[string]string `yaml:"headers"`       // Extra headers applied to every request.
	RateLimit    RateLimitConfig   `yaml:"rate_limit"`
}

// Validate checks the fields every backend relies on.
func (c Config) Validate() error {
	if c.Kind == "" {
		return fmt.Errorf("decoder: config: kind is required")
	}
	if c.Model == "" {
		return fmt.Errorf("decoder: config: model is required")
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("decoder: config: batch size must be >= 1, got %d", c.BatchSize)
	}
	if c.Temperature < 0 {
		return fmt.Errorf("decoder: config: temperature must be >= 0, got %g", c.Temperature)
	}

	return nil
}

// ApplySettings overlays the config's generation parameters on s,
// keeping s's defaults for unset fields.
func (c Config) ApplySettings(s *Settings) {
	s.Name = c.Model
	if c.BatchSize > 0 {
		s.BatchSize = c.BatchSize
	}
	// Zero is meaningful here (greedy decoding), so the configured
	// temperature always overrides the default.
	s.Temperature = c.Temperature
	if c.MaxNewTokens > 0 {
		s.MaxNewTokens = c.MaxNewTokens
	}
}
