package decoder

import "slices"

// Default generation parameters, shared by every backend.
const (
	DefaultBatchSize    = 1
	DefaultTemperature  = 0.8
	DefaultMaxNewTokens = 1280

	// DefaultTopP is used whenever sampling is enabled.
	DefaultTopP = 0.95
)

// Settings holds the generation parameters common to all decoders. They
// are passed through unchanged to the backend API.
type Settings struct {
	Name         string   // Model identifier.
	BatchSize    int      // Samples requested per call.
	Temperature  float64  // Sampling temperature.
	MaxNewTokens int      // Generation budget per sample.
	EOS          []string // End-of-sequence markers used for stop/trim.
}

// DefaultSettings returns Settings for the named model with the default
// batch size, temperature, token budget, and EOS list.
func DefaultSettings(name string) Settings {
	return Settings{
		Name:         name,
		BatchSize:    DefaultBatchSize,
		Temperature:  DefaultTemperature,
		MaxNewTokens: DefaultMaxNewTokens,
		EOS:          slices.Clone(DefaultEOS),
	}
}

// TopP returns the nucleus sampling parameter for the decoding mode:
// 0.95 when sampling, 1.0 when greedy.
func (s Settings) TopP(doSample bool) float64 {
	if doSample {
		return DefaultTopP
	}

	return 1.0
}
