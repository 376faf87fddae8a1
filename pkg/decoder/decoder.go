// Package decoder defines the common contract every inference backend
// implements, the shared generation settings, and the end-of-sequence
// trimming applied to generated code.
package decoder

import (
	"context"
	"errors"
	"fmt"
)

// Decoder produces code completions for a single task prompt. Concrete
// implementations wrap one inference backend (a local server or a hosted
// chat API) and issue one blocking call per Codegen invocation.
type Decoder interface {
	// Codegen returns up to min(BatchSize, opts.NumSamples) completions
	// for the given task prompt.
	Codegen(ctx context.Context, prompt string, opts GenOptions) ([]string, error)

	// IsDirectCompletion reports whether the backend completes raw text
	// with no chat template. Direct-completion output is trimmed with the
	// extended EOS set and samples are prefixed by the task prompt itself.
	IsDirectCompletion() bool

	// Name returns the model identifier.
	Name() string
}

// GenOptions carries per-call generation options.
type GenOptions struct {
	DoSample   bool // Sample with temperature/top_p instead of greedy decoding.
	NumSamples int  // Requested number of samples; capped by the decoder's batch size.
}

// SampleCount returns the effective number of samples for a decoder with
// the given batch size: min(batchSize, NumSamples), and at least 1.
// Greedy decoding is deterministic, so without sampling the count is
// always 1 regardless of the request.
func (o GenOptions) SampleCount(batchSize int) int {
	if !o.DoSample {
		return 1
	}

	n := o.NumSamples
	if batchSize > 0 && batchSize < n {
		n = batchSize
	}
	if n < 1 {
		n = 1
	}

	return n
}

// ErrTemperature is returned when sampling is requested with a
// non-positive temperature.
var ErrTemperature = errors.New("temperature must be positive for sampling")

// ValidateSampling checks that the temperature is usable for the
// requested decoding mode.
func ValidateSampling(temperature float64, opts GenOptions) error {
	if opts.DoSample && temperature <= 0 {
		return fmt.Errorf("%w (got %g)", ErrTemperature, temperature)
	}

	return nil
}
