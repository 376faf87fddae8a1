// Package backends constructs decoders from configuration. Each backend
// kind registers a factory; Make looks the kind up, builds the decoder,
// and wraps it with rate limiting when configured.
package backends

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/calebmor/genbench/pkg/backends/anthropic"
	"github.com/calebmor/genbench/pkg/backends/google"
	"github.com/calebmor/genbench/pkg/backends/mistral"
	"github.com/calebmor/genbench/pkg/backends/openai"
	"github.com/calebmor/genbench/pkg/backends/tgi"
	"github.com/calebmor/genbench/pkg/backends/vllm"
	"github.com/calebmor/genbench/pkg/decoder"
	"github.com/calebmor/genbench/pkg/llmclient"
)

// Factory builds a decoder from its validated config.
type Factory func(cfg decoder.Config) (decoder.Decoder, error)

var registry = map[string]Factory{
	"anthropic": makeAnthropic,
	"google":    makeGoogle,
	"mistral":   makeMistral,
	"openai":    makeOpenAI,
	"tgi":       makeTGI,
	"vllm":      makeVLLM,
}

// Register adds a backend factory under the given kind, replacing any
// existing registration.
func Register(kind string, factory Factory) {
	registry[strings.ToLower(kind)] = factory
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	return kinds
}

// Make builds the decoder cfg describes. When rate limiting is
// configured the decoder comes back wrapped in a throttling layer.
func Make(cfg decoder.Config) (decoder.Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factory, ok := registry[strings.ToLower(cfg.Kind)]
	if !ok {
		return nil, fmt.Errorf("backends: unknown kind %q (have %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}

	dec, err := factory(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit.Enabled() {
		opts, err := rateLimitOpts(cfg.RateLimit)
		if err != nil {
			return nil, err
		}

		dec = llmclient.NewRateLimitedDecoder(dec, opts)
	}

	return dec, nil
}

func rateLimitOpts(cfg decoder.RateLimitConfig) (llmclient.RateLimitOpts, error) {
	opts := llmclient.RateLimitOpts{
		InputTPM:   cfg.InputTPM,
		OutputTPM:  cfg.OutputTPM,
		RPM:        cfg.RPM,
		MaxRetries: cfg.MaxRetries,
	}

	if cfg.BaseDelay != "" {
		delay, err := time.ParseDuration(cfg.BaseDelay)
		if err != nil {
			return opts, fmt.Errorf("backends: parse rate limit base delay: %w", err)
		}

		opts.BaseDelay = delay
	}

	return opts, nil
}

// requireKey rejects hosted-backend configs with no API key so the
// failure surfaces before the first request.
func requireKey(cfg decoder.Config) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("backends: %s: api key is required", cfg.Kind)
	}

	return nil
}

// mergeHeaders overlays configured headers on a client's defaults.
func mergeHeaders(c *llmclient.Client, headers map[string]string) {
	if len(headers) == 0 {
		return
	}

	if c.Headers == nil {
		c.Headers = make(map[string]string, len(headers))
	}

	for k, v := range headers {
		c.Headers[k] = v
	}
}

func makeAnthropic(cfg decoder.Config) (decoder.Decoder, error) {
	if err := requireKey(cfg); err != nil {
		return nil, err
	}

	d := anthropic.New(cfg.BaseURL, cfg.APIKey, cfg.Model)
	cfg.ApplySettings(&d.Settings)
	mergeHeaders(&d.Client, cfg.Headers)

	return d, nil
}

func makeGoogle(cfg decoder.Config) (decoder.Decoder, error) {
	if err := requireKey(cfg); err != nil {
		return nil, err
	}

	d := google.New(cfg.BaseURL, cfg.APIKey, cfg.Model)
	cfg.ApplySettings(&d.Settings)
	mergeHeaders(&d.Client, cfg.Headers)

	return d, nil
}

func makeMistral(cfg decoder.Config) (decoder.Decoder, error) {
	if err := requireKey(cfg); err != nil {
		return nil, err
	}

	d := mistral.New(cfg.BaseURL, cfg.APIKey, cfg.Model)
	cfg.ApplySettings(&d.Settings)
	mergeHeaders(&d.Client, cfg.Headers)

	return d, nil
}

func makeOpenAI(cfg decoder.Config) (decoder.Decoder, error) {
	if err := requireKey(cfg); err != nil {
		return nil, err
	}

	d := openai.New(cfg.BaseURL, cfg.APIKey, cfg.Model)
	cfg.ApplySettings(&d.Settings)

	return d, nil
}

func makeTGI(cfg decoder.Config) (decoder.Decoder, error) {
	d, err := tgi.New(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Dataset, cfg.ChatTemplate)
	if err != nil {
		return nil, err
	}

	cfg.ApplySettings(&d.Settings)
	mergeHeaders(&d.Client, cfg.Headers)

	return d, nil
}

func makeVLLM(cfg decoder.Config) (decoder.Decoder, error) {
	d, err := vllm.New(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Dataset, cfg.ChatTemplate)
	if err != nil {
		return nil, err
	}

	cfg.ApplySettings(&d.Settings)
	mergeHeaders(&d.Client, cfg.Headers)

	return d, nil
}
