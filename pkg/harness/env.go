package harness

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Keys holds the per-provider API keys read from the environment. A
// key configured directly in the decoder config takes precedence.
type Keys struct {
	OpenAI    string `env:"OPENAI_API_KEY"`
	Mistral   string `env:"MISTRAL_API_KEY"`
	Anthropic string `env:"ANTHROPIC_API_KEY"`
	Google    string `env:"GOOGLE_API_KEY"`
}

// LoadKeys reads provider API keys from the environment.
func LoadKeys(ctx context.Context) (Keys, error) {
	var keys Keys
	if err := envconfig.Process(ctx, &keys); err != nil {
		return Keys{}, fmt.Errorf("harness: load api keys: %w", err)
	}

	return keys, nil
}

// For returns the environment key for a backend kind, or empty for
// local backends that need none.
func (k Keys) For(kind string) string {
	switch kind {
	case "openai":
		return k.OpenAI
	case "mistral":
		return k.Mistral
	case "anthropic":
		return k.Anthropic
	case "google":
		return k.Google
	default:
		return ""
	}
}
