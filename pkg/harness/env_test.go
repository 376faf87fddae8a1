package harness_test

import (
	"context"
	"testing"

	"github.com/calebmor/genbench/pkg/harness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-anthropic")
	t.Setenv("MISTRAL_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	keys, err := harness.LoadKeys(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "sk-openai", keys.OpenAI)
	assert.Equal(t, "sk-anthropic", keys.Anthropic)
	assert.Empty(t, keys.Mistral)
}

func TestKeysFor(t *testing.T) {
	keys := harness.Keys{
		OpenAI:    "a",
		Mistral:   "b",
		Anthropic: "c",
		Google:    "d",
	}

	assert.Equal(t, "a", keys.For("openai"))
	assert.Equal(t, "b", keys.For("mistral"))
	assert.Equal(t, "c", keys.For("anthropic"))
	assert.Equal(t, "d", keys.For("google"))
	assert.Empty(t, keys.For("vllm"))
	assert.Empty(t, keys.For("tgi"))
}
