package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calebmor/genbench/pkg/backends/openai"
	"github.com/calebmor/genbench/pkg/decoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, model string, handler http.HandlerFunc) *openai.Decoder {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return openai.New(srv.URL, "test-key", model)
}

// writeJSON sets the content type explicitly: the SDK refuses
// responses Go's sniffer labels text/plain.
func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func completionResponse(model string, contents ...string) map[string]any {
	choices := make([]map[string]any, 0, len(contents))
	for i, content := range contents {
		choices = append(choices, map[string]any{
			"index":         i,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		})
	}

	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"model":   model,
		"choices": choices,
		"usage":   map[string]any{"prompt_tokens": 25, "completion_tokens": 10, "total_tokens": 35},
	}
}

func TestCodegen_RequestShape(t *testing.T) {
	dec := newTestServer(t, "gpt-4o", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "gpt-4o", req["model"])
		assert.EqualValues(t, 1280, req["max_tokens"])
		assert.EqualValues(t, 1, req["n"])
		assert.NotContains(t, req, "temperature")
		assert.NotContains(t, req, "response_format")

		msgs, ok := req["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 1)
		msg, _ := msgs[0].(map[string]any)
		assert.Equal(t, "user", msg["role"])
		content, _ := msg["content"].(string)
		assert.Contains(t, content, "```python\ndef add(a, b):")

		writeJSON(t, w, completionResponse("gpt-4o", "    return a + b"))
	})

	samples, err := dec.Codegen(context.Background(), "def add(a, b):\n", decoder.GenOptions{NumSamples: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"    return a + b"}, samples)

	total := dec.UsageTracker().Total()
	assert.Equal(t, 25, total.InputTokens)
	assert.Equal(t, 10, total.OutputTokens)
}

func TestCodegen_BatchUsesN(t *testing.T) {
	calls := 0
	dec := newTestServer(t, "gpt-4o", func(w http.ResponseWriter, r *http.Request) {
		calls++

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.EqualValues(t, 3, req["n"])
		assert.InDelta(t, 0.8, req["temperature"], 1e-9)
		assert.InDelta(t, 0.95, req["top_p"], 1e-9)

		writeJSON(t, w, completionResponse("gpt-4o", "a", "b", "c"))
	})
	dec.Temperature = 0.8
	dec.BatchSize = 3

	samples, err := dec.Codegen(context.Background(), "p", decoder.GenOptions{DoSample: true, NumSamples: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, samples)
	assert.Equal(t, 1, calls, "batched samples must go out as a single request")
}

func TestCodegen_JSONMode(t *testing.T) {
	dec := newTestServer(t, "gpt-4-1106-preview", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		rf, ok := req["response_format"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "json_object", rf["type"])

		answer := `{"code": "def add(a, b):\n    return a + b"}`
		writeJSON(t, w, completionResponse("gpt-4-1106-preview", answer))
	})

	samples, err := dec.Codegen(context.Background(), "def add(a, b):", decoder.GenOptions{NumSamples: 1})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "def add(a, b):\ndef add(a, b):\n    return a + b", samples[0])
}

func TestCodegen_JSONModeBadAnswer(t *testing.T) {
	dec := newTestServer(t, "gpt-4-1106-preview", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, completionResponse("gpt-4-1106-preview", "not json at all"))
	})

	_, err := dec.Codegen(context.Background(), "p", decoder.GenOptions{NumSamples: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse json answer")
}

func TestCodegen_SamplingRequiresTemperature(t *testing.T) {
	dec := openai.New("http://unreachable.invalid", "k", "gpt-4o")
	dec.Temperature = 0

	_, err := dec.Codegen(context.Background(), "p", decoder.GenOptions{DoSample: true, NumSamples: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, decoder.ErrTemperature)
}

func TestDecoderIsChat(t *testing.T) {
	dec := openai.New("", "k", "gpt-4o")
	assert.False(t, dec.IsDirectCompletion())
	assert.Equal(t, "gpt-4o", dec.Name())
}
