package tgi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/calebmor/genbench/pkg/backends/tgi"
	"github.com/calebmor/genbench/pkg/decoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, chatTemplate string, handler http.HandlerFunc) *tgi.Decoder {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	dec, err := tgi.New(srv.URL, "", "starcoder-test", "bigcodebench", chatTemplate)
	require.NoError(t, err)

	return dec
}

func generateResponse(text string, tokens int) map[string]any {
	return map[string]any{
		"generated_text": text,
		"details":        map[string]any{"finish_reason": "stop_sequence", "generated_tokens": tokens},
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := tgi.New("", "", "m", "bigcodebench", "")
	require.Error(t, err)

	_, err = tgi.New("http://localhost:8080", "", "m", "mbpp", "")
	require.Error(t, err, "unknown dataset must be rejected in direct mode")
}

func TestCodegen_DirectGreedy(t *testing.T) {
	dec := newTestServer(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "def add(a, b):\n", req["inputs"])

		params, _ := req["parameters"].(map[string]any)
		assert.Equal(t, false, params["do_sample"])
		assert.EqualValues(t, 1280, params["max_new_tokens"])
		assert.NotContains(t, params, "temperature")
		assert.NotContains(t, params, "top_p")

		stop, ok := params["stop"].([]any)
		require.True(t, ok)
		assert.Contains(t, stop, "</s>")
		assert.Contains(t, stop, "\nclass ")

		require.NoError(t, json.NewEncoder(w).Encode(generateResponse("    return a + b", 7)))
	})

	require.True(t, dec.IsDirectCompletion())

	samples, err := dec.Codegen(context.Background(), "def add(a, b):\n", decoder.GenOptions{NumSamples: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"    return a + b"}, samples)

	total := dec.Usage.Total()
	assert.Equal(t, 7, total.OutputTokens)
}

func TestCodegen_SamplingParams(t *testing.T) {
	dec := newTestServer(t, "", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		params, _ := req["parameters"].(map[string]any)
		assert.Equal(t, true, params["do_sample"])
		assert.InDelta(t, 0.8, params["temperature"], 1e-9)
		assert.InDelta(t, 0.95, params["top_p"], 1e-9)

		require.NoError(t, json.NewEncoder(w).Encode(generateResponse("ok", 1)))
	})
	dec.Temperature = 0.8

	_, err := dec.Codegen(context.Background(), "p", decoder.GenOptions{DoSample: true, NumSamples: 1})
	require.NoError(t, err)
}

func TestCodegen_BatchLoops(t *testing.T) {
	calls := 0
	dec := newTestServer(t, "", func(w http.ResponseWriter, _ *http.Request) {
		calls++
		require.NoError(t, json.NewEncoder(w).Encode(generateResponse("sample", 2)))
	})
	dec.Temperature = 0.8
	dec.BatchSize = 3

	samples, err := dec.Codegen(context.Background(), "p", decoder.GenOptions{DoSample: true, NumSamples: 8})
	require.NoError(t, err)
	assert.Len(t, samples, 3)
	assert.Equal(t, 3, calls)
}

func TestCodegen_ChatTemplateMode(t *testing.T) {
	dec := newTestServer(t, "llama3", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		inputs, _ := req["inputs"].(string)
		assert.True(t, strings.HasPrefix(inputs, "<|begin_of_text|>"))
		assert.True(t, strings.HasSuffix(inputs, "```python\n"))

		require.NoError(t, json.NewEncoder(w).Encode(generateResponse("return 1\n```\ntrailing", 4)))
	})

	require.False(t, dec.IsDirectCompletion())

	samples, err := dec.Codegen(context.Background(), "def one():\n", decoder.GenOptions{NumSamples: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"return 1"}, samples)
}

func TestCodegen_HTTPError(t *testing.T) {
	dec := newTestServer(t, "", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"Input validation error"}`))
	})

	_, err := dec.Codegen(context.Background(), "p", decoder.GenOptions{NumSamples: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}
