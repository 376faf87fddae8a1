// Package anthropic implements decoder.Decoder for the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/calebmor/genbench/pkg/decoder"
	"github.com/calebmor/genbench/pkg/llmclient"
	"github.com/calebmor/genbench/pkg/llmclient/usage"
	"github.com/calebmor/genbench/pkg/prompt"
)

// DefaultBaseURL is the base URL for the Anthropic API.
const DefaultBaseURL = "https://api.anthropic.com"

const messagesPath = "/v1/messages"

const instruction = "Please generate self-contained code to complete the following problem wrapped in a Python markdown block:"

// stopSequences closes the code fence early; "\nif " stops trailing
// demo code after the function under test.
var stopSequences = []string{"\n```\n", "\nif "}

var _ decoder.Decoder = (*Decoder)(nil)

// Decoder sends codegen requests to the Anthropic Messages API.
type Decoder struct {
	llmclient.Client
	decoder.Settings
}

// New creates a Decoder configured for the Anthropic API.
// An empty baseURL selects the public endpoint.
func New(baseURL, apiKey, model string) *Decoder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	d := &Decoder{Settings: decoder.DefaultSettings(model)}
	d.BaseURL = baseURL
	d.Auth = llmclient.Auth{
		Key:    apiKey,
		Header: "x-api-key",
	}
	d.Headers = map[string]string{
		"anthropic-version": "2023-06-01",
	}
	d.HeaderParser = llmclient.ParseAnthropicRateLimitHeaders

	return d
}

// Name returns the model identifier.
func (d *Decoder) Name() string { return d.Settings.Name }

// IsDirectCompletion is always false: the Messages API applies the
// model's chat formatting itself.
func (d *Decoder) IsDirectCompletion() bool { return false }

// Codegen requests up to batch-size completions, one API call per
// sample.
func (d *Decoder) Codegen(ctx context.Context, problem string, opts decoder.GenOptions) ([]string, error) {
	if err := decoder.ValidateSampling(d.Temperature, opts); err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	req := apiRequest{
		Model:     d.Settings.Name,
		MaxTokens: d.MaxNewTokens,
		Messages: []apiMessage{{
			Role:    "user",
			Content: prompt.WrapProblem(instruction, problem) + "\n",
		}},
		StopSequences: stopSequences,
	}
	if opts.DoSample {
		t := d.Temperature
		p := decoder.DefaultTopP
		req.Temperature = &t
		req.TopP = &p
	}

	batch := opts.SampleCount(d.BatchSize)
	outputs := make([]string, 0, batch)

	for range batch {
		var resp apiResponse
		if err := d.PostJSON(ctx, messagesPath, req, &resp); err != nil {
			return nil, fmt.Errorf("anthropic: %w", err)
		}

		d.Usage.Add(usage.TokenCount{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		})

		if len(resp.Content) == 0 {
			return nil, fmt.Errorf("anthropic: empty content in response")
		}

		outputs = append(outputs, resp.Content[0].Text)
	}

	return outputs, nil
}

// --- request types ---

type apiRequest struct {
	Model         string       `json:"model"`
	MaxTokens     int          `json:"max_tokens"`
	Messages      []apiMessage `json:"messages"`
	Temperature   *float64     `json:"temperature,omitempty"`
	TopP          *float64     `json:"top_p,omitempty"`
	StopSequences []string     `json:"stop_sequences,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- response types ---

type apiResponse struct {
	Content    []apiContent `json:"content"`
	StopReason string       `json:"stop_reason"`
	Usage      apiUsage     `json:"usage"`
}

type apiContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
