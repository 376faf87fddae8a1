// Package vllm implements decoder.Decoder for a vLLM server's
// OpenAI-compatible completions endpoint.
package vllm

import (
	"context"
	"fmt"

	"github.com/calebmor/genbench/pkg/decoder"
	"github.com/calebmor/genbench/pkg/llmclient"
	"github.com/calebmor/genbench/pkg/llmclient/usage"
	"github.com/calebmor/genbench/pkg/prompt"
)

const completionsPath = "/v1/completions"

var _ decoder.Decoder = (*Decoder)(nil)

// Decoder sends codegen requests to a vLLM completions endpoint. In
// direct mode the problem goes out as a raw prompt; otherwise it is
// rendered through a chat template so instruction-tuned models see
// their native conversation format.
type Decoder struct {
	llmclient.Client
	decoder.Settings

	chatTemplate string
}

// New creates a Decoder for the vLLM server at baseURL. An empty
// chatTemplate selects direct completion mode, which extends the stop
// markers with the dataset's completion boundaries.
func New(baseURL, apiKey, model, dataset, chatTemplate string) (*Decoder, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("vllm: base URL is required")
	}

	d := &Decoder{
		Settings:     decoder.DefaultSettings(model),
		chatTemplate: chatTemplate,
	}
	d.BaseURL = baseURL
	d.Auth = llmclient.Auth{Key: apiKey}
	d.HeaderParser = llmclient.ParseOpenAIRateLimitHeaders

	if chatTemplate == "" {
		extra, err := decoder.ExtraEOSForDirectCompletion(dataset)
		if err != nil {
			return nil, fmt.Errorf("vllm: %w", err)
		}

		d.EOS = append(d.EOS, extra...)
	} else {
		if _, err := prompt.RenderChat(chatTemplate, "pass"); err != nil {
			return nil, fmt.Errorf("vllm: %w", err)
		}

		d.EOS = append(d.EOS, decoder.ChatFenceEOS)
	}

	return d, nil
}

// Name returns the model identifier.
func (d *Decoder) Name() string { return d.Settings.Name }

// IsDirectCompletion reports whether prompts go out untemplated.
func (d *Decoder) IsDirectCompletion() bool { return d.chatTemplate == "" }

// Codegen requests up to batch-size completions in a single API call
// using the n parameter. Outputs are trimmed at the earliest stop
// marker on the client side as well, since the server returns text up
// to and sometimes including the stop sequence.
func (d *Decoder) Codegen(ctx context.Context, problem string, opts decoder.GenOptions) ([]string, error) {
	if err := decoder.ValidateSampling(d.Temperature, opts); err != nil {
		return nil, fmt.Errorf("vllm: %w", err)
	}

	input := problem
	if d.chatTemplate != "" {
		var err error
		if input, err = prompt.RenderChat(d.chatTemplate, problem); err != nil {
			return nil, fmt.Errorf("vllm: %w", err)
		}
	}

	req := apiRequest{
		Model:       d.Settings.Name,
		Prompt:      input,
		N:           opts.SampleCount(d.BatchSize),
		MaxTokens:   d.MaxNewTokens,
		Temperature: d.Temperature,
		TopP:        d.Settings.TopP(opts.DoSample),
		Stop:        d.EOS,
	}
	if !opts.DoSample {
		req.Temperature = 0
	}

	var resp apiResponse
	if err := d.PostJSON(ctx, completionsPath, req, &resp); err != nil {
		return nil, fmt.Errorf("vllm: %w", err)
	}

	d.Usage.Add(usage.TokenCount{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	})

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("vllm: empty choices in response")
	}

	outputs := make([]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		outputs = append(outputs, decoder.TrimAtEOS(choice.Text, d.EOS))
	}

	return outputs, nil
}

// --- request types ---

type apiRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	N           int      `json:"n"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	Stop        []string `json:"stop,omitempty"`
}

// --- response types ---

type apiResponse struct {
	Choices []apiChoice `json:"choices"`
	Usage   apiUsage    `json:"usage"`
}

type apiChoice struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}
