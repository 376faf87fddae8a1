// Package mistral implements decoder.Decoder for the Mistral chat
// completions API.
package mistral

import (
	"context"
	"fmt"

	"github.com/calebmor/genbench/pkg/decoder"
	"github.com/calebmor/genbench/pkg/llmclient"
	"github.com/calebmor/genbench/pkg/llmclient/usage"
	"github.com/calebmor/genbench/pkg/prompt"
)

// DefaultBaseURL is the base URL for the Mistral API.
const DefaultBaseURL = "https://api.mistral.ai"

const chatCompletionsPath = "/v1/chat/completions"

const instruction = "Please generate self-contained code to complete the following problem wrapped in a Python markdown block:"

var _ decoder.Decoder = (*Decoder)(nil)

// Decoder sends codegen requests to the Mistral chat completions API.
type Decoder struct {
	llmclient.Client
	decoder.Settings
}

// New creates a Decoder configured for the Mistral API.
// An empty baseURL selects the public endpoint.
func New(baseURL, apiKey, model string) *Decoder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	d := &Decoder{Settings: decoder.DefaultSettings(model)}
	d.BaseURL = baseURL
	d.Auth = llmclient.Auth{Key: apiKey}
	d.HeaderParser = llmclient.ParseOpenAIRateLimitHeaders

	return d
}

// Name returns the model identifier.
func (d *Decoder) Name() string { return d.Settings.Name }

// IsDirectCompletion is always false: the chat API applies the model's
// chat formatting itself.
func (d *Decoder) IsDirectCompletion() bool { return false }

// Codegen requests up to batch-size completions, one API call per
// sample.
func (d *Decoder) Codegen(ctx context.Context, problem string, opts decoder.GenOptions) ([]string, error) {
	if err := decoder.ValidateSampling(d.Temperature, opts); err != nil {
		return nil, fmt.Errorf("mistral: %w", err)
	}

	req := apiRequest{
		Model:     d.Settings.Name,
		MaxTokens: d.MaxNewTokens,
		Messages: []apiMessage{{
			Role:    "user",
			Content: prompt.WrapProblem(instruction, problem) + "\n",
		}},
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
		if err := d.PostJSON(ctx, chatCompletionsPath, req, &resp); err != nil {
			return nil, fmt.Errorf("mistral: %w", err)
		}

		d.Usage.Add(usage.TokenCount{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		})

		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("mistral: empty choices in response")
		}

		outputs = append(outputs, resp.Choices[0].Message.Content)
	}

	return outputs, nil
}

// --- request types ---

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	Messages    []apiMessage `json:"messages"`
	Temperature *float64     `json:"temperature,omitempty"`
	TopP        *float64     `json:"top_p,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- response types ---

type apiResponse struct {
	Choices []apiChoice `json:"choices"`
	Usage   apiUsage    `json:"usage"`
}

type apiChoice struct {
	Message      apiMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}
