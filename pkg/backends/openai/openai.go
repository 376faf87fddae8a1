// Package openai implements decoder.Decoder for OpenAI chat models via
// the official SDK.
package openai

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/calebmor/genbench/pkg/decoder"
	"github.com/calebmor/genbench/pkg/llmclient/usage"
	"github.com/calebmor/genbench/pkg/prompt"
)

const instruction = "Please generate self-contained code to complete the following problem wrapped in a Python markdown block:"

// jsonModeModel answers reliably only in JSON mode, returning the
// completed code under a "code" key instead of a markdown block.
const jsonModeModel = "gpt-4-1106-preview"

const jsonInstruction = "Please complete the following code snippet and return the fully completed code in a JSON object with a single key \"code\":"

var _ decoder.Decoder = (*Decoder)(nil)

// Decoder sends codegen requests to the OpenAI chat completions API.
type Decoder struct {
	decoder.Settings

	client openai.Client
	usage  usage.Tracker
}

// New creates a Decoder backed by the official OpenAI client.
// An empty baseURL selects the public endpoint.
func New(baseURL, apiKey, model string) *Decoder {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Decoder{
		Settings: decoder.DefaultSettings(model),
		client:   openai.NewClient(opts...),
	}
}

// Name returns the model identifier.
func (d *Decoder) Name() string { return d.Settings.Name }

// IsDirectCompletion is always false: the chat API applies the model's
// chat formatting itself.
func (d *Decoder) IsDirectCompletion() bool { return false }

// UsageTracker returns the decoder's token usage tracker.
func (d *Decoder) UsageTracker() *usage.Tracker { return &d.usage }

// Codegen requests up to batch-size completions in a single API call
// using the n parameter.
func (d *Decoder) Codegen(ctx context.Context, problem string, opts decoder.GenOptions) ([]string, error) {
	if err := decoder.ValidateSampling(d.Temperature, opts); err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	jsonMode := d.Settings.Name == jsonModeModel

	task := instruction
	if jsonMode {
		task = jsonInstruction
	}

	batch := opts.SampleCount(d.BatchSize)

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(d.Settings.Name),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt.WrapProblem(task, problem) + "\n"),
		},
		MaxTokens: openai.Int(int64(d.MaxNewTokens)),
		N:         openai.Int(int64(batch)),
	}
	if opts.DoSample {
		params.Temperature = openai.Float(d.Temperature)
		params.TopP = openai.Float(decoder.DefaultTopP)
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := d.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	d.usage.Add(usage.TokenCount{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	})

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices in response")
	}

	outputs := make([]string, 0, len(resp.Choices))

	for _, choice := range resp.Choices {
		content := choice.Message.Content
		if jsonMode {
			content, err = extractJSONCode(problem, content)
			if err != nil {
				return nil, fmt.Errorf("openai: %w", err)
			}
		}

		outputs = append(outputs, content)
	}

	return outputs, nil
}

// extractJSONCode pulls the completed code out of a JSON-mode answer
// and prefixes the original problem so the sample reads like a plain
// completion.
func extractJSONCode(problem, content string) (string, error) {
	var answer struct {
		Code string `json:"code"`
	}

	if err := json.Unmarshal([]byte(content), &answer); err != nil {
		return "", fmt.Errorf("parse json answer: %w", err)
	}

	return problem + "\n" + answer.Code, nil
}
