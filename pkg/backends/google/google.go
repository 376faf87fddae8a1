// Package google implements decoder.Decoder for the Gemini API
// (generateContent endpoint).
package google

import (
	"context"
	"fmt"

	"github.com/calebmor/genbench/pkg/decoder"
	"github.com/calebmor/genbench/pkg/llmclient"
	"github.com/calebmor/genbench/pkg/llmclient/usage"
	"github.com/calebmor/genbench/pkg/prompt"
)

// DefaultBaseURL is the base URL for the Gemini API.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

const instruction = "Please generate self-contained code to complete the following problem wrapped in a Python markdown block:"

// NoResponse stands in for a sample when the API returns no candidate
// parts, which happens when all candidates are filtered. Emitting a
// placeholder keeps sample counts aligned across tasks.
const NoResponse = "NO_RESPONSE"

const retryAttempts = 5

// safetyCategories are all disabled: benchmark problems routinely trip
// content filters on harmless code.
var safetyCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

var _ decoder.Decoder = (*Decoder)(nil)

// Decoder sends codegen requests to the Gemini generateContent API.
type Decoder struct {
	llmclient.Client
	decoder.Settings
}

// New creates a Decoder configured for the Gemini API.
// An empty baseURL selects the public endpoint.
func New(baseURL, apiKey, model string) *Decoder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	d := &Decoder{Settings: decoder.DefaultSettings(model)}
	d.BaseURL = baseURL
	d.Auth = llmclient.Auth{
		Key:    apiKey,
		Header: "x-goog-api-key",
	}

	return d
}

// Name returns the model identifier.
func (d *Decoder) Name() string { return d.Settings.Name }

// IsDirectCompletion is always false: generateContent applies the
// model's chat formatting itself.
func (d *Decoder) IsDirectCompletion() bool { return false }

// Codegen requests up to batch-size completions, one API call per
// sample. Calls are retried on rate limits and transport failures;
// filtered responses become NoResponse placeholders.
func (d *Decoder) Codegen(ctx context.Context, problem string, opts decoder.GenOptions) ([]string, error) {
	if err := decoder.ValidateSampling(d.Temperature, opts); err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}

	req := apiRequest{
		Contents: []apiContent{{
			Role:  "user",
			Parts: []apiPart{{Text: prompt.WrapProblem(instruction, problem) + "\n"}},
		}},
		GenerationConfig: apiGenerationConfig{
			MaxOutputTokens: d.MaxNewTokens,
			CandidateCount:  1,
		},
	}
	if opts.DoSample {
		t := d.Temperature
		p := decoder.DefaultTopP
		req.GenerationConfig.Temperature = &t
		req.GenerationConfig.TopP = &p
	}
	for _, category := range safetyCategories {
		req.SafetySettings = append(req.SafetySettings, apiSafetySetting{
			Category:  category,
			Threshold: "BLOCK_NONE",
		})
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", d.Settings.Name)

	batch := opts.SampleCount(d.BatchSize)
	outputs := make([]string, 0, batch)

	for range batch {
		var resp apiResponse

		err := llmclient.DoWithRetry(ctx, retryAttempts, func() error {
			resp = apiResponse{}
			return d.PostJSON(ctx, path, req, &resp)
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("google: %w", err)
		}

		d.Usage.Add(usage.TokenCount{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		})

		outputs = append(outputs, candidateText(resp))
	}

	return outputs, nil
}

// candidateText extracts the first candidate's text, or NoResponse when
// the API filtered everything out.
func candidateText(resp apiResponse) string {
	if len(resp.Candidates) == 0 {
		return NoResponse
	}

	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == "" {
		return NoResponse
	}

	return parts[0].Text
}

// --- request types ---

type apiRequest struct {
	Contents         []apiContent        `json:"contents"`
	GenerationConfig apiGenerationConfig `json:"generationConfig"`
	SafetySettings   []apiSafetySetting  `json:"safetySettings,omitempty"`
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text string `json:"text"`
}

type apiGenerationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens"`
	CandidateCount  int      `json:"candidateCount"`
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
}

type apiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// --- response types ---

type apiResponse struct {
	Candidates    []apiCandidate   `json:"candidates"`
	UsageMetadata apiUsageMetadata `json:"usageMetadata"`
}

type apiCandidate struct {
	Content      apiContent `json:"content"`
	FinishReason string     `json:"finishReason"`
}

type apiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}
