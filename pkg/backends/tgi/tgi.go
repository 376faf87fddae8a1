// Package tgi implements decoder.Decoder for a text-generation-inference
// server's generate endpoint.
package tgi

import (
	"context"
	"fmt"

	"github.com/calebmor/genbench/pkg/decoder"
	"github.com/calebmor/genbench/pkg/llmclient"
	"github.com/calebmor/genbench/pkg/llmclient/usage"
	"github.com/calebmor/genbench/pkg/prompt"
)

const generatePath = "/generate"

var _ decoder.Decoder = (*Decoder)(nil)

// Decoder sends codegen requests to a TGI generate endpoint. The server
// hosts a single model, so the model name is informational only. In
// direct mode the problem goes out as a raw prompt; otherwise it is
// rendered through a chat template.
type Decoder struct {
	llmclient.Client
	decoder.Settings

	chatTemplate string
}

// New creates a Decoder for the TGI server at baseURL. An empty
// chatTemplate selects direct completion mode, which extends the stop
// markers with the dataset's completion boundaries.
func New(baseURL, apiKey, model, dataset, chatTemplate string) (*Decoder, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("tgi: base URL is required")
	}

	d := &Decoder{
		Settings:     decoder.DefaultSettings(model),
		chatTemplate: chatTemplate,
	}
	d.BaseURL = baseURL
	d.Auth = llmclient.Auth{Key: apiKey}

	if chatTemplate == "" {
		extra, err := decoder.ExtraEOSForDirectCompletion(dataset)
		if err != nil {
			return nil, fmt.Errorf("tgi: %w", err)
		}

		d.EOS = append(d.EOS, extra...)
	} else {
		if _, err := prompt.RenderChat(chatTemplate, "probe"); err != nil {
			return nil, fmt.Errorf("tgi: %w", err)
		}

		d.EOS = append(d.EOS, decoder.ChatFenceEOS)
	}

	return d, nil
}

// Name returns the model identifier.
func (d *Decoder) Name() string { return d.Settings.Name }

// IsDirectCompletion reports whether prompts go out untemplated.
func (d *Decoder) IsDirectCompletion() bool { return d.chatTemplate == "" }

// Codegen requests up to batch-size completions, one generate call per
// sample. TGI truncates at server-side stop markers but includes the
// marker in generated_text, so outputs are trimmed client-side too.
func (d *Decoder) Codegen(ctx context.Context, problem string, opts decoder.GenOptions) ([]string, error) {
	if err := decoder.ValidateSampling(d.Temperature, opts); err != nil {
		return nil, fmt.Errorf("tgi: %w", err)
	}

	input := problem
	if d.chatTemplate != "" {
		var err error
		if input, err = prompt.RenderChat(d.chatTemplate, problem); err != nil {
			return nil, fmt.Errorf("tgi: %w", err)
		}
	}

	req := apiRequest{
		Inputs: input,
		Parameters: apiParameters{
			DoSample:     opts.DoSample,
			MaxNewTokens: d.MaxNewTokens,
			Stop:         d.EOS,
		},
	}
	// TGI rejects sampling knobs on greedy requests.
	if opts.DoSample {
		t := d.Temperature
		p := decoder.DefaultTopP
		req.Parameters.Temperature = &t
		req.Parameters.TopP = &p
	}

	batch := opts.SampleCount(d.BatchSize)
	outputs := make([]string, 0, batch)

	for range batch {
		var resp apiResponse
		if err := d.PostJSON(ctx, generatePath, req, &resp); err != nil {
			return nil, fmt.Errorf("tgi: %w", err)
		}

		d.Usage.Add(usage.TokenCount{
			OutputTokens: resp.Details.GeneratedTokens,
		})

		outputs = append(outputs, decoder.TrimAtEOS(resp.GeneratedText, d.EOS))
	}

	return outputs, nil
}

// --- request types ---

type apiRequest struct {
	Inputs     string        `json:"inputs"`
	Parameters apiParameters `json:"parameters"`
}

type apiParameters struct {
	DoSample     bool     `json:"do_sample"`
	MaxNewTokens int      `json:"max_new_tokens"`
	Temperature  *float64 `json:"temperature,omitempty"`
	TopP         *float64 `json:"top_p,omitempty"`
	Stop         []string `json:"stop,omitempty"`
}

// --- response types ---

type apiResponse struct {
	GeneratedText string     `json:"generated_text"`
	Details       apiDetails `json:"details"`
}

type apiDetails struct {
	FinishReason    string `json:"finish_reason"`
	GeneratedTokens int    `json:"generated_tokens"`
}
