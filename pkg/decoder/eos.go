package decoder

import (
	"fmt"
	"strings"
)

// DefaultEOS are the end-of-sequence markers applied to every decoder.
// Generated text is truncated at the first occurrence of any of them.
var DefaultEOS = []string{
	"<|endoftext|>",
	"<|endofmask|>",
	"</s>",
	"\nif __name__",
	"\ndef main(",
	"\nprint(",
}

// ChatFenceEOS closes the markdown code block opened by chat-style
// prompts. Chat decoders append it to their EOS set.
const ChatFenceEOS = "\n```\n"

// ExtraEOSForDirectCompletion returns the additional stop markers used
// when a model completes raw code with no chat template. The markers are
// dataset-specific: they mark the start of top-level statements that
// follow the function under test.
func ExtraEOSForDirectCompletion(dataset string) ([]string, error) {
	if strings.EqualFold(dataset, "bigcodebench") {
		return []string{"\ndef ", "\nclass ", "\nimport ", "\nfrom ", "\nassert "}, nil
	}

	return nil, fmt.Errorf("unknown dataset: %s", dataset)
}

// TrimAtEOS truncates text at the earliest occurrence of any EOS marker
// and normalizes tabs to four spaces, matching the sample format the
// evaluation side expects. Text without any marker is returned whole
// (normalized).
func TrimAtEOS(text string, eos []string) string {
	cut := len(text)
	for _, marker := range eos {
		if idx := strings.Index(text, marker); idx >= 0 && idx < cut {
			cut = idx
		}
	}

	return strings.ReplaceAll(text[:cut], "\t", "    ")
}
