package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// magicSplitter marks where the assistant prefill is cut so the model
// continues generating inside the opened code fence. Any improbable
// string works; it never reaches the backend.
const magicSplitter = "-[[]]-this-is-really-our-highest-priority-[[]]-"

const chatUserFrame = `Please provide a self-contained Python script that solves the following problem in a markdown code block:
` + "```" + `
%s
` + "```" + `
`

const chatAssistantFrame = `Below is a Python script with a self-contained function that solves the problem and passes corresponding tests:
` + "```python" + `
%s
` + "```" + `
`

// renderFunc renders a user turn followed by an assistant turn in one
// model family's chat template.
type renderFunc func(user, assistant string) string

var families = map[string]renderFunc{
	"chatml":  renderChatML,
	"llama3":  renderLlama3,
	"mistral": renderMistralInst,
}

// Families returns the supported chat template family names, sorted.
func Families() []string {
	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// RenderChat renders the task as a templated conversation for a local
// completion server: a user turn asking for a solution and an assistant
// prefill that opens a Python code block. The rendered text is cut at
// the splitter inside the prefill, so the model's completion continues
// the open fence.
func RenderChat(family, problem string) (string, error) {
	render, ok := families[strings.ToLower(family)]
	if !ok {
		return "", fmt.Errorf("prompt: unknown chat template family %q (have %s)", family, strings.Join(Families(), ", "))
	}

	user := fmt.Sprintf(chatUserFrame, strings.TrimSpace(problem))
	assistant := fmt.Sprintf(chatAssistantFrame, magicSplitter)

	full := render(user, assistant)

	cut := strings.Index(full, magicSplitter)
	if cut < 0 {
		return "", fmt.Errorf("prompt: template family %q dropped the assistant prefill", family)
	}

	return full[:cut], nil
}

func renderChatML(user, assistant string) string {
	var b strings.Builder
	b.WriteString("<|im_start|>user\n")
	b.WriteString(user)
	b.WriteString("<|im_end|>\n")
	b.WriteString("<|im_start|>assistant\n")
	b.WriteString(assistant)
	b.WriteString("<|im_end|>\n")

	return b.String()
}

func renderLlama3(user, assistant string) string {
	var b strings.Builder
	b.WriteString("<|begin_of_text|><|start_header_id|>user<|end_header_id|>\n\n")
	b.WriteString(user)
	b.WriteString("<|eot_id|>")
	b.WriteString("<|start_header_id|>assistant<|end_header_id|>\n\n")
	b.WriteString(assistant)
	b.WriteString("<|eot_id|>")

	return b.String()
}

func renderMistralInst(user, assistant string) string {
	var b strings.Builder
	b.WriteString("<s>[INST] ")
	b.WriteString(strings.TrimSpace(user))
	b.WriteString(" [/INST] ")
	b.WriteString(assistant)
	b.WriteString("</s>")

	return b.String()
}
