// Package prompt builds the prompts sent to inference backends: the
// instruction wrapper used by hosted chat APIs and the chat-template
// frames used by local completion servers.
package prompt

import "strings"

// WrapProblem builds the single-turn instruction message for hosted chat
// backends: the instruction line followed by the task in a fenced Python
// block.
func WrapProblem(instruction, problem string) string {
	return instruction + "\n```python\n" + strings.TrimSpace(problem) + "\n```"
}
