package provider

import (
	"fmt"
	"strings"

	"evalconsole/internal/model"
)

// PromptVersion is recorded in logs so answers can be traced to the prompt
// that produced them
const PromptVersion = "v1"

// BuildPrompts renders the system and user prompts for a question
func BuildPrompts(q model.Question) (system, user string) {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant for IT learners.\n")
	fmt.Fprintf(&sb, "Role: %s\n", q.User.Role)
	fmt.Fprintf(&sb, "Level: %s\n", q.User.Level)
	fmt.Fprintf(&sb, "Goal: %s\n", q.Context.Goal)
	fmt.Fprintf(&sb, "Stack: %s\n", q.Context.Stack)
	fmt.Fprintf(&sb, "Constraints: %s\n", q.Context.Constraints)
	fmt.Fprintf(&sb, "Domain: %s\n", q.Domain)
	sb.WriteString("Answer clearly with step-by-step reasoning when appropriate.")

	return sb.String(), strings.TrimSpace("Question:\n" + q.Text)
}
