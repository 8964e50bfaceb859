// Package suggest produces subtask suggestions for a task by calling
// the Gemini API with a primary/fallback model tier and parsing the
// free-form response into an ordered list of short strings.
package suggest

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the fixed instruction template for a task. The
// description line is omitted when the task has no description.
func BuildPrompt(title, description string) string {
	var b strings.Builder
	b.WriteString("Break down this task into 3-5 smaller, actionable subtasks.\n\n")
	fmt.Fprintf(&b, "Task: %s\n", title)
	if description != "" {
		fmt.Fprintf(&b, "Description: %s\n", description)
	}
	b.WriteString("\nReturn a JSON array of strings only.\n")
	b.WriteString(`Example: ["Step 1","Step 2","Step 3"]`)
	return b.String()
}
