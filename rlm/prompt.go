package rlm

import (
	"fmt"
	"strings"
)

const (
	// ObservationPrefix starts every user turn that carries sandbox output.
	ObservationPrefix = "Observation:\n"

	// RepromptMessage is sent when a reply has neither code nor a final answer.
	RepromptMessage = "I did not see any code to execute or a 'Final Answer'. Please write JavaScript code or provide a Final Answer."
)

// BuildSystemPrompt renders the protocol prompt for cfg. The first fence tag is
// the one the model is told to use; Instructions are appended last.
func BuildSystemPrompt(cfg Config) string {
	tag := DefaultFenceTags[0]
	if len(cfg.FenceTags) > 0 {
		tag = cfg.FenceTags[0]
	}

	var sb strings.Builder
	sb.WriteString("You are a Recursive Language Model (RLM).\n")
	sb.WriteString("You can solve tasks by writing JavaScript code.\n")
	sb.WriteString("You have access to a persistent JavaScript environment: variables and functions you define stay available in later code blocks.\n")
	fmt.Fprintf(&sb, "Execute code by wrapping it in ```%s ... ``` blocks.\n", tag)
	sb.WriteString("The output of your code will be returned to you as an \"Observation\".\n")
	sb.WriteString("\nIMPORTANT:\n")
	sb.WriteString("1. You can use the object `rlm` in your code to call `rlm.completion(\"sub-task\")`.\n")
	sb.WriteString("   It returns the answer to the sub-task as a string. This allows you to recursively solve sub-problems!\n")
	fmt.Fprintf(&sb, "2. When you have the answer, output it clearly starting with %q.\n", FinalAnswerMarker)
	sb.WriteString("3. If you need to print something to see it, use `print()` or `console.log()`.\n")

	if cfg.Instructions != "" {
		sb.WriteString("\n# Additional Instructions\n\n")
		sb.WriteString(cfg.Instructions)
		sb.WriteString("\n")
	}
	return sb.String()
}
