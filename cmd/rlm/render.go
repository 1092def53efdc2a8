package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/martinemde/rlm/rlm"
)

// eventRenderer prints the agent's event stream as a console trace. Child
// agents are indented by their depth.
type eventRenderer struct {
	out           io.Writer
	maxIterations int

	start     lipgloss.Style
	iteration lipgloss.Style
	label     lipgloss.Style
	code      lipgloss.Style
	answer    lipgloss.Style
	failure   lipgloss.Style
}

func newEventRenderer(out io.Writer, maxIterations int) *eventRenderer {
	return &eventRenderer{
		out:           out,
		maxIterations: maxIterations,
		start:         lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		iteration:     lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		label:         lipgloss.NewStyle().Faint(true),
		code:          lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		answer:        lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
		failure:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}

// Run renders events until the channel is closed.
func (r *eventRenderer) Run(events <-chan rlm.Event) {
	for event := range events {
		if text := r.Render(event); text != "" {
			fmt.Fprintln(r.out, text)
		}
	}
}

// Render formats a single event. Events without a console form render as "".
func (r *eventRenderer) Render(event rlm.Event) string {
	var text string
	switch event.Kind {
	case rlm.EventTaskStart:
		text = r.start.Render("RLM Start:") + " " + str(event.Data["task"])
	case rlm.EventIterationStart:
		text = "\n" + r.iteration.Render(fmt.Sprintf("Iteration %v/%d", event.Data["iteration"], r.maxIterations))
	case rlm.EventAssistantResponse:
		text = r.label.Render("LLM Response:") + "\n" + str(event.Data["text"])
	case rlm.EventCodeExecution:
		text = r.code.Render("Executing Code:") + "\n" + str(event.Data["code"])
	case rlm.EventObservation:
		text = r.label.Render("Output:") + "\n" + strings.TrimRight(str(event.Data["output"]), "\n")
	case rlm.EventReprompt:
		text = r.label.Render("No code or final answer; asking again.")
	case rlm.EventDelegation:
		text = r.iteration.Render("Delegating:") + " " + str(event.Data["task"])
	case rlm.EventFinalAnswer:
		text = r.answer.Render("Final Answer:") + " " + str(event.Data["answer"])
	case rlm.EventBudgetExhausted:
		text = r.failure.Render(rlm.ExhaustedMessage)
	case rlm.EventError:
		text = r.failure.Render("Error:") + " " + str(event.Data["error"])
	default:
		return ""
	}
	return indent(text, event.Depth)
}

func str(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func indent(text string, depth int) string {
	if depth <= 0 {
		return text
	}
	prefix := strings.Repeat("  ", depth) + "│ "
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
