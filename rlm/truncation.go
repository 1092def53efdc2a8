package rlm

import (
	"fmt"
	"strings"
)

// TruncateOutput keeps the head and tail of output when it is longer than
// maxChars. maxChars <= 0 disables truncation.
func TruncateOutput(output string, maxChars int) string {
	if maxChars <= 0 || len(output) <= maxChars {
		return output
	}
	half := maxChars / 2
	removed := len(output) - 2*half
	return output[:half] +
		fmt.Sprintf("\n\n[WARNING: Observation was truncated. %d characters were removed from the middle. "+
			"Print a smaller or more targeted result if you need the missing part.]\n\n", removed) +
		output[len(output)-half:]
}

// TruncateLines keeps the first and last lines of output when it has more than
// maxLines lines. maxLines <= 0 disables truncation.
func TruncateLines(output string, maxLines int) string {
	if maxLines <= 0 {
		return output
	}
	lines := strings.Split(output, "\n")
	if len(lines) <= maxLines {
		return output
	}

	headCount := maxLines / 2
	tailCount := maxLines - headCount
	omitted := len(lines) - headCount - tailCount

	return strings.Join(lines[:headCount], "\n") +
		fmt.Sprintf("\n[... %d lines omitted ...]\n", omitted) +
		strings.Join(lines[len(lines)-tailCount:], "\n")
}

// TruncateObservation applies character truncation, then line truncation.
func TruncateObservation(output string, maxChars, maxLines int) string {
	return TruncateLines(TruncateOutput(output, maxChars), maxLines)
}
