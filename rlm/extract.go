package rlm

import (
	"regexp"
	"sort"
	"strings"
)

// FinalAnswerMarker ends a run when it appears anywhere in a reply.
const FinalAnswerMarker = "Final Answer:"

// DefaultFenceTags are the language tags accepted on an opening code fence.
var DefaultFenceTags = []string{"javascript", "js", "code"}

// ParseFinalAnswer reports whether text contains the final answer marker and
// returns the trimmed text after its last occurrence.
func ParseFinalAnswer(text string) (string, bool) {
	idx := strings.LastIndex(text, FinalAnswerMarker)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(text[idx+len(FinalAnswerMarker):]), true
}

// ExtractCode returns the trimmed body of the first fenced block whose
// opening fence carries one of tags. Later blocks are ignored.
func ExtractCode(text string, tags []string) (string, bool) {
	return extractWith(fencePattern(tags), text)
}

func extractWith(pattern *regexp.Regexp, text string) (string, bool) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// fencePattern matches ```<tag> ... ``` across lines. Tags are tried longest
// first and must end at a word boundary, so "js" does not match "```jsx".
func fencePattern(tags []string) *regexp.Regexp {
	if len(tags) == 0 {
		tags = DefaultFenceTags
	}
	sorted := make([]string, len(tags))
	copy(sorted, tags)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	quoted := make([]string, len(sorted))
	for i, tag := range sorted {
		quoted[i] = regexp.QuoteMeta(tag)
	}
	return regexp.MustCompile("(?s)```(?:" + strings.Join(quoted, "|") + `)\b(.*?)` + "```")
}
