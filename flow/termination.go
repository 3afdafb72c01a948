package flow

import (
	"strings"
	"unicode"
)

// Sentinel is the literal token a participant appends to its final message
// to close a session.
const Sentinel = "TERMINATE"

// Terminated reports whether content ends the session: true iff the content
// stripped of trailing whitespace ends with the sentinel. Empty content
// never terminates.
func Terminated(content string) bool {
	trimmed := strings.TrimRightFunc(content, unicode.IsSpace)
	return strings.HasSuffix(trimmed, Sentinel)
}

// StripSentinel removes one trailing sentinel (plus surrounding trailing
// whitespace) from content. Summaries pass through here so that injecting
// them into a dependent stage's opening message cannot re-trigger that
// stage's termination predicate.
func StripSentinel(content string) string {
	trimmed := strings.TrimRightFunc(content, unicode.IsSpace)
	if strings.HasSuffix(trimmed, Sentinel) {
		trimmed = strings.TrimSuffix(trimmed, Sentinel)
		trimmed = strings.TrimRightFunc(trimmed, unicode.IsSpace)
	}
	return trimmed
}
