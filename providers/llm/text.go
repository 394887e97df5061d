package llm

import (
	"strings"
)

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// firstLine trims the reply and keeps only its first line; models
// occasionally append commentary after the answer.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
