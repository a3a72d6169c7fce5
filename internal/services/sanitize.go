package services

import (
	"regexp"
	"strings"
)

// Placeholder replaces neutralized prompt-injection phrases.
const Placeholder = "[removed]"

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

	injectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)IGNORE\s+(ALL\s+)?PREVIOUS\s+INSTRUCTIONS?`),
		regexp.MustCompile(`(?i)SYSTEM:`),
		regexp.MustCompile(`(?i)ASSISTANT:`),
		regexp.MustCompile(`<\|.*?\|>`),
	}
)

// Sanitize strips control characters, neutralizes known injection phrases,
// trims the result and cuts it to limit runes. A limit of zero keeps the
// full text.
func Sanitize(text string, limit int) string {
	out := controlChars.ReplaceAllString(text, "")
	for _, re := range injectionPatterns {
		out = re.ReplaceAllLiteralString(out, Placeholder)
	}
	return truncate(strings.TrimSpace(out), limit)
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// stripFences removes a leading ``` or ```json marker and a trailing ```.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```JSON")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
