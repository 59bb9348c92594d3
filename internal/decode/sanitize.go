// internal/decode/sanitize.go

// Package decode turns loosely formatted provider text into a NutritionResult.
package decode

import (
	"regexp"
	"strings"
)

var (
	openingFence  = regexp.MustCompile("^```(?:json)?\\s*")
	trailingComma = regexp.MustCompile(`(?:,\s*)+([}\]])`)
)

// Sanitize strips Markdown fences, a leading "json" tag, surrounding prose and
// trailing commas. The output is not guaranteed to be valid JSON. Repeated
// application returns the same text.
func Sanitize(text string) string {
	for {
		next := sanitizeOnce(text)
		if next == text {
			return next
		}
		text = next
	}
}

func sanitizeOnce(text string) string {
	t := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "\ufeff"))

	if strings.HasPrefix(t, "```") {
		t = openingFence.ReplaceAllString(t, "")
		if i := strings.Index(t, "```"); i >= 0 {
			t = t[:i] + t[i+3:]
		}
		t = strings.TrimSpace(t)
	}

	if len(t) >= 4 && strings.EqualFold(t[:4], "json") {
		rest := t[4:]
		if rest == "" || rest[0] == '{' || rest[0] == ' ' || rest[0] == '\n' || rest[0] == '\r' || rest[0] == '\t' {
			t = strings.TrimSpace(rest)
		}
	}

	if first, last := strings.Index(t, "{"), strings.LastIndex(t, "}"); first >= 0 && last > first {
		t = t[first : last+1]
	}

	return trailingComma.ReplaceAllString(t, "$1")
}
