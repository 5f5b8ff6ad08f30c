package compliance

import (
	"strings"
	"unicode"

	"github.com/sells-group/advisory-guard/internal/citation"
)

// Sentences splits text into sentences. Lines are split first; within a line
// a sentence ends at '.', '!' or '?' followed by whitespace. A fragment made
// only of citation markers belongs to the sentence before it.
func Sentences(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		for _, s := range splitLine(line) {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if len(out) > 0 && strings.TrimSpace(citation.StripMarkers(s)) == "" {
				out[len(out)-1] += " " + s
				continue
			}
			out = append(out, s)
		}
	}
	return out
}

func splitLine(line string) []string {
	var parts []string
	runes := []rune(line)
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				parts = append(parts, string(runes[start:i+1]))
				start = i + 1
			}
		}
	}
	if start < len(runes) {
		parts = append(parts, string(runes[start:]))
	}
	return parts
}
