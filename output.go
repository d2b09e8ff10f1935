package leadscout

import (
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/leadscout/internal/conform"
)

// citationPatterns recognize an existing source attribution anywhere in the
// response text.
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sources?:\s*\S`),
	regexp.MustCompile(`(?i)based on:\s*\S`),
	regexp.MustCompile(`(?i)reference:\s*\S`),
}

// conformOutput shapes raw backend output into the canonical JSON string for
// a structured request.
func conformOutput(raw string, schema FieldSchema) string {
	return conform.Serialize(schema, conform.Normalize(raw, schema))
}

// ensureCitations guarantees plain-text responses carry a source line. It
// reports whether a line was injected.
func ensureCitations(text string, citations []string) (string, bool) {
	if text == "" {
		return text, false
	}
	for _, p := range citationPatterns {
		if p.MatchString(text) {
			return text, false
		}
	}
	if sources := SourceNames(citations); len(sources) > 0 {
		return text + "\n\nSources: " + strings.Join(sources, ", "), true
	}
	return text + "\n\nSource: Web search results", true
}

// degradedOutput is the forced fallback for an exhausted budget: all fields
// null for structured requests, a fixed apology otherwise.
func degradedOutput(req Request) string {
	if req.Structured() {
		return conform.Serialize(req.Schema, conform.NullValues(req.Schema))
	}
	return "Request timed out. Please try a simpler query."
}
