package leadscout

import (
	"strings"

	"github.com/ZanzyTHEbar/leadscout/internal/conform"
)

// The field-schema model lives in the conformance package so every layer
// shares one definition; these aliases keep the public API surface here.

// FieldType is a primitive type tag a caller can declare for an output field.
type FieldType = conform.FieldType

const (
	FieldString  = conform.FieldString
	FieldInteger = conform.FieldInteger
	FieldNumber  = conform.FieldNumber
	FieldBoolean = conform.FieldBoolean
)

// ValidFieldType reports whether tag is one of the recognized type tags.
func ValidFieldType(tag string) bool {
	return conform.ValidFieldType(tag)
}

// Field is a single declared output field.
type Field = conform.Field

// FieldSchema is an ordered mapping from field name to type tag. Order matters:
// serialized output keeps the declaration order from the caller's request.
type FieldSchema = conform.FieldSchema

// Request is one incoming query after schema extraction. It is immutable for
// the lifetime of a run.
type Request struct {
	RawText     string
	Schema      FieldSchema
	Instruction string
}

// Structured reports whether the caller asked for schema-conformant JSON output.
func (r Request) Structured() bool {
	return len(r.Schema) > 0
}

// ToolCatalogEntry describes one callable provider operation. InputSchema is
// kept opaque; only the Decision Engine's prompt ever renders it.
type ToolCatalogEntry struct {
	Name        string
	Description string
	InputSchema any
}

// ToolInvocation is one tool selection produced by the Decision Engine.
type ToolInvocation struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the uniform envelope the Tool Gateway produces for every call.
// A failed result always carries a non-empty Error.
type ToolResult struct {
	Success bool
	Data    any
	Error   string
	Tool    string
}

// Step pairs an invocation with its result in the run history.
type Step struct {
	Invocation ToolInvocation
	Result     ToolResult
}

// FinalAnswer is the terminal payload of a run before output finishing.
type FinalAnswer struct {
	Output    string
	Citations []string
}

// AgentOutcome is the tagged union produced by every Decision Engine step:
// either Continue (Invocation set) or Final (Final set), never both.
type AgentOutcome struct {
	Invocation *ToolInvocation
	Final      *FinalAnswer
}

// ContinueWith builds a Continue outcome.
func ContinueWith(inv ToolInvocation) AgentOutcome {
	return AgentOutcome{Invocation: &inv}
}

// FinalWith builds a Final outcome.
func FinalWith(output string, citations ...string) AgentOutcome {
	return AgentOutcome{Final: &FinalAnswer{Output: output, Citations: citations}}
}

// IsFinal reports whether the outcome terminates the loop.
func (o AgentOutcome) IsFinal() bool {
	return o.Final != nil
}

// SourceNames extracts a display list from citation strings, trimming blanks.
func SourceNames(citations []string) []string {
	out := make([]string, 0, len(citations))
	for _, c := range citations {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
