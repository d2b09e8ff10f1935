// Package conform guarantees that raw model output is shaped into a value
// matching a caller-declared field schema: exactly the declared field set,
// every field present, coerced to its declared type or null.
package conform

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
)

// truthyVocabulary are the strings accepted as boolean true (case-insensitive).
var truthyVocabulary = map[string]bool{
	"true": true, "yes": true, "1": true, "on": true,
}

// Normalize shapes raw into a mapping with exactly schema's field set. The
// pipeline tries, in order: direct JSON parse, fenced-block extraction,
// balanced-brace extraction, then the text-mining fallback. The first stage
// that yields a mapping wins; its candidate is coerced per field.
func Normalize(raw string, schema FieldSchema) map[string]any {
	if candidate, ok := parseCandidate(raw); ok {
		return coerceAll(candidate, schema)
	}
	return mineAll(raw, schema)
}

// Serialize renders values as a canonical JSON string with fields in schema
// declaration order. Values absent from the map serialize as null.
func Serialize(schema FieldSchema, values map[string]any) string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range schema {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(f.Name)
		buf.Write(name)
		buf.WriteByte(':')
		val, err := json.Marshal(values[f.Name])
		if err != nil {
			val = []byte("null")
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.String()
}

// NullValues returns a mapping with every schema field set to null.
func NullValues(schema FieldSchema) map[string]any {
	out := make(map[string]any, len(schema))
	for _, f := range schema {
		out[f.Name] = nil
	}
	return out
}

// parseCandidate runs the three JSON-extraction stages and returns the first
// decoded object.
func parseCandidate(raw string) (map[string]any, bool) {
	if m, ok := decodeObject(raw); ok {
		return m, true
	}
	if block, ok := fencedBlock(raw); ok {
		if m, ok := decodeObject(block); ok {
			return m, true
		}
	}
	if span, ok := FirstJSONObject(raw); ok {
		if m, ok := decodeObject(span); ok {
			return m, true
		}
	}
	return nil, false
}

func decodeObject(s string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

// fencedBlock returns the contents of the first code fence, with or without a
// language tag.
func fencedBlock(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	rest := s[start+3:]
	// Skip an optional language tag up to the first newline.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine != "" && !strings.HasPrefix(firstLine, "{") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// FirstJSONObject scans for the first balanced {...} span using a bracket
// depth counter, honoring string literals and escapes. It is the single
// brace-matching routine shared by every component that digs JSON out of
// surrounding prose.
func FirstJSONObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// coerceAll applies per-field type coercion, filling missing fields with null.
func coerceAll(candidate map[string]any, schema FieldSchema) map[string]any {
	out := make(map[string]any, len(schema))
	for _, f := range schema {
		v, present := candidate[f.Name]
		if !present {
			out[f.Name] = nil
			continue
		}
		out[f.Name] = Coerce(f.Type, v)
	}
	return out
}

// Coerce converts v to the declared field type, or nil when no sensible
// conversion exists.
func Coerce(t FieldType, v any) any {
	if v == nil {
		return nil
	}
	switch t {
	case FieldString:
		return stringify(v)
	case FieldInteger:
		return coerceInteger(v)
	case FieldNumber:
		return coerceNumber(v)
	case FieldBoolean:
		return coerceBoolean(v)
	}
	return v
}

func stringify(v any) any {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(b)
	}
}

func coerceInteger(v any) any {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int(n)
		}
		return nil
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
			return int(f)
		}
		return nil
	}
	return nil
}

func coerceNumber(v any) any {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		s := strings.TrimSpace(n)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return evaluateNumeric(s)
	}
	return nil
}

// evaluateNumeric gives arithmetic-looking strings ("3*12", "1e3/2") one last
// chance before nulling the field. Anything with letters is rejected up front
// so ordinary prose never reaches the evaluator.
func evaluateNumeric(s string) any {
	if s == "" || strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && !strings.ContainsRune("+-*/(). eE", r)
	}) >= 0 {
		return nil
	}
	expr, err := govaluate.NewEvaluableExpression(s)
	if err != nil {
		return nil
	}
	v, err := expr.Evaluate(nil)
	if err != nil {
		return nil
	}
	if f, ok := v.(float64); ok {
		return f
	}
	return nil
}

func coerceBoolean(v any) any {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if truthyVocabulary[strings.ToLower(strings.TrimSpace(b))] {
			return true
		}
		return nil
	}
	return nil
}

// mineAll builds a schema-conformant mapping from free text when no JSON was
// found anywhere in the output.
func mineAll(raw string, schema FieldSchema) map[string]any {
	lowered := strings.ToLower(raw)
	out := make(map[string]any, len(schema))
	for _, f := range schema {
		out[f.Name] = Coerce(f.Type, mineField(f.Name, raw, lowered))
	}
	return out
}
