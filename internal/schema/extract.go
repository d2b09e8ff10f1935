// Package schema classifies incoming requests. A request carrying an embedded
// schema declaration is structured: the declaration is lifted out, its field
// order preserved, and the surrounding prose becomes the instruction. Anything
// else is unstructured and passes through untouched.
package schema

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/ZanzyTHEbar/leadscout/internal/conform"
)

// Extract scans raw for a schema declaration: a balanced JSON object with
// "format" set to "json" and a non-empty "fields" object whose values are all
// recognized type tags. The first such object wins; its fields and the
// surrounding prose are returned with structured true. Declarations that are
// malformed, carry a different format, or use an unknown type tag do not
// raise; the request simply stays unstructured, with the raw text as the
// instruction.
func Extract(raw string) (schema conform.FieldSchema, instruction string, structured bool) {
	for offset := 0; offset < len(raw); {
		rel := strings.IndexByte(raw[offset:], '{')
		if rel < 0 {
			break
		}
		start := offset + rel
		span, ok := balancedSpan(raw[start:])
		if !ok {
			offset = start + 1
			continue
		}
		if fields, ok := parseDeclaration(span); ok {
			instruction = strings.Join(strings.Fields(raw[:start]+" "+raw[start+len(span):]), " ")
			return fields, instruction, true
		}
		offset = start + 1
	}
	return nil, strings.TrimSpace(raw), false
}

// balancedSpan returns the balanced {...} prefix of s, honoring string
// literals in both quote styles so an apostrophe inside prose does not throw
// off the depth counter.
func balancedSpan(s string) (string, bool) {
	depth := 0
	var quote byte
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// parseDeclaration decodes a candidate span as a schema declaration. Spans
// written with single quotes are retried with quotes normalized, matching how
// requests are written in practice.
func parseDeclaration(span string) (conform.FieldSchema, bool) {
	if fields, ok := decodeDeclaration([]byte(span)); ok {
		return fields, true
	}
	if strings.ContainsRune(span, '\'') {
		swapped := strings.Map(func(r rune) rune {
			if r == '\'' {
				return '"'
			}
			return r
		}, span)
		return decodeDeclaration([]byte(swapped))
	}
	return nil, false
}

// decodeDeclaration walks the object token by token so the declared field
// order survives; a plain map decode would shuffle it.
func decodeDeclaration(data []byte) (conform.FieldSchema, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, false
	}
	var fields conform.FieldSchema
	sawFormat := false
	sawFields := false
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}
		switch key {
		case "format":
			var format string
			if err := dec.Decode(&format); err != nil || format != "json" {
				return nil, false
			}
			sawFormat = true
		case "fields":
			fields, ok = decodeFields(dec)
			if !ok {
				return nil, false
			}
			sawFields = true
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, false
			}
		}
	}
	if tok, err := dec.Token(); err != nil || tok != json.Delim('}') {
		return nil, false
	}
	if !sawFormat || !sawFields || len(fields) == 0 {
		return nil, false
	}
	return fields, true
}

func decodeFields(dec *json.Decoder) (conform.FieldSchema, bool) {
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, false
	}
	var fields conform.FieldSchema
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		name, ok := keyTok.(string)
		if !ok || name == "" {
			return nil, false
		}
		var tag string
		if err := dec.Decode(&tag); err != nil {
			return nil, false
		}
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if !conform.ValidFieldType(normalized) {
			return nil, false
		}
		fields = append(fields, conform.Field{Name: name, Type: conform.FieldType(normalized)})
	}
	if tok, err := dec.Token(); err != nil || tok != json.Delim('}') {
		return nil, false
	}
	return fields, true
}
