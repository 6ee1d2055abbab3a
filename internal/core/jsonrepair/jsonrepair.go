// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package jsonrepair extracts and repairs the "nearly JSON" payloads that
// text-completion models return. Model output is treated as untrusted text
// that usually contains one JSON value wrapped in prose, markdown fences, or
// small structural defects (trailing commas, smart quotes, unquoted line
// breaks). Every LLM response in the pipeline passes through this package
// before encoding/json sees it.
package jsonrepair

import (
	"encoding/json"
	"strings"
)

// ExtractArray returns the first balanced [...] region of in, or "" when none
// exists. Brackets inside JSON strings are ignored.
func ExtractArray(in string) string {
	return extractBalanced(in, '[', ']')
}

// ExtractObject returns the first balanced {...} region of in, or "" when
// none exists.
func ExtractObject(in string) string {
	return extractBalanced(in, '{', '}')
}

func extractBalanced(in string, open, closing byte) string {
	start := strings.IndexByte(in, open)
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(in); i++ {
		ch := in[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return in[start : i+1]
			}
		}
	}
	return ""
}

// Repair applies a tolerant cleanup pass over a JSON candidate: markdown
// fences and smart quotes are normalized, trailing commas removed, and raw
// control characters inside strings escaped. The result is not guaranteed to
// parse; it is guaranteed not to break input that already parsed.
func Repair(in string) string {
	s := strings.TrimSpace(in)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	s = replaceSmartQuotes(s)
	s = escapeControlCharsInStrings(s)
	s = removeTrailingCommas(s)
	return s
}

// ParseArray extracts, repairs, and unmarshals the first JSON array in the
// model output into out.
func ParseArray(raw string, out interface{}) error {
	candidate := ExtractArray(raw)
	if candidate == "" {
		candidate = raw
	}
	return json.Unmarshal([]byte(Repair(candidate)), out)
}

// ParseObject extracts, repairs, and unmarshals the first JSON object in the
// model output into out.
func ParseObject(raw string, out interface{}) error {
	candidate := ExtractObject(raw)
	if candidate == "" {
		candidate = raw
	}
	return json.Unmarshal([]byte(Repair(candidate)), out)
}

// replaceSmartQuotes rewrites typographic double quotes used as string
// delimiters into ASCII quotes. A string opened by a smart quote is closed
// by its typographic counterpart; smart quotes inside ASCII-quoted strings
// are left alone.
func replaceSmartQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	openedSmart := false
	escaped := false
	for _, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
				b.WriteRune(r)
			case r == '\\':
				escaped = true
				b.WriteRune(r)
			case openedSmart && (r == '”' || r == '»' || r == '“'):
				b.WriteRune('"')
				inString = false
			case !openedSmart && r == '"':
				b.WriteRune(r)
				inString = false
			default:
				b.WriteRune(r)
			}
			continue
		}
		switch r {
		case '“', '”', '«', '»':
			b.WriteRune('"')
			inString = true
			openedSmart = true
		case '"':
			b.WriteRune(r)
			inString = true
			openedSmart = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escapeControlCharsInStrings escapes raw newlines, carriage returns, and
// tabs that models sometimes emit inside string literals.
func escapeControlCharsInStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for _, r := range s {
		if !inString {
			if r == '"' {
				inString = true
			}
			b.WriteRune(r)
			continue
		}
		switch {
		case escaped:
			escaped = false
			b.WriteRune(r)
		case r == '\\':
			escaped = true
			b.WriteRune(r)
		case r == '"':
			inString = false
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// removeTrailingCommas drops commas that directly precede a closing bracket
// or brace, outside of strings.
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			b.WriteRune(r)
			continue
		}
		if r == '"' {
			inString = true
			b.WriteRune(r)
			continue
		}
		if r == ',' {
			j := i + 1
			for j < len(runes) && (runes[j] == ' ' || runes[j] == '\n' || runes[j] == '\r' || runes[j] == '\t') {
				j++
			}
			if j < len(runes) && (runes[j] == ']' || runes[j] == '}') {
				continue // drop the comma
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
