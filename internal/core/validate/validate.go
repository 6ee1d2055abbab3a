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

// Package validate enforces the typed schema between pipeline stages. Every
// value that crosses a stage boundary passes through one of these validators,
// which either return a normalized copy (trimmed strings, canonical enum
// casing, clamped arrays) or fail with a SchemaError naming the offending
// path, e.g. "exercise[2].options[1]".
//
// Validators are total and idempotent: validating an already-validated value
// returns it unchanged.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
)

// ErrSchemaViolation is the single error kind raised by this package; match
// it with errors.Is.
var ErrSchemaViolation = errors.New("schema violation")

// SchemaError carries the path of the field that failed validation.
type SchemaError struct {
	Path string
	Msg  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema violation at %s: %s", e.Path, e.Msg)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaViolation
}

func violation(path, format string, args ...interface{}) error {
	return &SchemaError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// ContainsCyrillic reports whether s has at least one Cyrillic letter.
func ContainsCyrillic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}

// ContainsLatin reports whether s has at least one Latin letter.
func ContainsLatin(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}

// normalizeEnum matches value case-insensitively against the canonical set
// and returns the canonical spelling.
func normalizeEnum(path, value string, canonical []string) (string, error) {
	v := strings.TrimSpace(value)
	for _, c := range canonical {
		if strings.EqualFold(v, c) {
			return c, nil
		}
	}
	return "", violation(path, "%q is not one of %v", value, canonical)
}

// Timestamp checks the ordered-pair invariant.
func Timestamp(path string, ts model.Timestamp) (model.Timestamp, error) {
	if ts.Start < 0 {
		return ts, violation(path+".start", "negative start %v", ts.Start)
	}
	if ts.End < ts.Start {
		return ts, violation(path+".end", "end %v before start %v", ts.End, ts.Start)
	}
	return ts, nil
}

// Chunk trims the text and checks it is non-empty.
func Chunk(path string, c model.Chunk) (model.Chunk, error) {
	c.Text = strings.TrimSpace(c.Text)
	if c.Text == "" {
		return c, violation(path+".text", "empty chunk text")
	}
	ts, err := Timestamp(path+".timestamp", c.Timestamp)
	if err != nil {
		return c, err
	}
	c.Timestamp = ts
	return c, nil
}

// View normalizes a transcription view: trimmed full text, every chunk valid.
func View(path string, v model.TranscriptionView) (model.TranscriptionView, error) {
	v.FullText = strings.TrimSpace(v.FullText)
	if v.Chunks == nil {
		v.Chunks = []model.Chunk{}
	}
	for i := range v.Chunks {
		c, err := Chunk(fmt.Sprintf("%s.chunks[%d]", path, i), v.Chunks[i])
		if err != nil {
			return v, err
		}
		v.Chunks[i] = c
	}
	return v, nil
}

// Variants enforces the cross-view contract: plain carries no chunks and all
// three views share one fullText.
func Variants(v model.TranscriptionVariants) (model.TranscriptionVariants, error) {
	var err error
	if v.Plain, err = View("transcription.plain", v.Plain); err != nil {
		return v, err
	}
	if v.Phrases, err = View("transcription.phrases", v.Phrases); err != nil {
		return v, err
	}
	if v.Words, err = View("transcription.words", v.Words); err != nil {
		return v, err
	}
	v.FullText = strings.TrimSpace(v.FullText)

	if len(v.Plain.Chunks) != 0 {
		return v, violation("transcription.plain.chunks", "plain view must carry no chunks")
	}
	if v.Plain.FullText != v.FullText || v.Phrases.FullText != v.FullText || v.Words.FullText != v.FullText {
		return v, violation("transcription.fullText", "views disagree on fullText")
	}
	return v, nil
}

// Translation normalizes the translated track. Chunk texts may legitimately
// be untranslated fallback source lines, so only emptiness is rejected here;
// alignment against the phrase view is checked by ProcessedVideo.
func Translation(t model.Translation) (model.Translation, error) {
	t.FullText = strings.TrimSpace(t.FullText)
	if t.Chunks == nil {
		t.Chunks = []model.TranslatedChunk{}
	}
	for i := range t.Chunks {
		path := fmt.Sprintf("translation.chunks[%d]", i)
		t.Chunks[i].Text = strings.TrimSpace(t.Chunks[i].Text)
		t.Chunks[i].SourceText = strings.TrimSpace(t.Chunks[i].SourceText)
		if t.Chunks[i].Text == "" {
			return t, violation(path+".text", "empty translation text")
		}
		ts, err := Timestamp(path+".timestamp", t.Chunks[i].Timestamp)
		if err != nil {
			return t, err
		}
		t.Chunks[i].Timestamp = ts
	}
	return t, nil
}
