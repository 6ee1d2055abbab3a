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

// Package validate enforces the typed schema between pipeline stages. This
// file holds the validators for the AI-produced content records: the
// analysis, the exercise set with its composition and script rules, and the
// composite ProcessedVideo checked immediately before persistence.
package validate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
)

// Catalog is the closed topic catalog. Lookups are case-insensitive; stored
// values use the catalog's canonical casing.
type Catalog struct {
	canonical []string
	byLower   map[string]string
}

// NewCatalog builds a catalog from the configured topic list.
func NewCatalog(topics []string) *Catalog {
	c := &Catalog{
		canonical: make([]string, 0, len(topics)),
		byLower:   make(map[string]string, len(topics)),
	}
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		c.canonical = append(c.canonical, t)
		c.byLower[strings.ToLower(t)] = t
	}
	return c
}

// Contains reports whether topic (canonical casing) is in the catalog.
func (c *Catalog) Contains(topic string) bool {
	got, ok := c.byLower[strings.ToLower(topic)]
	return ok && got == topic
}

// Canonical returns the catalog entries in order.
func (c *Catalog) Canonical() []string {
	return c.canonical
}

// NormalizeTopics maps topics through the catalog, drops unknown entries,
// clamps to MaxTopics, and substitutes the first three catalog entries when
// nothing survives, so downstream consumers always see a non-empty list.
func (c *Catalog) NormalizeTopics(topics []string) []string {
	out := make([]string, 0, model.MaxTopics)
	seen := make(map[string]bool)
	for _, t := range topics {
		canonical, ok := c.byLower[strings.ToLower(strings.TrimSpace(t))]
		if !ok {
			slog.Warn("dropping unknown topic", "topic", t)
			continue
		}
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
		if len(out) == model.MaxTopics {
			break
		}
	}
	if len(out) == 0 {
		n := model.MaxTopics
		if n > len(c.canonical) {
			n = len(c.canonical)
		}
		out = append(out, c.canonical[:n]...)
		slog.Warn("no valid topics survived; substituting catalog head", "topics", out)
	}
	return out
}

// Analysis normalizes the analysis record: canonical enum casing, topics
// through the catalog.
func Analysis(a model.Analysis, catalog *Catalog) (model.Analysis, error) {
	var err error
	if a.CEFRLevel, err = normalizeEnum("analysis.cefrLevel", a.CEFRLevel, model.CEFRLevels); err != nil {
		return a, err
	}
	if a.SpeechSpeed, err = normalizeEnum("analysis.speechSpeed", a.SpeechSpeed, model.SpeechSpeeds); err != nil {
		return a, err
	}
	if a.GrammarComplexity, err = normalizeEnum("analysis.grammarComplexity", a.GrammarComplexity, model.GrammarComplexities); err != nil {
		return a, err
	}
	if a.VocabularyComplexity, err = normalizeEnum("analysis.vocabularyComplexity", a.VocabularyComplexity, model.VocabularyComplexities); err != nil {
		return a, err
	}
	a.Topics = catalog.NormalizeTopics(a.Topics)
	return a, nil
}

// Exercise normalizes a single exercise and enforces the per-variant rules.
func Exercise(path string, e model.Exercise) (model.Exercise, error) {
	e.Type = strings.TrimSpace(e.Type)
	e.Word = strings.TrimSpace(e.Word)
	e.Question = strings.TrimSpace(e.Question)

	switch e.Type {
	case model.ExerciseVocabulary, model.ExerciseTopic, model.ExerciseStatementCheck:
	default:
		return e, violation(path+".type", "unknown exercise type %q", e.Type)
	}

	if e.Question == "" {
		return e, violation(path+".question", "empty question")
	}
	if !ContainsCyrillic(e.Question) {
		return e, violation(path+".question", "question must contain Cyrillic")
	}

	if len(e.Options) != 3 && len(e.Options) != 4 {
		return e, violation(path+".options", "expected 3 or 4 options, got %d", len(e.Options))
	}
	for i := range e.Options {
		e.Options[i] = strings.TrimSpace(e.Options[i])
		if e.Options[i] == "" {
			return e, violation(fmt.Sprintf("%s.options[%d]", path, i), "empty option")
		}
	}
	if e.CorrectAnswer < 0 || e.CorrectAnswer >= len(e.Options) {
		return e, violation(path+".correctAnswer", "index %d out of range for %d options", e.CorrectAnswer, len(e.Options))
	}

	if e.Type == model.ExerciseVocabulary {
		if e.Word == "" {
			return e, violation(path+".word", "vocabulary exercise without a word")
		}
		// Script rule: the word and its options come from disjoint alphabets.
		switch {
		case ContainsLatin(e.Word):
			for i, opt := range e.Options {
				if !ContainsCyrillic(opt) {
					return e, violation(fmt.Sprintf("%s.options[%d]", path, i), "Latin word requires Cyrillic options")
				}
			}
		case ContainsCyrillic(e.Word):
			for i, opt := range e.Options {
				if !ContainsLatin(opt) {
					return e, violation(fmt.Sprintf("%s.options[%d]", path, i), "Cyrillic word requires Latin options")
				}
			}
		}
	} else if e.Word != "" {
		e.Word = "" // word is a vocabulary-only field
	}

	return e, nil
}

// ExerciseSet normalizes each exercise and then enforces the catalog
// composition: 3-4 vocabulary, exactly 1 topic, at least 1 statement check,
// 5 or 6 in total.
func ExerciseSet(exercises []model.Exercise) ([]model.Exercise, error) {
	out := make([]model.Exercise, len(exercises))
	counts := map[string]int{}
	for i, e := range exercises {
		norm, err := Exercise(fmt.Sprintf("exercise[%d]", i), e)
		if err != nil {
			return nil, err
		}
		out[i] = norm
		counts[norm.Type]++
	}

	if n := counts[model.ExerciseVocabulary]; n < 3 || n > 4 {
		return nil, violation("exercises", "expected 3 or 4 vocabulary exercises, got %d", n)
	}
	if n := counts[model.ExerciseTopic]; n != 1 {
		return nil, violation("exercises", "expected exactly 1 topic exercise, got %d", n)
	}
	if n := counts[model.ExerciseStatementCheck]; n < 1 {
		return nil, violation("exercises", "expected at least 1 statement check, got %d", n)
	}
	if len(out) < 5 || len(out) > 6 {
		return nil, violation("exercises", "expected 5 or 6 exercises, got %d", len(out))
	}
	return out, nil
}

// ProcessedVideo validates the composite record before persistence. The
// exercise set may be empty (the no-exercises pipeline mode); when present
// it must satisfy the full composition rules. The translation must align
// 1:1 with the phrase view, timestamps copied bit-identical.
func ProcessedVideo(p model.ProcessedVideo, catalog *Catalog) (model.ProcessedVideo, error) {
	p.VideoName = strings.TrimSpace(p.VideoName)
	if p.VideoName == "" {
		return p, violation("videoName", "empty video name")
	}
	p.VideoURL = strings.TrimSpace(p.VideoURL)
	if p.VideoURL == "" {
		return p, violation("videoUrl", "empty video URL")
	}
	if p.DurationSeconds != nil && *p.DurationSeconds < 0 {
		return p, violation("durationSeconds", "negative duration %d", *p.DurationSeconds)
	}

	var err error
	if p.Transcription, err = Variants(p.Transcription); err != nil {
		return p, err
	}
	if p.Translation, err = Translation(p.Translation); err != nil {
		return p, err
	}
	if len(p.Translation.Chunks) != len(p.Transcription.Phrases.Chunks) {
		return p, violation("translation.chunks", "count %d does not match phrase view count %d",
			len(p.Translation.Chunks), len(p.Transcription.Phrases.Chunks))
	}
	for i := range p.Translation.Chunks {
		if p.Translation.Chunks[i].Timestamp != p.Transcription.Phrases.Chunks[i].Timestamp {
			return p, violation(fmt.Sprintf("translation.chunks[%d].timestamp", i), "timestamp differs from phrase chunk")
		}
	}

	if p.Analysis, err = Analysis(p.Analysis, catalog); err != nil {
		return p, err
	}
	p.IsAdultContent = p.Analysis.IsAdultContent

	if p.Exercises == nil {
		p.Exercises = []model.Exercise{}
	}
	if len(p.Exercises) > 0 {
		if p.Exercises, err = ExerciseSet(p.Exercises); err != nil {
			return p, err
		}
	}
	return p, nil
}
