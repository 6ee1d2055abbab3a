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

// Package translate coordinates the chunked LLM translation of the phrase
// view. The contract is strict: the output has exactly one chunk per input
// chunk, each timestamp copied bit-identical, aligned by integer index. The
// model is never trusted to hold that contract itself; alignment, padding,
// fallback to source text, and the per-line target-script retry all happen
// here, modeled as an explicit pass over (batchOffset, attempt,
// unresolvedLines) so every step has a clean cancellation point.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Maisgodagov/video-learning-pipeline/internal/cloud"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/jsonrepair"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/validate"
)

// TextGenerator is the LLM boundary the coordinator calls. The quota-aware
// Gemini wrapper implements it; tests use a stub.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Options parameterizes the coordinator. Zero values fall back to the
// documented defaults.
type Options struct {
	SourceLanguage         string // e.g. "English".
	TargetLanguage         string // e.g. "Russian".
	BatchSize              int    // Lines per LLM call; default 60.
	MaxAttempts            int    // Attempts per batch; default 3.
	ContextLines           int    // Neighbouring-batch lines shown as context; default 4.
	TranscriptContextChars int    // Cap on the embedded transcript context; default 4000.
	RateLimitSleep         time.Duration
	AttemptSleep           time.Duration
}

func (o Options) withDefaults() Options {
	if o.SourceLanguage == "" {
		o.SourceLanguage = "English"
	}
	if o.TargetLanguage == "" {
		o.TargetLanguage = "Russian"
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 60
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.ContextLines <= 0 {
		o.ContextLines = 4
	}
	if o.TranscriptContextChars <= 0 {
		o.TranscriptContextChars = 4000
	}
	if o.RateLimitSleep <= 0 {
		o.RateLimitSleep = 30 * time.Second
	}
	if o.AttemptSleep <= 0 {
		o.AttemptSleep = 300 * time.Millisecond
	}
	return o
}

// Coordinator drives the batch translation of one phrase view.
type Coordinator struct {
	generator TextGenerator
	opts      Options
}

// NewCoordinator builds a coordinator over the given generator.
func NewCoordinator(generator TextGenerator, opts Options) *Coordinator {
	return &Coordinator{generator: generator, opts: opts.withDefaults()}
}

// targetIsRussian gates the Cyrillic-script checks; for other target
// languages the per-line script retry is skipped.
func (c *Coordinator) targetIsRussian() bool {
	t := strings.ToLower(c.opts.TargetLanguage)
	return t == "russian" || t == "ru"
}

// Translate translates the validated phrase view. An empty view short-
// circuits to an empty translation.
func (c *Coordinator) Translate(ctx context.Context, phrases model.TranscriptionView) (model.Translation, error) {
	out := model.Translation{Chunks: make([]model.TranslatedChunk, 0, len(phrases.Chunks))}
	if len(phrases.Chunks) == 0 {
		return out, nil
	}

	sourceLines := make([]string, len(phrases.Chunks))
	for i, chunk := range phrases.Chunks {
		sourceLines[i] = chunk.Text
	}
	transcriptContext := TruncateContext(phrases.FullText, c.opts.TranscriptContextChars)

	translated := make([]string, len(sourceLines))
	for offset := 0; offset < len(sourceLines); offset += c.opts.BatchSize {
		end := offset + c.opts.BatchSize
		if end > len(sourceLines) {
			end = len(sourceLines)
		}
		batch, err := c.translateBatch(ctx, sourceLines, offset, end, transcriptContext)
		if err != nil {
			return out, err
		}
		copy(translated[offset:end], batch)
	}

	// Script pass: any line that still lacks target-script characters gets
	// one single-line retry with its immediate neighbours as context.
	if c.targetIsRussian() {
		for i := range translated {
			if validate.ContainsCyrillic(translated[i]) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return out, err
			}
			translated[i] = c.retryLine(ctx, sourceLines, translated, i)
		}
	}

	texts := make([]string, len(translated))
	for i := range translated {
		text := collapseWhitespace(translated[i])
		if text == "" {
			text = collapseWhitespace(sourceLines[i])
		}
		texts[i] = text
		out.Chunks = append(out.Chunks, model.TranslatedChunk{
			Text:       text,
			SourceText: sourceLines[i],
			Timestamp:  phrases.Chunks[i].Timestamp,
		})
	}
	out.FullText = strings.Join(texts, " ")
	return out, nil
}

// translateBatch runs the bounded-attempt loop for the lines in
// [offset, end). Every returned slice has exactly end-offset entries.
func (c *Coordinator) translateBatch(ctx context.Context, sourceLines []string, offset, end int, transcriptContext string) ([]string, error) {
	payload := make([]model.TranslationItem, 0, end-offset)
	for i := offset; i < end; i++ {
		payload = append(payload, model.TranslationItem{Index: i, Text: sourceLines[i]})
	}

	previousContext := contextWindow(sourceLines, offset-c.opts.ContextLines, offset)
	upcomingContext := contextWindow(sourceLines, end, end+c.opts.ContextLines)

	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prompt, err := buildBatchPrompt(c.opts.SourceLanguage, c.opts.TargetLanguage,
			transcriptContext, previousContext, upcomingContext, payload)
		if err != nil {
			return nil, err
		}

		raw, err := c.generator.GenerateText(ctx, prompt)
		if err != nil {
			lastErr = err
			if sleepErr := c.backoff(ctx, attempt, err); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}

		aligned, err := c.alignResponse(raw, sourceLines, offset, end)
		if err != nil {
			slog.Warn("translation batch response rejected", "offset", offset, "attempt", attempt, "error", err)
			lastErr = err
			if sleepErr := c.backoff(ctx, attempt, err); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		return aligned, nil
	}

	return nil, fmt.Errorf("%w: translation batch at offset %d failed after %d attempts: %v",
		cloud.ErrUpstreamFailure, offset, c.opts.MaxAttempts, lastErr)
}

// alignResponse parses a batch response and aligns it to the expected index
// range. Parse failures and non-array responses are errors (the caller
// retries); per-line defects degrade to source-text fallbacks.
func (c *Coordinator) alignResponse(raw string, sourceLines []string, offset, end int) ([]string, error) {
	// The index field is a pointer so an omitted index is distinguishable
	// from a literal zero and can be coerced to the item's position.
	type rawItem struct {
		Index *int   `json:"index"`
		Text  string `json:"text"`
	}
	var parsed []rawItem
	if err := jsonrepair.ParseArray(raw, &parsed); err != nil {
		// Models occasionally return plain strings; accept that shape too
		// before giving up on the attempt.
		var plain []string
		if err2 := jsonrepair.ParseArray(raw, &plain); err2 != nil {
			return nil, fmt.Errorf("response is not a JSON array: %w", err)
		}
		parsed = make([]rawItem, len(plain))
		for i, text := range plain {
			parsed[i] = rawItem{Text: text}
		}
	}

	batchLen := end - offset

	// Normalize each item: trimmed text stripped of wrapping quotes, source
	// fallback for empty text, positional index when the model omitted one.
	items := make([]model.TranslationItem, 0, len(parsed))
	for i, item := range parsed {
		idx := offset + i
		if item.Index != nil {
			idx = *item.Index
		}
		text := stripWrappingQuotes(strings.TrimSpace(item.Text))
		if text == "" && i < batchLen {
			text = sourceLines[offset+i]
		}
		if idx < offset || idx >= end {
			slog.Warn("translation item with unexpected index", "index", idx, "offset", offset)
		}
		items = append(items, model.TranslationItem{Index: idx, Text: text})
	}

	// Truncate or pad to the batch length with source fallbacks.
	if len(items) > batchLen {
		slog.Warn("translation batch returned extra items", "got", len(items), "want", batchLen)
		items = items[:batchLen]
	}
	for len(items) < batchLen {
		i := len(items)
		items = append(items, model.TranslationItem{Index: offset + i, Text: sourceLines[offset+i]})
	}

	// Index the entries, preferring non-empty text on collision: a later
	// entry only replaces an earlier one that arrived empty.
	byIndex := make(map[int]string, batchLen)
	for _, item := range items {
		if existing, ok := byIndex[item.Index]; ok && existing != "" {
			continue
		}
		byIndex[item.Index] = item.Text
	}

	// Align by the expected index list; missing indices fall back to source.
	aligned := make([]string, batchLen)
	for i := 0; i < batchLen; i++ {
		text, ok := byIndex[offset+i]
		if !ok || text == "" {
			slog.Warn("translation missing line; using source text", "index", offset+i)
			text = sourceLines[offset+i]
		}
		aligned[i] = text
	}
	return aligned, nil
}

// retryLine re-translates one line with its immediate neighbours as context
// and returns the best available text: the retry result when it carries the
// target script, otherwise whatever the batch produced, otherwise the source.
func (c *Coordinator) retryLine(ctx context.Context, sourceLines, translated []string, i int) string {
	previousLine := ""
	if i > 0 {
		previousLine = sourceLines[i-1]
	}
	nextLine := ""
	if i+1 < len(sourceLines) {
		nextLine = sourceLines[i+1]
	}

	prompt, err := buildLinePrompt(c.opts.SourceLanguage, c.opts.TargetLanguage, sourceLines[i], previousLine, nextLine)
	if err != nil {
		return fallbackLine(translated[i], sourceLines[i])
	}
	raw, err := c.generator.GenerateText(ctx, prompt)
	if err != nil {
		slog.Warn("single-line retranslation failed", "index", i, "error", err)
		return fallbackLine(translated[i], sourceLines[i])
	}
	text := stripWrappingQuotes(strings.TrimSpace(raw))
	if text != "" && validate.ContainsCyrillic(text) {
		return text
	}
	slog.Warn("line still lacks target script after retry; accepting best available", "index", i)
	return fallbackLine(translated[i], sourceLines[i])
}

func fallbackLine(batchText, sourceText string) string {
	if strings.TrimSpace(batchText) != "" {
		return batchText
	}
	return sourceText
}

// backoff sleeps between attempts: a long fixed pause on rate-limit
// signals, otherwise a linear attempt-scaled pause. Cancellation interrupts
// the sleep.
func (c *Coordinator) backoff(ctx context.Context, attempt int, cause error) error {
	d := time.Duration(attempt) * c.opts.AttemptSleep
	if cloud.IsRateLimited(cause) {
		d = c.opts.RateLimitSleep
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func contextWindow(lines []string, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(lines) {
		to = len(lines)
	}
	if from >= to {
		return ""
	}
	return strings.Join(lines[from:to], "\n")
}

// stripWrappingQuotes removes one layer of ASCII or typographic quotes
// wrapping the whole text.
func stripWrappingQuotes(s string) string {
	pairs := [][2]string{{`"`, `"`}, {"'", "'"}, {"«", "»"}, {"“", "”"}, {"„", "“"}}
	for _, p := range pairs {
		if strings.HasPrefix(s, p[0]) && strings.HasSuffix(s, p[1]) && len(s) > len(p[0])+len(p[1]) {
			return strings.TrimSpace(s[len(p[0]) : len(s)-len(p[1])])
		}
	}
	return s
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
