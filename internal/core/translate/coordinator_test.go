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

package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maisgodagov/video-learning-pipeline/internal/cloud"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
	"github.com/Maisgodagov/video-learning-pipeline/internal/testutil"
)

// scriptedGenerator returns canned responses in order; once the script is
// exhausted it repeats the last entry. An entry of error type fails the call.
type scriptedGenerator struct {
	responses []interface{}
	calls     int
	prompts   []string
}

func (g *scriptedGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	i := g.calls
	if i >= len(g.responses) {
		i = len(g.responses) - 1
	}
	g.calls++
	switch v := g.responses[i].(type) {
	case error:
		return "", v
	case string:
		return v, nil
	}
	return "", fmt.Errorf("bad script entry")
}

func fastOptions() Options {
	return Options{AttemptSleep: time.Millisecond, RateLimitSleep: time.Millisecond}
}

func itemsJSON(offset int, texts ...string) string {
	parts := make([]string, 0, len(texts))
	for i, t := range texts {
		parts = append(parts, fmt.Sprintf(`{"index": %d, "text": %q}`, offset+i, t))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestTranslateEmptyInput(t *testing.T) {
	c := NewCoordinator(&scriptedGenerator{responses: []interface{}{"[]"}}, fastOptions())
	got, err := c.Translate(context.Background(), model.TranscriptionView{})
	require.NoError(t, err)
	assert.Empty(t, got.Chunks)
	assert.Equal(t, "", got.FullText)
}

func TestTranslateAlignedOutput(t *testing.T) {
	phrases := testutil.PhraseView("hello world", "how are you", "see you soon")
	gen := &scriptedGenerator{responses: []interface{}{
		itemsJSON(0, "привет мир", "как дела", "до скорого"),
	}}
	c := NewCoordinator(gen, fastOptions())

	got, err := c.Translate(context.Background(), phrases)
	require.NoError(t, err)
	require.Len(t, got.Chunks, 3)
	for i, chunk := range got.Chunks {
		assert.Equal(t, phrases.Chunks[i].Timestamp, chunk.Timestamp)
		assert.Equal(t, phrases.Chunks[i].Text, chunk.SourceText)
	}
	assert.Equal(t, "привет мир как дела до скорого", got.FullText)
}

// Scenario: the model returns fewer items than lines, one of them empty.
// The aligned output still has one chunk per line; the hole is filled by the
// single-line retry.
func TestTranslatePartialResponseFallsBackAndRetries(t *testing.T) {
	phrases := testutil.PhraseView("one", "two", "three", "four")
	gen := &scriptedGenerator{responses: []interface{}{
		// Batch response misses index 2 and returns empty text for index 1.
		`[{"index": 0, "text": "один"}, {"index": 1, "text": ""}, {"index": 3, "text": "четыре"}]`,
		// Line retry for index 1.
		`два`,
		// Line retry for index 2.
		`три`,
	}}
	c := NewCoordinator(gen, fastOptions())

	got, err := c.Translate(context.Background(), phrases)
	require.NoError(t, err)
	require.Len(t, got.Chunks, 4)
	assert.Equal(t, "один", got.Chunks[0].Text)
	assert.Equal(t, "два", got.Chunks[1].Text)
	assert.Equal(t, "три", got.Chunks[2].Text)
	assert.Equal(t, "четыре", got.Chunks[3].Text)
}

// A line whose retry still lacks Cyrillic keeps the best available text, the
// source as last resort, and the pipeline carries on.
func TestTranslateAcceptsSourceWhenRetryFails(t *testing.T) {
	phrases := testutil.PhraseView("hello there")
	gen := &scriptedGenerator{responses: []interface{}{
		`[{"index": 0, "text": "hello there"}]`,
		`hello there`, // retry also fails to produce Cyrillic
	}}
	c := NewCoordinator(gen, fastOptions())

	got, err := c.Translate(context.Background(), phrases)
	require.NoError(t, err)
	require.Len(t, got.Chunks, 1)
	assert.Equal(t, "hello there", got.Chunks[0].Text)
}

func TestTranslateExtraItemsTruncated(t *testing.T) {
	phrases := testutil.PhraseView("one", "two")
	gen := &scriptedGenerator{responses: []interface{}{
		itemsJSON(0, "один", "два", "лишний", "ещё лишний"),
	}}
	c := NewCoordinator(gen, fastOptions())

	got, err := c.Translate(context.Background(), phrases)
	require.NoError(t, err)
	require.Len(t, got.Chunks, 2)
	assert.Equal(t, "один", got.Chunks[0].Text)
	assert.Equal(t, "два", got.Chunks[1].Text)
}

func TestTranslateRetriesOnMalformedJSON(t *testing.T) {
	phrases := testutil.PhraseView("hello")
	gen := &scriptedGenerator{responses: []interface{}{
		`sorry, I cannot produce JSON`,
		itemsJSON(0, "привет"),
	}}
	c := NewCoordinator(gen, fastOptions())

	got, err := c.Translate(context.Background(), phrases)
	require.NoError(t, err)
	assert.Equal(t, "привет", got.Chunks[0].Text)
	assert.Equal(t, 2, gen.calls)
}

func TestTranslateExhaustsAttempts(t *testing.T) {
	phrases := testutil.PhraseView("hello")
	gen := &scriptedGenerator{responses: []interface{}{errors.New("boom")}}
	c := NewCoordinator(gen, Options{MaxAttempts: 2, AttemptSleep: time.Millisecond, RateLimitSleep: time.Millisecond})

	_, err := c.Translate(context.Background(), phrases)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cloud.ErrUpstreamFailure))
	assert.Equal(t, 2, gen.calls)
}

func TestTranslateBatchingUsesOffsets(t *testing.T) {
	phrases := testutil.PhraseView("a", "b", "c", "d", "e")
	gen := &scriptedGenerator{responses: []interface{}{
		itemsJSON(0, "а", "б"),
		itemsJSON(2, "в", "г"),
		itemsJSON(4, "д"),
	}}
	c := NewCoordinator(gen, Options{BatchSize: 2, AttemptSleep: time.Millisecond, RateLimitSleep: time.Millisecond})

	got, err := c.Translate(context.Background(), phrases)
	require.NoError(t, err)
	require.Len(t, got.Chunks, 5)
	assert.Equal(t, 3, gen.calls)
	assert.Equal(t, "а б в г д", got.FullText)

	// The middle batch prompt carries context from both neighbours.
	assert.Contains(t, gen.prompts[1], "a\nb")
	assert.Contains(t, gen.prompts[1], "e")
}

func TestTranslateStripsWrappingQuotes(t *testing.T) {
	phrases := testutil.PhraseView("hello")
	gen := &scriptedGenerator{responses: []interface{}{
		`[{"index": 0, "text": "«привет»"}]`,
	}}
	c := NewCoordinator(gen, fastOptions())

	got, err := c.Translate(context.Background(), phrases)
	require.NoError(t, err)
	assert.Equal(t, "привет", got.Chunks[0].Text)
}

func TestTruncateContext(t *testing.T) {
	long := strings.Repeat("абв ", 3000)
	got := TruncateContext(long, 4000)
	assert.LessOrEqual(t, len([]rune(got)), 4100)
	assert.Contains(t, got, "[...]")

	short := "short text"
	assert.Equal(t, short, TruncateContext(short, 4000))
}
