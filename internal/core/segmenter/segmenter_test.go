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

package segmenter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
)

func words(spacing float64, texts ...string) []model.WordEntry {
	out := make([]model.WordEntry, 0, len(texts))
	start := 0.0
	for _, t := range texts {
		out = append(out, model.WordEntry{Text: t, Start: start, End: start + 0.4})
		start += spacing
	}
	return out
}

func countWords(chunks []model.Chunk) int {
	n := 0
	for _, c := range chunks {
		n += len(strings.Fields(c.Text))
	}
	return n
}

func TestGroupEmptyInput(t *testing.T) {
	assert.Empty(t, Group(nil, PhraseDefaults()))
	assert.Empty(t, Group([]model.WordEntry{}, WordDefaults()))
}

func TestGroupSingleWord(t *testing.T) {
	in := []model.WordEntry{{Text: "hello", Start: 1.2, End: 1.8}}

	phrases := Group(in, PhraseDefaults())
	require.Len(t, phrases, 1)
	assert.Equal(t, "hello", phrases[0].Text)
	assert.Equal(t, model.Timestamp{Start: 1.2, End: 1.8}, phrases[0].Timestamp)

	wordView := Group(in, WordDefaults())
	require.Len(t, wordView, 1)
	assert.Equal(t, phrases[0].Timestamp, wordView[0].Timestamp)
}

func TestGroupWordViewOneChunkPerWord(t *testing.T) {
	in := words(0.5, "a", "b", "c", "d", "e")
	chunks := Group(in, WordDefaults())
	require.Len(t, chunks, 5)
	for i, c := range chunks {
		assert.Equal(t, in[i].Text, c.Text)
		assert.Equal(t, in[i].Start, c.Timestamp.Start)
		assert.Equal(t, in[i].End, c.Timestamp.End)
	}
}

func TestGroupMaxWordsFlush(t *testing.T) {
	// 20 words, tightly packed: maxWords forces flushes at 9.
	in := words(0.1, strings.Fields(strings.Repeat("w ", 20))...)
	chunks := Group(in, Config{MinWords: 5, MaxWords: 9, MinDuration: 1.0, MaxDuration: 4.5, MaxGap: 1.5})
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(strings.Fields(c.Text)), 9)
	}
	assert.Equal(t, 20, countWords(chunks))
}

func TestGroupGapForcesFlushBeforeMinWords(t *testing.T) {
	in := []model.WordEntry{
		{Text: "one", Start: 0, End: 0.4},
		{Text: "two", Start: 0.5, End: 0.9},
		// Gap of 3s to the next word: flush even though minWords not reached.
		{Text: "three", Start: 3.9, End: 4.3},
		{Text: "four", Start: 4.4, End: 4.8},
	}
	chunks := Group(in, PhraseDefaults())
	require.Len(t, chunks, 2)
	assert.Equal(t, "one two", chunks[0].Text)
	assert.Equal(t, "three four", chunks[1].Text)
}

func TestGroupSentenceFinalFlush(t *testing.T) {
	// Six words ending in a period at word five, all above min duration.
	in := []model.WordEntry{
		{Text: "this", Start: 0, End: 0.3},
		{Text: "is", Start: 0.35, End: 0.6},
		{Text: "a", Start: 0.65, End: 0.9},
		{Text: "full", Start: 0.95, End: 1.2},
		{Text: "sentence.", Start: 1.25, End: 1.6},
		{Text: "next", Start: 1.7, End: 2.0},
	}
	chunks := Group(in, PhraseDefaults())
	require.Len(t, chunks, 2)
	assert.Equal(t, "this is a full sentence.", chunks[0].Text)
	assert.Equal(t, "next", chunks[1].Text)
}

func TestGroupLastWordAlwaysFlushes(t *testing.T) {
	// Two short words: neither duration nor word-count thresholds reached.
	in := words(0.5, "so", "short")
	chunks := Group(in, PhraseDefaults())
	require.Len(t, chunks, 1)
	assert.Equal(t, "so short", chunks[0].Text)
}

func TestGroupConservation(t *testing.T) {
	texts := strings.Fields("the quick brown fox jumps over the lazy dog and keeps on running far away home")
	in := words(0.5, texts...)

	phrases := Group(in, PhraseDefaults())
	wordView := Group(in, WordDefaults())

	assert.Equal(t, len(texts), countWords(phrases))
	assert.Equal(t, len(texts), countWords(wordView))
	assert.Equal(t, strings.Join(texts, " "), joinChunks(phrases))
	assert.Equal(t, strings.Join(texts, " "), joinChunks(wordView))
}

func joinChunks(chunks []model.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, " ")
}

func TestJoinWordsSpacing(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{name: "plain", in: []string{"hello", "world"}, want: "hello world"},
		{name: "closing punctuation", in: []string{"hello", ",", "world", "!"}, want: "hello, world!"},
		{name: "apostrophe", in: []string{"it", "'s", "fine"}, want: "it's fine"},
		{name: "open paren", in: []string{"see", "(", "this", ")"}, want: "see (this)"},
		{name: "trailing dash", in: []string{"re-", "run"}, want: "re-run"},
		{name: "closing quote", in: []string{"he", "said", "»"}, want: "he said»"},
		{name: "empty entries dropped", in: []string{"a", "", "b"}, want: "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinWords(tt.in))
		})
	}
}

func TestBuildVariants(t *testing.T) {
	in := words(0.5, "hello", "brave", "new", "world")
	variants := BuildVariants("  hello brave new world  ", in, PhraseDefaults(), WordDefaults())

	assert.Equal(t, "hello brave new world", variants.FullText)
	assert.Equal(t, variants.FullText, variants.Plain.FullText)
	assert.Equal(t, variants.FullText, variants.Phrases.FullText)
	assert.Equal(t, variants.FullText, variants.Words.FullText)
	assert.Empty(t, variants.Plain.Chunks)
	assert.Len(t, variants.Words.Chunks, 4)
	assert.NotEmpty(t, variants.Phrases.Chunks)
}

func TestBuildVariantsEmpty(t *testing.T) {
	variants := BuildVariants("", nil, PhraseDefaults(), WordDefaults())
	assert.Equal(t, "", variants.FullText)
	assert.Empty(t, variants.Phrases.Chunks)
	assert.Empty(t, variants.Words.Chunks)
}
