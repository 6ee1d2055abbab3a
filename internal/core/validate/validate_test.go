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

package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
)

func TestTimestamp(t *testing.T) {
	_, err := Timestamp("ts", model.Timestamp{Start: -1, End: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaViolation))

	_, err = Timestamp("ts", model.Timestamp{Start: 2, End: 1})
	require.Error(t, err)

	got, err := Timestamp("ts", model.Timestamp{Start: 1, End: 1})
	require.NoError(t, err)
	assert.Equal(t, model.Timestamp{Start: 1, End: 1}, got)
}

func TestChunkTrimsAndRejectsEmpty(t *testing.T) {
	got, err := Chunk("c", model.Chunk{Text: "  hi  ", Timestamp: model.Timestamp{Start: 0, End: 1}})
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Text)

	_, err = Chunk("c", model.Chunk{Text: "   "})
	require.Error(t, err)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "c.text", schemaErr.Path)
}

func validVariants() model.TranscriptionVariants {
	chunk := model.Chunk{Text: "hello world", Timestamp: model.Timestamp{Start: 0, End: 1}}
	word := model.Chunk{Text: "hello", Timestamp: model.Timestamp{Start: 0, End: 0.4}}
	word2 := model.Chunk{Text: "world", Timestamp: model.Timestamp{Start: 0.5, End: 1}}
	return model.TranscriptionVariants{
		Plain:    model.TranscriptionView{FullText: "hello world", Chunks: []model.Chunk{}},
		Phrases:  model.TranscriptionView{FullText: "hello world", Chunks: []model.Chunk{chunk}},
		Words:    model.TranscriptionView{FullText: "hello world", Chunks: []model.Chunk{word, word2}},
		FullText: "hello world",
	}
}

func TestVariantsCrossViewEquality(t *testing.T) {
	v := validVariants()
	got, err := Variants(v)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	bad := validVariants()
	bad.Words.FullText = "something else"
	_, err = Variants(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaViolation))
}

func TestVariantsPlainMustBeChunkless(t *testing.T) {
	bad := validVariants()
	bad.Plain.Chunks = bad.Phrases.Chunks
	_, err := Variants(bad)
	require.Error(t, err)
}

func TestVariantsIdempotent(t *testing.T) {
	v := validVariants()
	v.FullText = "  hello world "
	v.Plain.FullText = v.FullText
	v.Phrases.FullText = v.FullText
	v.Words.FullText = v.FullText

	once, err := Variants(v)
	require.NoError(t, err)
	twice, err := Variants(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestTranslationValidator(t *testing.T) {
	tr := model.Translation{
		FullText: " привет мир ",
		Chunks: []model.TranslatedChunk{
			{Text: " привет ", SourceText: "hello", Timestamp: model.Timestamp{Start: 0, End: 1}},
		},
	}
	got, err := Translation(tr)
	require.NoError(t, err)
	assert.Equal(t, "привет", got.Chunks[0].Text)
	assert.Equal(t, "привет мир", got.FullText)

	tr.Chunks[0].Text = "  "
	_, err = Translation(tr)
	require.Error(t, err)
}

func TestScriptDetection(t *testing.T) {
	assert.True(t, ContainsCyrillic("привет"))
	assert.False(t, ContainsCyrillic("hello"))
	assert.True(t, ContainsLatin("hello, мир"))
	assert.False(t, ContainsLatin("привет, мир"))
}
