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

package transcription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "english", want: "en"},
		{in: "Russian", want: "ru"},
		{in: " SPANISH ", want: "es"},
		{in: "de", want: "de"},
		{in: "xx", want: "xx"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLanguage(tt.in), "input %q", tt.in)
	}
}

func TestWordEntriesPrefersFlatList(t *testing.T) {
	r := &Result{
		Text: "hello world",
		Segments: []Segment{
			{Start: 0, End: 1, Text: "hello world", Words: []Word{{Word: "ignored", Start: 0, End: 1}}},
		},
		Words: []Word{
			{Word: " hello", Start: 0, End: 0.4},
			{Word: "world ", Start: 0.5, End: 1.0},
		},
	}
	entries := r.WordEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "hello", entries[0].Text)
	assert.Equal(t, "world", entries[1].Text)
	assert.Equal(t, 0.5, entries[1].Start)
}

func TestWordEntriesFallsBackToSegmentWords(t *testing.T) {
	r := &Result{
		Segments: []Segment{
			{Words: []Word{{Word: " one", Start: 0, End: 0.3}}},
			{Words: []Word{{Word: " two", Start: 0.4, End: 0.7}, {Word: "  ", Start: 0.8, End: 0.9}}},
		},
	}
	entries := r.WordEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "one", entries[0].Text)
	assert.Equal(t, "two", entries[1].Text)
}

func TestWordEntriesEmptyResult(t *testing.T) {
	r := &Result{Text: ""}
	assert.Empty(t, r.WordEntries())
}
