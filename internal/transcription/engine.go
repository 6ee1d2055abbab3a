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

// Package transcription defines the speech-to-text engine boundary. The
// engine is a black box that consumes a mono 16 kHz 16-bit PCM WAV and a
// language code and produces the canonical transcript text plus word-level
// timings. Two providers implement it: the OpenAI Whisper API and a local
// python whisper helper invoked as a subprocess.
package transcription

import (
	"context"

	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
)

// Word is one recognized word with its spoken interval.
type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// Segment is one engine segment. Words may be empty for providers that only
// report word timings at the top level.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words"`
}

// Result is the engine output for one audio file.
type Result struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Words    []Word    `json:"words"` // Flat word list; some providers fill this instead of per-segment words.
}

// Engine is the transcription boundary consumed by the pipeline.
type Engine interface {
	// Transcribe runs speech-to-text over the WAV at audioPath. language is
	// an ISO-639-1 code (see NormalizeLanguage).
	Transcribe(ctx context.Context, audioPath, language string) (*Result, error)
}

// WordEntries flattens the result into the pipeline's word-timing units,
// preferring the flat word list, then per-segment words. Entries with empty
// text after trimming are dropped.
func (r *Result) WordEntries() []model.WordEntry {
	words := r.Words
	if len(words) == 0 {
		for _, seg := range r.Segments {
			words = append(words, seg.Words...)
		}
	}
	out := make([]model.WordEntry, 0, len(words))
	for _, w := range words {
		text := trimWord(w.Word)
		if text == "" {
			continue
		}
		out = append(out, model.WordEntry{Text: text, Start: w.Start, End: w.End})
	}
	return out
}

func trimWord(s string) string {
	// Whisper pads words with a leading space; keep interior spacing intact.
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t' || s[0] == '\n') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t' || s[len(s)-1] == '\n') {
		s = s[:len(s)-1]
	}
	return s
}
