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

// Package segmenter groups the transcription engine's word-level timings into
// chunk views. The same buffering algorithm produces both the phrase view
// (subtitle-sized chunks bounded by word count, duration, and inter-word gap)
// and the word view (one chunk per word); only the parameters differ.
//
// Guarantees: every input word lands in exactly one chunk, chunk order
// follows input order, and the final word always flushes the buffer
// regardless of thresholds.
package segmenter

import (
	"strings"

	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
)

// Config parameterizes one grouping pass.
type Config struct {
	MinWords    int     // Minimum words before a sentence-final flush may trigger.
	MaxWords    int     // Hard word-count cap per chunk.
	MinDuration float64 // Seconds a chunk must span before a sentence-final or look-ahead flush; 0 sets no minimum.
	MaxDuration float64 // Seconds; 0 disables duration-based flushing.
	MaxGap      float64 // Inter-word gap beyond which the buffer is force-flushed.
}

// PhraseDefaults returns the phrase-view parameters.
func PhraseDefaults() Config {
	return Config{MinWords: 5, MaxWords: 9, MinDuration: 1.0, MaxDuration: 4.5, MaxGap: 1.5}
}

// WordDefaults returns the word-view parameters: one word per chunk, no
// duration constraint.
func WordDefaults() Config {
	return Config{MinWords: 1, MaxWords: 1}
}

// sentenceFinal matches the punctuation that allows an early flush once the
// buffer satisfies the minimums.
func sentenceFinal(word string) bool {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?':
		return true
	}
	return strings.HasSuffix(trimmed, "…")
}

// noSpaceBefore holds the characters that attach to the previous word
// without a separating space.
const noSpaceBefore = ".,!?;:)]»\"'’"

// JoinWords concatenates word texts with standard subtitle spacing: no space
// before closing punctuation or an apostrophe, no space after an opening
// parenthesis or a trailing dash.
func JoinWords(words []string) string {
	var b strings.Builder
	prev := ""
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if b.Len() > 0 && !strings.ContainsRune(noSpaceBefore, firstRune(w)) &&
			!strings.HasSuffix(prev, "(") && !strings.HasSuffix(prev, "-") {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		prev = w
	}
	return b.String()
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

// Group buffers the words (assumed sorted ascending by start time) and
// flushes chunks per the view parameters. Empty input yields an empty list.
func Group(words []model.WordEntry, cfg Config) []model.Chunk {
	chunks := make([]model.Chunk, 0)
	buffer := make([]model.WordEntry, 0, cfg.MaxWords)
	bufferEnd := 0.0

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		texts := make([]string, 0, len(buffer))
		for _, w := range buffer {
			texts = append(texts, w.Text)
		}
		chunks = append(chunks, model.Chunk{
			Text: JoinWords(texts),
			Timestamp: model.Timestamp{
				Start: buffer[0].Start,
				End:   bufferEnd,
			},
		})
		buffer = buffer[:0]
		bufferEnd = 0
	}

	for i, w := range words {
		buffer = append(buffer, w)
		if w.End > bufferEnd {
			bufferEnd = w.End
		}
		duration := bufferEnd - buffer[0].Start

		if i == len(words)-1 {
			// The last word always flushes, regardless of thresholds.
			flush()
			break
		}

		next := words[i+1]
		switch {
		case cfg.MaxGap > 0 && next.Start-bufferEnd > cfg.MaxGap:
			flush()
		case len(buffer) >= cfg.MaxWords:
			flush()
		case cfg.MaxDuration > 0 && duration >= cfg.MaxDuration:
			flush()
		case cfg.MaxDuration > 0 && next.End-buffer[0].Start > cfg.MaxDuration && duration >= cfg.MinDuration:
			flush()
		case duration >= cfg.MinDuration && len(buffer) >= cfg.MinWords && sentenceFinal(w.Text):
			flush()
		}
	}

	return chunks
}

// BuildVariants assembles the three views of one transcription. engineText
// is the canonical text reported by the engine; it is trimmed and shared by
// all three views.
func BuildVariants(engineText string, words []model.WordEntry, phraseCfg, wordCfg Config) model.TranscriptionVariants {
	fullText := strings.TrimSpace(engineText)
	return model.TranscriptionVariants{
		Plain:    model.TranscriptionView{FullText: fullText, Chunks: []model.Chunk{}},
		Phrases:  model.TranscriptionView{FullText: fullText, Chunks: Group(words, phraseCfg)},
		Words:    model.TranscriptionView{FullText: fullText, Chunks: Group(words, wordCfg)},
		FullText: fullText,
	}
}
