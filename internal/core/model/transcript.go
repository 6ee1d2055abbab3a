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

// Package model defines the core data structures for the application.
// This file contains the transcription-side contracts: the word-level timing
// entries produced by the speech-to-text engine, the chunk views built from
// them, and the translated subtitle track aligned to the phrase view.
//
// One transcription is always represented as three views over the same text:
// a plain view (no chunks), a phrase view (subtitle-sized chunks), and a word
// view (one chunk per word). The three views share an identical FullText; only
// the segmentation differs.
package model

// Timestamp is an ordered pair of non-negative seconds with End >= Start.
type Timestamp struct {
	Start float64 `json:"start"` // Start of the span, in seconds from the beginning of the media.
	End   float64 `json:"end"`   // End of the span, in seconds. Always >= Start.
}

// WordEntry is the atomic timing unit reported by the transcription engine:
// one recognized word and the interval it was spoken in.
type WordEntry struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Chunk is one subtitle unit at some granularity. Text is non-empty after
// trimming.
type Chunk struct {
	Text      string    `json:"text"`
	Timestamp Timestamp `json:"timestamp"`
}

// TranscriptionView is a single segmentation of a transcription. FullText is
// identical across all views of one video; Chunks carry the view-specific
// granularity (empty for the plain view).
type TranscriptionView struct {
	FullText string  `json:"fullText"`
	Chunks   []Chunk `json:"chunks"`
}

// TranscriptionVariants bundles the three views of one transcription.
type TranscriptionVariants struct {
	Plain    TranscriptionView `json:"plain"`    // Full text only, Chunks == [].
	Phrases  TranscriptionView `json:"phrases"`  // Subtitle-sized phrase chunks.
	Words    TranscriptionView `json:"words"`    // One chunk per word.
	FullText string            `json:"fullText"` // Canonical engine text, trimmed.
}

// TranslatedChunk is one translated subtitle line. The Timestamp is copied
// bit-identical from the phrase chunk it translates; SourceText preserves the
// line that was translated.
type TranslatedChunk struct {
	Text       string    `json:"text"`
	SourceText string    `json:"sourceText"`
	Timestamp  Timestamp `json:"timestamp"`
}

// Translation is the translated subtitle track for the phrase view. The chunk
// count always equals the phrase-view chunk count; alignment is by index.
type Translation struct {
	FullText string            `json:"fullText"`
	Chunks   []TranslatedChunk `json:"chunks"`
}
