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

// Package testutil provides shared fixtures for the test suite: a cached
// test configuration and deterministic word-timing samples that exercise the
// segmentation and translation contracts without a media file or an engine.
package testutil

import (
	"github.com/Maisgodagov/video-learning-pipeline/internal/cloud"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
)

// TestTopics is a small closed catalog for validator tests.
var TestTopics = []string{
	"Technology", "Education", "Travel", "Food", "Sports",
	"Music", "Movies", "Science", "History", "Nature",
}

var cachedConfig *cloud.Config

// GetConfig returns a config with defaults applied and the test catalog
// installed, cached across tests.
func GetConfig() *cloud.Config {
	if cachedConfig == nil {
		config := cloud.NewConfig()
		config.VideoTopics = TestTopics
		cachedConfig = config
	}
	return cachedConfig
}

// Words builds evenly spaced word entries: each word lasts 0.4s with a 0.1s
// gap to the next.
func Words(texts ...string) []model.WordEntry {
	out := make([]model.WordEntry, 0, len(texts))
	start := 0.0
	for _, t := range texts {
		out = append(out, model.WordEntry{Text: t, Start: start, End: start + 0.4})
		start += 0.5
	}
	return out
}

// PhraseView builds a minimal validated phrase view with one chunk per text,
// each one second long.
func PhraseView(texts ...string) model.TranscriptionView {
	chunks := make([]model.Chunk, 0, len(texts))
	for i, t := range texts {
		chunks = append(chunks, model.Chunk{
			Text:      t,
			Timestamp: model.Timestamp{Start: float64(i), End: float64(i) + 1},
		})
	}
	fullText := ""
	for i, t := range texts {
		if i > 0 {
			fullText += " "
		}
		fullText += t
	}
	return model.TranscriptionView{FullText: fullText, Chunks: chunks}
}
