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

// Package transcription defines the speech-to-text engine boundary. This
// file implements the OpenAI Whisper API provider: verbose-JSON responses
// with word-level timestamp granularity.
package transcription

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEngine transcribes audio through the OpenAI audio API.
type OpenAIEngine struct {
	client *openai.Client
	model  string
}

// NewOpenAIEngine builds the provider. model defaults to whisper-1.
func NewOpenAIEngine(apiKey, model string) *OpenAIEngine {
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIEngine{client: openai.NewClient(apiKey), model: model}
}

// Transcribe uploads the WAV and maps the verbose-JSON response onto the
// engine result, carrying both segment texts and the flat word timings.
func (e *OpenAIEngine) Transcribe(ctx context.Context, audioPath, language string) (*Result, error) {
	resp, err := e.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    e.model,
		FilePath: audioPath,
		Language: NormalizeLanguage(language),
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
			openai.TranscriptionTimestampGranularityWord,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai transcription: %w", err)
	}

	out := &Result{Text: resp.Text}
	for _, seg := range resp.Segments {
		out.Segments = append(out.Segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	for _, w := range resp.Words {
		out.Words = append(out.Words, Word{Word: w.Word, Start: w.Start, End: w.End})
	}
	return out, nil
}
