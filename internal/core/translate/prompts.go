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
// view. This file holds the prompt templates: the batch prompt with its ten
// alignment constraints, and the single-line retry prompt used when an
// aligned line came back without target-script characters.
package translate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
)

const batchPromptText = `You are a professional subtitle translator. Translate the numbered lines below from {{.SOURCE_LANGUAGE}} to {{.TARGET_LANGUAGE}}.

Full transcript for context (may be truncated):
---
{{.TRANSCRIPT_CONTEXT}}
---
{{if .PREVIOUS_CONTEXT}}
Lines immediately before this batch (already translated, for continuity only):
{{.PREVIOUS_CONTEXT}}
{{end}}{{if .UPCOMING_CONTEXT}}
Lines immediately after this batch (for continuity only):
{{.UPCOMING_CONTEXT}}
{{end}}
Lines to translate, as JSON:
{{.BATCH_JSON}}

Strict rules:
1. Return ONE translated line for EVERY input line: the output array length must equal {{.BATCH_LEN}}.
2. Keep every "index" value exactly as given; never renumber.
3. Translate each line independently: never move words between neighbouring lines.
4. Never merge two lines into one or split one line into two.
5. Return ONLY a JSON array of objects {"index": <number>, "text": "<translation>"}.
6. No commentary, no markdown, no code fences around the JSON.
7. Preserve the punctuation and emphasis of each source line.
8. Transliterate proper names using the standard {{.TARGET_LANGUAGE}} localization when one exists.
9. Keep numbers and units as written in the source.
10. If a line is untranslatable noise, return it unchanged rather than omitting it.

Example output:
{{.EXAMPLE_JSON}}`

const linePromptText = `Translate this single subtitle line from {{.SOURCE_LANGUAGE}} to {{.TARGET_LANGUAGE}}.
{{if .PREVIOUS_LINE}}Previous line: {{.PREVIOUS_LINE}}
{{end}}Line: {{.LINE}}
{{if .NEXT_LINE}}Next line: {{.NEXT_LINE}}
{{end}}
Return ONLY the translated text, with no quotes, commentary, or markdown.`

var (
	batchPromptTemplate = template.Must(template.New("translate-batch").Parse(batchPromptText))
	linePromptTemplate  = template.Must(template.New("translate-line").Parse(linePromptText))
)

// buildBatchPrompt renders the batch prompt for the payload lines at the
// given offset, with the neighbouring-batch context windows.
func buildBatchPrompt(sourceLanguage, targetLanguage, transcriptContext, previousContext, upcomingContext string, payload []model.TranslationItem) (string, error) {
	batchJSON, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	exampleJSON, _ := json.Marshal(model.ExampleTranslationItems())

	vocabulary := map[string]interface{}{
		"SOURCE_LANGUAGE":    sourceLanguage,
		"TARGET_LANGUAGE":    targetLanguage,
		"TRANSCRIPT_CONTEXT": transcriptContext,
		"PREVIOUS_CONTEXT":   previousContext,
		"UPCOMING_CONTEXT":   upcomingContext,
		"BATCH_JSON":         string(batchJSON),
		"BATCH_LEN":          len(payload),
		"EXAMPLE_JSON":       string(exampleJSON),
	}

	var doc bytes.Buffer
	if err := batchPromptTemplate.Execute(&doc, vocabulary); err != nil {
		return "", fmt.Errorf("failed to execute batch prompt template: %w", err)
	}
	return doc.String(), nil
}

// buildLinePrompt renders the single-line retry prompt with its immediate
// neighbours as context.
func buildLinePrompt(sourceLanguage, targetLanguage, line, previousLine, nextLine string) (string, error) {
	vocabulary := map[string]interface{}{
		"SOURCE_LANGUAGE": sourceLanguage,
		"TARGET_LANGUAGE": targetLanguage,
		"LINE":            line,
		"PREVIOUS_LINE":   previousLine,
		"NEXT_LINE":       nextLine,
	}
	var doc bytes.Buffer
	if err := linePromptTemplate.Execute(&doc, vocabulary); err != nil {
		return "", fmt.Errorf("failed to execute line prompt template: %w", err)
	}
	return doc.String(), nil
}

// TruncateContext bounds the transcript context embedded in every batch
// prompt: texts over the limit keep their head and tail with an ellipsis
// marker between.
func TruncateContext(fullText string, limit int) string {
	runes := []rune(fullText)
	if len(runes) <= limit {
		return fullText
	}
	half := limit / 2
	return string(runes[:half]) + "\n[...]\n" + string(runes[len(runes)-half:])
}
