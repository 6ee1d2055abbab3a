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

// Package llm holds the structured-output callers: prompts that demand one
// JSON value, a bounded extract-repair-parse-validate loop around the model
// response, and a reinforced prompt on the retry. This file implements the
// content-analysis caller.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/Maisgodagov/video-learning-pipeline/internal/cloud"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/jsonrepair"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/validate"
)

// TextGenerator is the LLM boundary the callers invoke.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// DefaultAttempts bounds the parse-validate-retry loop.
const DefaultAttempts = 2

// reinforcement is appended to retry prompts after a malformed response.
const reinforcement = "\n\nIMPORTANT: your previous response was not valid JSON. Return ONLY valid JSON, with no markdown fences and no commentary."

const analysisPromptText = `Analyze the following video transcript for language learners.

Transcript:
---
{{.TRANSCRIPT}}
---

Return a JSON object with exactly these fields:
- "cefrLevel": one of A1, A2, B1, B2, C1, C2
- "speechSpeed": one of slow, normal, fast
- "grammarComplexity": one of simple, intermediate, complex
- "vocabularyComplexity": one of basic, intermediate, advanced
- "topics": up to 3 topics, chosen ONLY from this list: {{.TOPICS}}
- "isAdultContent": true only if the transcript has explicit references to sex, graphic violence, or illegal drug use; false otherwise

Example:
{{.EXAMPLE_JSON}}

Return ONLY the JSON object, without markdown or commentary.`

var analysisPromptTemplate = template.Must(template.New("analysis").Parse(analysisPromptText))

// AnalysisGenerator produces the content-analysis record for a transcript.
type AnalysisGenerator struct {
	Generator TextGenerator
	Catalog   *validate.Catalog
	Attempts  int
}

// NewAnalysisGenerator builds the caller with the default attempt budget.
func NewAnalysisGenerator(generator TextGenerator, catalog *validate.Catalog) *AnalysisGenerator {
	return &AnalysisGenerator{Generator: generator, Catalog: catalog, Attempts: DefaultAttempts}
}

func (g *AnalysisGenerator) buildPrompt(transcript string) (string, error) {
	exampleJSON, _ := json.Marshal(model.ExampleAnalysis())
	var doc bytes.Buffer
	err := analysisPromptTemplate.Execute(&doc, map[string]interface{}{
		"TRANSCRIPT":   transcript,
		"TOPICS":       strings.Join(g.Catalog.Canonical(), ", "),
		"EXAMPLE_JSON": string(exampleJSON),
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute analysis prompt template: %w", err)
	}
	return doc.String(), nil
}

// Generate runs the bounded analysis loop. An empty transcript is a schema
// violation before any model call.
func (g *AnalysisGenerator) Generate(ctx context.Context, transcript string) (model.Analysis, error) {
	var analysis model.Analysis
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return analysis, &validate.SchemaError{Path: "analysis.transcript", Msg: "empty transcript"}
	}

	prompt, err := g.buildPrompt(transcript)
	if err != nil {
		return analysis, err
	}

	attempts := g.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return analysis, err
		}
		p := prompt
		if attempt > 1 {
			p += reinforcement
		}

		raw, err := g.Generator.GenerateText(ctx, p)
		if err != nil {
			lastErr = err
			continue
		}

		candidate := model.Analysis{}
		if err := jsonrepair.ParseObject(raw, &candidate); err != nil {
			slog.Warn("analysis response was not parsable JSON", "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		normalized, err := validate.Analysis(candidate, g.Catalog)
		if err != nil {
			slog.Warn("analysis response failed validation", "attempt", attempt, "error", err)
			lastErr = err
			continue
		}
		return normalized, nil
	}

	return analysis, fmt.Errorf("%w: analysis failed after %d attempts: %v", cloud.ErrUpstreamFailure, attempts, lastErr)
}
