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

// Package llm holds the structured-output callers. This file implements the
// exercise-generation caller: six exercises under the catalog composition
// rules, validated before they leave the package.
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

const exercisesPromptText = `Create exactly 6 learning exercises in Russian for this video transcript.

Transcript:
---
{{.TRANSCRIPT}}
---

Composition rules:
- 4 exercises of type "vocabulary": pick a word from the transcript, ask its meaning. Each carries a "word" field. If the word is in Latin script, every option must be in Cyrillic; if the word is in Cyrillic, every option must be in Latin.
- 1 exercise of type "topic": ask what the video is about.
- 1 exercise of type "statementCheck": present a statement and ask whether it is true.

Every exercise is a JSON object with:
- "type": "vocabulary", "topic", or "statementCheck"
- "word": only for vocabulary exercises
- "question": in Russian (must contain Cyrillic)
- "options": 3 or 4 non-empty strings
- "correctAnswer": zero-based index of the right option

Example:
{{.EXAMPLE_JSON}}

Return ONLY the JSON array of 6 exercises, without markdown or commentary.`

var exercisesPromptTemplate = template.Must(template.New("exercises").Parse(exercisesPromptText))

// ExerciseGenerator produces the exercise set for a transcript.
type ExerciseGenerator struct {
	Generator TextGenerator
	Attempts  int
}

// NewExerciseGenerator builds the caller with the default attempt budget.
func NewExerciseGenerator(generator TextGenerator) *ExerciseGenerator {
	return &ExerciseGenerator{Generator: generator, Attempts: DefaultAttempts}
}

func (g *ExerciseGenerator) buildPrompt(transcript string) (string, error) {
	exampleJSON, _ := json.Marshal(model.ExampleExercises())
	var doc bytes.Buffer
	err := exercisesPromptTemplate.Execute(&doc, map[string]interface{}{
		"TRANSCRIPT":   transcript,
		"EXAMPLE_JSON": string(exampleJSON),
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute exercises prompt template: %w", err)
	}
	return doc.String(), nil
}

// Generate runs the bounded exercise loop.
func (g *ExerciseGenerator) Generate(ctx context.Context, transcript string) ([]model.Exercise, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, &validate.SchemaError{Path: "exercises.transcript", Msg: "empty transcript"}
	}

	prompt, err := g.buildPrompt(transcript)
	if err != nil {
		return nil, err
	}

	attempts := g.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
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

		var candidate []model.Exercise
		if err := jsonrepair.ParseArray(raw, &candidate); err != nil {
			slog.Warn("exercise response was not parsable JSON", "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		normalized, err := validate.ExerciseSet(candidate)
		if err != nil {
			slog.Warn("exercise response failed validation", "attempt", attempt, "error", err)
			lastErr = err
			continue
		}
		return normalized, nil
	}

	return nil, fmt.Errorf("%w: exercise generation failed after %d attempts: %v", cloud.ErrUpstreamFailure, attempts, lastErr)
}
