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

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maisgodagov/video-learning-pipeline/internal/cloud"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/validate"
	"github.com/Maisgodagov/video-learning-pipeline/internal/testutil"
)

type stubGenerator struct {
	responses []string
	calls     int
	lastPrompt string
}

func (g *stubGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.lastPrompt = prompt
	i := g.calls
	if i >= len(g.responses) {
		i = len(g.responses) - 1
	}
	g.calls++
	return g.responses[i], nil
}

var catalog = validate.NewCatalog(testutil.TestTopics)

const transcript = "Today we talk about how technology changes education around the world."

func TestAnalysisHappyPath(t *testing.T) {
	gen := &stubGenerator{responses: []string{
		`Here is the result: {"cefrLevel": "b2", "speechSpeed": "Fast", "grammarComplexity": "complex",
		 "vocabularyComplexity": "advanced", "topics": ["technology", "education"], "isAdultContent": false}`,
	}}
	g := NewAnalysisGenerator(gen, catalog)

	got, err := g.Generate(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, "B2", got.CEFRLevel)
	assert.Equal(t, "fast", got.SpeechSpeed)
	assert.Equal(t, []string{"Technology", "Education"}, got.Topics)
	assert.False(t, got.IsAdultContent)
	assert.Contains(t, gen.lastPrompt, "Technology")
}

func TestAnalysisMissingFieldsGetDefaults(t *testing.T) {
	// topics absent and isAdultContent absent: the validator substitutes the
	// catalog head and the flag defaults to false.
	gen := &stubGenerator{responses: []string{
		`{"cefrLevel": "A2", "speechSpeed": "slow", "grammarComplexity": "simple", "vocabularyComplexity": "basic"}`,
	}}
	g := NewAnalysisGenerator(gen, catalog)

	got, err := g.Generate(context.Background(), transcript)
	require.NoError(t, err)
	assert.Len(t, got.Topics, 3)
	assert.False(t, got.IsAdultContent)
}

func TestAnalysisEmptyTranscriptIsSchemaViolation(t *testing.T) {
	gen := &stubGenerator{responses: []string{`{}`}}
	g := NewAnalysisGenerator(gen, catalog)

	_, err := g.Generate(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, validate.ErrSchemaViolation))
	assert.Zero(t, gen.calls)
}

// Scenario: malformed JSON on both attempts exhausts the budget.
func TestAnalysisExhaustsAttempts(t *testing.T) {
	gen := &stubGenerator{responses: []string{`not json at all`, `still not json`}}
	g := NewAnalysisGenerator(gen, catalog)

	_, err := g.Generate(context.Background(), transcript)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cloud.ErrUpstreamFailure))
	assert.Equal(t, 2, gen.calls)
	assert.Contains(t, gen.lastPrompt, "valid JSON")
}

func TestExercisesHappyPath(t *testing.T) {
	payload, err := json.Marshal(model.ExampleExercises())
	require.NoError(t, err)

	gen := &stubGenerator{responses: []string{"```json\n" + string(payload) + "\n```"}}
	g := NewExerciseGenerator(gen)

	got, err := g.Generate(context.Background(), transcript)
	require.NoError(t, err)
	assert.Len(t, got, 6)
}

func TestExercisesRetryAfterBadComposition(t *testing.T) {
	good, err := json.Marshal(model.ExampleExercises())
	require.NoError(t, err)
	// First response: only one exercise, composition fails; second is valid.
	bad, err := json.Marshal(model.ExampleExercises()[:1])
	require.NoError(t, err)

	gen := &stubGenerator{responses: []string{string(bad), string(good)}}
	g := NewExerciseGenerator(gen)

	got, err := g.Generate(context.Background(), transcript)
	require.NoError(t, err)
	assert.Len(t, got, 6)
	assert.Equal(t, 2, gen.calls)
}

func TestExercisesExhaustsAttempts(t *testing.T) {
	gen := &stubGenerator{responses: []string{`[]`}}
	g := NewExerciseGenerator(gen)

	_, err := g.Generate(context.Background(), transcript)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cloud.ErrUpstreamFailure))
}
