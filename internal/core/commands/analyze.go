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

// Package commands provides the concrete pipeline stage implementations.
// This file holds the two structured-output stages: the content analysis
// and the exercise generation, both driven by the llm package's bounded
// extract-repair-validate loops.
package commands

import (
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/cor"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/llm"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
)

// AnalyzeCommand produces the content-analysis record for the transcript.
type AnalyzeCommand struct {
	cor.BaseCommand
	generator *llm.AnalysisGenerator
}

// NewAnalyzeCommand constructs the stage.
func NewAnalyzeCommand(name string, generator *llm.AnalysisGenerator) *AnalyzeCommand {
	return &AnalyzeCommand{BaseCommand: *cor.NewBaseCommand(name), generator: generator}
}

// Execute analyzes the transcript and publishes the record.
func (c *AnalyzeCommand) Execute(context cor.Context) {
	variants := context.Get(c.GetInputParam()).(model.TranscriptionVariants)

	analysis, err := c.generator.Generate(context.GetContext(), variants.FullText)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(AnalysisParam, analysis)
	context.Add(cor.CtxOut, variants)
}

// ExercisesCommand produces the exercise set for the transcript.
type ExercisesCommand struct {
	cor.BaseCommand
	generator *llm.ExerciseGenerator
}

// NewExercisesCommand constructs the stage.
func NewExercisesCommand(name string, generator *llm.ExerciseGenerator) *ExercisesCommand {
	return &ExercisesCommand{BaseCommand: *cor.NewBaseCommand(name), generator: generator}
}

// Execute generates the exercises and publishes them.
func (c *ExercisesCommand) Execute(context cor.Context) {
	variants := context.Get(c.GetInputParam()).(model.TranscriptionVariants)

	exercises, err := c.generator.Generate(context.GetContext(), variants.FullText)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(ExercisesParam, exercises)
	context.Add(cor.CtxOut, variants)
}
