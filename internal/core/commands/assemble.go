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
// This file assembles the composite ProcessedVideo from the stage outputs
// and validates it as a whole; a validation failure here aborts the video
// before anything reaches the database.
package commands

import (
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/cor"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/validate"
)

// AssembleCommand builds and validates the composite record.
type AssembleCommand struct {
	cor.BaseCommand
	catalog *validate.Catalog
}

// NewAssembleCommand constructs the stage.
func NewAssembleCommand(name string, catalog *validate.Catalog) *AssembleCommand {
	return &AssembleCommand{BaseCommand: *cor.NewBaseCommand(name), catalog: catalog}
}

// IsExecutable requires the video source and the transcription variants.
func (c *AssembleCommand) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(VideoSourceParam) != nil &&
		context.Get(TranscriptionParam) != nil &&
		context.GetContext() != nil
}

// Execute gathers every stage output into the ProcessedVideo, validates the
// composite, and publishes it for the JSON writer and the persistence stage.
// The exercises parameter is optional: the no-exercises mode persists an
// empty set.
func (c *AssembleCommand) Execute(context cor.Context) {
	source := context.Get(VideoSourceParam).(*VideoSource)
	variants := context.Get(TranscriptionParam).(model.TranscriptionVariants)

	processed := model.ProcessedVideo{
		VideoName:     source.SafeName,
		Transcription: variants,
		Exercises:     []model.Exercise{},
	}
	if url, ok := context.Get(VideoURLParam).(string); ok {
		processed.VideoURL = url
	}
	if duration, ok := context.Get(DurationParam).(*int); ok {
		processed.DurationSeconds = duration
	}
	if translation, ok := context.Get(TranslationParam).(model.Translation); ok {
		processed.Translation = translation
	}
	if analysis, ok := context.Get(AnalysisParam).(model.Analysis); ok {
		processed.Analysis = analysis
		processed.IsAdultContent = analysis.IsAdultContent
	}
	if exercises, ok := context.Get(ExercisesParam).([]model.Exercise); ok {
		processed.Exercises = exercises
	}

	validated, err := validate.ProcessedVideo(processed, c.catalog)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(ProcessedParam, &validated)
	context.Add(cor.CtxOut, &validated)
}
