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
// This file runs the translation coordinator over the phrase view.
package commands

import (
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/cor"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/translate"
)

// TranslateCommand translates the phrase view into the target language.
type TranslateCommand struct {
	cor.BaseCommand
	coordinator *translate.Coordinator
}

// NewTranslateCommand constructs the stage.
func NewTranslateCommand(name string, coordinator *translate.Coordinator) *TranslateCommand {
	return &TranslateCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		coordinator: coordinator,
	}
}

// Execute translates the piped variants and publishes the aligned track.
func (c *TranslateCommand) Execute(context cor.Context) {
	variants := context.Get(c.GetInputParam()).(model.TranscriptionVariants)

	translation, err := c.coordinator.Translate(context.GetContext(), variants.Phrases)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(TranslationParam, translation)
	context.Add(cor.CtxOut, variants)
}
