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
// This file turns the engine's word timings into the three chunk views and
// validates the cross-view contract before anything downstream consumes it.
package commands

import (
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/cor"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/segmenter"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/validate"
	"github.com/Maisgodagov/video-learning-pipeline/internal/transcription"
)

// SegmentCommand builds and validates the transcription variants.
type SegmentCommand struct {
	cor.BaseCommand
	phraseCfg segmenter.Config
	wordCfg   segmenter.Config
}

// NewSegmentCommand constructs the stage with the two view parameter sets.
func NewSegmentCommand(name string, phraseCfg, wordCfg segmenter.Config) *SegmentCommand {
	return &SegmentCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		phraseCfg:   phraseCfg,
		wordCfg:     wordCfg,
	}
}

// Execute groups the words, validates the variants, and publishes them both
// as the piped output and under TranscriptionParam for later stages.
func (c *SegmentCommand) Execute(context cor.Context) {
	result := context.Get(c.GetInputParam()).(*transcription.Result)

	variants := segmenter.BuildVariants(result.Text, result.WordEntries(), c.phraseCfg, c.wordCfg)

	validated, err := validate.Variants(variants)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(TranscriptionParam, validated)
	context.Add(cor.CtxOut, validated)
}
