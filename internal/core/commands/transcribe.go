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
// This file invokes the transcription engine over the extracted WAV.
package commands

import (
	"fmt"

	"github.com/Maisgodagov/video-learning-pipeline/internal/core/cor"
	"github.com/Maisgodagov/video-learning-pipeline/internal/transcription"
)

// TranscribeCommand runs speech-to-text over the piped audio path.
type TranscribeCommand struct {
	cor.BaseCommand
	engine   transcription.Engine
	language string
}

// NewTranscribeCommand constructs the stage. language is request-scoped so a
// batch can switch languages without touching shared configuration.
func NewTranscribeCommand(name string, engine transcription.Engine, language string) *TranscribeCommand {
	return &TranscribeCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		engine:      engine,
		language:    language,
	}
}

// Execute transcribes the WAV and pipes the engine result onward.
func (c *TranscribeCommand) Execute(context cor.Context) {
	audioPath := context.Get(c.GetInputParam()).(string)

	result, err := c.engine.Transcribe(context.GetContext(), audioPath, c.language)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("transcription failed: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, result)
}
