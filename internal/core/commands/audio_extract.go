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
// This file defines the first media stage: extracting the mono 16 kHz WAV
// the transcription engine consumes, and probing the container duration.
// The WAV is registered as a temp file so it disappears on every exit path;
// a failed duration probe is non-fatal and leaves the duration nil.
package commands

import (
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/cor"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/media"
)

// AudioExtractCommand produces the transcription WAV from the source video.
type AudioExtractCommand struct {
	cor.BaseCommand
	toolchain *media.Toolchain
	tempDir   string
}

// NewAudioExtractCommand constructs the stage.
func NewAudioExtractCommand(name string, toolchain *media.Toolchain, tempDir string) *AudioExtractCommand {
	return &AudioExtractCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		toolchain:   toolchain,
		tempDir:     tempDir,
	}
}

// IsExecutable requires the video source record.
func (c *AudioExtractCommand) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(VideoSourceParam) != nil && context.GetContext() != nil
}

// Execute extracts the WAV, records the nullable duration, and pipes the
// audio path to the transcription stage.
func (c *AudioExtractCommand) Execute(context cor.Context) {
	source := context.Get(VideoSourceParam).(*VideoSource)

	audioPath, duration, err := c.toolchain.ExtractAudio(context.GetContext(), source.LocalPath, c.tempDir)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	context.AddTempFile(audioPath)
	if duration != nil {
		context.Add(DurationParam, duration)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, audioPath)
}
