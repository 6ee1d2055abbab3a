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
// This file writes the per-video JSON sidecar: the full ProcessedVideo
// record, or just the transcription variants in transcription-only mode.
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Maisgodagov/video-learning-pipeline/internal/core/cor"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
)

// WriteJSONCommand persists the per-video record to <outputDir>/<id>.json.
type WriteJSONCommand struct {
	cor.BaseCommand
	outputDir string
}

// NewWriteJSONCommand constructs the stage.
func NewWriteJSONCommand(name string, outputDir string) *WriteJSONCommand {
	return &WriteJSONCommand{BaseCommand: *cor.NewBaseCommand(name), outputDir: outputDir}
}

// IsExecutable requires the video source record.
func (c *WriteJSONCommand) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(VideoSourceParam) != nil && context.GetContext() != nil
}

// Execute writes the sidecar with 2-space indentation. The full record wins
// when present; otherwise the transcription variants are written alone.
func (c *WriteJSONCommand) Execute(context cor.Context) {
	source := context.Get(VideoSourceParam).(*VideoSource)

	var payload interface{}
	if processed, ok := context.Get(ProcessedParam).(*model.ProcessedVideo); ok {
		payload = processed
	} else if variants, ok := context.Get(TranscriptionParam).(model.TranscriptionVariants); ok {
		payload = variants
	} else {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("nothing to write for %s", source.SafeID))
		return
	}

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("create output dir: %w", err))
		return
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("marshal record: %w", err))
		return
	}

	jsonPath := filepath.Join(c.outputDir, source.SafeID+".json")
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("write %s: %w", jsonPath, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, context.Get(c.GetInputParam()))
}
