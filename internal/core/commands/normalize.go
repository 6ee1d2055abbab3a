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
// This file holds the loudness-normalization stage and the safe-name rename
// that follows it. The normalized intermediate is registered for removal on
// every exit path; only the downloaded source survives failures.
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Maisgodagov/video-learning-pipeline/internal/cloud"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/cor"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/media"
)

// NormalizeCommand runs the two-pass loudness normalization (and optional
// video re-encode) over the source video.
type NormalizeCommand struct {
	cor.BaseCommand
	toolchain *media.Toolchain
	tempDir   string
	norm      cloud.AudioNormalizationConfig
	comp      cloud.VideoCompressionConfig
}

// NewNormalizeCommand constructs the stage.
func NewNormalizeCommand(name string, toolchain *media.Toolchain, tempDir string,
	norm cloud.AudioNormalizationConfig, comp cloud.VideoCompressionConfig) *NormalizeCommand {
	return &NormalizeCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		toolchain:   toolchain,
		tempDir:     tempDir,
		norm:        norm,
		comp:        comp,
	}
}

// IsExecutable requires the video source record.
func (c *NormalizeCommand) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(VideoSourceParam) != nil && context.GetContext() != nil
}

// Execute normalizes the media and advances the source's processed path.
// When neither normalization nor compression applies, the stage is a no-op
// and the deliverable stays the downloaded file.
func (c *NormalizeCommand) Execute(context cor.Context) {
	source := context.Get(VideoSourceParam).(*VideoSource)

	if !c.norm.Apply && !c.comp.Apply {
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		context.Add(cor.CtxOut, source)
		return
	}

	outputPath, err := c.toolchain.NormalizeAudio(context.GetContext(), source.LocalPath, c.tempDir, c.norm, c.comp)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	if outputPath != source.LocalPath {
		context.AddTempFile(outputPath)
	}
	source.ProcessedPath = outputPath

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, source)
}

// RenameCommand ensures the deliverable's on-disk basename equals the safe
// name before packaging and upload.
type RenameCommand struct {
	cor.BaseCommand
}

// NewRenameCommand constructs the stage.
func NewRenameCommand(name string) *RenameCommand {
	return &RenameCommand{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable requires the video source record.
func (c *RenameCommand) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(VideoSourceParam) != nil && context.GetContext() != nil
}

// Execute renames the deliverable to the safe name. The downloaded source is
// never renamed away: if it is still the deliverable (normalization
// disabled), a copy is made so the source stays in place for the failure
// contract.
func (c *RenameCommand) Execute(context cor.Context) {
	source := context.Get(VideoSourceParam).(*VideoSource)

	target := filepath.Join(filepath.Dir(source.ProcessedPath), source.SafeName)
	if source.ProcessedPath == target {
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		context.Add(cor.CtxOut, source)
		return
	}

	var err error
	if source.ProcessedPath == source.LocalPath {
		err = copyFile(source.ProcessedPath, target)
	} else if err = os.Rename(source.ProcessedPath, target); err != nil {
		// Cross-device moves fail with EXDEV; fall back to copy+unlink.
		if copyErr := copyFile(source.ProcessedPath, target); copyErr == nil {
			err = os.Remove(source.ProcessedPath)
		} else {
			err = copyErr
		}
	}
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to assign safe name: %w", err))
		return
	}

	context.AddTempFile(target)
	source.ProcessedPath = target

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, source)
}

func copyFile(sourcePath, destPath string) error {
	in, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
