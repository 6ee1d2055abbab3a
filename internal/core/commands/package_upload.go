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
// This file packages and uploads the deliverable. With HLS enabled the
// stage encodes the rendition set and uploads the whole package directory;
// any HLS failure degrades to a plain MP4 upload instead of failing the
// video. The recorded video URL is the master playlist (or the MP4 on
// fallback).
package commands

import (
	"log/slog"
	"path/filepath"

	"github.com/Maisgodagov/video-learning-pipeline/internal/cloud"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/cor"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/media"
)

// uploadPrefix is the key prefix for processed content in the output bucket.
const uploadPrefix = "videos"

// PackageUploadCommand encodes (optionally) and uploads the deliverable.
type PackageUploadCommand struct {
	cor.BaseCommand
	toolchain *media.Toolchain
	store     *cloud.ContentStore
	tempDir   string
	hls       cloud.HLSConfig
}

// NewPackageUploadCommand constructs the stage.
func NewPackageUploadCommand(name string, toolchain *media.Toolchain, store *cloud.ContentStore,
	tempDir string, hls cloud.HLSConfig) *PackageUploadCommand {
	return &PackageUploadCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		toolchain:   toolchain,
		store:       store,
		tempDir:     tempDir,
		hls:         hls,
	}
}

// IsExecutable requires the video source record.
func (c *PackageUploadCommand) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(VideoSourceParam) != nil && context.GetContext() != nil
}

// Execute uploads the deliverable and publishes its CDN URL.
func (c *PackageUploadCommand) Execute(context cor.Context) {
	source := context.Get(VideoSourceParam).(*VideoSource)
	ctx := context.GetContext()

	if c.hls.Enabled {
		hlsDir := filepath.Join(c.tempDir, source.SafeID+"-hls")
		context.AddTempFile(hlsDir)

		result, err := c.toolchain.EncodeHLS(ctx, source.ProcessedPath, hlsDir, source.SafeID, c.hls)
		if err == nil {
			url, uploadErr := c.store.UploadTree(ctx, result.OutputDir, uploadPrefix, source.SafeID, result.MasterPlaylistName)
			if uploadErr == nil {
				if c.hls.IncludeMp4Fallback {
					if _, mp4Err := c.store.UploadFile(ctx, source.ProcessedPath, uploadPrefix, source.SafeName); mp4Err != nil {
						slog.Warn("mp4 fallback upload failed", "video", source.SafeName, "error", mp4Err)
					}
				}
				c.GetSuccessCounter().Add(ctx, 1)
				context.Add(VideoURLParam, url)
				context.Add(cor.CtxOut, source)
				return
			}
			err = uploadErr
		}
		slog.Warn("hls packaging failed; falling back to plain mp4 upload", "video", source.SafeName, "error", err)
	}

	url, err := c.store.UploadFile(ctx, source.ProcessedPath, uploadPrefix, source.SafeName)
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(ctx, 1)
	context.Add(VideoURLParam, url)
	context.Add(cor.CtxOut, source)
}
