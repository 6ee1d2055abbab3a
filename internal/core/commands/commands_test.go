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

package commands

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maisgodagov/video-learning-pipeline/internal/core/cor"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
)

func newChainContext(source *VideoSource) cor.Context {
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(context.Background())
	chCtx.Add(VideoSourceParam, source)
	return chCtx
}

func TestRenameCommandRenamesIntermediate(t *testing.T) {
	dir := t.TempDir()
	localPath := filepath.Join(dir, "original.mp4")
	normalized := filepath.Join(dir, "original.normalized.mp4")
	require.NoError(t, os.WriteFile(localPath, []byte("src"), 0o644))
	require.NoError(t, os.WriteFile(normalized, []byte("norm"), 0o644))

	source := NewVideoSource(localPath, "original.mp4")
	source.ProcessedPath = normalized

	chCtx := newChainContext(source)
	NewRenameCommand("assign-safe-name").Execute(chCtx)

	require.False(t, chCtx.HasErrors())
	assert.Equal(t, filepath.Join(dir, source.SafeName), source.ProcessedPath)
	assert.FileExists(t, source.ProcessedPath)
	assert.NoFileExists(t, normalized)
	// The downloaded source is untouched.
	assert.FileExists(t, localPath)
}

func TestRenameCommandCopiesWhenSourceIsDeliverable(t *testing.T) {
	dir := t.TempDir()
	localPath := filepath.Join(dir, "original.mp4")
	require.NoError(t, os.WriteFile(localPath, []byte("src"), 0o644))

	source := NewVideoSource(localPath, "original.mp4")

	chCtx := newChainContext(source)
	NewRenameCommand("assign-safe-name").Execute(chCtx)

	require.False(t, chCtx.HasErrors())
	assert.Equal(t, filepath.Join(dir, source.SafeName), source.ProcessedPath)
	assert.FileExists(t, source.ProcessedPath)
	// Copy, not move: the source must survive for the failure contract.
	assert.FileExists(t, localPath)
}

func TestWriteJSONCommandWritesProcessedRecord(t *testing.T) {
	dir := t.TempDir()
	source := NewVideoSource("/tmp/x.mp4", "x.mp4")

	processed := &model.ProcessedVideo{
		VideoName: source.SafeName,
		VideoURL:  "https://cdn.example.com/videos/x/master.m3u8",
		Exercises: []model.Exercise{},
	}

	chCtx := newChainContext(source)
	chCtx.Add(ProcessedParam, processed)

	NewWriteJSONCommand("write-json", dir).Execute(chCtx)
	require.False(t, chCtx.HasErrors())

	data, err := os.ReadFile(filepath.Join(dir, source.SafeID+".json"))
	require.NoError(t, err)
	// 2-space indentation.
	assert.Contains(t, string(data), "\n  \"videoName\"")

	var roundTrip model.ProcessedVideo
	require.NoError(t, json.Unmarshal(data, &roundTrip))
	assert.Equal(t, processed.VideoURL, roundTrip.VideoURL)
}

func TestWriteJSONCommandTranscriptionOnly(t *testing.T) {
	dir := t.TempDir()
	source := NewVideoSource("/tmp/x.mp4", "x.mp4")

	variants := model.TranscriptionVariants{FullText: "hello"}
	chCtx := newChainContext(source)
	chCtx.Add(TranscriptionParam, variants)

	NewWriteJSONCommand("write-json", dir).Execute(chCtx)
	require.False(t, chCtx.HasErrors())

	data, err := os.ReadFile(filepath.Join(dir, source.SafeID+".json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fullText": "hello"`)
	assert.NotContains(t, string(data), "videoUrl")
}
