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

// Package commands provides the concrete pipeline stage implementations of
// the cor.Command interface. This file defines the shared context parameter
// names the stages use to exchange state, the VideoSource record that tracks
// the media file through the pipeline, and the safe-ID generator.
package commands

import (
	"strings"

	"github.com/google/uuid"
)

// Context parameter keys shared across stages. Commands pipe their primary
// output through cor.CtxOut and additionally publish named parameters that
// later, non-adjacent stages read.
const (
	VideoSourceParam   = "__VIDEO_SOURCE__"
	DurationParam      = "__DURATION_SECONDS__"
	TranscriptionParam = "__TRANSCRIPTION__"
	TranslationParam   = "__TRANSLATION__"
	AnalysisParam      = "__ANALYSIS__"
	ExercisesParam     = "__EXERCISES__"
	VideoURLParam      = "__VIDEO_URL__"
	ProcessedParam     = "__PROCESSED_VIDEO__"
)

// SafeIDLength is the length of the generated alphanumeric file ID.
const SafeIDLength = 16

// VideoSource tracks one video's identity and on-disk locations through the
// pipeline. LocalPath is the downloaded source (deleted only on success);
// ProcessedPath is the current deliverable as it advances through
// normalization and renaming.
type VideoSource struct {
	LocalPath     string // Downloaded source video.
	ProcessedPath string // Current deliverable; starts equal to LocalPath.
	OriginalName  string // Original basename, e.g. "hello.mp4".
	SafeID        string // 16-char alphanumeric ID.
	SafeName      string // SafeID plus the lowercased source extension.
}

// NewVideoSource assigns a fresh safe identity to a downloaded video.
func NewVideoSource(localPath, originalName string) *VideoSource {
	id := NewSafeID()
	ext := strings.ToLower(extOf(originalName))
	return &VideoSource{
		LocalPath:     localPath,
		ProcessedPath: localPath,
		OriginalName:  originalName,
		SafeID:        id,
		SafeName:      id + ext,
	}
}

func extOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}

// NewSafeID generates a 16-character alphanumeric identifier from UUID
// entropy, safe to use as a filename on any filesystem and as a CDN path
// segment.
func NewSafeID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return raw[:SafeIDLength]
}
