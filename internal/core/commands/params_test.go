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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSafeID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewSafeID()
		assert.Len(t, id, SafeIDLength)
		for _, r := range id {
			assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z'), "unexpected rune %q", r)
		}
		assert.False(t, seen[id], "safe IDs must not repeat")
		seen[id] = true
	}
}

func TestNewVideoSource(t *testing.T) {
	source := NewVideoSource("/tmp/work/Hello World.MP4", "Hello World.MP4")
	assert.Equal(t, "/tmp/work/Hello World.MP4", source.LocalPath)
	assert.Equal(t, source.LocalPath, source.ProcessedPath)
	assert.Len(t, source.SafeID, SafeIDLength)
	assert.Equal(t, source.SafeID+".mp4", source.SafeName)
}

func TestNewVideoSourceWithoutExtension(t *testing.T) {
	source := NewVideoSource("/tmp/clip", "clip")
	assert.Equal(t, source.SafeID, source.SafeName)
}
