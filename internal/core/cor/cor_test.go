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

package cor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendCommand appends its tag to the piped string, or fails.
type appendCommand struct {
	BaseCommand
	tag  string
	fail bool
}

func newAppendCommand(tag string, fail bool) *appendCommand {
	return &appendCommand{BaseCommand: *NewBaseCommand("append-" + tag), tag: tag, fail: fail}
}

func (c *appendCommand) Execute(context Context) {
	if c.fail {
		context.AddError(c.GetName(), errors.New("boom"))
		return
	}
	in, _ := context.Get(c.GetInputParam()).(string)
	context.Add(CtxOut, in+c.tag)
}

func TestChainPipesOutputToInput(t *testing.T) {
	chain := NewBaseChain("test-chain")
	chain.AddCommand(newAppendCommand("a", false))
	chain.AddCommand(newAppendCommand("b", false))
	chain.AddCommand(newAppendCommand("c", false))

	chCtx := NewBaseContext()
	chCtx.SetContext(context.Background())
	chCtx.Add(CtxIn, "")

	chain.Execute(chCtx)

	require.False(t, chCtx.HasErrors())
	assert.Equal(t, "abc", chCtx.Get(CtxIn))
}

func TestChainStopsAtFirstError(t *testing.T) {
	chain := NewBaseChain("test-chain")
	chain.AddCommand(newAppendCommand("a", false))
	chain.AddCommand(newAppendCommand("b", true))
	chain.AddCommand(newAppendCommand("c", false))

	chCtx := NewBaseContext()
	chCtx.SetContext(context.Background())
	chCtx.Add(CtxIn, "")

	chain.Execute(chCtx)

	require.True(t, chCtx.HasErrors())
	// The third command never ran: the piped value still ends at "a".
	assert.Equal(t, "a", chCtx.Get(CtxIn))
}

func TestChainStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := NewBaseChain("test-chain")
	chain.AddCommand(newAppendCommand("a", false))

	chCtx := NewBaseContext()
	chCtx.SetContext(ctx)
	chCtx.Add(CtxIn, "")

	chain.Execute(chCtx)

	require.True(t, chCtx.HasErrors())
	assert.Equal(t, "", chCtx.Get(CtxIn))
}

func TestContextCleanupContract(t *testing.T) {
	dir := t.TempDir()
	temp := filepath.Join(dir, "audio.wav")
	source := filepath.Join(dir, "video.mp4")
	require.NoError(t, os.WriteFile(temp, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(source, []byte("x"), 0o644))

	// Failure path: intermediates removed, source survives.
	chCtx := NewBaseContext()
	chCtx.AddTempFile(temp)
	chCtx.AddSuccessOnlyFile(source)
	chCtx.Close(false)

	assert.NoFileExists(t, temp)
	assert.FileExists(t, source)

	// Success path: everything removed.
	require.NoError(t, os.WriteFile(temp, []byte("x"), 0o644))
	chCtx = NewBaseContext()
	chCtx.AddTempFile(temp)
	chCtx.AddSuccessOnlyFile(source)
	chCtx.Close(true)

	assert.NoFileExists(t, temp)
	assert.NoFileExists(t, source)
}

func TestContextCleanupRemovesDirectories(t *testing.T) {
	dir := t.TempDir()
	hlsDir := filepath.Join(dir, "hls")
	require.NoError(t, os.MkdirAll(hlsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(hlsDir, "seg.m4s"), []byte("x"), 0o644))

	chCtx := NewBaseContext()
	chCtx.AddTempFile(hlsDir)
	chCtx.Close(false)

	assert.NoDirExists(t, hlsDir)
}
