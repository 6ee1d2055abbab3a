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

// Package worker drives the batch and polling execution of the per-video
// pipeline. This file implements the batch runner: one pass over the intake
// (the S3 pending/ prefix, or a local directory when S3 input is disabled),
// processing videos strictly sequentially and re-filing each source object
// under completed/ or failed/ when it is done.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Maisgodagov/video-learning-pipeline/internal/cloud"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/commands"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/cor"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/workflow"
)

// Stats aggregates run counters for the status endpoint and the end-of-batch
// report.
type Stats struct {
	mu                sync.Mutex
	processed         int
	failed            int
	lastCycleStart    time.Time
	lastCycleDuration time.Duration
}

// StatsSnapshot is the read-only view served by the status API.
type StatsSnapshot struct {
	Processed         int       `json:"processed"`
	Failed            int       `json:"failed"`
	LastCycleStart    time.Time `json:"lastCycleStart"`
	LastCycleDuration string    `json:"lastCycleDuration"`
}

func (s *Stats) record(succeeded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if succeeded {
		s.processed++
	} else {
		s.failed++
	}
}

func (s *Stats) cycle(start time.Time, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCycleStart = start
	s.lastCycleDuration = d
}

// Snapshot returns a consistent copy of the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		Processed:         s.processed,
		Failed:            s.failed,
		LastCycleStart:    s.lastCycleStart,
		LastCycleDuration: s.lastCycleDuration.String(),
	}
}

// Runner executes one intake pass at a time over the shared pipeline.
type Runner struct {
	config   *cloud.Config
	clients  *cloud.ServiceClients
	pipeline *workflow.VideoPipelineWorkflow
	tempDir  string
	Stats    *Stats
}

// NewRunner builds the batch runner around an assembled pipeline.
func NewRunner(config *cloud.Config, clients *cloud.ServiceClients, pipeline *workflow.VideoPipelineWorkflow) *Runner {
	tempDir := config.Application.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Runner{
		config:   config,
		clients:  clients,
		pipeline: pipeline,
		tempDir:  tempDir,
		Stats:    &Stats{},
	}
}

// RunOnce performs one pass over the intake and reports per-video status and
// wall-clock durations.
func (r *Runner) RunOnce(ctx context.Context) error {
	start := time.Now()
	defer func() { r.Stats.cycle(start, time.Since(start)) }()

	if r.config.S3Input.Enabled {
		return r.runS3Pass(ctx, start)
	}
	return r.runLocalPass(ctx)
}

func (r *Runner) runS3Pass(ctx context.Context, start time.Time) error {
	pending, err := r.clients.IngestStore.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		slog.Info("no pending videos")
		return nil
	}
	slog.Info("starting batch", "videos", len(pending))

	completed, failed := 0, 0
	for _, obj := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		videoStart := time.Now()
		succeeded := r.processRemote(ctx, obj)
		r.Stats.record(succeeded)
		if succeeded {
			completed++
		} else {
			failed++
		}
		fmt.Printf("%s: %s in %s\n", obj.Name, statusWord(succeeded), time.Since(videoStart).Round(time.Millisecond))
	}

	fmt.Printf("batch finished: %d completed, %d failed, took %s\n", completed, failed, time.Since(start).Round(time.Millisecond))
	return nil
}

// processRemote runs the full lifecycle of one S3 object: move to
// processing, download, orchestrate, and re-file under completed/ or
// failed/. The local copy is deleted in every case; the durable record of a
// failure is the object's presence under failed/.
func (r *Runner) processRemote(ctx context.Context, obj cloud.PendingObject) bool {
	ingest := r.clients.IngestStore

	key := ingest.MoveToProcessing(ctx, obj.Key)

	localPath, err := ingest.Download(ctx, key, r.tempDir)
	if err != nil {
		slog.Error("download failed", "key", key, "error", err)
		ingest.MoveToFailed(ctx, key)
		return false
	}

	succeeded := r.runPipeline(ctx, localPath, obj.Name)

	if succeeded {
		ingest.MoveToCompleted(ctx, key)
	} else {
		ingest.MoveToFailed(ctx, key)
	}

	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove local copy", "path", localPath, "error", err)
	}
	return succeeded
}

// runLocalPass processes the local intake directory. Sources are deleted
// only on success here: with no failed/ prefix to re-file into, the file on
// disk is the durable record of a failure.
func (r *Runner) runLocalPass(ctx context.Context) error {
	inputDir := r.config.Application.InputDir
	if inputDir == "" {
		inputDir = "input"
	}
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return fmt.Errorf("read input dir: %w", err)
	}

	completed, failed := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !cloud.VideoExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		videoStart := time.Now()
		succeeded := r.runPipeline(ctx, filepath.Join(inputDir, entry.Name()), entry.Name())
		r.Stats.record(succeeded)
		if succeeded {
			completed++
		} else {
			failed++
		}
		fmt.Printf("%s: %s in %s\n", entry.Name(), statusWord(succeeded), time.Since(videoStart).Round(time.Millisecond))
	}

	fmt.Printf("batch finished: %d completed, %d failed\n", completed, failed)
	return nil
}

// runPipeline executes the orchestrator chain for one downloaded video and
// runs the cleanup contract: intermediates always, the source only on
// success.
func (r *Runner) runPipeline(ctx context.Context, localPath, originalName string) bool {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(commands.VideoSourceParam, commands.NewVideoSource(localPath, originalName))
	chainCtx.AddSuccessOnlyFile(localPath)

	r.pipeline.Execute(chainCtx)

	for name, err := range chainCtx.GetErrors() {
		slog.Error("pipeline stage failed", "video", originalName, "stage", name, "error", err)
	}

	succeeded := !chainCtx.HasErrors()
	chainCtx.Close(succeeded)
	return succeeded
}

func statusWord(succeeded bool) string {
	if succeeded {
		return "completed"
	}
	return "failed"
}
