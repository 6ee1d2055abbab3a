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

// Package worker drives the batch and polling execution of the pipeline.
// This file implements the polling driver: the batch pass repeated on a
// fixed interval, with an in-flight flag that drops (never queues) ticks
// that arrive while a cycle is still running, and a graceful shutdown that
// waits for the in-flight cycle rather than aborting it mid-video.
package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// CycleRunner is the single-pass contract the poller schedules.
type CycleRunner interface {
	RunOnce(ctx context.Context) error
}

// Poller repeats the runner's intake pass on a fixed interval.
type Poller struct {
	runner       CycleRunner
	interval     time.Duration
	isProcessing atomic.Bool
}

// NewPoller builds a poller over the runner.
func NewPoller(runner CycleRunner, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{runner: runner, interval: interval}
}

// Run polls until shutdownCtx is cancelled. Cycles execute against workCtx,
// which the caller keeps alive through shutdown so the in-flight video can
// finish; Run returns only after the last cycle has drained.
func (p *Poller) Run(shutdownCtx, workCtx context.Context) {
	slog.Info("polling started", "interval", p.interval)

	// First pass immediately; the ticker covers the rest.
	p.tick(workCtx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-shutdownCtx.Done():
			p.drain()
			slog.Info("polling stopped")
			return
		case <-ticker.C:
			p.tick(workCtx)
		}
	}
}

// tick starts one cycle unless the previous one is still running, in which
// case the tick is dropped with a log line.
func (p *Poller) tick(workCtx context.Context) {
	if !p.isProcessing.CompareAndSwap(false, true) {
		slog.Info("previous polling cycle still running; skipping tick")
		return
	}
	go func() {
		defer p.isProcessing.Store(false)
		if err := p.runner.RunOnce(workCtx); err != nil {
			slog.Error("polling cycle failed", "error", err)
		}
	}()
}

// drain waits for the in-flight cycle to finish.
func (p *Poller) drain() {
	for p.isProcessing.Load() {
		time.Sleep(200 * time.Millisecond)
	}
}
