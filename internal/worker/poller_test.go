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

package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// slowRunner blocks each cycle until released and counts its invocations.
type slowRunner struct {
	started atomic.Int32
	release chan struct{}
}

func (r *slowRunner) RunOnce(ctx context.Context) error {
	r.started.Add(1)
	select {
	case <-r.release:
	case <-ctx.Done():
	}
	return nil
}

// Ticks arriving while a cycle is in flight are dropped, not queued: after
// the long first cycle finishes, only one further cycle starts per tick.
func TestPollerDropsOverlappingTicks(t *testing.T) {
	runner := &slowRunner{release: make(chan struct{})}
	p := NewPoller(runner, 20*time.Millisecond)

	shutdownCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(shutdownCtx, context.Background())
		close(done)
	}()

	// Let several ticks elapse while the first cycle is still blocked.
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, int32(1), runner.started.Load(), "overlapping ticks must be dropped")

	// Release the cycle; the next tick may start exactly one more.
	close(runner.release)
	time.Sleep(60 * time.Millisecond)

	stop()
	<-done

	started := runner.started.Load()
	assert.GreaterOrEqual(t, started, int32(2))
	assert.LessOrEqual(t, started, int32(5))
}

// Shutdown waits for the in-flight cycle instead of abandoning it.
func TestPollerDrainsInFlightCycleOnShutdown(t *testing.T) {
	runner := &slowRunner{release: make(chan struct{})}
	p := NewPoller(runner, 10*time.Millisecond)

	shutdownCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(shutdownCtx, context.Background())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	stop()

	// Run must not return while the cycle is still blocked.
	select {
	case <-done:
		t.Fatal("poller returned before the in-flight cycle finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(runner.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not drain after the cycle finished")
	}
}

func TestStatsSnapshot(t *testing.T) {
	s := &Stats{}
	s.record(true)
	s.record(true)
	s.record(false)
	s.cycle(time.Now(), 3*time.Second)

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Processed)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, "3s", snap.LastCycleDuration)
}
