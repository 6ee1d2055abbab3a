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

// The worker binary runs the video ingestion pipeline. It performs one batch
// pass by default and keeps polling the intake when --watch is given (or
// polling is enabled in configuration). An interrupt stops the poller after
// the in-flight video finishes. Exit code 0 on a clean run or shutdown, 1 on
// an unrecoverable error.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Maisgodagov/video-learning-pipeline/internal/api"
	"github.com/Maisgodagov/video-learning-pipeline/internal/cloud"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/workflow"
	"github.com/Maisgodagov/video-learning-pipeline/internal/db"
	"github.com/Maisgodagov/video-learning-pipeline/internal/telemetry"
	"github.com/Maisgodagov/video-learning-pipeline/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	watch := flag.Bool("watch", false, "keep polling the intake instead of exiting after one pass")
	statusAddr := flag.String("status-addr", ":8080", "listen address of the health/stats endpoint in watch mode")
	flag.Parse()

	telemetry.SetupLogging()
	slog.Info("logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := cloud.NewConfig()
	cloud.LoadConfig(config)

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config.Application.Name)
	if err != nil {
		slog.Error("failed to set up OpenTelemetry", "error", err)
		return 1
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	clients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		slog.Error("failed to initialize service clients", "error", err)
		return 1
	}

	policy := workflow.ParsePolicy(config.Application.Mode)

	var store *db.Store
	if policy != workflow.PolicyTranscriptionOnly {
		store, err = db.Open(config.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			return 1
		}
		defer store.Close()

		if err := store.Migrate(ctx); err != nil {
			slog.Error("failed to apply schema", "error", err)
			return 1
		}
	}

	pipeline := workflow.NewVideoPipeline(config, clients, store, workflow.PipelineOptions{
		Policy:   policy,
		Language: config.Transcription.Language,
	})
	runner := worker.NewRunner(config, clients, pipeline)

	if *watch || config.S3Input.EnablePolling {
		return runWatch(ctx, config, runner, *statusAddr)
	}

	if err := runner.RunOnce(ctx); err != nil {
		slog.Error("batch pass failed", "error", err)
		return 1
	}
	return 0
}

// runWatch runs the polling driver with the status endpoint and signal
// handling. The shutdown signal stops scheduling new cycles; the work
// context stays alive so the in-flight video completes or fails on its own.
func runWatch(workCtx context.Context, config *cloud.Config, runner *worker.Runner, statusAddr string) int {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    statusAddr,
		Handler: api.NewStatusRouter(config.Application.Name, runner.Stats),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("status server failed", "error", err)
		}
	}()
	slog.Info("status endpoint ready", "addr", statusAddr)

	interval := time.Duration(config.S3Input.PollingIntervalSeconds) * time.Second
	poller := worker.NewPoller(runner, interval)
	poller.Run(shutdownCtx, workCtx)

	httpCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(httpCtx); err != nil {
		slog.Warn("status server shutdown failed", "error", err)
	}

	slog.Info("worker exiting")
	return 0
}
