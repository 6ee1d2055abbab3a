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

// Package workflow assembles the per-video processing pipeline from the
// stage commands. The pipeline is one linear chain per the state machine
//
//	Downloaded -> AudioExtracted -> Transcribed -> SegmentsBuilt
//	  -> Translated -> Analyzed -> ExercisesGenerated
//	  -> AudioNormalized -> Renamed -> Packaged -> Uploaded -> Persisted
//
// The pipeline modes share this chain and differ only in which edges exist;
// a StagePolicy decides stage inclusion while the chain is assembled instead
// of duplicating pipelines per mode.
package workflow

import (
	"os"

	"github.com/Maisgodagov/video-learning-pipeline/internal/cloud"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/commands"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/cor"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/llm"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/media"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/segmenter"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/translate"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/validate"
	"github.com/Maisgodagov/video-learning-pipeline/internal/db"
)

// StagePolicy selects which pipeline edges exist for a run.
type StagePolicy string

const (
	// PolicyFull runs every stage.
	PolicyFull StagePolicy = "full"
	// PolicyNoExercises skips exercise generation and persists an empty set.
	PolicyNoExercises StagePolicy = "no-exercises"
	// PolicyTranscriptionOnly stops after segmentation and writes only the
	// transcription JSON; nothing is uploaded or persisted.
	PolicyTranscriptionOnly StagePolicy = "transcription-only"
)

// ParsePolicy maps a configured mode string onto a policy, defaulting to
// the full pipeline.
func ParsePolicy(mode string) StagePolicy {
	switch StagePolicy(mode) {
	case PolicyNoExercises:
		return PolicyNoExercises
	case PolicyTranscriptionOnly:
		return PolicyTranscriptionOnly
	}
	return PolicyFull
}

// PipelineOptions carries the request-scoped parameters of one pipeline
// instance. Language lives here, not in shared configuration, so batches in
// different languages cannot race on a global.
type PipelineOptions struct {
	Policy   StagePolicy
	Language string // Transcription source language; falls back to the configured one.
}

// VideoPipelineWorkflow is the per-video orchestrator: a chain over the
// stage commands, assembled once and executed per video.
type VideoPipelineWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// Execute runs the pipeline chain over the given context.
func (w *VideoPipelineWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// NewVideoPipeline assembles the pipeline for one policy. store may be nil
// in transcription-only mode.
func NewVideoPipeline(config *cloud.Config, clients *cloud.ServiceClients, store *db.Store, opts PipelineOptions) *VideoPipelineWorkflow {
	tempDir := config.Application.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	outputDir := config.Application.OutputDir
	if outputDir == "" {
		outputDir = "output"
	}
	language := opts.Language
	if language == "" {
		language = config.Transcription.Language
	}

	toolchain := media.NewToolchain(config.FFmpeg)
	catalog := validate.NewCatalog(config.VideoTopics)

	phraseCfg := segmenter.Config{
		MinWords:    config.Transcription.PhraseMinWords,
		MaxWords:    config.Transcription.PhraseMaxWords,
		MinDuration: config.Transcription.PhraseMinDurationSeconds,
		MaxDuration: config.Transcription.PhraseMaxDurationSeconds,
		MaxGap:      config.Transcription.MaxGapBetweenWordChunksSecond,
	}
	wordCfg := segmenter.Config{
		MinWords: config.Transcription.WordMinWords,
		MaxWords: config.Transcription.WordMaxWords,
		MaxGap:   config.Transcription.MaxGapBetweenWordChunksSecond,
	}

	out := cor.NewBaseChain("video-pipeline")

	out.AddCommand(commands.NewAudioExtractCommand("extract-audio", toolchain, tempDir))
	out.AddCommand(commands.NewTranscribeCommand("transcribe-audio", clients.TranscriptionEngine, language))
	out.AddCommand(commands.NewSegmentCommand("build-transcript-views", phraseCfg, wordCfg))

	if opts.Policy != PolicyTranscriptionOnly {
		coordinator := translate.NewCoordinator(clients.AgentModel, translate.Options{
			SourceLanguage: language,
			TargetLanguage: "Russian",
			BatchSize:      config.Google.TranslationChunkSize,
			MaxAttempts:    config.Google.TranslationAttempts,
			ContextLines:   config.Google.TranslationContextLen,
		})
		out.AddCommand(commands.NewTranslateCommand("translate-phrases", coordinator))
		out.AddCommand(commands.NewAnalyzeCommand("analyze-content", llm.NewAnalysisGenerator(clients.AgentModel, catalog)))

		if opts.Policy == PolicyFull {
			out.AddCommand(commands.NewExercisesCommand("generate-exercises", llm.NewExerciseGenerator(clients.AgentModel)))
		}

		out.AddCommand(commands.NewNormalizeCommand("normalize-audio", toolchain, tempDir,
			config.AudioNormalization, config.VideoCompression))
		out.AddCommand(commands.NewRenameCommand("assign-safe-name"))
		out.AddCommand(commands.NewPackageUploadCommand("package-and-upload", toolchain, clients.ContentStore, tempDir, config.HLS))
		out.AddCommand(commands.NewAssembleCommand("assemble-record", catalog))
	}

	out.AddCommand(commands.NewWriteJSONCommand("write-json", outputDir))

	if opts.Policy != PolicyTranscriptionOnly && store != nil {
		out.AddCommand(commands.NewPersistCommand("write-to-database", store))
	}

	return &VideoPipelineWorkflow{
		BaseCommand: *cor.NewBaseCommand("video-pipeline-workflow"),
		chain:       out,
	}
}
