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

// Package cloud provides configuration and clients for the pipeline's
// external services. This file assembles the ServiceClients container: the
// single set of process-wide client objects (object stores, generative
// model, transcription engine) shared by every pipeline run. It is built
// once at startup and passed down; none of the clients are exchanged across
// video boundaries.
package cloud

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/Maisgodagov/video-learning-pipeline/internal/transcription"
)

// ServiceClients is the dependency container for all external services.
type ServiceClients struct {
	IngestStore         *IngestStore  // Intake bucket lifecycle; nil when S3 input is disabled.
	ContentStore        *ContentStore // CDN-served output bucket.
	GenAIClient         *genai.Client
	AgentModel          *QuotaAwareGenerativeAIModel // Rate-limited Gemini handle used by translation, analysis, and exercises.
	TranscriptionEngine transcription.Engine
}

// NewCloudServiceClients initializes every external client from the loaded
// configuration.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	out := &ServiceClients{}

	if config.S3Input.Enabled {
		ingest, err := NewIngestStore(ctx, config.S3Input)
		if err != nil {
			return nil, fmt.Errorf("create ingest store: %w", err)
		}
		out.IngestStore = ingest
	}

	content, err := NewContentStore(ctx, config.Storage)
	if err != nil {
		return nil, fmt.Errorf("create content store: %w", err)
	}
	out.ContentStore = content

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.Google.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	out.GenAIClient = gc

	generationConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](config.Google.Temperature),
		TopP:            genai.Ptr[float32](config.Google.TopP),
		MaxOutputTokens: config.Google.MaxOutputTokens,
	}
	out.AgentModel = NewQuotaAwareModel(generationConfig, config.Google.GeminiModel, gc.Models, config.Google.RateLimit)

	switch config.Transcription.Provider {
	case "openai":
		out.TranscriptionEngine = transcription.NewOpenAIEngine(config.Transcription.OpenAIAPIKey, config.Transcription.OpenAIModel)
	case "xenova":
		out.TranscriptionEngine = &transcription.LocalWhisperEngine{
			PythonExecutable: config.Transcription.PythonExecutable,
			Model:            config.Transcription.Model,
			Device:           config.Transcription.Device,
			BeamSize:         config.Transcription.BeamSize,
			BestOf:           config.Transcription.BestOf,
			FP16:             config.Transcription.FP16,
		}
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", config.Transcription.Provider)
	}

	return out, nil
}
