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

package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Maisgodagov/video-learning-pipeline/internal/cloud"
	"github.com/Maisgodagov/video-learning-pipeline/internal/testutil"
)

func TestParsePolicy(t *testing.T) {
	assert.Equal(t, PolicyFull, ParsePolicy("full"))
	assert.Equal(t, PolicyNoExercises, ParsePolicy("no-exercises"))
	assert.Equal(t, PolicyTranscriptionOnly, ParsePolicy("transcription-only"))
	assert.Equal(t, PolicyFull, ParsePolicy(""))
	assert.Equal(t, PolicyFull, ParsePolicy("ru-audio-batch"))
}

// Assembly must work for every policy even before any client performs I/O;
// the chain only holds references until it is executed.
func TestNewVideoPipelineAssemblesForAllPolicies(t *testing.T) {
	config := testutil.GetConfig()
	clients := &cloud.ServiceClients{}

	for _, policy := range []StagePolicy{PolicyFull, PolicyNoExercises, PolicyTranscriptionOnly} {
		pipeline := NewVideoPipeline(config, clients, nil, PipelineOptions{Policy: policy})
		assert.NotNil(t, pipeline, "policy %s", policy)
	}
}

// The request-scoped language wins over the configured one.
func TestPipelineOptionsLanguageOverride(t *testing.T) {
	config := testutil.GetConfig()
	assert.Equal(t, "english", config.Transcription.Language)

	pipeline := NewVideoPipeline(config, &cloud.ServiceClients{}, nil, PipelineOptions{
		Policy:   PolicyTranscriptionOnly,
		Language: "russian",
	})
	assert.NotNil(t, pipeline)
	// The shared configuration is untouched by the override.
	assert.Equal(t, "english", config.Transcription.Language)
}
