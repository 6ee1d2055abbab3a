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
// external services. This file contains the hierarchical configuration
// loader: a base TOML file overlaid with a runtime-specific file, with
// ${VAR} references in the credential fields expanded from the environment so
// credentials never live in the TOML files themselves.
package cloud

import (
	"errors"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	ConfigFileBaseName  = ".env"
	ConfigFileExtension = ".toml"
	ConfigSeparator     = "."
	// EnvConfigFilePrefix names the environment variable that points at the
	// directory holding the TOML files.
	EnvConfigFilePrefix = "VIDEO_PIPELINE_CONFIG_PREFIX"
	// EnvConfigRuntime names the environment variable that selects the
	// runtime overlay (e.g. "local", "test", "prod").
	EnvConfigRuntime = "VIDEO_PIPELINE_RUNTIME"
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig populates baseConfig from the base TOML file and then from the
// runtime-specific overlay, whose values win. A .env file in the working
// directory, when present, is loaded first so ${VAR} expansion sees it.
func LoadConfig(baseConfig *Config) {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env file")
	}

	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "local"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	if fileExists(baseConfigFileName) {
		if err := decodeConfigFile(baseConfigFileName, baseConfig); err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseConfigFileName, err)
		}
	}

	if fileExists(envConfigFileName) {
		if err := decodeConfigFile(envConfigFileName, baseConfig); err != nil {
			log.Fatalf("failed to decode environment configuration file %s with error: %s", envConfigFileName, err)
		}
	}

	expandEnvRefs(baseConfig)
}

func decodeConfigFile(path string, into *Config) error {
	_, err := toml.DecodeFile(path, into)
	return err
}

// expandEnvRefs resolves ${VAR} references in the credential-bearing string
// fields against the process environment.
func expandEnvRefs(c *Config) {
	fields := []*string{
		&c.S3Input.AccessKeyID, &c.S3Input.SecretAccessKey,
		&c.Storage.AccessKeyID, &c.Storage.SecretAccessKey,
		&c.Database.User, &c.Database.Password,
		&c.Google.APIKey, &c.Transcription.OpenAIAPIKey,
	}
	for _, f := range fields {
		if strings.Contains(*f, "${") {
			*f = os.Expand(*f, os.Getenv)
		}
	}
}
