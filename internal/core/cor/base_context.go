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

// Package cor provides the building blocks for the per-video pipeline.
// This file defines BaseContext, the default Context implementation: a
// property bag with an error map and the two file-cleanup registries the
// pipeline's resource contract requires.
package cor

import (
	"context"
	"log/slog"
	"os"
)

// BaseContext is the default implementation of the Context interface.
type BaseContext struct {
	data             map[string]interface{}
	errors           map[string]error
	tempFiles        []string // Removed on every exit path.
	successOnlyFiles []string // Removed only when the chain succeeded.
	context          context.Context
}

// NewBaseContext returns a new, empty pipeline context.
func NewBaseContext() Context {
	return &BaseContext{
		data:             make(map[string]interface{}),
		errors:           make(map[string]error),
		tempFiles:        make([]string, 0),
		successOnlyFiles: make([]string, 0),
	}
}

// SetContext sets the underlying Go context. The chain updates it so every
// command observes cancellation and carries the right trace span.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext retrieves the underlying Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close removes every registered temp file or directory, and the
// success-only files too when succeeded is true. Removal failures are logged
// and never propagate; cleanup must not mask the pipeline's own result.
func (c *BaseContext) Close(succeeded bool) {
	paths := c.tempFiles
	if succeeded {
		paths = append(paths, c.successOnlyFiles...)
	}
	for _, file := range paths {
		if err := os.RemoveAll(file); err != nil {
			slog.Warn("failed to remove intermediate file", "path", file, "error", err)
		}
	}
}

// Add stores a key-value pair and returns the context for chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddTempFile registers a path for removal on every exit path.
func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

// GetTempFiles returns the registered always-delete paths.
func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddSuccessOnlyFile registers a path for removal only after a fully
// successful run.
func (c *BaseContext) AddSuccessOnlyFile(file string) {
	c.successOnlyFiles = append(c.successOnlyFiles, file)
}

// AddError records an error under the producing command's name.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

// GetErrors returns the map of collected errors.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// Get retrieves a value by key, or nil when absent.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes a key-value pair.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors reports whether any command recorded an error.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
