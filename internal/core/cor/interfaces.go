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

// Package cor (Chain of Responsibility) provides the building blocks for the
// per-video processing pipeline. A pipeline is a Chain of Commands executed
// sequentially over a shared Context that carries data, errors, and the
// cleanup registries for every intermediate file a stage creates.
//
// The Context distinguishes two cleanup classes, because the pipeline's
// cleanup contract does: temp files are removed on every exit path, while
// success-only files (the downloaded source video) are removed only after the
// whole chain completed without errors.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys that carry the primary data flow between
// commands. After each command runs, the chain moves the value stored under
// CtxOut into CtxIn so it becomes the next command's input.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state object passed through a chain of commands. It
// is a property bag for a single video's pipeline execution.
type Context interface {
	// SetContext sets the standard Go context used for cancellation and
	// trace propagation. The chain updates it per command span.
	SetContext(context context.Context)

	// GetContext retrieves the standard Go context.
	GetContext() context.Context

	// Add stores a key-value pair. Returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error under the name of the command that raised it.
	AddError(key string, err error)

	// GetErrors returns all errors collected during the execution.
	GetErrors() map[string]error

	// Get retrieves a value by key, or nil.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// HasErrors reports whether any command recorded an error.
	HasErrors() bool

	// AddTempFile registers a path (file or directory) to delete on every
	// exit path, success or failure.
	AddTempFile(file string)

	// GetTempFiles returns all registered always-delete paths.
	GetTempFiles() []string

	// AddSuccessOnlyFile registers a path to delete only when the whole
	// chain finished without errors. Used for the downloaded source video,
	// which must survive failed runs.
	AddSuccessOnlyFile(file string)

	// Close removes the registered temp files, and the success-only files
	// too when succeeded is true. Removal failures are logged and swallowed.
	Close(succeeded bool)
}

// Executable is any object with a core execution step.
type Executable interface {
	Execute(context Context)
}

// Command is an atomic, testable unit of work within a pipeline.
type Command interface {
	Executable

	// GetName returns the command's unique name for logs and telemetry.
	GetName() string

	// GetInputParam returns the context key the command reads its primary
	// input from (defaults to CtxIn).
	GetInputParam() string

	// GetOutputParam returns the context key the command writes its primary
	// output to (defaults to CtxOut).
	GetOutputParam() string

	// IsExecutable is the precondition check run before Execute.
	IsExecutable(context Context) bool

	// GetTracer returns the command's OpenTelemetry tracer.
	GetTracer() trace.Tracer

	// GetMeter returns the command's OpenTelemetry meter.
	GetMeter() metric.Meter

	// GetSuccessCounter returns the counter incremented on success.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the counter incremented on failure.
	GetErrorCounter() metric.Int64Counter
}

// Chain is a sequence of commands. A Chain is itself a Command, so chains can
// nest. Execution stops at the first failed command unless configured to
// continue, and always stops when the Go context has been cancelled.
type Chain interface {
	Command

	// ContinueOnFailure configures whether later commands still run after an
	// earlier one recorded an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
