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

// Package commands provides the concrete pipeline stage implementations.
// This file is the terminal persistence stage: the validated composite
// record becomes one relational row plus its topic rows.
package commands

import (
	"log/slog"

	"github.com/Maisgodagov/video-learning-pipeline/internal/core/cor"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
	"github.com/Maisgodagov/video-learning-pipeline/internal/db"
)

// PersistCommand inserts the composite record into the database.
type PersistCommand struct {
	cor.BaseCommand
	store *db.Store
}

// NewPersistCommand constructs the stage.
func NewPersistCommand(name string, store *db.Store) *PersistCommand {
	return &PersistCommand{BaseCommand: *cor.NewBaseCommand(name), store: store}
}

// IsExecutable requires the validated composite record.
func (c *PersistCommand) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(ProcessedParam) != nil && context.GetContext() != nil
}

// Execute inserts the record and logs the generated id.
func (c *PersistCommand) Execute(context cor.Context) {
	processed := context.Get(ProcessedParam).(*model.ProcessedVideo)

	id, err := c.store.InsertProcessedVideo(context.GetContext(), processed)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("video persisted", "id", id, "videoName", processed.VideoName)
	context.Add(cor.CtxOut, processed)
}
