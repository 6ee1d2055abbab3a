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

// Package db is the MySQL persistence layer. This file applies the embedded
// DDL on startup. The DDL is written to be re-runnable: CREATE TABLE IF NOT
// EXISTS plus ALTER TABLE ADD COLUMN/INDEX statements whose duplicate errors
// are treated as success, so running the migration twice leaves the schema
// unchanged and raises nothing.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// SplitStatements splits a DDL document on semicolons, dropping comment
// lines and empty fragments.
func SplitStatements(ddl string) []string {
	out := make([]string, 0)
	for _, raw := range strings.Split(ddl, ";") {
		lines := strings.Split(raw, "\n")
		kept := make([]string, 0, len(lines))
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			kept = append(kept, line)
		}
		stmt := strings.TrimSpace(strings.Join(kept, "\n"))
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Migrate executes every schema statement, swallowing duplicate-application
// errors per statement.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.ensureAlive(ctx); err != nil {
		return err
	}
	for _, stmt := range SplitStatements(schemaSQL) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			if isDuplicateDDLError(err) {
				slog.Debug("migration statement already applied", "error", err)
				continue
			}
			return fmt.Errorf("%w: migrate: %v", ErrDatabaseFailure, err)
		}
	}
	slog.Info("database schema is up to date")
	return nil
}
