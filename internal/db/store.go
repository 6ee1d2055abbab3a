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

// Package db is the MySQL persistence layer. One Store owns the process-wide
// connection (pooled down to a single conn, ping-revalidated before reuse),
// applies the idempotent schema migration at startup, and inserts the
// composite per-video record: one row in video_learning_content plus one
// video_topics row per topic.
//
// No explicit transaction wraps the topic inserts: each video is an
// independent unit, and an orphaned main row after a partial failure is
// ignorable by the next migration pass.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-sql-driver/mysql"

	"github.com/Maisgodagov/video-learning-pipeline/internal/cloud"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/model"
)

// ErrDatabaseFailure marks fatal persistence failures.
var ErrDatabaseFailure = errors.New("database failure")

// Store owns the database handle for one worker run.
type Store struct {
	db *sql.DB
}

// Open connects to MySQL with utf8mb4 and a single pooled connection, and
// verifies the connection with a ping.
func Open(cfg cloud.DatabaseConfig) (*Store, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_unicode_ci&parseTime=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
	handle, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrDatabaseFailure, err)
	}
	handle.SetMaxOpenConns(1)
	handle.SetMaxIdleConns(1)

	if err := handle.Ping(); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrDatabaseFailure, err)
	}
	return &Store{db: handle}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ensureAlive pings before reuse; database/sql re-dials on the second ping
// when the pooled connection went away, so one retry covers the reconnect.
func (s *Store) ensureAlive(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		slog.Warn("database ping failed; retrying once", "error", err)
		if err := s.db.PingContext(ctx); err != nil {
			return fmt.Errorf("%w: connection lost: %v", ErrDatabaseFailure, err)
		}
	}
	return nil
}

const insertVideoSQL = `INSERT INTO video_learning_content
(video_name, video_url, cefr_level, speech_speed, grammar_complexity, vocabulary_complexity,
 topics, phrase_chunks, word_chunks, translation_chunks, transcript_full, translation_full,
 exercises, duration_seconds, status, likes_count, is_adult_content)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'completed', 0, ?)`

const insertTopicSQL = `INSERT INTO video_topics (video_id, topic) VALUES (?, ?)`

// InsertProcessedVideo persists the composite record and returns the
// autogenerated row id.
func (s *Store) InsertProcessedVideo(ctx context.Context, p *model.ProcessedVideo) (int64, error) {
	if err := s.ensureAlive(ctx); err != nil {
		return 0, err
	}

	topicsJSON, err := json.Marshal(p.Analysis.Topics)
	if err != nil {
		return 0, fmt.Errorf("%w: marshal topics: %v", ErrDatabaseFailure, err)
	}
	phraseJSON, err := json.Marshal(p.Transcription.Phrases.Chunks)
	if err != nil {
		return 0, fmt.Errorf("%w: marshal phrase chunks: %v", ErrDatabaseFailure, err)
	}
	wordJSON, err := json.Marshal(p.Transcription.Words.Chunks)
	if err != nil {
		return 0, fmt.Errorf("%w: marshal word chunks: %v", ErrDatabaseFailure, err)
	}
	translationJSON, err := json.Marshal(p.Translation.Chunks)
	if err != nil {
		return 0, fmt.Errorf("%w: marshal translation chunks: %v", ErrDatabaseFailure, err)
	}
	exercisesJSON, err := json.Marshal(p.Exercises)
	if err != nil {
		return 0, fmt.Errorf("%w: marshal exercises: %v", ErrDatabaseFailure, err)
	}

	var duration sql.NullInt64
	if p.DurationSeconds != nil {
		duration = sql.NullInt64{Int64: int64(*p.DurationSeconds), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, insertVideoSQL,
		p.VideoName, p.VideoURL,
		p.Analysis.CEFRLevel, p.Analysis.SpeechSpeed,
		p.Analysis.GrammarComplexity, p.Analysis.VocabularyComplexity,
		string(topicsJSON), string(phraseJSON), string(wordJSON), string(translationJSON),
		p.Transcription.FullText, p.Translation.FullText,
		string(exercisesJSON), duration, p.IsAdultContent,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: insert video: %v", ErrDatabaseFailure, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: last insert id: %v", ErrDatabaseFailure, err)
	}

	for _, topic := range p.Analysis.Topics {
		if _, err := s.db.ExecContext(ctx, insertTopicSQL, id, topic); err != nil {
			return 0, fmt.Errorf("%w: insert topic %q: %v", ErrDatabaseFailure, topic, err)
		}
	}

	slog.Info("persisted processed video", "id", id, "videoName", p.VideoName, "topics", len(p.Analysis.Topics))
	return id, nil
}

// isDuplicateDDLError reports whether the migration statement failed only
// because it had already been applied.
func isDuplicateDDLError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return false
	}
	switch mysqlErr.Number {
	case 1050: // ER_TABLE_EXISTS_ERROR
		return true
	case 1060: // ER_DUP_FIELDNAME
		return true
	case 1061: // ER_DUP_KEYNAME
		return true
	}
	return false
}
