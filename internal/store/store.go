// Package store persists training samples, model snapshots, and learner
// profiles in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ashgrovelabs/tutord/internal/engine"
	"github.com/ashgrovelabs/tutord/internal/sample"
)

const schema = `
CREATE TABLE IF NOT EXISTS training_samples (
	id            TEXT PRIMARY KEY,
	task_category TEXT NOT NULL,
	input_json    TEXT NOT NULL,
	expected_json TEXT NOT NULL,
	content_hash  TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL,
	UNIQUE(task_category, content_hash)
);

CREATE INDEX IF NOT EXISTS idx_samples_category_created
	ON training_samples(task_category, created_at);

CREATE TABLE IF NOT EXISTS model_snapshots (
	id             TEXT PRIMARY KEY,
	task_category  TEXT NOT NULL,
	accuracy_score REAL NOT NULL,
	pattern_json   TEXT NOT NULL,
	trained_at     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_category_trained
	ON model_snapshots(task_category, trained_at);

CREATE TABLE IF NOT EXISTS learner_profiles (
	learner_id   TEXT PRIMARY KEY,
	profile_json TEXT NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS learner_sessions (
	id           TEXT PRIMARY KEY,
	learner_id   TEXT NOT NULL,
	session_json TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_learner
	ON learner_sessions(learner_id, created_at);
`

// Store is the SQLite-backed persistence layer. It satisfies engine.Store
// and analytics.ProfileStore.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	logger.Info("database ready", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertSample stores a sample, returning false when an identical sample
// for the category already exists. Duplicates are not an error.
func (s *Store) InsertSample(ctx context.Context, ts *sample.TrainingSample) (bool, error) {
	if err := ts.Input.Validate(ts.TaskCategory); err != nil {
		return false, err
	}
	if err := ts.Expected.Validate(ts.TaskCategory); err != nil {
		return false, err
	}

	inputJSON, err := json.Marshal(ts.Input)
	if err != nil {
		return false, fmt.Errorf("encoding input: %w", err)
	}
	expectedJSON, err := json.Marshal(ts.Expected)
	if err != nil {
		return false, fmt.Errorf("encoding expected output: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO training_samples (id, task_category, input_json, expected_json, content_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ts.ID, string(ts.TaskCategory), string(inputJSON), string(expectedJSON), ts.ContentHash, ts.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return false, nil
		}
		return false, fmt.Errorf("inserting sample: %w", err)
	}
	return true, nil
}

// CountSamples returns the total sample count for the category.
func (s *Store) CountSamples(ctx context.Context, cat sample.TaskCategory) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM training_samples WHERE task_category = ?`,
		string(cat)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting samples: %w", err)
	}
	return n, nil
}

// CountNewSamples returns how many samples arrived after the category's
// latest snapshot. Without a snapshot, every sample counts as new.
func (s *Store) CountNewSamples(ctx context.Context, cat sample.TaskCategory) (int, error) {
	since, err := s.lastTrainedAt(ctx, cat)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM training_samples WHERE task_category = ? AND created_at > ?`,
		string(cat), since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting new samples: %w", err)
	}
	return n, nil
}

func (s *Store) lastTrainedAt(ctx context.Context, cat sample.TaskCategory) (time.Time, error) {
	// MAX(trained_at) would come back as a bare string because the driver
	// only converts declared TIMESTAMP columns, so read the column directly.
	var trainedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT trained_at FROM model_snapshots WHERE task_category = ? ORDER BY trained_at DESC LIMIT 1`,
		string(cat)).Scan(&trainedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Unix(0, 0).UTC(), nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("finding last training time: %w", err)
	}
	return trainedAt, nil
}

// RecentSamples returns up to limit samples for the category, newest first.
func (s *Store) RecentSamples(ctx context.Context, cat sample.TaskCategory, limit int) ([]*sample.TrainingSample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_category, input_json, expected_json, content_hash, created_at
		 FROM training_samples
		 WHERE task_category = ?
		 ORDER BY created_at DESC, id
		 LIMIT ?`,
		string(cat), limit)
	if err != nil {
		return nil, fmt.Errorf("querying samples: %w", err)
	}
	defer rows.Close()

	var out []*sample.TrainingSample
	for rows.Next() {
		var (
			ts           sample.TrainingSample
			category     string
			inputJSON    string
			expectedJSON string
		)
		if err := rows.Scan(&ts.ID, &category, &inputJSON, &expectedJSON, &ts.ContentHash, &ts.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		ts.TaskCategory = sample.TaskCategory(category)
		if err := json.Unmarshal([]byte(inputJSON), &ts.Input); err != nil {
			return nil, fmt.Errorf("decoding input for sample %s: %w", ts.ID, err)
		}
		if err := json.Unmarshal([]byte(expectedJSON), &ts.Expected); err != nil {
			return nil, fmt.Errorf("decoding expected output for sample %s: %w", ts.ID, err)
		}
		out = append(out, &ts)
	}
	return out, rows.Err()
}

// InsertSnapshot persists a trained snapshot. Snapshots are append-only;
// the newest one per category is the serving model.
func (s *Store) InsertSnapshot(ctx context.Context, snap *engine.Snapshot) error {
	patternJSON, err := json.Marshal(snap.Patterns)
	if err != nil {
		return fmt.Errorf("encoding patterns: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO model_snapshots (id, task_category, accuracy_score, pattern_json, trained_at)
		 VALUES (?, ?, ?, ?, ?)`,
		snap.ID, string(snap.TaskCategory), snap.Accuracy, string(patternJSON), snap.TrainedAt)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	return nil
}

// CurrentSnapshot returns the latest snapshot for the category, or
// engine.ErrNoSnapshot when the category has never been trained.
func (s *Store) CurrentSnapshot(ctx context.Context, cat sample.TaskCategory) (*engine.Snapshot, error) {
	var (
		snap        engine.Snapshot
		category    string
		patternJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, task_category, accuracy_score, pattern_json, trained_at
		 FROM model_snapshots
		 WHERE task_category = ?
		 ORDER BY trained_at DESC, id DESC
		 LIMIT 1`,
		string(cat)).Scan(&snap.ID, &category, &snap.Accuracy, &patternJSON, &snap.TrainedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", engine.ErrNoSnapshot, cat)
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	snap.TaskCategory = sample.TaskCategory(category)
	if err := json.Unmarshal([]byte(patternJSON), &snap.Patterns); err != nil {
		return nil, fmt.Errorf("decoding patterns for snapshot %s: %w", snap.ID, err)
	}
	return &snap, nil
}
