package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ashgrovelabs/tutord/internal/analytics"
)

// Profile returns the learner's stored profile, or analytics.ErrNoProfile.
func (s *Store) Profile(ctx context.Context, learnerID string) (*analytics.LearnerProfile, error) {
	var profileJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile_json FROM learner_profiles WHERE learner_id = ?`,
		learnerID).Scan(&profileJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", analytics.ErrNoProfile, learnerID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	var profile analytics.LearnerProfile
	if err := json.Unmarshal([]byte(profileJSON), &profile); err != nil {
		return nil, fmt.Errorf("decoding profile for %s: %w", learnerID, err)
	}
	return &profile, nil
}

// SaveProfile inserts or replaces the learner's profile.
func (s *Store) SaveProfile(ctx context.Context, profile *analytics.LearnerProfile) error {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO learner_profiles (learner_id, profile_json, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(learner_id) DO UPDATE SET
			profile_json = excluded.profile_json,
			updated_at = excluded.updated_at`,
		profile.LearnerID, string(profileJSON), time.Now())
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// RecordSession appends one analysis to the learner's session history.
func (s *Store) RecordSession(ctx context.Context, learnerID string, analysis *analytics.Analysis) error {
	sessionJSON, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO learner_sessions (id, learner_id, session_json, created_at)
		 VALUES (?, ?, ?, ?)`,
		uuid.New().String(), learnerID, string(sessionJSON), analysis.Timestamp)
	if err != nil {
		return fmt.Errorf("recording session: %w", err)
	}
	return nil
}

// Sessions returns up to limit analyses for a learner, newest first.
func (s *Store) Sessions(ctx context.Context, learnerID string, limit int) ([]*analytics.Analysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_json FROM learner_sessions
		 WHERE learner_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []*analytics.Analysis
	for rows.Next() {
		var sessionJSON string
		if err := rows.Scan(&sessionJSON); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		var analysis analytics.Analysis
		if err := json.Unmarshal([]byte(sessionJSON), &analysis); err != nil {
			return nil, fmt.Errorf("decoding session: %w", err)
		}
		out = append(out, &analysis)
	}
	return out, rows.Err()
}
