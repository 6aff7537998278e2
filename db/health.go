/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ========== Profile Operations ==========

const profileColumns = `id, name, date_of_birth, sex, is_primary, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID, &p.Name, &p.DateOfBirth, &p.Sex,
		&p.IsPrimary, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func validateProfile(input ProfileInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrProfileNameRequired
	}
	if !input.Sex.Valid() {
		return fmt.Errorf("invalid profile sex %q", input.Sex)
	}
	return nil
}

// ListProfiles returns all profiles, primary first
func (s *Store) ListProfiles(ctx context.Context) ([]Profile, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY is_primary DESC, name ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}

	return profiles, nil
}

// GetProfile returns a single profile by ID
func (s *Store) GetProfile(ctx context.Context, id string) (*Profile, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	profileID, err := parseID("profile", id)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	p, err := scanProfile(s.pool.QueryRow(ctx, query, profileID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return p, nil
}

// GetPrimaryProfile returns the primary profile, if any.
func (s *Store) GetPrimaryProfile(ctx context.Context) (*Profile, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE is_primary = true LIMIT 1`

	p, err := scanProfile(s.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // No primary profile is a normal state.
		}
		return nil, fmt.Errorf("failed to get primary profile: %w", err)
	}

	return p, nil
}

// CreateProfile creates a new profile and returns its ID
func (s *Store) CreateProfile(ctx context.Context, input ProfileInput) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}

	if err := validateProfile(input); err != nil {
		return "", err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback after commit is a no-op.

	if input.IsPrimary {
		_, err = tx.Exec(ctx, `UPDATE profiles SET is_primary = false WHERE is_primary = true`)
		if err != nil {
			return "", fmt.Errorf("failed to clear existing primary profile: %w", err)
		}
	}

	var id string
	query := `
		INSERT INTO profiles (name, date_of_birth, sex, is_primary)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text
	`

	err = tx.QueryRow(ctx, query,
		strings.TrimSpace(input.Name), input.DateOfBirth, input.Sex, input.IsPrimary,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit profile creation: %w", err)
	}

	return id, nil
}

// UpdateProfile updates a profile
func (s *Store) UpdateProfile(ctx context.Context, id string, input ProfileInput) error {
	if err := s.ready(); err != nil {
		return err
	}

	profileID, err := parseID("profile", id)
	if err != nil {
		return err
	}

	if err := validateProfile(input); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback after commit is a no-op.

	if input.IsPrimary {
		_, err = tx.Exec(ctx, `UPDATE profiles SET is_primary = false WHERE is_primary = true AND id <> $1`, profileID)
		if err != nil {
			return fmt.Errorf("failed to clear existing primary profile: %w", err)
		}
	}

	query := `
		UPDATE profiles
		SET name = $1, date_of_birth = $2, sex = $3, is_primary = $4
		WHERE id = $5
	`

	tag, err := tx.Exec(ctx, query,
		strings.TrimSpace(input.Name), input.DateOfBirth, input.Sex, input.IsPrimary, profileID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit profile update: %w", err)
	}

	return nil
}

// DeleteProfile deletes a profile (cascades to results and appointments)
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}

	profileID, err := parseID("profile", id)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, profileID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// ========== Result Operations ==========

const resultColumns = `id, profile_id, biomarker, value, unit, measured_at, created_at`

func scanResult(row pgx.Row) (*Result, error) {
	var r Result
	err := row.Scan(
		&r.ID, &r.ProfileID, &r.Biomarker,
		&r.Value, &r.Unit, &r.MeasuredAt, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func collectResults(rows pgx.Rows) ([]Result, error) {
	defer rows.Close()

	var results []Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return results, nil
}

func validateValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: value must be finite", ErrInvalidResult)
	}
	return nil
}

// CreateResult records a biomarker result
func (s *Store) CreateResult(ctx context.Context, input CreateResultInput) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}

	profileID, err := parseID("profile", input.ProfileID)
	if err != nil {
		return "", err
	}

	biomarker := strings.TrimSpace(input.Biomarker)
	if biomarker == "" {
		return "", fmt.Errorf("%w: biomarker is required", ErrInvalidResult)
	}

	if err := validateValue(input.Value); err != nil {
		return "", err
	}

	if input.MeasuredAt.IsZero() {
		return "", fmt.Errorf("%w: measurement time is required", ErrInvalidResult)
	}

	var id string
	query := `
		INSERT INTO biomarker_results (profile_id, biomarker, value, unit, measured_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text
	`

	err = s.pool.QueryRow(ctx, query,
		profileID, biomarker, input.Value, strings.TrimSpace(input.Unit), input.MeasuredAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create result: %w", err)
	}

	return id, nil
}

// UpdateResult corrects a result's value, unit and measurement time
func (s *Store) UpdateResult(ctx context.Context, id string, input UpdateResultInput) error {
	if err := s.ready(); err != nil {
		return err
	}

	resultID, err := parseID("result", id)
	if err != nil {
		return err
	}

	if err := validateValue(input.Value); err != nil {
		return err
	}

	query := `
		UPDATE biomarker_results
		SET value = $1, unit = $2, measured_at = $3
		WHERE id = $4
	`

	tag, err := s.pool.Exec(ctx, query, input.Value, strings.TrimSpace(input.Unit), input.MeasuredAt, resultID)
	if err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrResultNotFound
	}

	return nil
}

// DeleteResult deletes a result
func (s *Store) DeleteResult(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}

	resultID, err := parseID("result", id)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM biomarker_results WHERE id = $1`, resultID)
	if err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrResultNotFound
	}

	return nil
}

// GetResult returns a single result by ID
func (s *Store) GetResult(ctx context.Context, id string) (*Result, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	resultID, err := parseID("result", id)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + resultColumns + ` FROM biomarker_results WHERE id = $1`

	r, err := scanResult(s.pool.QueryRow(ctx, query, resultID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return r, nil
}

// ListResults returns every result for a profile, newest first
func (s *Store) ListResults(ctx context.Context, profileID string) ([]Result, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	pid, err := parseID("profile", profileID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + resultColumns + `
		FROM biomarker_results
		WHERE profile_id = $1
		ORDER BY measured_at DESC, biomarker ASC
	`

	rows, err := s.pool.Query(ctx, query, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	return collectResults(rows)
}

// ListResultsByBiomarker returns all results of one biomarker for a profile,
// oldest first
func (s *Store) ListResultsByBiomarker(ctx context.Context, profileID, biomarker string) ([]Result, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	pid, err := parseID("profile", profileID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + resultColumns + `
		FROM biomarker_results
		WHERE profile_id = $1 AND biomarker = $2
		ORDER BY measured_at ASC, created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, pid, biomarker)
	if err != nil {
		return nil, fmt.Errorf("failed to get results by biomarker: %w", err)
	}

	return collectResults(rows)
}

// LatestResults returns the most recent result of each biomarker for a profile
func (s *Store) LatestResults(ctx context.Context, profileID string) ([]Result, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	pid, err := parseID("profile", profileID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT DISTINCT ON (biomarker) ` + resultColumns + `
		FROM biomarker_results
		WHERE profile_id = $1
		ORDER BY biomarker ASC, measured_at DESC, created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest results: %w", err)
	}

	return collectResults(rows)
}
