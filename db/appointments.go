/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const appointmentColumns = `id, profile_id, title, location, starts_at, ends_at, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.ProfileID, &a.Title, &a.Location,
		&a.StartsAt, &a.EndsAt, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func validateAppointment(input AppointmentInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return ErrAppointmentTitleRequired
	}
	if !input.EndsAt.After(input.StartsAt) {
		return ErrInvalidAppointmentTime
	}
	return nil
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// lockProfile serialises bookings per profile so two concurrent overlap
// checks can't both pass.
func lockProfile(ctx context.Context, tx pgx.Tx, profileID uuid.UUID) error {
	var id uuid.UUID

	err := tx.QueryRow(ctx, `SELECT id FROM profiles WHERE id = $1 FOR UPDATE`, profileID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to lock profile: %w", err)
	}

	return nil
}

// hasConflict reports whether [start, end) overlaps another appointment of
// the profile. exclude skips the appointment being edited.
func hasConflict(ctx context.Context, tx pgx.Tx, profileID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE profile_id = $1
			  AND starts_at < $3
			  AND ends_at > $2
			  AND ($4::uuid IS NULL OR id <> $4::uuid)
		)
	`

	var conflict bool
	if err := tx.QueryRow(ctx, query, profileID, start, end, exclude).Scan(&conflict); err != nil {
		return false, fmt.Errorf("failed to check appointment overlap: %w", err)
	}

	return conflict, nil
}

// CreateAppointment books an appointment, rejecting overlaps with the
// profile's existing bookings.
func (s *Store) CreateAppointment(ctx context.Context, input AppointmentInput) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}

	profileID, err := parseID("profile", input.ProfileID)
	if err != nil {
		return "", err
	}

	if err := validateAppointment(input); err != nil {
		return "", err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback after commit is a no-op.

	if err := lockProfile(ctx, tx, profileID); err != nil {
		return "", err
	}

	conflict, err := hasConflict(ctx, tx, profileID, input.StartsAt, input.EndsAt, nil)
	if err != nil {
		return "", err
	}

	if conflict {
		return "", ErrAppointmentConflict
	}

	var id string
	query := `
		INSERT INTO appointments (profile_id, title, location, starts_at, ends_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text
	`

	err = tx.QueryRow(ctx, query,
		profileID, strings.TrimSpace(input.Title), strings.TrimSpace(input.Location),
		input.StartsAt, input.EndsAt, normalizeNotes(input.Notes),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit appointment: %w", err)
	}

	return id, nil
}

// UpdateAppointment reschedules or edits an appointment. The profile cannot
// change.
func (s *Store) UpdateAppointment(ctx context.Context, id string, input AppointmentInput) error {
	if err := s.ready(); err != nil {
		return err
	}

	apptID, err := parseID("appointment", id)
	if err != nil {
		return err
	}

	if err := validateAppointment(input); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback after commit is a no-op.

	var profileID uuid.UUID

	err = tx.QueryRow(ctx, `SELECT profile_id FROM appointments WHERE id = $1`, apptID).Scan(&profileID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAppointmentNotFound
		}
		return fmt.Errorf("failed to get appointment: %w", err)
	}

	if err := lockProfile(ctx, tx, profileID); err != nil {
		return err
	}

	conflict, err := hasConflict(ctx, tx, profileID, input.StartsAt, input.EndsAt, &apptID)
	if err != nil {
		return err
	}

	if conflict {
		return ErrAppointmentConflict
	}

	query := `
		UPDATE appointments
		SET title = $1, location = $2, starts_at = $3, ends_at = $4, notes = $5
		WHERE id = $6
	`

	_, err = tx.Exec(ctx, query,
		strings.TrimSpace(input.Title), strings.TrimSpace(input.Location),
		input.StartsAt, input.EndsAt, normalizeNotes(input.Notes), apptID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit appointment update: %w", err)
	}

	return nil
}

// GetAppointment returns a single appointment by ID
func (s *Store) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	apptID, err := parseID("appointment", id)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	a, err := scanAppointment(s.pool.QueryRow(ctx, query, apptID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	return a, nil
}

// ListUpcomingAppointments returns appointments that have not ended by from,
// soonest first
func (s *Store) ListUpcomingAppointments(ctx context.Context, profileID string, from time.Time) ([]Appointment, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	pid, err := parseID("profile", profileID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE profile_id = $1 AND ends_at > $2
		ORDER BY starts_at ASC
	`

	rows, err := s.pool.Query(ctx, query, pid, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appts = append(appts, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}

	return appts, nil
}

// DeleteAppointment cancels an appointment
func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}

	apptID, err := parseID("appointment", id)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, apptID)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}

	return nil
}
