/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/biodash/ranges"
)

// Profile represents a person whose biomarkers are tracked
type Profile struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	DateOfBirth time.Time  `db:"date_of_birth" json:"date_of_birth"`
	Sex         ranges.Sex `db:"sex" json:"sex"`
	IsPrimary   bool       `db:"is_primary" json:"is_primary"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Age calculates the age in years at a given date
func (p *Profile) Age(at time.Time) int {
	return ranges.AgeAt(p.DateOfBirth, at)
}

// AgeGroup returns the reference range bucket at a given date. Profiles
// younger than ranges.MinAge have no bucket.
func (p *Profile) AgeGroup(at time.Time) (ranges.AgeGroup, error) {
	return ranges.GroupForAge(p.Age(at))
}

// ProfileInput holds the editable fields of a profile
type ProfileInput struct {
	Name        string
	DateOfBirth time.Time
	Sex         ranges.Sex
	IsPrimary   bool
}

// Result is a single measured biomarker value
type Result struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ProfileID  uuid.UUID `db:"profile_id" json:"profile_id"`
	Biomarker  string    `db:"biomarker" json:"biomarker"`
	Value      float64   `db:"value" json:"value"`
	Unit       string    `db:"unit" json:"unit"`
	MeasuredAt time.Time `db:"measured_at" json:"measured_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CreateResultInput represents input for recording a result
type CreateResultInput struct {
	ProfileID  string
	Biomarker  string
	Value      float64
	Unit       string
	MeasuredAt time.Time
}

// UpdateResultInput represents input for correcting a result
type UpdateResultInput struct {
	Value      float64
	Unit       string
	MeasuredAt time.Time
}

// Appointment is a booked visit for a profile
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ProfileID uuid.UUID `db:"profile_id" json:"profile_id"`
	Title     string    `db:"title" json:"title"`
	Location  string    `db:"location" json:"location"`
	StartsAt  time.Time `db:"starts_at" json:"starts_at"`
	EndsAt    time.Time `db:"ends_at" json:"ends_at"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Overlaps reports whether two half-open [start, end) slots share any instant.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.StartsAt.Before(end) && start.Before(a.EndsAt)
}

// AppointmentInput holds the editable fields of an appointment
type AppointmentInput struct {
	ProfileID string
	Title     string
	Location  string
	StartsAt  time.Time
	EndsAt    time.Time
	Notes     *string
}
