/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"time"

	"github.com/humaidq/biodash/db"
)

// Store is the persistence the handlers use. *db.Store satisfies it; the
// web server maps it with flamego's MapTo.
type Store interface {
	ListProfiles(ctx context.Context) ([]db.Profile, error)
	GetProfile(ctx context.Context, id string) (*db.Profile, error)
	GetPrimaryProfile(ctx context.Context) (*db.Profile, error)
	CreateProfile(ctx context.Context, input db.ProfileInput) (string, error)
	UpdateProfile(ctx context.Context, id string, input db.ProfileInput) error
	DeleteProfile(ctx context.Context, id string) error

	CreateResult(ctx context.Context, input db.CreateResultInput) (string, error)
	GetResult(ctx context.Context, id string) (*db.Result, error)
	DeleteResult(ctx context.Context, id string) error
	ListResults(ctx context.Context, profileID string) ([]db.Result, error)
	Biomarkers(ctx context.Context) ([]string, error)

	CreateAppointment(ctx context.Context, input db.AppointmentInput) (string, error)
	GetAppointment(ctx context.Context, id string) (*db.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	ListUpcomingAppointments(ctx context.Context, profileID string, from time.Time) ([]db.Appointment, error)
}

var _ Store = (*db.Store)(nil)
