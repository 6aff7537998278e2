/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import "errors"

var (
	ErrDatabaseURLEnvVarNotSet          = errors.New("DATABASE_URL environment variable is not set")
	ErrDatabaseNameNotSpecified         = errors.New("database name not specified in DATABASE_URL")
	ErrDatabaseConnectionNotInitialized = errors.New("database connection not initialized")
	ErrInvalidID                        = errors.New("invalid id")
	ErrProfileNotFound                  = errors.New("profile not found")
	ErrProfileNameRequired              = errors.New("profile name is required")
	ErrResultNotFound                   = errors.New("result not found")
	ErrInvalidResult                    = errors.New("invalid result")
	ErrReferenceRangeNotFound           = errors.New("reference range not found")
	ErrInvalidDefinition                = errors.New("invalid reference range definition")
	ErrAppointmentNotFound              = errors.New("appointment not found")
	ErrAppointmentConflict              = errors.New("appointment overlaps an existing booking")
	ErrInvalidAppointmentTime           = errors.New("appointment must end after it starts")
	ErrAppointmentTitleRequired         = errors.New("appointment title is required")
	errInvalidSessionConfig             = errors.New("invalid PostgresSessionConfig")
)
