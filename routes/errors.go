/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "errors"

var (
	errMissingDate   = errors.New("missing date")
	errInvalidDate   = errors.New("invalid date")
	errMissingValue  = errors.New("missing value")
	errInvalidValue  = errors.New("invalid value")
	errFutureDate    = errors.New("date is in the future")
	errMissingSex    = errors.New("sex is required")
	errMissingResult = errors.New("biomarker is required")
)
