/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package dashboard

import "errors"

var (
	ErrNilSource        = errors.New("dashboard source is nil")
	ErrBiomarkerMissing = errors.New("biomarker name is required")
	ErrNoResults        = errors.New("no results for biomarker")
)
