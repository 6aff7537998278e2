/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package dashboard joins stored results to their reference ranges and
// classifies them for display.
package dashboard
