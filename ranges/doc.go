/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package ranges classifies biomarker values against demographic reference
// ranges. It is pure: callers load ReferenceRange records elsewhere and pass
// them in.
package ranges
