/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ranges

import (
	"strconv"
	"strings"
)

// NotAvailable is shown when a reference range has nothing to display.
const NotAvailable = "N/A"

// FormatReferenceRange renders the range a patient should aim for: optimal,
// then in range, then the raw low rule.
func FormatReferenceRange(ref ReferenceRange) string {
	switch {
	case ref.HasOptimal():
		return formatSpan(*ref.OptimalLow, *ref.OptimalHigh)
	case ref.HasInRange():
		return formatSpan(*ref.InRangeLow, *ref.InRangeHigh)
	case ref.OutOfRangeLowRule != nil && strings.TrimSpace(*ref.OutOfRangeLowRule) != "":
		return strings.TrimSpace(*ref.OutOfRangeLowRule)
	default:
		return NotAvailable
	}
}

// FormatValue renders a number in its shortest decimal form.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatSpan(lo, hi float64) string {
	return FormatValue(lo) + " - " + FormatValue(hi)
}
