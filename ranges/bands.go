/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ranges

import (
	"math"
	"sort"
)

// BuildBands assembles the bands for a reference range, lowest values first:
// out-of-range low, in range, optimal, out-of-range high. Absent groups and
// unparseable rules are skipped and Order stays contiguous from 1.
func BuildBands(ref ReferenceRange) []Band {
	bands := make([]Band, 0, 4)
	add := func(label Label, lo, hi *float64, color Color) {
		bands = append(bands, Band{
			Label: label,
			Min:   copyFloat(lo),
			Max:   copyFloat(hi),
			Color: color,
			Order: len(bands) + 1,
		})
	}

	if ref.OutOfRangeLowRule != nil {
		if v, ok := ParseRule(*ref.OutOfRangeLowRule); ok {
			add(LabelOutOfRange, nil, &v, ColorRed)
		}
	}

	if ref.HasInRange() {
		add(LabelInRange, ref.InRangeLow, ref.InRangeHigh, ColorOrange)
	}

	if ref.HasOptimal() {
		add(LabelOptimal, ref.OptimalLow, ref.OptimalHigh, ColorGreen)
	}

	if ref.OutOfRangeHighRule != nil {
		if v, ok := ParseRule(*ref.OutOfRangeHighRule); ok {
			add(LabelOutOfRange, &v, nil, ColorRed)
		}
	}

	return bands
}

// Classify returns the status of value against bands. Bands are tested by
// Label.Priority, then Order; the first containing band wins. When nothing
// matches, including NaN and infinities, the result is StatusOutOfRange.
//
// This is not first-match in build order. A value on a shared edge takes the
// more favourable label: with fasting glucose bands "<65", "65-99" and
// "70-85", a value of 65 is in range rather than out of range, and 70 is
// optimal rather than in range.
func Classify(value float64, bands []Band) Status {
	b, ok := Match(value, bands)
	if !ok {
		return StatusOutOfRange
	}

	return b.Label.Status()
}

// Match returns the band that decides value's status.
func Match(value float64, bands []Band) (Band, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Band{}, false
	}

	for _, b := range byPriority(bands) {
		if b.Contains(value) {
			return b, true
		}
	}

	return Band{}, false
}

func byPriority(bands []Band) []Band {
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].Label.Priority(), sorted[j].Label.Priority()
		if pi != pj {
			return pi < pj
		}
		return sorted[i].Order < sorted[j].Order
	})

	return sorted
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
