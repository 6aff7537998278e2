/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ranges

import (
	"fmt"
	"strings"
)

// Sex represents biological sex for reference range lookup
type Sex string

// Sex values supported by reference ranges.
const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ParseSex normalises user input into a Sex.
func ParseSex(s string) (Sex, error) {
	switch Sex(strings.ToLower(strings.TrimSpace(s))) {
	case SexMale:
		return SexMale, nil
	case SexFemale:
		return SexFemale, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSex, s)
	}
}

// Valid reports whether s is a known sex.
func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale
}

// AgeGroup is the demographic bucket used to select reference ranges
type AgeGroup string

// AgeGroup values, youngest first.
const (
	AgeGroupYoungAdult AgeGroup = "18-39"
	AgeGroupMiddleAge  AgeGroup = "40-59"
	AgeGroupSenior     AgeGroup = "60+"
)

// AgeGroups lists every supported group, youngest first.
func AgeGroups() []AgeGroup {
	return []AgeGroup{AgeGroupYoungAdult, AgeGroupMiddleAge, AgeGroupSenior}
}

// Valid reports whether g is a known age group.
func (g AgeGroup) Valid() bool {
	switch g {
	case AgeGroupYoungAdult, AgeGroupMiddleAge, AgeGroupSenior:
		return true
	default:
		return false
	}
}

// ReferenceRange is a demographic-specific set of thresholds for one biomarker.
// The optimal and in-range pairs are each either fully present or absent; the
// out-of-range rules are free-text comparisons such as "< 0.6".
type ReferenceRange struct {
	Biomarker          string   `json:"biomarker"`
	Unit               string   `json:"unit"`
	Sex                Sex      `json:"sex"`
	AgeGroup           AgeGroup `json:"age_group"`
	OptimalLow         *float64 `json:"optimal_low,omitempty"`
	OptimalHigh        *float64 `json:"optimal_high,omitempty"`
	InRangeLow         *float64 `json:"inrange_low,omitempty"`
	InRangeHigh        *float64 `json:"inrange_high,omitempty"`
	OutOfRangeLowRule  *string  `json:"outofrange_low_rule,omitempty"`
	OutOfRangeHighRule *string  `json:"outofrange_high_rule,omitempty"`
}

// HasOptimal reports whether both optimal bounds are set.
func (r ReferenceRange) HasOptimal() bool {
	return r.OptimalLow != nil && r.OptimalHigh != nil
}

// HasInRange reports whether both in-range bounds are set.
func (r ReferenceRange) HasInRange() bool {
	return r.InRangeLow != nil && r.InRangeHigh != nil
}

// Clone returns a copy of r that shares no bounds or rules with it.
func (r ReferenceRange) Clone() ReferenceRange {
	c := r
	c.OptimalLow = copyFloat(r.OptimalLow)
	c.OptimalHigh = copyFloat(r.OptimalHigh)
	c.InRangeLow = copyFloat(r.InRangeLow)
	c.InRangeHigh = copyFloat(r.InRangeHigh)
	c.OutOfRangeLowRule = copyString(r.OutOfRangeLowRule)
	c.OutOfRangeHighRule = copyString(r.OutOfRangeHighRule)
	return c
}

// Validate checks a record at the data-access boundary, before it reaches
// BuildBands.
func (r ReferenceRange) Validate() error {
	if strings.TrimSpace(r.Biomarker) == "" {
		return ErrMissingBiomarker
	}

	if !r.Sex.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSex, r.Sex)
	}

	if !r.AgeGroup.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAgeGroup, r.AgeGroup)
	}

	if (r.OptimalLow == nil) != (r.OptimalHigh == nil) {
		return fmt.Errorf("%w: optimal", ErrIncompletePair)
	}

	if (r.InRangeLow == nil) != (r.InRangeHigh == nil) {
		return fmt.Errorf("%w: in range", ErrIncompletePair)
	}

	if r.HasOptimal() && *r.OptimalLow > *r.OptimalHigh {
		return fmt.Errorf("%w: optimal %v > %v", ErrInvertedPair, *r.OptimalLow, *r.OptimalHigh)
	}

	if r.HasInRange() && *r.InRangeLow > *r.InRangeHigh {
		return fmt.Errorf("%w: in range %v > %v", ErrInvertedPair, *r.InRangeLow, *r.InRangeHigh)
	}

	if !r.HasOptimal() && !r.HasInRange() && r.OutOfRangeLowRule == nil && r.OutOfRangeHighRule == nil {
		return ErrNoBandGroups
	}

	return nil
}

// Label names the clinical meaning of a band
type Label string

// Label values.
const (
	LabelOptimal    Label = "Optimal"
	LabelInRange    Label = "In range"
	LabelOutOfRange Label = "Out of range"
)

// Priority is the order in which Classify tests bands: lower wins. A value on
// the boundary shared by two bands takes the more favourable label.
func (l Label) Priority() int {
	switch l {
	case LabelOptimal:
		return 0
	case LabelInRange:
		return 1
	default:
		return 2
	}
}

// Status returns the classification status a band with this label produces.
func (l Label) Status() Status {
	switch l {
	case LabelOptimal:
		return StatusOptimal
	case LabelInRange:
		return StatusInRange
	default:
		return StatusOutOfRange
	}
}

// Color is the display colour tag of a band
type Color string

// Color values.
const (
	ColorGreen  Color = "green"
	ColorOrange Color = "orange"
	ColorRed    Color = "red"
)

// Band is a contiguous numeric interval with a clinical label. A nil Min is
// unbounded below and a nil Max is unbounded above; both bounds are inclusive.
type Band struct {
	Label Label    `json:"label"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Color Color    `json:"color"`
	Order int      `json:"order"`
}

// Contains reports whether value lies within the band.
func (b Band) Contains(value float64) bool {
	return (b.Min == nil || value >= *b.Min) && (b.Max == nil || value <= *b.Max)
}

// Status is the classification of a measured value against its bands
type Status string

// Status values.
const (
	StatusOptimal    Status = "optimal"
	StatusInRange    Status = "in-range"
	StatusOutOfRange Status = "out-of-range"
)

// Bound is a parsed range; nil sides are open.
type Bound struct {
	Min *float64
	Max *float64
}
