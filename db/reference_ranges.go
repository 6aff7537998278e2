/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/humaidq/biodash/ranges"
)

// ReferenceRangeDefinition is a reference range as written in lab reports.
// An empty Sex applies to both sexes and an empty AgeGroup to every group.
// Optimal and InRange are spans such as "70-85"; Low and High are the
// out-of-range rules such as "<65", stored verbatim.
type ReferenceRangeDefinition struct {
	Biomarker string
	Unit      string
	Sex       ranges.Sex
	AgeGroup  ranges.AgeGroup
	Optimal   string
	InRange   string
	Low       string
	High      string
}

// GetReferenceRangeDefinitions returns all reference ranges to be synced to the database
// This is the authoritative source of truth for reference ranges
func GetReferenceRangeDefinitions() []ReferenceRangeDefinition {
	return []ReferenceRangeDefinition{
		// ===== GLUCOSE METABOLISM =====
		{
			Biomarker: "Fasting Glucose", Unit: "mg/dL",
			Optimal: "70-85", InRange: "65-99", Low: "<65", High: ">99",
		},
		{
			Biomarker: "HbA1c", Unit: "%",
			Optimal: "4.6-5.3", InRange: "4.0-5.6", Low: "<4.0", High: ">5.6",
		},

		// ===== KIDNEY FUNCTION =====
		// Optimal only: anything outside is flagged
		{
			Biomarker: "Creatinine", Unit: "mg/dL", Sex: ranges.SexMale,
			Optimal: "0.75-1.0", Low: "<0.75", High: ">1.0",
		},
		{
			Biomarker: "Creatinine", Unit: "mg/dL", Sex: ranges.SexFemale,
			Optimal: "0.6-0.9", Low: "<0.6", High: ">0.9",
		},

		// ===== LIPIDS =====
		{
			Biomarker: "Total Cholesterol", Unit: "mg/dL",
			Optimal: "150-180", InRange: "125-199", Low: "<125", High: ">199",
		},
		{
			Biomarker: "LDL Cholesterol", Unit: "mg/dL",
			Optimal: "0-80", InRange: "0-99", High: ">99",
		},
		{
			Biomarker: "HDL Cholesterol", Unit: "mg/dL", Sex: ranges.SexMale,
			Optimal: "55-100", InRange: "40-120", Low: "<40", High: ">120",
		},
		{
			Biomarker: "HDL Cholesterol", Unit: "mg/dL", Sex: ranges.SexFemale,
			Optimal: "65-100", InRange: "50-120", Low: "<50", High: ">120",
		},
		{
			Biomarker: "Triglycerides", Unit: "mg/dL",
			Optimal: "40-100", InRange: "0-149", High: ">149",
		},

		// ===== VITAMINS & MINERALS =====
		{
			Biomarker: "Vitamin D", Unit: "ng/mL",
			Optimal: "40-60", InRange: "30-100", Low: "<30", High: ">100",
		},
		{
			Biomarker: "Ferritin", Unit: "ng/mL", Sex: ranges.SexMale,
			Optimal: "50-150", InRange: "38-380", Low: "<38", High: ">380",
		},
		{
			Biomarker: "Ferritin", Unit: "ng/mL", Sex: ranges.SexFemale,
			Optimal: "40-120", InRange: "15-150", Low: "<15", High: ">150",
		},

		// ===== THYROID =====
		{
			Biomarker: "TSH", Unit: "mIU/L", AgeGroup: ranges.AgeGroupYoungAdult,
			Optimal: "0.5-2.5", InRange: "0.45-4.5", Low: "<0.45", High: ">4.5",
		},
		{
			Biomarker: "TSH", Unit: "mIU/L", AgeGroup: ranges.AgeGroupMiddleAge,
			Optimal: "0.5-2.5", InRange: "0.45-4.5", Low: "<0.45", High: ">4.5",
		},
		// Upper limit drifts up with age
		{
			Biomarker: "TSH", Unit: "mIU/L", AgeGroup: ranges.AgeGroupSenior,
			Optimal: "0.5-3.0", InRange: "0.45-6.0", Low: "<0.45", High: ">6.0",
		},

		// ===== BLOOD COUNT =====
		{
			Biomarker: "Hemoglobin", Unit: "g/dL", Sex: ranges.SexMale,
			Optimal: "14.0-16.0", InRange: "13.2-17.1", Low: "<13.2", High: ">17.1",
		},
		{
			Biomarker: "Hemoglobin", Unit: "g/dL", Sex: ranges.SexFemale,
			Optimal: "13.0-15.0", InRange: "11.7-15.5", Low: "<11.7", High: ">15.5",
		},

		// ===== INFLAMMATION =====
		{
			Biomarker: "hs-CRP", Unit: "mg/L",
			Optimal: "0-1.0", InRange: "0-3.0", High: ">3.0",
		},
	}
}

// Expand converts a definition into one record per covered sex and age group.
func (d ReferenceRangeDefinition) Expand() ([]ranges.ReferenceRange, error) {
	sexes := []ranges.Sex{ranges.SexMale, ranges.SexFemale}
	if d.Sex != "" {
		sexes = []ranges.Sex{d.Sex}
	}

	groups := ranges.AgeGroups()
	if d.AgeGroup != "" {
		groups = []ranges.AgeGroup{d.AgeGroup}
	}

	base := ranges.ReferenceRange{
		Biomarker: d.Biomarker,
		Unit:      d.Unit,
	}

	var err error

	base.OptimalLow, base.OptimalHigh, err = parseSpan(d.Optimal)
	if err != nil {
		return nil, fmt.Errorf("%w: %s optimal: %w", ErrInvalidDefinition, d.Biomarker, err)
	}

	base.InRangeLow, base.InRangeHigh, err = parseSpan(d.InRange)
	if err != nil {
		return nil, fmt.Errorf("%w: %s in range: %w", ErrInvalidDefinition, d.Biomarker, err)
	}

	base.OutOfRangeLowRule, err = parseRuleText(d.Low)
	if err != nil {
		return nil, fmt.Errorf("%w: %s low rule: %w", ErrInvalidDefinition, d.Biomarker, err)
	}

	base.OutOfRangeHighRule, err = parseRuleText(d.High)
	if err != nil {
		return nil, fmt.Errorf("%w: %s high rule: %w", ErrInvalidDefinition, d.Biomarker, err)
	}

	out := make([]ranges.ReferenceRange, 0, len(sexes)*len(groups))

	for _, sex := range sexes {
		for _, group := range groups {
			ref := base
			ref.Sex = sex
			ref.AgeGroup = group

			if err := ref.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %s/%s/%s: %w", ErrInvalidDefinition, d.Biomarker, sex, group, err)
			}

			out = append(out, ref)
		}
	}

	return out, nil
}

var errNotSpan = errors.New("expected a closed range such as 70-85")

func parseSpan(text string) (lo, hi *float64, err error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, nil
	}

	b, ok := ranges.ParseRange(text)
	if !ok || b.Min == nil || b.Max == nil {
		return nil, nil, fmt.Errorf("%w: %q", errNotSpan, text)
	}

	return b.Min, b.Max, nil
}

var errNotRule = errors.New("expected a comparison such as <65")

func parseRuleText(text string) (*string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	if _, ok := ranges.ParseRule(text); !ok {
		return nil, fmt.Errorf("%w: %q", errNotRule, text)
	}

	return &text, nil
}

// ExpandReferenceRangeDefinitions expands every definition. Duplicate
// (biomarker, sex, age group) keys are rejected.
func ExpandReferenceRangeDefinitions(defs []ReferenceRangeDefinition) ([]ranges.ReferenceRange, error) {
	seen := make(map[rangeKey]bool)

	var out []ranges.ReferenceRange

	for _, def := range defs {
		refs, err := def.Expand()
		if err != nil {
			return nil, err
		}

		for _, ref := range refs {
			key := rangeKey{biomarker: ref.Biomarker, sex: ref.Sex, group: ref.AgeGroup}
			if seen[key] {
				return nil, fmt.Errorf("%w: duplicate %s/%s/%s", ErrInvalidDefinition, ref.Biomarker, ref.Sex, ref.AgeGroup)
			}

			seen[key] = true
			out = append(out, ref)
		}
	}

	return out, nil
}

// SyncReferenceRanges syncs all reference range definitions to the database
// Uses UPSERT to insert new ranges or update existing ones
func (s *Store) SyncReferenceRanges(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}

	records, err := ExpandReferenceRangeDefinitions(GetReferenceRangeDefinitions())
	if err != nil {
		return err
	}

	logger.Infof("Syncing %d reference ranges to database...", len(records))

	query := `
		INSERT INTO reference_ranges (
			biomarker, unit, sex, age_group,
			optimal_low, optimal_high, inrange_low, inrange_high,
			outofrange_low_rule, outofrange_high_rule
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (biomarker, sex, age_group)
		DO UPDATE SET
			unit = EXCLUDED.unit,
			optimal_low = EXCLUDED.optimal_low,
			optimal_high = EXCLUDED.optimal_high,
			inrange_low = EXCLUDED.inrange_low,
			inrange_high = EXCLUDED.inrange_high,
			outofrange_low_rule = EXCLUDED.outofrange_low_rule,
			outofrange_high_rule = EXCLUDED.outofrange_high_rule,
			updated_at = now()
	`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback after commit is a no-op.

	for _, ref := range records {
		_, err := tx.Exec(ctx, query,
			ref.Biomarker, ref.Unit, ref.Sex, ref.AgeGroup,
			ref.OptimalLow, ref.OptimalHigh,
			ref.InRangeLow, ref.InRangeHigh,
			ref.OutOfRangeLowRule, ref.OutOfRangeHighRule,
		)
		if err != nil {
			return fmt.Errorf("failed to sync reference range for %s/%s/%s: %w",
				ref.Biomarker, ref.Sex, ref.AgeGroup, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reference range sync: %w", err)
	}

	s.rangeCache.Purge()

	logger.Infof("Successfully synced %d reference ranges", len(records))

	return nil
}

const referenceRangeColumns = `
	biomarker, unit, sex, age_group,
	optimal_low, optimal_high, inrange_low, inrange_high,
	outofrange_low_rule, outofrange_high_rule
`

func scanReferenceRange(row pgx.Row) (ranges.ReferenceRange, error) {
	var ref ranges.ReferenceRange
	err := row.Scan(
		&ref.Biomarker, &ref.Unit, &ref.Sex, &ref.AgeGroup,
		&ref.OptimalLow, &ref.OptimalHigh,
		&ref.InRangeLow, &ref.InRangeHigh,
		&ref.OutOfRangeLowRule, &ref.OutOfRangeHighRule,
	)
	return ref, err
}

// GetReferenceRange looks up the reference range for a biomarker, sex and
// age group. Records are validated before they are returned.
func (s *Store) GetReferenceRange(ctx context.Context, biomarker string, sex ranges.Sex, group ranges.AgeGroup) (ranges.ReferenceRange, error) {
	if err := s.ready(); err != nil {
		return ranges.ReferenceRange{}, err
	}

	key := rangeKey{biomarker: biomarker, sex: sex, group: group}
	if ref, ok := s.cachedRange(key); ok {
		return ref, nil
	}

	query := `SELECT ` + referenceRangeColumns + `
		FROM reference_ranges
		WHERE biomarker = $1 AND sex = $2 AND age_group = $3
	`

	ref, err := scanReferenceRange(s.pool.QueryRow(ctx, query, biomarker, sex, group))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ranges.ReferenceRange{}, ErrReferenceRangeNotFound
		}
		return ranges.ReferenceRange{}, fmt.Errorf("failed to get reference range: %w", err)
	}

	if err := ref.Validate(); err != nil {
		return ranges.ReferenceRange{}, fmt.Errorf("stored reference range %s/%s/%s is invalid: %w", biomarker, sex, group, err)
	}

	s.cacheRange(key, ref)

	return ref, nil
}

// cachedRange hands out a private copy so callers cannot alter the cached
// record through its pointer fields.
func (s *Store) cachedRange(key rangeKey) (ranges.ReferenceRange, bool) {
	ref, ok := s.rangeCache.Get(key)
	if !ok {
		return ranges.ReferenceRange{}, false
	}
	return ref.Clone(), true
}

func (s *Store) cacheRange(key rangeKey, ref ranges.ReferenceRange) {
	s.rangeCache.Add(key, ref.Clone())
}

// ListReferenceRanges returns stored ranges ordered by biomarker, sex and age
// group. An empty biomarker lists everything.
func (s *Store) ListReferenceRanges(ctx context.Context, biomarker string) ([]ranges.ReferenceRange, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	query := `SELECT ` + referenceRangeColumns + `
		FROM reference_ranges
		WHERE $1 = '' OR biomarker = $1
		ORDER BY biomarker, sex, age_group
	`

	rows, err := s.pool.Query(ctx, query, biomarker)
	if err != nil {
		return nil, fmt.Errorf("failed to list reference ranges: %w", err)
	}
	defer rows.Close()

	var refs []ranges.ReferenceRange
	for rows.Next() {
		ref, err := scanReferenceRange(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reference range: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reference ranges: %w", err)
	}

	return refs, nil
}

// Biomarkers returns the distinct biomarker names with stored ranges.
func (s *Store) Biomarkers(ctx context.Context) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `SELECT DISTINCT biomarker FROM reference_ranges ORDER BY biomarker`)
	if err != nil {
		return nil, fmt.Errorf("failed to list biomarkers: %w", err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect biomarkers: %w", err)
	}

	return names, nil
}
