/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/humaidq/biodash/db"
	"github.com/humaidq/biodash/ranges"
)

// Source is the data the dashboard reads. *db.Store satisfies it.
type Source interface {
	GetProfile(ctx context.Context, id string) (*db.Profile, error)
	LatestResults(ctx context.Context, profileID string) ([]db.Result, error)
	ListResultsByBiomarker(ctx context.Context, profileID, biomarker string) ([]db.Result, error)
	GetReferenceRange(ctx context.Context, biomarker string, sex ranges.Sex, group ranges.AgeGroup) (ranges.ReferenceRange, error)
}

var _ Source = (*db.Store)(nil)

// Service classifies a profile's results for display.
type Service struct {
	src Source
	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used to compute a profile's current age.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New returns a Service reading from src.
func New(src Source, opts ...Option) *Service {
	s := &Service{src: src, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BiomarkerView is one classified result.
type BiomarkerView struct {
	ResultID       string        `json:"result_id"`
	Biomarker      string        `json:"biomarker"`
	Unit           string        `json:"unit"`
	Value          float64       `json:"value"`
	DisplayValue   string        `json:"display_value"`
	MeasuredAt     time.Time     `json:"measured_at"`
	AgeGroup       string        `json:"age_group,omitempty"`
	Classified     bool          `json:"classified"`
	Status         ranges.Status `json:"status,omitempty"`
	Band           *ranges.Band  `json:"band,omitempty"`
	Bands          []ranges.Band `json:"bands,omitempty"`
	ReferenceRange string        `json:"reference_range"`
	Note           string        `json:"note,omitempty"`
}

// Overview is the dashboard for one profile.
type Overview struct {
	Profile    *db.Profile           `json:"profile"`
	Age        int                   `json:"age"`
	AgeGroup   ranges.AgeGroup       `json:"age_group"`
	Biomarkers []BiomarkerView       `json:"biomarkers"`
	Counts     map[ranges.Status]int `json:"counts"`
}

// History is every result of one biomarker for a profile, oldest first.
type History struct {
	Profile        *db.Profile     `json:"profile"`
	Biomarker      string          `json:"biomarker"`
	Unit           string          `json:"unit"`
	Results        []BiomarkerView `json:"results"`
	Bands          []ranges.Band   `json:"bands"`
	ReferenceRange string          `json:"reference_range"`
}

func (s *Service) ready() error {
	if s == nil || s.src == nil {
		return ErrNilSource
	}
	return nil
}

// Overview classifies the latest result of each biomarker. Results are
// judged against the profile's age group on the day they were measured.
// A profile currently younger than ranges.MinAge fails with
// *ranges.InvalidAgeError.
func (s *Service) Overview(ctx context.Context, profileID string) (*Overview, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	profile, err := s.src.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	group, err := profile.AgeGroup(now)
	if err != nil {
		return nil, err
	}

	results, err := s.src.LatestResults(ctx, profileID)
	if err != nil {
		return nil, err
	}

	views := make([]BiomarkerView, 0, len(results))
	counts := make(map[ranges.Status]int)

	for _, r := range results {
		view, err := s.classifyResult(ctx, profile, r)
		if err != nil {
			return nil, err
		}

		if view.Classified {
			counts[view.Status]++
		}

		views = append(views, view)
	}

	sort.SliceStable(views, func(i, j int) bool {
		return strings.ToLower(views[i].Biomarker) < strings.ToLower(views[j].Biomarker)
	})

	return &Overview{
		Profile:    profile,
		Age:        profile.Age(now),
		AgeGroup:   group,
		Biomarkers: views,
		Counts:     counts,
	}, nil
}

// History classifies every result of one biomarker. Bands and
// ReferenceRange come from the range that applied to the latest result.
func (s *Service) History(ctx context.Context, profileID, biomarker string) (*History, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(biomarker) == "" {
		return nil, ErrBiomarkerMissing
	}

	profile, err := s.src.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	results, err := s.src.ListResultsByBiomarker(ctx, profileID, biomarker)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoResults, biomarker)
	}

	h := &History{
		Profile:        profile,
		Biomarker:      biomarker,
		Results:        make([]BiomarkerView, 0, len(results)),
		ReferenceRange: ranges.NotAvailable,
	}

	for _, r := range results {
		view, err := s.classifyResult(ctx, profile, r)
		if err != nil {
			return nil, err
		}
		h.Results = append(h.Results, view)
	}

	latest := h.Results[len(h.Results)-1]
	h.Unit = latest.Unit
	h.Bands = latest.Bands
	h.ReferenceRange = latest.ReferenceRange

	return h, nil
}

// ClassifyValue classifies an ad-hoc value for a biomarker and demographic.
func (s *Service) ClassifyValue(ctx context.Context, biomarker string, sex ranges.Sex, age int, value float64) (BiomarkerView, error) {
	if err := s.ready(); err != nil {
		return BiomarkerView{}, err
	}

	if strings.TrimSpace(biomarker) == "" {
		return BiomarkerView{}, ErrBiomarkerMissing
	}

	if !sex.Valid() {
		return BiomarkerView{}, fmt.Errorf("%w: %q", ranges.ErrInvalidSex, sex)
	}

	group, err := ranges.GroupForAge(age)
	if err != nil {
		return BiomarkerView{}, err
	}

	ref, err := s.src.GetReferenceRange(ctx, biomarker, sex, group)
	if err != nil {
		return BiomarkerView{}, err
	}

	view := BiomarkerView{
		Biomarker:    biomarker,
		Unit:         ref.Unit,
		Value:        value,
		DisplayValue: ranges.FormatValue(value),
		AgeGroup:     string(group),
	}

	applyRange(&view, ref)

	return view, nil
}

func (s *Service) classifyResult(ctx context.Context, profile *db.Profile, r db.Result) (BiomarkerView, error) {
	view := BiomarkerView{
		ResultID:       r.ID.String(),
		Biomarker:      r.Biomarker,
		Unit:           r.Unit,
		Value:          r.Value,
		DisplayValue:   ranges.FormatValue(r.Value),
		MeasuredAt:     r.MeasuredAt,
		ReferenceRange: ranges.NotAvailable,
	}

	group, err := profile.AgeGroup(r.MeasuredAt)
	if err != nil {
		view.Note = fmt.Sprintf("measured before age %d", ranges.MinAge)
		observeUnclassified(ReasonAge)
		return view, nil
	}

	view.AgeGroup = string(group)

	ref, err := s.src.GetReferenceRange(ctx, r.Biomarker, profile.Sex, group)
	if err != nil {
		if errors.Is(err, db.ErrReferenceRangeNotFound) {
			view.Note = "no reference range"
			observeUnclassified(ReasonNoRange)
			return view, nil
		}
		return BiomarkerView{}, fmt.Errorf("failed to get reference range for %s: %w", r.Biomarker, err)
	}

	if !unitsMatch(r.Unit, ref.Unit) {
		view.ReferenceRange = ranges.FormatReferenceRange(ref)
		view.Note = fmt.Sprintf("unit %s does not match reference unit %s", r.Unit, ref.Unit)
		observeUnclassified(ReasonUnitMismatch)
		logger.Debug("Unit mismatch", "biomarker", r.Biomarker, "result_unit", r.Unit, "range_unit", ref.Unit)
		return view, nil
	}

	if view.Unit == "" {
		view.Unit = ref.Unit
	}

	applyRange(&view, ref)

	return view, nil
}

func applyRange(view *BiomarkerView, ref ranges.ReferenceRange) {
	view.Bands = ranges.BuildBands(ref)
	view.ReferenceRange = ranges.FormatReferenceRange(ref)

	if len(view.Bands) == 0 {
		view.Note = "reference range has no usable bands"
		observeUnclassified(ReasonNoRange)
		return
	}

	view.Classified = true
	view.Status = ranges.Classify(view.Value, view.Bands)

	if band, ok := ranges.Match(view.Value, view.Bands); ok {
		view.Band = &band
	}

	observeStatus(view.Status)
}

// unitsMatch treats a missing unit on either side as compatible.
func unitsMatch(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return true
	}
	return strings.EqualFold(a, b)
}
