// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/biodash/db"
	"github.com/humaidq/biodash/ranges"
)

type rangeKey struct {
	biomarker string
	sex       ranges.Sex
	group     ranges.AgeGroup
}

// fakeSource is an in-memory Source.
type fakeSource struct {
	profiles map[string]*db.Profile
	results  map[string][]db.Result
	ranges   map[rangeKey]ranges.ReferenceRange
	rangeErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		profiles: make(map[string]*db.Profile),
		results:  make(map[string][]db.Result),
		ranges:   make(map[rangeKey]ranges.ReferenceRange),
	}
}

func (f *fakeSource) addProfile(name string, sex ranges.Sex, dob time.Time) string {
	id := uuid.New()
	f.profiles[id.String()] = &db.Profile{ID: id, Name: name, Sex: sex, DateOfBirth: dob}
	return id.String()
}

func (f *fakeSource) addResult(profileID, biomarker string, value float64, unit string, at time.Time) {
	f.results[profileID] = append(f.results[profileID], db.Result{
		ID:         uuid.New(),
		ProfileID:  uuid.MustParse(profileID),
		Biomarker:  biomarker,
		Value:      value,
		Unit:       unit,
		MeasuredAt: at,
	})
}

func (f *fakeSource) addRange(ref ranges.ReferenceRange) {
	f.ranges[rangeKey{ref.Biomarker, ref.Sex, ref.AgeGroup}] = ref
}

func (f *fakeSource) GetProfile(_ context.Context, id string) (*db.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, db.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeSource) LatestResults(_ context.Context, profileID string) ([]db.Result, error) {
	latest := make(map[string]db.Result)
	for _, r := range f.results[profileID] {
		if cur, ok := latest[r.Biomarker]; !ok || r.MeasuredAt.After(cur.MeasuredAt) {
			latest[r.Biomarker] = r
		}
	}

	out := make([]db.Result, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	// Deliberately unsorted by biomarker: Overview sorts
	sort.Slice(out, func(i, j int) bool { return out[i].Biomarker > out[j].Biomarker })
	return out, nil
}

func (f *fakeSource) ListResultsByBiomarker(_ context.Context, profileID, biomarker string) ([]db.Result, error) {
	var out []db.Result
	for _, r := range f.results[profileID] {
		if r.Biomarker == biomarker {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MeasuredAt.Before(out[j].MeasuredAt) })
	return out, nil
}

func (f *fakeSource) GetReferenceRange(_ context.Context, biomarker string, sex ranges.Sex, group ranges.AgeGroup) (ranges.ReferenceRange, error) {
	if f.rangeErr != nil {
		return ranges.ReferenceRange{}, f.rangeErr
	}
	ref, ok := f.ranges[rangeKey{biomarker, sex, group}]
	if !ok {
		return ranges.ReferenceRange{}, db.ErrReferenceRangeNotFound
	}
	return ref, nil
}

func ptr(v float64) *float64 {
	return &v
}

func str(s string) *string {
	return &s
}

func glucose(sex ranges.Sex, group ranges.AgeGroup) ranges.ReferenceRange {
	return ranges.ReferenceRange{
		Biomarker: "Fasting Glucose", Unit: "mg/dL", Sex: sex, AgeGroup: group,
		OptimalLow: ptr(70), OptimalHigh: ptr(85),
		InRangeLow: ptr(65), InRangeHigh: ptr(99),
		OutOfRangeLowRule: str("<65"), OutOfRangeHighRule: str(">99"),
	}
}

func creatinine(group ranges.AgeGroup) ranges.ReferenceRange {
	return ranges.ReferenceRange{
		Biomarker: "Creatinine", Unit: "mg/dL", Sex: ranges.SexMale, AgeGroup: group,
		OptimalLow: ptr(0.75), OptimalHigh: ptr(1.0),
		OutOfRangeLowRule: str("< 0.75"), OutOfRangeHighRule: str("> 1.0"),
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}
