// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/humaidq/biodash/ranges"
)

func TestReferenceRangeLookup(t *testing.T) {
	store := resetDatabase(t)
	ctx := testContext()

	if err := store.SyncReferenceRanges(ctx); err != nil {
		t.Fatalf("SyncReferenceRanges failed: %v", err)
	}

	if _, err := fs.ReadDir(GetEmbeddedMigrations(), "migrations"); err != nil {
		t.Fatalf("expected embedded migrations: %v", err)
	}

	ref, err := store.GetReferenceRange(ctx, "Creatinine", ranges.SexMale, ranges.AgeGroupMiddleAge)
	if err != nil {
		t.Fatalf("GetReferenceRange failed: %v", err)
	}
	if !ref.HasOptimal() || ref.HasInRange() {
		t.Fatalf("expected optimal-only creatinine range, got %+v", ref)
	}
	if *ref.OptimalLow != 0.75 || *ref.OptimalHigh != 1.0 {
		t.Fatalf("unexpected creatinine optimal %v-%v", *ref.OptimalLow, *ref.OptimalHigh)
	}

	// Served from cache the second time
	if _, ok := store.rangeCache.Get(rangeKey{biomarker: "Creatinine", sex: ranges.SexMale, group: ranges.AgeGroupMiddleAge}); !ok {
		t.Fatalf("expected reference range to be cached")
	}

	if _, err := store.GetReferenceRange(ctx, "Unobtainium", ranges.SexMale, ranges.AgeGroupMiddleAge); !errors.Is(err, ErrReferenceRangeNotFound) {
		t.Fatalf("expected ErrReferenceRangeNotFound, got %v", err)
	}

	// A sync purges the cache
	if err := store.SyncReferenceRanges(ctx); err != nil {
		t.Fatalf("SyncReferenceRanges failed: %v", err)
	}
	if store.rangeCache.Len() != 0 {
		t.Fatalf("expected cache to be purged after sync")
	}
}

func TestListReferenceRanges(t *testing.T) {
	store := resetDatabase(t)
	ctx := testContext()

	expected, err := ExpandReferenceRangeDefinitions(GetReferenceRangeDefinitions())
	if err != nil {
		t.Fatalf("ExpandReferenceRangeDefinitions failed: %v", err)
	}

	all, err := store.ListReferenceRanges(ctx, "")
	if err != nil {
		t.Fatalf("ListReferenceRanges failed: %v", err)
	}
	if len(all) != len(expected) {
		t.Fatalf("expected %d ranges, got %d", len(expected), len(all))
	}

	glucose, err := store.ListReferenceRanges(ctx, "Fasting Glucose")
	if err != nil {
		t.Fatalf("ListReferenceRanges failed: %v", err)
	}
	if len(glucose) != 6 {
		t.Fatalf("expected 6 glucose ranges, got %d", len(glucose))
	}

	names, err := store.Biomarkers(ctx)
	if err != nil {
		t.Fatalf("Biomarkers failed: %v", err)
	}
	if len(names) == 0 || names[0] > names[len(names)-1] {
		t.Fatalf("expected sorted biomarker names, got %v", names)
	}
}
