// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"testing"
	"time"

	"github.com/humaidq/biodash/ranges"
)

func testContext() context.Context {
	return context.Background()
}

func stringPtr(value string) *string {
	return &value
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func mustCreateProfile(t *testing.T, store *Store, name string, sex ranges.Sex, dob time.Time, isPrimary bool) string {
	t.Helper()
	profileID, err := store.CreateProfile(testContext(), ProfileInput{
		Name:        name,
		DateOfBirth: dob,
		Sex:         sex,
		IsPrimary:   isPrimary,
	})
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	return profileID
}

func mustCreateResult(t *testing.T, store *Store, profileID, biomarker string, value float64, unit string, at time.Time) string {
	t.Helper()
	resultID, err := store.CreateResult(testContext(), CreateResultInput{
		ProfileID:  profileID,
		Biomarker:  biomarker,
		Value:      value,
		Unit:       unit,
		MeasuredAt: at,
	})
	if err != nil {
		t.Fatalf("failed to create result: %v", err)
	}
	return resultID
}
