// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/humaidq/biodash/db"
	"github.com/humaidq/biodash/ranges"
)

func TestParseValue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    float64
		wantErr error
	}{
		{in: "5.4", want: 5.4},
		{in: " 0,75 ", want: 0.75},
		{in: "-1", want: -1},
		{in: "", wantErr: errMissingValue},
		{in: "abc", wantErr: errInvalidValue},
		{in: "NaN", wantErr: errInvalidValue},
		{in: "Inf", wantErr: errInvalidValue},
	}

	for _, tc := range cases {
		got, err := parseValue(tc.in)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("parseValue(%q) error = %v, want %v", tc.in, err, tc.wantErr)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("parseValue(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestParseDateTime(t *testing.T) {
	t.Parallel()

	got, err := parseDateTime("2024-03-05T14:30")
	if err != nil {
		t.Fatalf("parseDateTime failed: %v", err)
	}
	if got.Hour() != 14 || got.Minute() != 30 || got.Day() != 5 {
		t.Fatalf("unexpected datetime %v", got)
	}

	got, err = parseDateTime("2024-03-05")
	if err != nil || got.Hour() != 0 {
		t.Fatalf("expected date-only parse, got %v %v", got, err)
	}

	if _, err := parseDateTime(""); !errors.Is(err, errMissingDate) {
		t.Fatalf("expected errMissingDate, got %v", err)
	}

	if _, err := parseDateTime("05/03/2024"); !errors.Is(err, errInvalidDate) {
		t.Fatalf("expected errInvalidDate, got %v", err)
	}
}

func TestProfileInputFromForm(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	input, err := profileInputFromForm(url.Values{
		"name":          {" Alice "},
		"date_of_birth": {"1990-05-01"},
		"sex":           {"Female"},
		"is_primary":    {"on"},
	}, now)
	if err != nil {
		t.Fatalf("profileInputFromForm failed: %v", err)
	}
	if input.Name != "Alice" || input.Sex != ranges.SexFemale || !input.IsPrimary {
		t.Fatalf("unexpected input %+v", input)
	}
	if !input.DateOfBirth.Equal(time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date of birth %v", input.DateOfBirth)
	}

	cases := []struct {
		name    string
		form    url.Values
		wantErr error
	}{
		{name: "missing name", form: url.Values{"date_of_birth": {"1990-05-01"}, "sex": {"male"}}, wantErr: db.ErrProfileNameRequired},
		{name: "missing dob", form: url.Values{"name": {"A"}, "sex": {"male"}}, wantErr: errMissingDate},
		{name: "future dob", form: url.Values{"name": {"A"}, "date_of_birth": {"2030-01-01"}, "sex": {"male"}}, wantErr: errFutureDate},
		{name: "missing sex", form: url.Values{"name": {"A"}, "date_of_birth": {"1990-05-01"}}, wantErr: errMissingSex},
		{name: "bad sex", form: url.Values{"name": {"A"}, "date_of_birth": {"1990-05-01"}, "sex": {"x"}}, wantErr: ranges.ErrInvalidSex},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := profileInputFromForm(tc.form, now); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestResultAndAppointmentInputFromForm(t *testing.T) {
	t.Parallel()

	result, err := resultInputFromForm("pid", url.Values{
		"biomarker":   {"HbA1c"},
		"value":       {"5.2"},
		"unit":        {"%"},
		"measured_at": {"2024-02-01T08:15"},
	})
	if err != nil {
		t.Fatalf("resultInputFromForm failed: %v", err)
	}
	if result.ProfileID != "pid" || result.Biomarker != "HbA1c" || result.Value != 5.2 || result.Unit != "%" {
		t.Fatalf("unexpected result input %+v", result)
	}

	if _, err := resultInputFromForm("pid", url.Values{"value": {"1"}}); !errors.Is(err, errMissingResult) {
		t.Fatalf("expected errMissingResult, got %v", err)
	}

	appt, err := appointmentInputFromForm("pid", url.Values{
		"title":     {"Blood draw"},
		"starts_at": {"2030-04-01T09:00"},
		"ends_at":   {"2030-04-01T09:30"},
		"notes":     {"  "},
	})
	if err != nil {
		t.Fatalf("appointmentInputFromForm failed: %v", err)
	}
	if appt.Notes != nil || appt.EndsAt.Sub(appt.StartsAt) != 30*time.Minute {
		t.Fatalf("unexpected appointment input %+v", appt)
	}

	if _, err := appointmentInputFromForm("pid", url.Values{"starts_at": {"2030-04-01T09:00"}}); !errors.Is(err, db.ErrAppointmentTitleRequired) {
		t.Fatalf("expected ErrAppointmentTitleRequired, got %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	if got := userMessage(db.ErrAppointmentConflict, "fallback"); got != "Appointment overlaps an existing booking" {
		t.Fatalf("unexpected message %q", got)
	}

	if got := userMessage(&ranges.InvalidAgeError{Age: 12}, "fallback"); got != "Reference ranges start at age 18" {
		t.Fatalf("unexpected message %q", got)
	}

	if got := userMessage(errors.New("connection refused"), "fallback"); got != "fallback" {
		t.Fatalf("expected internal errors to be hidden, got %q", got)
	}
}
