/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/humaidq/biodash/db"
	"github.com/humaidq/biodash/ranges"
)

// parseDateTime accepts the value of a date or datetime-local input.
func parseDateTime(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, errMissingDate
	}

	if strings.Contains(trimmed, "T") {
		if parsed, err := time.ParseInLocation("2006-01-02T15:04", trimmed, time.Local); err == nil {
			return parsed, nil
		}
	}

	if parsed, err := time.ParseInLocation("2006-01-02", trimmed, time.Local); err == nil {
		return parsed, nil
	}

	return time.Time{}, errInvalidDate
}

// parseDate parses a date input as a calendar date in UTC.
func parseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, errMissingDate
	}

	parsed, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return time.Time{}, errInvalidDate
	}

	return parsed, nil
}

// parseValue parses a measured value, accepting a comma as decimal separator.
func parseValue(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, errMissingValue
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", errInvalidValue, trimmed)
	}

	return v, nil
}

func profileInputFromForm(form url.Values, now time.Time) (db.ProfileInput, error) {
	input := db.ProfileInput{
		Name:      strings.TrimSpace(form.Get("name")),
		IsPrimary: form.Get("is_primary") == "on",
	}

	if input.Name == "" {
		return input, db.ErrProfileNameRequired
	}

	dob, err := parseDate(form.Get("date_of_birth"))
	if err != nil {
		return input, err
	}

	if dob.After(now) {
		return input, errFutureDate
	}

	input.DateOfBirth = dob

	if strings.TrimSpace(form.Get("sex")) == "" {
		return input, errMissingSex
	}

	sex, err := ranges.ParseSex(form.Get("sex"))
	if err != nil {
		return input, err
	}

	input.Sex = sex

	return input, nil
}

func resultInputFromForm(profileID string, form url.Values) (db.CreateResultInput, error) {
	input := db.CreateResultInput{
		ProfileID: profileID,
		Biomarker: strings.TrimSpace(form.Get("biomarker")),
		Unit:      strings.TrimSpace(form.Get("unit")),
	}

	if input.Biomarker == "" {
		return input, errMissingResult
	}

	value, err := parseValue(form.Get("value"))
	if err != nil {
		return input, err
	}

	input.Value = value

	measuredAt, err := parseDateTime(form.Get("measured_at"))
	if err != nil {
		return input, err
	}

	input.MeasuredAt = measuredAt

	return input, nil
}

func appointmentInputFromForm(profileID string, form url.Values) (db.AppointmentInput, error) {
	input := db.AppointmentInput{
		ProfileID: profileID,
		Title:     strings.TrimSpace(form.Get("title")),
		Location:  strings.TrimSpace(form.Get("location")),
	}

	if input.Title == "" {
		return input, db.ErrAppointmentTitleRequired
	}

	start, err := parseDateTime(form.Get("starts_at"))
	if err != nil {
		return input, err
	}

	end, err := parseDateTime(form.Get("ends_at"))
	if err != nil {
		return input, err
	}

	input.StartsAt = start
	input.EndsAt = end

	if notes := strings.TrimSpace(form.Get("notes")); notes != "" {
		input.Notes = &notes
	}

	return input, nil
}
