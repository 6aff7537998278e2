/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	htmltemplate "html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/biodash/dashboard"
	"github.com/humaidq/biodash/db"
	"github.com/humaidq/biodash/ranges"
)

// ========== Breadcrumb Helpers ==========

// BreadcrumbItem represents a single breadcrumb navigation item
type BreadcrumbItem struct {
	Name      string
	URL       string
	IsCurrent bool
}

// profilesBreadcrumb returns the base "Profiles" breadcrumb
func profilesBreadcrumb(isCurrent bool) BreadcrumbItem {
	return BreadcrumbItem{Name: "Profiles", URL: "/profiles", IsCurrent: isCurrent}
}

// profileBreadcrumb returns a breadcrumb for a profile
func profileBreadcrumb(profileID, profileName string, isCurrent bool) BreadcrumbItem {
	return BreadcrumbItem{Name: profileName, URL: profilePath(profileID), IsCurrent: isCurrent}
}

func profilePath(profileID string) string {
	return "/profiles/" + profileID
}

// BiomarkerPath returns the history page of a biomarker.
func BiomarkerPath(profileID, biomarker string) string {
	return profilePath(profileID) + "/biomarkers/" + url.PathEscape(biomarker)
}

// userMessage maps well-known errors to text safe to show in a flash.
func userMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, db.ErrProfileNotFound), errors.Is(err, db.ErrInvalidID):
		return "Profile not found"
	case errors.Is(err, db.ErrProfileNameRequired):
		return "Profile name is required"
	case errors.Is(err, errMissingDate):
		return "Date is required"
	case errors.Is(err, errInvalidDate):
		return "Invalid date format"
	case errors.Is(err, errFutureDate):
		return "Date of birth cannot be in the future"
	case errors.Is(err, errMissingSex), errors.Is(err, ranges.ErrInvalidSex):
		return "Sex must be male or female"
	case errors.Is(err, errMissingResult):
		return "Biomarker is required"
	case errors.Is(err, errMissingValue), errors.Is(err, errInvalidValue), errors.Is(err, db.ErrInvalidResult):
		return "Value must be a number"
	case errors.Is(err, db.ErrAppointmentTitleRequired):
		return "Appointment title is required"
	case errors.Is(err, db.ErrInvalidAppointmentTime):
		return "Appointment must end after it starts"
	case errors.Is(err, db.ErrAppointmentConflict):
		return "Appointment overlaps an existing booking"
	case errors.Is(err, ranges.ErrInvalidAge):
		return "Reference ranges start at age 18"
	default:
		return fallback
	}
}

// ========== Profile Handlers ==========

// Index redirects to the primary profile, or the profile list when there is none
func Index(c flamego.Context, store Store) {
	primary, err := store.GetPrimaryProfile(c.Request().Context())
	if err != nil {
		logger.Error("Failed to load primary profile", "error", err)
	}

	if primary != nil {
		c.Redirect(profilePath(primary.ID.String()), http.StatusSeeOther)
		return
	}

	c.Redirect("/profiles", http.StatusSeeOther)
}

// ListProfiles displays all profiles
func ListProfiles(c flamego.Context, t template.Template, data template.Data, store Store) {
	data["Breadcrumbs"] = []BreadcrumbItem{
		profilesBreadcrumb(true),
	}

	profiles, err := store.ListProfiles(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list profiles", "error", err)
		data["Error"] = "Failed to load profiles"
	} else {
		data["Profiles"] = profiles
	}

	t.HTML(http.StatusOK, "profiles")
}

// CreateProfile handles profile creation
func CreateProfile(c flamego.Context, s session.Session, store Store) {
	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Failed to parse profile form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/profiles", http.StatusSeeOther)
		return
	}

	input, err := profileInputFromForm(c.Request().Form, time.Now())
	if err != nil {
		SetErrorFlash(s, userMessage(err, "Invalid profile"))
		c.Redirect("/profiles", http.StatusSeeOther)
		return
	}

	profileID, err := store.CreateProfile(c.Request().Context(), input)
	if err != nil {
		logger.Error("Failed to create profile", "error", err)
		SetErrorFlash(s, userMessage(err, "Failed to create profile"))
		c.Redirect("/profiles", http.StatusSeeOther)
		return
	}

	logger.Info("Created profile", "profile_id", profileID)
	SetSuccessFlash(s, "Profile created successfully")
	c.Redirect(profilePath(profileID), http.StatusSeeOther)
}

// ViewProfile displays the classified dashboard for a profile
func ViewProfile(c flamego.Context, s session.Session, t template.Template, data template.Data, store Store, svc *dashboard.Service) {
	profileID := c.Param("id")
	ctx := c.Request().Context()

	var profile *db.Profile

	var ageErr *ranges.InvalidAgeError

	overview, err := svc.Overview(ctx, profileID)

	switch {
	case err == nil:
		profile = overview.Profile
		data["Overview"] = overview
	case errors.As(err, &ageErr):
		// Minors still get a page, without classification
		profile, err = store.GetProfile(ctx, profileID)
		if err != nil {
			SetErrorFlash(s, userMessage(err, "Failed to load profile"))
			c.Redirect("/profiles", http.StatusSeeOther)
			return
		}

		data["Warning"] = userMessage(ageErr, "")
	default:
		logger.Error("Failed to load profile overview", "profile_id", profileID, "error", err)
		SetErrorFlash(s, userMessage(err, "Failed to load profile"))
		c.Redirect("/profiles", http.StatusSeeOther)
		return
	}

	data["Profile"] = profile

	appointments, err := store.ListUpcomingAppointments(ctx, profileID, time.Now())
	if err != nil {
		logger.Error("Failed to list appointments", "profile_id", profileID, "error", err)
	} else {
		data["Appointments"] = appointments
	}

	biomarkers, err := store.Biomarkers(ctx)
	if err != nil {
		logger.Error("Failed to list biomarkers", "error", err)
	} else {
		data["KnownBiomarkers"] = biomarkers
	}

	data["Breadcrumbs"] = []BreadcrumbItem{
		profilesBreadcrumb(false),
		profileBreadcrumb(profileID, profile.Name, true),
	}

	t.HTML(http.StatusOK, "profile_view")
}

// EditProfileForm renders the edit profile form
func EditProfileForm(c flamego.Context, s session.Session, t template.Template, data template.Data, store Store) {
	profileID := c.Param("id")

	profile, err := store.GetProfile(c.Request().Context(), profileID)
	if err != nil {
		logger.Error("Failed to load profile", "profile_id", profileID, "error", err)
		SetErrorFlash(s, userMessage(err, "Failed to load profile"))
		c.Redirect("/profiles", http.StatusSeeOther)
		return
	}

	data["Profile"] = profile
	data["Breadcrumbs"] = []BreadcrumbItem{
		profilesBreadcrumb(false),
		profileBreadcrumb(profileID, profile.Name, false),
		{Name: "Edit", URL: "", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "profile_edit")
}

// UpdateProfile handles profile updates
func UpdateProfile(c flamego.Context, s session.Session, store Store) {
	profileID := c.Param("id")
	editPath := profilePath(profileID) + "/edit"

	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Failed to parse profile form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect(editPath, http.StatusSeeOther)
		return
	}

	input, err := profileInputFromForm(c.Request().Form, time.Now())
	if err != nil {
		SetErrorFlash(s, userMessage(err, "Invalid profile"))
		c.Redirect(editPath, http.StatusSeeOther)
		return
	}

	if err := store.UpdateProfile(c.Request().Context(), profileID, input); err != nil {
		logger.Error("Failed to update profile", "profile_id", profileID, "error", err)
		SetErrorFlash(s, userMessage(err, "Failed to update profile"))
		c.Redirect(editPath, http.StatusSeeOther)
		return
	}

	SetSuccessFlash(s, "Profile updated successfully")
	c.Redirect(profilePath(profileID), http.StatusSeeOther)
}

// DeleteProfile deletes a profile with its results and appointments
func DeleteProfile(c flamego.Context, s session.Session, store Store) {
	profileID := c.Param("id")

	if err := store.DeleteProfile(c.Request().Context(), profileID); err != nil {
		logger.Error("Failed to delete profile", "profile_id", profileID, "error", err)
		SetErrorFlash(s, userMessage(err, "Failed to delete profile"))
	} else {
		SetSuccessFlash(s, "Profile deleted successfully")
	}

	c.Redirect("/profiles", http.StatusSeeOther)
}

// ========== Result Handlers ==========

// ViewBiomarker displays the history of one biomarker with its band chart
func ViewBiomarker(c flamego.Context, s session.Session, t template.Template, data template.Data, svc *dashboard.Service) {
	profileID := c.Param("id")
	biomarker := c.Param("name")

	history, err := svc.History(c.Request().Context(), profileID, biomarker)
	if err != nil {
		logger.Error("Failed to load biomarker history", "profile_id", profileID, "biomarker", biomarker, "error", err)
		SetErrorFlash(s, userMessage(err, "No results for "+biomarker))
		c.Redirect(profilePath(profileID), http.StatusSeeOther)
		return
	}

	chart, err := renderBandChart(history)
	if err != nil {
		logger.Error("Failed to render chart", "biomarker", biomarker, "error", err)
	} else if chart != "" {
		data["Chart"] = htmltemplate.HTML(chart) //nolint:gosec // go-echarts output
	}

	data["History"] = history
	data["Breadcrumbs"] = []BreadcrumbItem{
		profilesBreadcrumb(false),
		profileBreadcrumb(profileID, history.Profile.Name, false),
		{Name: biomarker, URL: "", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "biomarker")
}

// AddResult records a biomarker result for a profile
func AddResult(c flamego.Context, s session.Session, store Store) {
	profileID := c.Param("id")

	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Failed to parse result form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect(profilePath(profileID), http.StatusSeeOther)
		return
	}

	input, err := resultInputFromForm(profileID, c.Request().Form)
	if err != nil {
		SetErrorFlash(s, userMessage(err, "Invalid result"))
		c.Redirect(profilePath(profileID), http.StatusSeeOther)
		return
	}

	resultID, err := store.CreateResult(c.Request().Context(), input)
	if err != nil {
		logger.Error("Failed to create result", "profile_id", profileID, "error", err)
		SetErrorFlash(s, userMessage(err, "Failed to add result"))
		c.Redirect(profilePath(profileID), http.StatusSeeOther)
		return
	}

	logger.Info("Created result", "result_id", resultID, "biomarker", input.Biomarker)

	if input.MeasuredAt.After(time.Now()) {
		SetWarningFlash(s, "Result added with a measurement date in the future")
	} else {
		SetSuccessFlash(s, "Result added successfully")
	}
	c.Redirect(profilePath(profileID), http.StatusSeeOther)
}

// DeleteResult deletes a result belonging to the profile in the path
func DeleteResult(c flamego.Context, s session.Session, store Store) {
	profileID := c.Param("id")
	resultID := c.Param("result_id")
	ctx := c.Request().Context()

	result, err := store.GetResult(ctx, resultID)
	if err != nil || result.ProfileID.String() != profileID {
		SetErrorFlash(s, "Result not found")
		c.Redirect(profilePath(profileID), http.StatusSeeOther)
		return
	}

	if err := store.DeleteResult(ctx, resultID); err != nil {
		logger.Error("Failed to delete result", "result_id", resultID, "error", err)
		SetErrorFlash(s, "Failed to delete result")
	} else {
		SetSuccessFlash(s, "Result deleted successfully")
	}

	c.Redirect(profilePath(profileID), http.StatusSeeOther)
}
