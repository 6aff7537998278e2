/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
)

// AddAppointment books an appointment for a profile
func AddAppointment(c flamego.Context, s session.Session, store Store) {
	profileID := c.Param("id")

	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Failed to parse appointment form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect(profilePath(profileID), http.StatusSeeOther)
		return
	}

	input, err := appointmentInputFromForm(profileID, c.Request().Form)
	if err != nil {
		SetErrorFlash(s, userMessage(err, "Invalid appointment"))
		c.Redirect(profilePath(profileID), http.StatusSeeOther)
		return
	}

	apptID, err := store.CreateAppointment(c.Request().Context(), input)
	if err != nil {
		logger.Warn("Failed to book appointment", "profile_id", profileID, "error", err)
		SetErrorFlash(s, userMessage(err, "Failed to book appointment"))
		c.Redirect(profilePath(profileID), http.StatusSeeOther)
		return
	}

	logger.Info("Booked appointment", "appointment_id", apptID, "profile_id", profileID)
	SetSuccessFlash(s, "Appointment booked")
	c.Redirect(profilePath(profileID), http.StatusSeeOther)
}

// DeleteAppointment cancels an appointment belonging to the profile in the path
func DeleteAppointment(c flamego.Context, s session.Session, store Store) {
	profileID := c.Param("id")
	apptID := c.Param("appt_id")
	ctx := c.Request().Context()

	appt, err := store.GetAppointment(ctx, apptID)
	if err != nil || appt.ProfileID.String() != profileID {
		SetErrorFlash(s, "Appointment not found")
		c.Redirect(profilePath(profileID), http.StatusSeeOther)
		return
	}

	if err := store.DeleteAppointment(ctx, apptID); err != nil {
		logger.Error("Failed to cancel appointment", "appointment_id", apptID, "error", err)
		SetErrorFlash(s, "Failed to cancel appointment")
	} else {
		SetSuccessFlash(s, "Appointment cancelled")
	}

	c.Redirect(profilePath(profileID), http.StatusSeeOther)
}
