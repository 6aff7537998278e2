/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flamego/flamego"

	"github.com/humaidq/biodash/dashboard"
	"github.com/humaidq/biodash/db"
	"github.com/humaidq/biodash/ranges"
)

type biomarkerJSON struct {
	dashboard.BiomarkerView
	URL string `json:"url"`
}

type overviewJSON struct {
	*dashboard.Overview
	Biomarkers []biomarkerJSON `json:"biomarkers"`
}

func writeJSON(c flamego.Context, status int, v interface{}) {
	c.ResponseWriter().Header().Set("Content-Type", "application/json")
	c.ResponseWriter().WriteHeader(status)

	if err := json.NewEncoder(c.ResponseWriter()).Encode(v); err != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// BiomarkersJSON returns the classified overview of a profile
func BiomarkersJSON(c flamego.Context, svc *dashboard.Service) {
	profileID := c.Param("id")

	overview, err := svc.Overview(c.Request().Context(), profileID)
	if err != nil {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, db.ErrProfileNotFound), errors.Is(err, db.ErrInvalidID):
			status = http.StatusNotFound
		case errors.Is(err, ranges.ErrInvalidAge):
			status = http.StatusUnprocessableEntity
		default:
			logger.Error("Failed to load overview", "profile_id", profileID, "error", err)
		}

		writeJSON(c, status, map[string]string{"error": userMessage(err, "failed to load overview")})
		return
	}

	out := overviewJSON{
		Overview:   overview,
		Biomarkers: make([]biomarkerJSON, 0, len(overview.Biomarkers)),
	}

	for _, view := range overview.Biomarkers {
		out.Biomarkers = append(out.Biomarkers, biomarkerJSON{
			BiomarkerView: view,
			URL:           BiomarkerPath(profileID, view.Biomarker),
		})
	}

	writeJSON(c, http.StatusOK, out)
}
