/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/humaidq/biodash/ranges"
)

// Reasons a result is shown without a status.
const (
	ReasonNoRange      = "no_range"
	ReasonUnitMismatch = "unit_mismatch"
	ReasonAge          = "age"
)

var (
	classificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "biodash_classifications_total",
		Help: "Biomarker values classified, by resulting status.",
	}, []string{"status"})

	unclassifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "biodash_unclassified_total",
		Help: "Biomarker values shown without a status, by reason.",
	}, []string{"reason"})
)

func observeStatus(status ranges.Status) {
	classificationsTotal.WithLabelValues(string(status)).Inc()
}

func observeUnclassified(reason string) {
	unclassifiedTotal.WithLabelValues(reason).Inc()
}
