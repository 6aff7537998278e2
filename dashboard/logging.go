/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package dashboard

import "github.com/humaidq/biodash/logging"

var logger = logging.Logger(logging.SourceDashboard)
