/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "github.com/humaidq/biodash/logging"

var appLogger = logging.Logger(logging.SourceApp)
var webStdLogger = logging.StdLogger(logging.SourceWeb)
