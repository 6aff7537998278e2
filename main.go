/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/biodash/cmd"
	"github.com/humaidq/biodash/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "biodash",
		Usage: "Biodash - Personal Health Dashboard",
		Commands: []*cli.Command{
			cmd.CmdStart,
			cmd.CmdMigrate,
			cmd.CmdRanges,
			cmd.CmdClassify,
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		logging.Logger(logging.SourceApp).Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}
