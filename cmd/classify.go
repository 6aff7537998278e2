/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/biodash/dashboard"
	"github.com/humaidq/biodash/ranges"
)

var CmdClassify = &cli.Command{
	Name:  "classify",
	Usage: "Classify a single value against the stored reference ranges",
	Flags: []cli.Flag{
		configFlag,
		databaseURLFlag,
		&cli.StringFlag{
			Name:     "biomarker",
			Required: true,
			Usage:    "biomarker name, e.g. \"Fasting Glucose\"",
		},
		&cli.StringFlag{
			Name:     "sex",
			Required: true,
			Usage:    "male or female",
		},
		&cli.IntFlag{
			Name:     "age",
			Required: true,
			Usage:    "age in years (18 or older)",
		},
		&cli.FloatFlag{
			Name:     "value",
			Required: true,
			Usage:    "measured value in the reference unit",
		},
	},
	Action: classify,
}

func classify(ctx context.Context, cmd *cli.Command) error {
	sex, err := ranges.ParseSex(cmd.String("sex"))
	if err != nil {
		return err
	}

	if _, err := ranges.GroupForAge(cmd.Int("age")); err != nil {
		return err
	}

	store, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := dashboard.New(store)

	view, err := svc.ClassifyValue(ctx, cmd.String("biomarker"), sex, cmd.Int("age"), cmd.Float("value"))
	if err != nil {
		return err
	}

	return writeClassification(os.Stdout, view)
}

func writeClassification(w io.Writer, view dashboard.BiomarkerView) error {
	label := "Unclassified"
	if view.Band != nil {
		label = string(view.Band.Label)
	}

	_, err := fmt.Fprintf(w, "%s: %s %s\nStatus: %s\nBand: %s\nReference range: %s\nAge group: %s\n",
		view.Biomarker,
		view.DisplayValue,
		view.Unit,
		statusOrNone(view),
		label,
		view.ReferenceRange,
		view.AgeGroup,
	)

	return err
}

func statusOrNone(view dashboard.BiomarkerView) string {
	if !view.Classified {
		return "none"
	}
	return string(view.Status)
}
