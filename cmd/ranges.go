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
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/biodash/db"
	"github.com/humaidq/biodash/ranges"
)

var CmdRanges = &cli.Command{
	Name:  "ranges",
	Usage: "Reference range commands",
	Flags: []cli.Flag{
		configFlag,
		databaseURLFlag,
	},
	Commands: []*cli.Command{
		{
			Name:   "sync",
			Usage:  "Write the built-in reference ranges to the database",
			Action: rangesSync,
		},
		{
			Name:  "list",
			Usage: "List stored reference ranges",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "biomarker",
					Usage: "only list ranges for this biomarker",
				},
			},
			Action: rangesList,
		},
	},
}

// openStore connects and migrates, for one-shot commands.
func openStore(ctx context.Context, cmd *cli.Command) (*db.Store, error) {
	url, err := databaseURL(cmd)
	if err != nil {
		return nil, err
	}

	store, err := db.Open(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.Migrate(ctx, url); err != nil {
		store.Close()
		return nil, err
	}

	return store, nil
}

func rangesSync(ctx context.Context, cmd *cli.Command) error {
	store, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.SyncReferenceRanges(ctx)
}

func rangesList(ctx context.Context, cmd *cli.Command) error {
	store, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	refs, err := store.ListReferenceRanges(ctx, cmd.String("biomarker"))
	if err != nil {
		return err
	}

	return writeRanges(os.Stdout, refs)
}

func writeRanges(w io.Writer, refs []ranges.ReferenceRange) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "BIOMARKER\tSEX\tAGE\tUNIT\tREFERENCE\tBANDS")

	for _, ref := range refs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			ref.Biomarker,
			ref.Sex,
			ref.AgeGroup,
			ref.Unit,
			ranges.FormatReferenceRange(ref),
			len(ranges.BuildBands(ref)),
		)
	}

	return tw.Flush()
}
