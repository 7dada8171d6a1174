// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tustats/cmd/tustats/cli"
)

type statusResult struct {
	Path    string `json:"path"`
	Engine  string `json:"engine"`
	Records int    `json:"records"`
}

func (a *app) statusCommand() *cli.Command {
	var (
		store  storeFlags
		output cli.JSONOutput
	)
	return &cli.Command{
		Name:    "status",
		Summary: "Show the store location and record count",
		Description: `Show where the store lives and how many records it holds.

Exits 1, after printing the reason, when the store cannot be opened.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			store.add(flagSet)
			output.AddFlag(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: unexpected argument %q", cli.ErrUsage, args[0])
			}
			cfg, err := store.load()
			if err != nil {
				return err
			}
			if err := validate(cfg); err != nil {
				return err
			}

			stats, err := openReadOnly(cfg, a.logger(cfg, "status"))
			if err != nil {
				fmt.Fprintf(a.stderr, "%s: store unavailable: %v\n", cfg.TUStats.StatsFile, err)
				return &cli.ExitError{Code: 1}
			}
			defer stats.Close()

			count, err := stats.Count(a.ctx)
			if err != nil {
				return err
			}

			result := statusResult{
				Path:    cfg.TUStats.StatsFile,
				Engine:  cfg.TUStats.Engine,
				Records: count,
			}
			if done, err := output.EmitJSON(a.stdout, result); done {
				return err
			}
			_, err = fmt.Fprintf(a.stdout, "%s (%s): %s records\n",
				result.Path, result.Engine, humanize.Comma(int64(result.Records)))
			return err
		},
	}
}
