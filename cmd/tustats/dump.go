// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tustats/cmd/tustats/cli"
	"github.com/bureau-foundation/tustats/lib/report"
)

func (a *app) dumpCommand() *cli.Command {
	var (
		store      storeFlags
		asCSV      bool
		asJSON     bool
		raw        bool
		noColor    bool
		prefixRule string
	)
	return &cli.Command{
		Name:    "dump",
		Summary: "Print every stored record",
		Description: `Print every stored record in insertion order.

The default output is a human-readable block per record with the top
include directories by file count and by line count. --csv writes one
row per record for spreadsheets, --json writes one JSON object per line,
and --raw prints each stored value in CBOR diagnostic notation without
decoding it.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("dump", pflag.ContinueOnError)
			store.add(flagSet)
			flagSet.BoolVar(&asCSV, "csv", false, "write CSV with a header row")
			flagSet.BoolVar(&asJSON, "json", false, "write one JSON object per record")
			flagSet.BoolVar(&raw, "raw", false, "print undecoded values in CBOR diagnostic notation")
			flagSet.BoolVar(&noColor, "no-color", false, "disable styled output")
			flagSet.StringVar(&prefixRule, "prefix-rule", "", "include grouping: segments:N or marker:NAME[,NAME][:N]")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Export to a spreadsheet", Command: "tustats dump --csv > tu_stats.csv"},
			{Description: "Group includes by the directory under each include/ root", Command: "tustats dump --prefix-rule marker:include"},
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: unexpected argument %q", cli.ErrUsage, args[0])
			}
			if countSet(asCSV, asJSON, raw) > 1 {
				return fmt.Errorf("%w: --csv, --json and --raw cannot be combined", cli.ErrUsage)
			}

			cfg, err := store.load()
			if err != nil {
				return err
			}
			if prefixRule != "" {
				cfg.TUStats.PrefixRule = prefixRule
			}
			if err := validate(cfg); err != nil {
				return err
			}

			logger := a.logger(cfg, "dump")
			stats, err := openReadOnly(cfg, logger)
			if err != nil {
				return err
			}
			defer stats.Close()

			options := report.Options{
				Rule:  cfg.TUStats.Rule(),
				Color: !noColor && cli.ColorEnabled(a.stdout),
			}
			switch {
			case asCSV:
				return report.WriteCSV(a.ctx, a.stdout, stats, options)
			case asJSON:
				return report.WriteJSON(a.ctx, a.stdout, stats, options)
			case raw:
				return report.WriteRaw(a.ctx, a.stdout, stats)
			default:
				return report.WriteText(a.ctx, a.stdout, stats, options)
			}
		},
	}
}

func countSet(flags ...bool) int {
	count := 0
	for _, set := range flags {
		if set {
			count++
		}
	}
	return count
}
