// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tustats/cmd/tustats/cli"
	"github.com/bureau-foundation/tustats/lib/recorder"
	"github.com/bureau-foundation/tustats/lib/schema/tustats"
	"github.com/bureau-foundation/tustats/lib/statstore"
)

type ingestResult struct {
	Recorded uint64 `json:"recorded"`
	Appended uint64 `json:"appended"`
	Dropped  uint64 `json:"dropped"`
}

func (a *app) ingestCommand() *cli.Command {
	var (
		store  storeFlags
		output cli.JSONOutput
	)
	return &cli.Command{
		Name:    "ingest",
		Summary: "Record NDJSON records read from stdin",
		Description: `Read one JSON record per line from stdin and record each through the
same recorder a build uses. Records without a timestamp get the current
time. The queue is sized to hold the whole input, so a large batch is
not dropped for outrunning the writer; tu_stats.drain_timeout still
bounds the time allowed to write it. The command ignores
tu_stats.enabled.

Prints how many records were recorded, appended, and dropped.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("ingest", pflag.ContinueOnError)
			store.add(flagSet)
			output.AddFlag(flagSet)
			return flagSet
		},
		Examples: []cli.Example{
			{Command: `echo '{"input_file":"src/main.c","includes":[{"path":"include/a.h","line_count":12}]}' | tustats ingest`},
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
			logger := a.logger(cfg, "ingest")

			stats, err := statstore.Open(cfg.TUStats.StoreConfig(logger))
			if err != nil {
				return err
			}

			records, readErr := a.readRecords()

			rec, err := recorder.New(recorder.Config{
				Appender:      stats,
				QueueCapacity: max(cfg.TUStats.QueueCapacity, len(records)),
				DrainTimeout:  cfg.TUStats.DrainTimeout,
				Clock:         a.clock,
				Logger:        logger,
			})
			if err != nil {
				stats.Close()
				return err
			}

			for _, record := range records {
				rec.Record(record)
			}
			shutdownErr := rec.Shutdown(a.ctx)
			closeErr := stats.Close()

			counts := rec.Stats()
			result := ingestResult{
				Recorded: counts.Recorded,
				Appended: counts.Appended,
				Dropped:  counts.Dropped,
			}
			if done, err := output.EmitJSON(a.stdout, result); done {
				if err != nil {
					return err
				}
			} else {
				fmt.Fprintf(a.stdout, "recorded %d, appended %d, dropped %d\n",
					counts.Recorded, counts.Appended, counts.Dropped)
			}
			return errors.Join(readErr, shutdownErr, closeErr)
		},
	}
}

// readRecords decodes records from stdin until EOF or the first
// malformed line. Records before a malformed line are returned with the
// error.
func (a *app) readRecords() ([]*tustats.Record, error) {
	var records []*tustats.Record
	decoder := json.NewDecoder(a.stdin)
	for line := 1; ; line++ {
		record := new(tustats.Record)
		if err := decoder.Decode(record); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return records, fmt.Errorf("ingest: record %d: %w", line, err)
		}
		if record.Timestamp.IsZero() {
			record.Timestamp = a.clock.Now()
		}
		records = append(records, record)
	}
}
