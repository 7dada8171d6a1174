// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tustats/cmd/tustats/cli"
	"github.com/bureau-foundation/tustats/lib/clock"
	"github.com/bureau-foundation/tustats/lib/config"
	"github.com/bureau-foundation/tustats/lib/statstore"
)

// app holds the process surroundings every command runs against.
type app struct {
	ctx    context.Context
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	clock  clock.Clock
}

func (a *app) root() *cli.Command {
	return &cli.Command{
		Name:        "tustats",
		Description: "Inspect and feed the translation-unit statistics store.",
		Output:      a.stderr,
		Subcommands: []*cli.Command{
			a.dumpCommand(),
			a.statusCommand(),
			a.ingestCommand(),
			a.versionCommand(),
		},
	}
}

// storeFlags are shared by every command that touches the store.
type storeFlags struct {
	configPath string
	statsFile  string
	engine     string
}

func (f *storeFlags) add(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.configPath, "config", "", "configuration file (default $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&f.statsFile, "stats-file", "", "store location, overriding the configuration")
	flagSet.StringVar(&f.engine, "engine", "", "store engine: badger or sqlite")
}

// load reads the configuration and applies flag overrides.
func (f *storeFlags) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFile(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if f.statsFile != "" {
		cfg.TUStats.StatsFile = f.statsFile
	}
	if f.engine != "" {
		cfg.TUStats.Engine = f.engine
	}
	return cfg, nil
}

// validate checks cfg after command-specific overrides.
func validate(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: invalid configuration: %w", cli.ErrUsage, err)
	}
	return nil
}

func (a *app) logger(cfg *config.Config, command string) *slog.Logger {
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	return cli.NewCommandLogger(a.stderr, level).With("command", command)
}

func openReadOnly(cfg *config.Config, logger *slog.Logger) (statstore.Store, error) {
	storeConfig := cfg.TUStats.StoreConfig(logger)
	storeConfig.ReadOnly = true
	return statstore.Open(storeConfig)
}
