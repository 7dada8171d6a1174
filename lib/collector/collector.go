// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package collector wires configuration, the shared store handle, and
// the recorder into the one object a host build tool holds.
//
// [Init] never fails. Stats are an optional side channel, so a bad
// configuration or an unopenable store logs a warning and yields a
// disabled collector; the build carries on. A disabled collector (and
// a nil *Collector) accepts Record calls and does nothing.
//
// Shutdown drains the recorder within its budget and then closes the
// store, in that order.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/tustats/lib/clock"
	"github.com/bureau-foundation/tustats/lib/config"
	"github.com/bureau-foundation/tustats/lib/rank"
	"github.com/bureau-foundation/tustats/lib/recorder"
	"github.com/bureau-foundation/tustats/lib/schema/tustats"
	"github.com/bureau-foundation/tustats/lib/statstore"
)

// Options carries host-provided dependencies.
type Options struct {
	// Logger defaults to discarding output.
	Logger *slog.Logger

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Registerer receives recorder metrics when non-nil.
	Registerer prometheus.Registerer
}

// Collector is the stats subsystem of one process.
type Collector struct {
	handle   *statstore.Handle
	recorder *recorder.Recorder
	rule     rank.PrefixRule
	logger   *slog.Logger
}

// Init builds a collector from cfg. A nil cfg, a disabled or invalid
// configuration, or a store that fails to open all produce a disabled
// collector.
func Init(cfg *config.Config, options Options) *Collector {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	disabled := &Collector{rule: rank.DefaultRule(), logger: logger}

	if cfg == nil || !cfg.TUStats.Enabled {
		return disabled
	}
	if err := cfg.Validate(); err != nil {
		logger.Warn("translation-unit stats disabled: invalid configuration", "error", err)
		return disabled
	}

	stats := cfg.TUStats
	handle := statstore.NewHandle(stats.StoreConfig(logger))
	store, err := handle.Get()
	if err != nil {
		logger.Warn("translation-unit stats disabled: store unavailable",
			"path", stats.StatsFile,
			"error", err,
		)
		handle.Close()
		return disabled
	}

	rec, err := recorder.New(recorder.Config{
		Appender:      store,
		QueueCapacity: stats.QueueCapacity,
		DrainTimeout:  stats.DrainTimeout,
		Clock:         options.Clock,
		Logger:        logger,
		Registerer:    options.Registerer,
	})
	if err != nil {
		logger.Warn("translation-unit stats disabled: recorder setup failed", "error", err)
		handle.Close()
		return disabled
	}

	logger.Info("translation-unit stats enabled",
		"path", stats.StatsFile,
		"engine", stats.Engine,
		"queue_capacity", stats.QueueCapacity,
	)
	return &Collector{
		handle:   handle,
		recorder: rec,
		rule:     stats.Rule(),
		logger:   logger,
	}
}

// Enabled reports whether records reach a store.
func (c *Collector) Enabled() bool {
	return c != nil && c.recorder != nil
}

// Record hands a finished compilation to the recorder. It never blocks
// on I/O.
func (c *Collector) Record(record *tustats.Record) {
	if c == nil {
		return
	}
	c.recorder.Record(record)
}

// Stats returns the recorder counters; zeros when disabled.
func (c *Collector) Stats() recorder.Stats {
	if c == nil {
		return recorder.Stats{}
	}
	return c.recorder.Stats()
}

// Store returns the shared store for in-process reporting. It fails
// with statstore.ErrClosed when the collector is disabled or shut
// down.
func (c *Collector) Store() (statstore.Store, error) {
	if !c.Enabled() {
		return nil, statstore.ErrClosed
	}
	return c.handle.Get()
}

// Rule is the configured prefix rule for reports.
func (c *Collector) Rule() rank.PrefixRule {
	if c == nil || c.rule == nil {
		return rank.DefaultRule()
	}
	return c.rule
}

// Shutdown drains the recorder and closes the store. A drain timeout
// is reported alongside any close error; the store is closed either
// way. Safe to call more than once.
//
// Closing waits for an append already in progress, which the engines
// do not interrupt, so after a drain timeout Shutdown can return up to
// one append later than the drain budget.
func (c *Collector) Shutdown(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	drainErr := c.recorder.Shutdown(ctx)
	closeErr := c.handle.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("collector: %w", closeErr)
	}
	if drainErr != nil {
		drainErr = fmt.Errorf("collector: %w", drainErr)
	}
	return errors.Join(drainErr, closeErr)
}
