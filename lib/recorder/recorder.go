// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/tustats/lib/clock"
	"github.com/bureau-foundation/tustats/lib/schema/tustats"
	"github.com/bureau-foundation/tustats/lib/statstore"
)

const (
	DefaultQueueCapacity = 1024
	DefaultDrainTimeout  = 5 * time.Second
)

// ErrDrainTimeout is returned by Shutdown when the drain budget ran out
// with records still queued. Those records are counted as dropped.
var ErrDrainTimeout = errors.New("recorder: drain timeout")

// Appender is the write side of a store. Every statstore.Store
// satisfies it.
type Appender interface {
	Append(ctx context.Context, record *tustats.Record) (statstore.Key, error)
}

// Config controls New. Appender is required.
type Config struct {
	Appender Appender

	// QueueCapacity bounds the number of records waiting for the
	// writer. Defaults to DefaultQueueCapacity.
	QueueCapacity int

	// DrainTimeout bounds how long Shutdown lets the writer flush
	// queued records. Defaults to DefaultDrainTimeout.
	DrainTimeout time.Duration

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to discarding output.
	Logger *slog.Logger

	// Registerer receives the recorder's prometheus collectors. Nil
	// leaves them unregistered.
	Registerer prometheus.Registerer
}

// Stats is a point-in-time snapshot of the recorder's counters.
type Stats struct {
	// Recorded counts records accepted onto the queue.
	Recorded uint64
	// Appended counts records the store acknowledged.
	Appended uint64
	// Dropped counts records lost for any reason.
	Dropped uint64
}

type state int

const (
	stateRunning state = iota
	stateDraining
	stateClosed
)

// Recorder is a bounded, lossy queue in front of a single store
// writer. Create one with New; a nil *Recorder is disabled.
type Recorder struct {
	appender     Appender
	drainTimeout time.Duration
	clock        clock.Clock
	logger       *slog.Logger
	metrics      *metrics

	// mu guards state. Record holds it for reading across the send so
	// Shutdown cannot slip in between the state check and the enqueue.
	mu    sync.RWMutex
	state state

	queue chan *tustats.Record

	// draining is closed when Shutdown begins; abort is closed when the
	// drain must stop early; done is closed when the writer exits.
	draining  chan struct{}
	abort     chan struct{}
	abortOnce sync.Once
	done      chan struct{}

	// writeCtx is passed to Append and cancelled on abort.
	writeCtx    context.Context
	cancelWrite context.CancelFunc

	recorded   atomic.Uint64
	appended   atomic.Uint64
	dropped    atomic.Uint64
	warnedFull atomic.Bool

	shutdownOnce sync.Once
	shutdownErr  error
}

// Disabled returns the disabled recorder, which is nil.
func Disabled() *Recorder { return nil }

// New creates a recorder and starts its writer goroutine. The caller
// must call Shutdown.
func New(config Config) (*Recorder, error) {
	if config.Appender == nil {
		return nil, fmt.Errorf("recorder: Appender is required")
	}
	if config.QueueCapacity < 0 {
		return nil, fmt.Errorf("recorder: QueueCapacity must not be negative, got %d", config.QueueCapacity)
	}
	if config.QueueCapacity == 0 {
		config.QueueCapacity = DefaultQueueCapacity
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = DefaultDrainTimeout
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	writeCtx, cancelWrite := context.WithCancel(context.Background())
	r := &Recorder{
		appender:     config.Appender,
		drainTimeout: config.DrainTimeout,
		clock:        config.Clock,
		logger:       config.Logger,
		queue:        make(chan *tustats.Record, config.QueueCapacity),
		draining:     make(chan struct{}),
		abort:        make(chan struct{}),
		done:         make(chan struct{}),
		writeCtx:     writeCtx,
		cancelWrite:  cancelWrite,
	}
	r.metrics = newMetrics(func() float64 { return float64(len(r.queue)) })
	if config.Registerer != nil {
		if err := r.metrics.register(config.Registerer); err != nil {
			cancelWrite()
			return nil, fmt.Errorf("recorder: registering metrics: %w", err)
		}
	}

	go r.run()
	return r, nil
}

// Record enqueues a record for the background writer. It never blocks
// on I/O: if the queue is full, or Shutdown has begun, the record is
// dropped and counted. The recorder takes ownership of record; the
// caller must not modify it afterwards.
func (r *Recorder) Record(record *tustats.Record) {
	if r == nil {
		return
	}
	if record == nil {
		r.drop(reasonInvalid)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.state != stateRunning {
		r.drop(reasonShutdown)
		return
	}

	select {
	case r.queue <- record:
		r.recorded.Add(1)
		r.metrics.recorded.Inc()
	default:
		r.drop(reasonQueueFull)
		if r.warnedFull.CompareAndSwap(false, true) {
			r.logger.Warn("stats queue full, dropping records",
				"capacity", cap(r.queue),
			)
		}
	}
}

// Stats returns the current counters. The disabled recorder reports
// zeros.
func (r *Recorder) Stats() Stats {
	if r == nil {
		return Stats{}
	}
	return Stats{
		Recorded: r.recorded.Load(),
		Appended: r.appended.Load(),
		Dropped:  r.dropped.Load(),
	}
}

// Shutdown stops accepting records and lets the writer drain the queue
// for at most the configured drain timeout. Records still queued when
// the budget runs out are dropped with reason "shutdown" and Shutdown
// returns ErrDrainTimeout. If ctx ends first Shutdown returns ctx.Err()
// after discarding the remainder the same way.
//
// On timeout Shutdown does not wait for an Append already in progress:
// its context is cancelled, but an engine that ignores cancellation
// finishes the write after Shutdown has returned.
//
// Shutdown is idempotent; later calls return the first call's result.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.shutdownOnce.Do(func() {
		r.shutdownErr = r.shutdown(ctx)
	})
	return r.shutdownErr
}

func (r *Recorder) shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.state = stateDraining
	r.mu.Unlock()

	queued := len(r.queue)
	expired := make(chan struct{})
	timer := r.clock.AfterFunc(r.drainTimeout, func() { close(expired) })
	defer timer.Stop()

	close(r.draining)

	var err error
	select {
	case <-r.done:
	case <-expired:
		err = ErrDrainTimeout
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		// The writer may have finished in the same instant.
		select {
		case <-r.done:
			err = nil
		default:
		}
	}

	discarded := 0
	if err != nil {
		r.stopWriter()
		discarded = r.discardQueued()
	}

	r.mu.Lock()
	r.state = stateClosed
	r.mu.Unlock()

	stats := r.Stats()
	r.logger.Info("stats recorder stopped",
		"queued_at_shutdown", queued,
		"discarded", discarded,
		"recorded", stats.Recorded,
		"appended", stats.Appended,
		"dropped", stats.Dropped,
		"error", err,
	)
	return err
}

func (r *Recorder) stopWriter() {
	r.abortOnce.Do(func() {
		close(r.abort)
		r.cancelWrite()
	})
}

// discardQueued empties the queue without writing, counting every
// record as a shutdown drop.
func (r *Recorder) discardQueued() int {
	discarded := 0
	for {
		select {
		case <-r.queue:
			r.drop(reasonShutdown)
			discarded++
		default:
			return discarded
		}
	}
}

func (r *Recorder) drop(reason string) {
	r.dropped.Add(1)
	r.metrics.droppedFor(reason).Inc()
}

// run is the writer goroutine.
func (r *Recorder) run() {
	defer close(r.done)
	defer r.cancelWrite()

	for {
		select {
		case record := <-r.queue:
			r.write(record)
		case <-r.draining:
			r.drain()
			return
		}
	}
}

// drain writes queued records until the queue is empty or the drain is
// aborted. No new records arrive once draining has begun.
func (r *Recorder) drain() {
	for {
		select {
		case <-r.abort:
			return
		default:
		}

		select {
		case record := <-r.queue:
			r.write(record)
		default:
			return
		}
	}
}

func (r *Recorder) write(record *tustats.Record) {
	if err := record.Validate(); err != nil {
		r.drop(reasonInvalid)
		r.logger.Warn("dropping invalid stats record",
			"input_file", record.InputFile,
			"error", err,
		)
		return
	}

	start := r.clock.Now()
	key, err := r.appender.Append(r.writeCtx, record)
	r.metrics.appendDuration.Observe(r.clock.Now().Sub(start).Seconds())

	if err != nil {
		reason := reasonAppend
		if errors.Is(err, statstore.ErrEncode) {
			reason = reasonEncode
		}
		r.drop(reason)
		r.logger.Warn("dropping stats record",
			"input_file", record.InputFile,
			"reason", reason,
			"error", err,
		)
		return
	}

	r.appended.Add(1)
	r.metrics.appended.Inc()
	r.logger.Debug("stats record appended",
		"key", key.String(),
		"input_file", record.InputFile,
		"includes", record.NumIncludes(),
	)
}
