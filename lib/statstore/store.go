// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/bureau-foundation/tustats/lib/schema/tustats"
)

var (
	// ErrOpen wraps every failure to open a store.
	ErrOpen = errors.New("statstore: open failed")

	// ErrEncode wraps record serialization failures in Append.
	ErrEncode = errors.New("statstore: encode failed")

	// ErrAppend wraps engine write failures in Append.
	ErrAppend = errors.New("statstore: append failed")

	// ErrClosed is returned by operations on a closed store or handle.
	ErrClosed = errors.New("statstore: closed")

	// ErrStop ends an Iterate or IterateRaw scan early. The scan then
	// returns nil.
	ErrStop = errors.New("statstore: stop iteration")
)

// Key identifies a stored record. Keys increase in arrival order and
// carry no meaning beyond that.
type Key uint64

// String renders the key as 16 hex digits, which sort the same way as
// the keys themselves.
func (k Key) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}

// ParseKey parses the String form.
func ParseKey(s string) (Key, error) {
	value, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("statstore: invalid key %q: %w", s, err)
	}
	return Key(value), nil
}

// Entry is one decoded record yielded by Iterate.
type Entry struct {
	Key    Key
	Record *tustats.Record
}

// Store is an append-only ordered log of records.
//
// Append is safe for concurrent use. Iterate and IterateRaw may run
// concurrently with Append and observe a snapshot taken when the scan
// starts.
type Store interface {
	// Append encodes and durably stores a record, returning its key
	// once the write is acknowledged.
	Append(ctx context.Context, record *tustats.Record) (Key, error)

	// Iterate calls fn for every record in ascending key order. A
	// decode failure aborts the scan. Returning ErrStop from fn ends
	// the scan with a nil error; any other error is returned as-is.
	Iterate(ctx context.Context, fn func(Entry) error) error

	// IterateRaw is Iterate without decoding. The value slice is only
	// valid for the duration of the call.
	IterateRaw(ctx context.Context, fn func(key Key, value []byte) error) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close flushes and releases the store. It is idempotent.
	Close() error
}

// Engine selects a storage backend.
type Engine string

const (
	EngineBadger Engine = "badger"
	EngineSQLite Engine = "sqlite"
)

// ParseEngine parses a configuration name. The empty string selects
// EngineSQLite.
func ParseEngine(name string) (Engine, error) {
	switch Engine(name) {
	case "", EngineSQLite:
		return EngineSQLite, nil
	case EngineBadger:
		return EngineBadger, nil
	default:
		return "", fmt.Errorf("statstore: unknown engine %q (want badger or sqlite)", name)
	}
}

// Config controls Open.
type Config struct {
	// Path is the badger directory or the sqlite database file.
	// Missing parent directories are created unless ReadOnly is set.
	Path string

	// Engine defaults to EngineSQLite.
	Engine Engine

	// ReadOnly opens an existing store for scanning. Append fails with
	// ErrAppend.
	ReadOnly bool

	// Encoding controls payload compression on Append. The zero value
	// stores payloads uncompressed.
	Encoding tustats.EncodeOptions

	// Logger defaults to discarding output.
	Logger *slog.Logger
}

// Open opens (creating if needed) the store described by config.
// Every error wraps ErrOpen.
func Open(config Config) (Store, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrOpen)
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	engine, err := ParseEngine(string(config.Engine))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}

	var store Store
	switch engine {
	case EngineBadger:
		store, err = openBadger(config)
	default:
		store, err = openSQLite(config)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s store at %s: %w", ErrOpen, engine, config.Path, err)
	}

	config.Logger.Debug("stats store opened",
		"engine", string(engine),
		"path", config.Path,
		"read_only", config.ReadOnly,
	)
	return store, nil
}

// decodeEach adapts a raw scan into a decoded one.
func decodeEach(fn func(Entry) error) func(Key, []byte) error {
	return func(key Key, value []byte) error {
		record, err := tustats.Decode(value)
		if err != nil {
			return fmt.Errorf("statstore: record %s: %w", key, err)
		}
		return fn(Entry{Key: key, Record: record})
	}
}

// stopped maps ErrStop to a clean end of scan.
func stopped(err error) error {
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}
