// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/bureau-foundation/tustats/lib/schema/tustats"
)

var (
	// recordPrefix is the logical partition holding records.
	recordPrefix = []byte("tu_stats/")

	// sequenceKey lives outside recordPrefix so scans never see it.
	sequenceKey = []byte("meta/tu_stats/sequence")
)

// sequenceBandwidth is how many keys a Sequence leases per disk write.
// A crash loses at most this many keys, leaving a gap.
const sequenceBandwidth = 128

type badgerStore struct {
	// mu guards db against Close while an operation is in flight.
	mu       sync.RWMutex
	db       *badger.DB
	sequence *badger.Sequence
	encoding tustats.EncodeOptions
	readOnly bool
	logger   *slog.Logger
}

func openBadger(config Config) (*badgerStore, error) {
	if config.ReadOnly {
		if _, err := os.Stat(config.Path); err != nil {
			return nil, err
		}
	} else if err := os.MkdirAll(config.Path, 0o755); err != nil {
		return nil, err
	}

	options := badger.DefaultOptions(config.Path).
		WithSyncWrites(true).
		WithReadOnly(config.ReadOnly).
		WithNumVersionsToKeep(1).
		WithMemTableSize(8 << 20).
		WithValueLogFileSize(64 << 20).
		WithLogger(badgerLogger{logger: config.Logger.With("component", "badger")})

	db, err := badger.Open(options)
	if err != nil {
		return nil, err
	}

	store := &badgerStore{
		db:       db,
		encoding: config.Encoding,
		readOnly: config.ReadOnly,
		logger:   config.Logger,
	}
	if !config.ReadOnly {
		store.sequence, err = db.GetSequence(sequenceKey, sequenceBandwidth)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("leasing key sequence: %w", err)
		}
	}
	return store, nil
}

func recordKey(key Key) []byte {
	buffer := make([]byte, len(recordPrefix)+8)
	copy(buffer, recordPrefix)
	binary.BigEndian.PutUint64(buffer[len(recordPrefix):], uint64(key))
	return buffer
}

func parseRecordKey(raw []byte) (Key, error) {
	if len(raw) != len(recordPrefix)+8 {
		return 0, fmt.Errorf("%w: malformed key %q", tustats.ErrCorrupt, raw)
	}
	return Key(binary.BigEndian.Uint64(raw[len(recordPrefix):])), nil
}

func (s *badgerStore) Append(ctx context.Context, record *tustats.Record) (Key, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	value, err := tustats.Encode(record, s.encoding)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return 0, ErrClosed
	}
	if s.readOnly {
		return 0, fmt.Errorf("%w: store is read-only", ErrAppend)
	}

	next, err := s.sequence.Next()
	if err != nil {
		return 0, fmt.Errorf("%w: next key: %w", ErrAppend, err)
	}
	// Sequences start at zero; keys start at one to match sqlite rowids.
	key := Key(next + 1)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(key), value)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAppend, err)
	}
	return key, nil
}

func (s *badgerStore) Iterate(ctx context.Context, fn func(Entry) error) error {
	return s.IterateRaw(ctx, decodeEach(fn))
}

func (s *badgerStore) IterateRaw(ctx context.Context, fn func(Key, []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}

	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = recordPrefix
		iterator := txn.NewIterator(options)
		defer iterator.Close()

		for iterator.Seek(recordPrefix); iterator.ValidForPrefix(recordPrefix); iterator.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iterator.Item()
			key, err := parseRecordKey(item.Key())
			if err != nil {
				return err
			}
			if err := item.Value(func(value []byte) error {
				return fn(key, value)
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return stopped(err)
}

func (s *badgerStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return 0, ErrClosed
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = recordPrefix
		options.PrefetchValues = false
		iterator := txn.NewIterator(options)
		defer iterator.Close()

		for iterator.Seek(recordPrefix); iterator.ValidForPrefix(recordPrefix); iterator.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("statstore: counting records: %w", err)
	}
	return count, nil
}

func (s *badgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}

	var sequenceErr error
	if s.sequence != nil {
		sequenceErr = s.sequence.Release()
	}
	err := s.db.Close()
	s.db = nil
	s.sequence = nil

	if sequenceErr != nil {
		return fmt.Errorf("statstore: releasing key sequence: %w", sequenceErr)
	}
	if err != nil {
		return fmt.Errorf("statstore: closing badger: %w", err)
	}
	return nil
}

// badgerLogger routes badger's printf-style logging into slog. Badger
// reports routine compaction and replay progress at info, which is
// debug-level noise for a telemetry store.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(trimNewline(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(trimNewline(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(trimNewline(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(trimNewline(fmt.Sprintf(format, args...)))
}

func trimNewline(message string) string {
	return strings.TrimRight(message, "\n")
}
