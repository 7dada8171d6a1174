// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/tustats/lib/schema/tustats"
	"github.com/bureau-foundation/tustats/lib/sqlitepool"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tu_stats (
	key            INTEGER PRIMARY KEY AUTOINCREMENT,
	schema_version INTEGER NOT NULL,
	value          BLOB    NOT NULL
);
`

type sqliteStore struct {
	mu       sync.RWMutex
	pool     *sqlitepool.Pool
	encoding tustats.EncodeOptions
	readOnly bool
}

func openSQLite(config Config) (*sqliteStore, error) {
	if config.ReadOnly {
		if _, err := os.Stat(config.Path); err != nil {
			return nil, err
		}
	} else if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
		return nil, err
	}

	poolConfig := sqlitepool.Config{
		Path:        config.Path,
		PoolSize:    2,
		Synchronous: sqlitepool.SynchronousFull,
		ReadOnly:    config.ReadOnly,
		Logger:      config.Logger,
	}
	if !config.ReadOnly {
		poolConfig.OnConnect = func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, sqliteSchema, nil)
		}
	}

	pool, err := sqlitepool.Open(poolConfig)
	if err != nil {
		return nil, err
	}

	// Take one connection now so a bad path or a missing table fails
	// Open rather than the first Append.
	conn, err := pool.Take(context.Background())
	if err != nil {
		pool.Close()
		return nil, err
	}
	err = sqlitex.ExecuteTransient(conn, "SELECT 1 FROM tu_stats LIMIT 1", nil)
	pool.Put(conn)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("checking tu_stats table: %w", err)
	}

	return &sqliteStore{
		pool:     pool,
		encoding: config.Encoding,
		readOnly: config.ReadOnly,
	}, nil
}

func (s *sqliteStore) Append(ctx context.Context, record *tustats.Record) (Key, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	value, err := tustats.Encode(record, s.encoding)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pool == nil {
		return 0, ErrClosed
	}
	if s.readOnly {
		return 0, fmt.Errorf("%w: store is read-only", ErrAppend)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAppend, err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT INTO tu_stats (schema_version, value) VALUES (?, ?)",
		&sqlitex.ExecOptions{Args: []any{tustats.SchemaVersion, value}})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAppend, err)
	}
	return Key(conn.LastInsertRowID()), nil
}

func (s *sqliteStore) Iterate(ctx context.Context, fn func(Entry) error) error {
	return s.IterateRaw(ctx, decodeEach(fn))
}

func (s *sqliteStore) IterateRaw(ctx context.Context, fn func(Key, []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pool == nil {
		return ErrClosed
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("statstore: %w", err)
	}
	defer s.pool.Put(conn)

	// A single SELECT reads one WAL snapshot. The callback error is
	// kept separately so it reaches the caller unwrapped.
	var callbackErr error
	err = sqlitex.Execute(conn, "SELECT key, value FROM tu_stats ORDER BY key", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			if err := ctx.Err(); err != nil {
				callbackErr = err
				return err
			}
			value := make([]byte, stmt.ColumnLen(1))
			stmt.ColumnBytes(1, value)
			if err := fn(Key(stmt.ColumnInt64(0)), value); err != nil {
				callbackErr = err
				return err
			}
			return nil
		},
	})
	if callbackErr != nil {
		return stopped(callbackErr)
	}
	if err != nil {
		return fmt.Errorf("statstore: scanning tu_stats: %w", err)
	}
	return nil
}

func (s *sqliteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pool == nil {
		return 0, ErrClosed
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("statstore: %w", err)
	}
	defer s.pool.Put(conn)

	var count int
	err = sqlitex.Execute(conn, "SELECT count(*) FROM tu_stats", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("statstore: counting records: %w", err)
	}
	return count, nil
}

func (s *sqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		return nil
	}
	err := s.pool.Close()
	s.pool = nil
	if err != nil {
		return fmt.Errorf("statstore: %w", err)
	}
	return nil
}
