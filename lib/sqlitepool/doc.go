// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool is a small SQLite connection pool over
// zombiezen.com/go/sqlite with a fixed set of pragmas.
//
// Every connection gets:
//
//   - journal_mode=WAL (skipped for read-only pools): readers in this
//     or another process see a consistent snapshot while a writer
//     commits.
//   - synchronous=NORMAL or FULL, per [Config.Synchronous].
//   - busy_timeout=5000: wait for the write lock instead of failing
//     with SQLITE_BUSY.
//   - cache_size=-4096 and temp_store=MEMORY.
//
// Callers write SQL directly with sqlitex.Execute and manage
// transactions with sqlitex.ImmediateTransaction; the pool only
// standardizes connection setup.
package sqlitepool
