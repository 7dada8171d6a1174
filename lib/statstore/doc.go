// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package statstore is the durable, append-only log of translation-unit
// records.
//
// A [Store] assigns every appended record a fresh [Key] from a
// monotonically increasing sequence, so two compilations of the same
// file never collide and concurrent writers never overwrite each other.
// [Store.Iterate] walks the log in key order, which is arrival order.
//
// Two engines are available:
//
//   - sqlite (default): a single WAL-mode database file with one
//     tu_stats table and synchronous=FULL. Readers in other processes
//     can scan while a writer appends, so a report runs against a live
//     build.
//   - badger: a log-structured store in a directory. Keys are
//     "tu_stats/" followed by a big-endian uint64 drawn from a badger
//     Sequence. Writes are synced before Append returns. Badger holds
//     an exclusive directory lock, so only one process can open a store
//     at a time; reports against a live store must run in-process.
//
// Values are the versioned envelope from lib/schema/tustats. Decode
// failures surface as errors wrapping [tustats.ErrCorrupt] or
// [tustats.ErrUnsupportedVersion] and name the offending key.
//
// [Handle] shares one lazily opened store across a process.
package statstore
