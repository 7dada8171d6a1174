// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package report renders the contents of a stats store.
//
// Every writer scans the store once, in key order, computing the
// include rankings for each record as it goes, so memory use does not
// grow with the store. Writers only read, and are safe to run while a
// recorder appends to the same store.
//
//   - [WriteText]: a block per record for people.
//   - [WriteCSV]: one row per record with a fixed column set.
//   - [WriteJSON]: one JSON object per line.
//   - [WriteRaw]: stored values in CBOR diagnostic notation, without
//     decoding, for inspecting a damaged store.
package report
