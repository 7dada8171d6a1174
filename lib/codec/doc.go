// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the shared CBOR encoding configuration for
// persisted statistics records.
//
// Two serialization formats have a clear boundary:
//
//   - JSON for external interfaces: `tustats ingest` input, `--json`
//     report output.
//   - CBOR for everything written to the stats store: the versioned
//     record envelope and the record body inside it.
//
// The encoder uses Core Deterministic Encoding so that checksums
// computed over encoded bodies are reproducible. The decoder rejects
// duplicate map keys and tolerates unknown fields.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Persisted types use `cbor` struct tags with integer keys
// (`cbor:"1,keyasint"`) to keep values compact; field numbers are part
// of the on-disk format and must never be reused.
package codec
