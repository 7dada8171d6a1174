// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tustats defines the translation-unit statistics record and
// its persisted encoding.
//
// A [Record] is created once at the end of a compilation, written once
// to the stats store, and read many times by reports. It is never
// modified after construction; the include list is owned by the record.
//
// # Persisted encoding
//
// [Encode] produces a self-describing CBOR envelope:
//
//	{1: schema version, 2: compression tag, 3: uncompressed size,
//	 4: BLAKE3 checksum, 5: payload}
//
// The payload is the CBOR body for [SchemaVersion] with integer map
// keys. Large payloads are compressed (see lib/compress). [Decode]
// verifies the version, size, checksum, and the include-count
// invariant, reporting failures as [ErrCorrupt] or
// [ErrUnsupportedVersion].
//
// JSON struct tags on [Record] define the `tustats ingest` input format.
package tustats
