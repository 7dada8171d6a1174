// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress implements the payload compression algorithms that
// may appear in a stored record envelope: [None], [LZ4], and [Zstd].
//
// The tag is persisted next to the compressed bytes together with the
// uncompressed size, which [Decompress] verifies. [CompressOrStore] is
// the write-side entry point: it falls back to [None] when compression
// does not reduce the size.
package compress
