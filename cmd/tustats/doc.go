// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Tustats inspects and feeds the translation-unit statistics store.
//
// Usage:
//
//	tustats dump [--csv | --json | --raw] [--stats-file PATH] [--engine E]
//	tustats status [--json]
//	tustats ingest < records.ndjson
//	tustats version
//
// Store location, engine, and the remaining knobs come from the file
// named by --config or TUSTATS_CONFIG; flags override it.
package main
