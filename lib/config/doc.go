// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the translation-unit stats configuration.
//
// Configuration comes from a single file named by the TUSTATS_CONFIG
// environment variable (via [Load]) or a --config flag (via
// [LoadFile]). The file is YAML; files ending in .json or .jsonc are
// read as JSON with comments and trailing commas. Values in the file
// are layered over [Default], and no other environment variables
// override them.
//
// ${VAR} and ${VAR:-default} patterns in stats_file are expanded after
// loading, with ${CACHE_DIR} bound to the user cache directory.
//
// The stats subsystem is off unless tu_stats.enabled is true. A host
// that cannot load or validate its configuration keeps building with
// stats disabled; see lib/collector.
package config
