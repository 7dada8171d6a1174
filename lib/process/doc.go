// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helper every tustats binary
// ends main() with. It is the one place outside the CLI that writes
// directly to stderr, for errors that happen before or after the
// structured logger exists.
package process
