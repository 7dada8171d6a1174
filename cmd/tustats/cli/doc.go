// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework of the tustats binary: a tree
// of [Command] values over pflag flag sets, with generated help,
// "did you mean" suggestions for mistyped commands and flags, and
// [ExitError] for commands whose non-zero exit is an expected outcome.
package cli
