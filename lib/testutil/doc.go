// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds test helpers shared across tustats packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] wrap the
// select-with-timeout pattern so a hung goroutine fails the test
// instead of hanging it. [RequireEventually] polls a condition for
// state that offers no channel to wait on. These helpers are the only
// place tests use real wall-clock timeouts; everything else runs on
// clock.Fake.
//
// All helpers call Fatalf on failure.
package testutil
