// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Components that read the time or wait on deadlines take a Clock
// instead of calling the time package directly. Real() is the standard
// library; Fake() is a manually advanced clock for tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	r, _ := recorder.New(recorder.Config{Clock: c, ...})
//	go r.Shutdown(ctx)
//	c.WaitForTimers(1)          // Shutdown armed its drain budget
//	c.Advance(5 * time.Second)  // budget expires deterministically
package clock
