// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package recorder moves translation-unit records off the compile path
// and into a store.
//
// [Recorder.Record] is called once per finished compilation from any
// number of goroutines. It places the record on a bounded queue with a
// non-blocking send and returns; it never waits on I/O and never
// reports an error. A single background writer dequeues records and
// appends them to the store in dequeue order.
//
// The queue is lossy under load: when it is full the record is dropped
// and counted. Every drop is attributed to a reason:
//
//   - queue_full: the queue had no free slot.
//   - invalid: the record failed validation.
//   - encode: the store could not serialize the record.
//   - append: the store rejected the write.
//   - shutdown: the record arrived after Shutdown began, or was still
//     queued when the drain budget ran out.
//
// A nil *Recorder is the disabled recorder. Every method is a no-op on
// it, so hosts can call Record unconditionally.
package recorder
