// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// recordingTB captures the failure and stops the calling goroutine the
// way testing.T.Fatalf does.
type recordingTB struct {
	message string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Fatalf(format string, args ...any) {
	r.message = fmt.Sprintf(format, args...)
	runtime.Goexit()
}

// failure runs fn against a recordingTB and returns the failure
// message, or "" if fn passed.
func failure(fn func(TB)) string {
	tb := &recordingTB{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(tb)
	}()
	<-done
	return tb.message
}

func TestRequireReceive(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 7
	if got := RequireReceive(t, ch, time.Second); got != 7 {
		t.Errorf("RequireReceive = %d, want 7", got)
	}

	message := failure(func(tb TB) {
		RequireReceive(tb, make(chan int), time.Millisecond, "waiting for %s", "append")
	})
	if !strings.Contains(message, "timed out") || !strings.Contains(message, "waiting for append") {
		t.Errorf("timeout message = %q", message)
	}

	closed := make(chan int)
	close(closed)
	if message := failure(func(tb TB) { RequireReceive(tb, closed, time.Second) }); !strings.Contains(message, "closed") {
		t.Errorf("closed channel message = %q", message)
	}
}

func TestRequireSend(t *testing.T) {
	ch := make(chan string, 1)
	RequireSend(t, ch, "record", time.Second)
	if got := <-ch; got != "record" {
		t.Errorf("received %q", got)
	}

	if message := failure(func(tb TB) { RequireSend(tb, make(chan string), "x", time.Millisecond) }); message == "" {
		t.Error("RequireSend on a full channel did not fail")
	}
}

func TestRequireClosed(t *testing.T) {
	done := make(chan struct{})
	close(done)
	RequireClosed(t, done, time.Second)

	if message := failure(func(tb TB) { RequireClosed(tb, make(chan struct{}), time.Millisecond, "writer exit") }); !strings.Contains(message, "writer exit") {
		t.Errorf("message = %q", message)
	}
}

func TestRequireEventually(t *testing.T) {
	var counter atomic.Int32
	go func() {
		for range 5 {
			counter.Add(1)
		}
	}()
	RequireEventually(t, func() bool { return counter.Load() == 5 }, time.Second)

	if message := failure(func(tb TB) { RequireEventually(tb, func() bool { return false }, 5*time.Millisecond) }); !strings.Contains(message, "condition not met") {
		t.Errorf("message = %q", message)
	}
}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		args []any
		want string
	}{
		{nil, "(no message)"},
		{[]any{"plain"}, "plain"},
		{[]any{42}, "42"},
		{[]any{"record %d", 3}, "record 3"},
	}
	for _, test := range tests {
		if got := formatMessage(test.args); got != test.want {
			t.Errorf("formatMessage(%v) = %q, want %q", test.args, got, test.want)
		}
	}
}
