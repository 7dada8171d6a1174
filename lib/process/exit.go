// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// exitCoder is implemented by errors that carry their own exit status
// and have already printed whatever the user needs to see.
type exitCoder interface {
	ExitCode() int
}

// Exit terminates the process for the result of run(). A nil error
// exits 0. An error carrying an exit code exits with that code
// silently; any other error is printed as "error: ..." and exits 1.
func Exit(err error) {
	os.Exit(report(os.Stderr, err))
}

// Fatal prints err and exits 1.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
