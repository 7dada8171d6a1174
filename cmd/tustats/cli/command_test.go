// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func newTree(output *bytes.Buffer, called *string, receivedArgs *[]string) *Command {
	var csv bool
	return &Command{
		Name:   "tustats",
		Output: output,
		Subcommands: []*Command{
			{
				Name:    "dump",
				Summary: "Print stored records",
				Flags: func() *pflag.FlagSet {
					flagSet := pflag.NewFlagSet("dump", pflag.ContinueOnError)
					flagSet.BoolVar(&csv, "csv", false, "write CSV")
					flagSet.String("stats-file", "", "store location")
					return flagSet
				},
				Examples: []Example{{Description: "Export to a spreadsheet", Command: "tustats dump --csv"}},
				Run: func(args []string) error {
					*called = "dump"
					if csv {
						*called = "dump --csv"
					}
					*receivedArgs = args
					return nil
				},
			},
			{
				Name:    "status",
				Summary: "Show the record count",
				Run: func(args []string) error {
					*called = "status"
					return nil
				},
			},
		},
	}
}

func TestExecuteDispatches(t *testing.T) {
	var output bytes.Buffer
	var called string
	var args []string
	root := newTree(&output, &called, &args)

	if err := root.Execute([]string{"dump", "--csv", "extra"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "dump --csv" {
		t.Errorf("called %q, want %q", called, "dump --csv")
	}
	if len(args) != 1 || args[0] != "extra" {
		t.Errorf("args = %v, want [extra]", args)
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	var output bytes.Buffer
	var called string
	var args []string
	root := newTree(&output, &called, &args)

	err := root.Execute([]string{"stauts"})
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("Execute error = %v, want ErrUsage", err)
	}
	if !strings.Contains(err.Error(), `did you mean "status"`) {
		t.Errorf("error %q lacks a suggestion", err)
	}
	if called != "" {
		t.Errorf("%q ran for an unknown command", called)
	}
}

func TestExecuteUnknownFlag(t *testing.T) {
	var output bytes.Buffer
	var called string
	var args []string
	root := newTree(&output, &called, &args)

	err := root.Execute([]string{"dump", "--stats-fle", "x"})
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("Execute error = %v, want ErrUsage", err)
	}
	if !strings.Contains(err.Error(), "did you mean --stats-file?") {
		t.Errorf("error %q lacks a suggestion", err)
	}
	if !strings.Contains(err.Error(), "tustats dump --help") {
		t.Errorf("error %q lacks the help pointer", err)
	}
}

func TestExecuteSubcommandRequired(t *testing.T) {
	var output bytes.Buffer
	var called string
	var args []string
	root := newTree(&output, &called, &args)

	if err := root.Execute(nil); !errors.Is(err, ErrUsage) {
		t.Fatalf("Execute error = %v, want ErrUsage", err)
	}
	if !strings.Contains(output.String(), "Commands:") {
		t.Errorf("help not printed:\n%s", output.String())
	}
}

func TestHelp(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"help"}, {"dump", "--help"}, {"dump", "-h"}} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			var output bytes.Buffer
			var called string
			var received []string
			root := newTree(&output, &called, &received)

			if err := root.Execute(args); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if called != "" {
				t.Errorf("%q ran on a help request", called)
			}
			if output.Len() == 0 {
				t.Error("help output is empty")
			}
		})
	}
}

func TestPrintHelpSubcommand(t *testing.T) {
	var output bytes.Buffer
	var called string
	var args []string
	root := newTree(&output, &called, &args)

	if err := root.Execute([]string{"dump", "--help"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	help := output.String()
	for _, want := range []string{
		"Print stored records",
		"Usage:\n  tustats dump [flags]",
		"--csv",
		"--stats-file",
		"# Export to a spreadsheet",
	} {
		if !strings.Contains(help, want) {
			t.Errorf("help lacks %q:\n%s", want, help)
		}
	}
}

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 2}
	var coder interface{ ExitCode() int }
	if !errors.As(err, &coder) || coder.ExitCode() != 2 {
		t.Errorf("ExitError does not carry its code")
	}
}

func TestEmitJSON(t *testing.T) {
	var output bytes.Buffer
	var params JSONOutput

	done, err := params.EmitJSON(&output, map[string]int{"records": 2})
	if done || err != nil || output.Len() != 0 {
		t.Fatalf("EmitJSON without --json = %v, %v, wrote %q", done, err, output.String())
	}

	flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
	params.AddFlag(flagSet)
	if err := flagSet.Parse([]string{"--json"}); err != nil {
		t.Fatal(err)
	}
	done, err = params.EmitJSON(&output, map[string]int{"records": 2})
	if !done || err != nil {
		t.Fatalf("EmitJSON with --json = %v, %v", done, err)
	}
	if got, want := output.String(), "{\n  \"records\": 2\n}\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
