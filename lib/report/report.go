// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"context"

	"github.com/bureau-foundation/tustats/lib/rank"
	"github.com/bureau-foundation/tustats/lib/statstore"
)

// Scanner is the read side of a store.
type Scanner interface {
	Iterate(ctx context.Context, fn func(statstore.Entry) error) error
}

// RawScanner is the undecoded read side of a store.
type RawScanner interface {
	IterateRaw(ctx context.Context, fn func(key statstore.Key, value []byte) error) error
}

// Options controls every writer.
type Options struct {
	// Rule groups includes for the rankings. Nil uses rank.DefaultRule.
	Rule rank.PrefixRule

	// Color enables ANSI styling in WriteText. The other writers
	// ignore it.
	Color bool
}

func (o Options) rule() rank.PrefixRule {
	if o.Rule == nil {
		return rank.DefaultRule()
	}
	return o.Rule
}
