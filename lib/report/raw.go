// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"context"
	"fmt"
	"io"

	"github.com/bureau-foundation/tustats/lib/codec"
	"github.com/bureau-foundation/tustats/lib/statstore"
)

// WriteRaw prints every stored value as "<key> <diagnostic>" without
// decoding it into a record. Values that are not well-formed CBOR are
// reported in place and the scan continues.
func WriteRaw(ctx context.Context, w io.Writer, store RawScanner) error {
	err := store.IterateRaw(ctx, func(key statstore.Key, value []byte) error {
		diagnostic, err := codec.Diagnose(value)
		if err != nil {
			_, err = fmt.Fprintf(w, "%s !malformed (%d bytes): %v\n", key, len(value), err)
			return err
		}
		_, err = fmt.Fprintf(w, "%s %s\n", key, diagnostic)
		return err
	})
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
