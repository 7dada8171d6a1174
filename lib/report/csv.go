// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/bureau-foundation/tustats/lib/rank"
	"github.com/bureau-foundation/tustats/lib/statstore"
)

// CSVHeader is the exact column set written by WriteCSV.
var CSVHeader = []string{
	"timestamp",
	"input_file",
	"preprocessed_size",
	"num_includes",
	"preprocess_duration_ms",
	"compile_duration_ms",
	"dist_retry_count",
	"is_distributed",
	"top1_by_count", "top1_count", "top1_lines",
	"top2_by_count", "top2_count", "top2_lines",
	"top3_by_count", "top3_count", "top3_lines",
	"top1_by_size", "top1_lines", "top1_count",
	"top2_by_size", "top2_lines", "top2_count",
	"top3_by_size", "top3_lines", "top3_count",
}

// WriteCSV writes a header and one row per record. Timestamps are Unix
// seconds, durations whole milliseconds, and empty ranking slots an
// empty prefix with zero counts.
//
// Fields are quoted per RFC 4180 and written byte for byte. Readers
// that normalize line endings, encoding/csv among them, turn a "\r\n"
// inside a quoted path into "\n", so such paths do not read back
// exactly.
func WriteCSV(ctx context.Context, w io.Writer, store Scanner, options Options) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("report: writing CSV header: %w", err)
	}

	rule := options.rule()
	row := make([]string, 0, len(CSVHeader))
	err := store.Iterate(ctx, func(entry statstore.Entry) error {
		row = csvRow(row[:0], entry, rule)
		return writer.Write(row)
	})
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("report: flushing CSV: %w", err)
	}
	return nil
}

func csvRow(row []string, entry statstore.Entry, rule rank.PrefixRule) []string {
	record := entry.Record
	ranking := rank.Rank(record.Includes, rule)

	row = append(row,
		strconv.FormatInt(record.Timestamp.Unix(), 10),
		record.InputFile,
		strconv.FormatUint(record.PreprocessedSize, 10),
		strconv.Itoa(record.NumIncludes()),
		strconv.FormatInt(record.PreprocessDuration.Milliseconds(), 10),
		strconv.FormatInt(record.CompileDuration.Milliseconds(), 10),
		strconv.FormatUint(uint64(record.DistRetryCount), 10),
		strconv.FormatBool(record.IsDistributed),
	)
	for _, group := range ranking.ByCount {
		row = append(row,
			group.Prefix,
			strconv.FormatUint(group.FileCount, 10),
			strconv.FormatUint(group.LineCount, 10),
		)
	}
	for _, group := range ranking.BySize {
		row = append(row,
			group.Prefix,
			strconv.FormatUint(group.LineCount, 10),
			strconv.FormatUint(group.FileCount, 10),
		)
	}
	return row
}
