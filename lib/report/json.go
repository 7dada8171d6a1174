// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/bureau-foundation/tustats/lib/rank"
	"github.com/bureau-foundation/tustats/lib/statstore"
)

// JSONRecord is the object WriteJSON emits per record.
type JSONRecord struct {
	Key                  string      `json:"key"`
	Timestamp            time.Time   `json:"timestamp"`
	InputFile            string      `json:"input_file"`
	PreprocessedSize     uint64      `json:"preprocessed_size"`
	NumIncludes          int         `json:"num_includes"`
	PreprocessDurationMS int64       `json:"preprocess_duration_ms"`
	CompileDurationMS    int64       `json:"compile_duration_ms"`
	IsDistributed        bool        `json:"is_distributed"`
	DistRetryCount       uint32      `json:"dist_retry_count"`
	TopByCount           []JSONGroup `json:"top_by_count"`
	TopBySize            []JSONGroup `json:"top_by_size"`
}

// JSONGroup is one ranking slot. Empty slots are omitted.
type JSONGroup struct {
	Prefix string `json:"prefix"`
	Files  uint64 `json:"files"`
	Lines  uint64 `json:"lines"`
}

// WriteJSON writes one JSONRecord per line.
func WriteJSON(ctx context.Context, w io.Writer, store Scanner, options Options) error {
	encoder := json.NewEncoder(w)
	rule := options.rule()
	err := store.Iterate(ctx, func(entry statstore.Entry) error {
		return encoder.Encode(jsonRecord(entry, rule))
	})
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

func jsonRecord(entry statstore.Entry, rule rank.PrefixRule) JSONRecord {
	record := entry.Record
	ranking := rank.Rank(record.Includes, rule)
	return JSONRecord{
		Key:                  entry.Key.String(),
		Timestamp:            record.Timestamp,
		InputFile:            record.InputFile,
		PreprocessedSize:     record.PreprocessedSize,
		NumIncludes:          record.NumIncludes(),
		PreprocessDurationMS: record.PreprocessDuration.Milliseconds(),
		CompileDurationMS:    record.CompileDuration.Milliseconds(),
		IsDistributed:        record.IsDistributed,
		DistRetryCount:       record.DistRetryCount,
		TopByCount:           jsonGroups(ranking.ByCount),
		TopBySize:            jsonGroups(ranking.BySize),
	}
}

func jsonGroups(slots [rank.TopK]rank.Group) []JSONGroup {
	groups := make([]JSONGroup, 0, rank.TopK)
	for _, group := range slots {
		if group.IsZero() {
			break
		}
		groups = append(groups, JSONGroup{Prefix: group.Prefix, Files: group.FileCount, Lines: group.LineCount})
	}
	return groups
}
