// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tustats

import (
	"errors"
	"fmt"
	"time"
)

// IncludeEntry is one file pulled in while preprocessing a translation
// unit, with the number of lines it contributed to the preprocessed
// output.
type IncludeEntry struct {
	Path      string `json:"path"`
	LineCount uint64 `json:"line_count"`
}

// Record holds the statistics of one compiled translation unit.
type Record struct {
	// InputFile is the path of the compiled source file.
	InputFile string `json:"input_file"`

	// PreprocessedSize is the size of the preprocessed output in bytes.
	PreprocessedSize uint64 `json:"preprocessed_size"`

	// Includes lists every file pulled in during preprocessing, in
	// preprocessing order.
	Includes []IncludeEntry `json:"includes"`

	// PreprocessDuration and CompileDuration are wall-clock times.
	PreprocessDuration time.Duration `json:"preprocess_duration_ns"`
	CompileDuration    time.Duration `json:"compile_duration_ns"`

	// IsDistributed is true when the unit was compiled remotely.
	IsDistributed bool `json:"is_distributed"`

	// DistRetryCount is the number of remote compilation retries. It
	// is only meaningful for distributed compilations and must be zero
	// otherwise.
	DistRetryCount uint32 `json:"dist_retry_count"`

	// Timestamp is when the compilation completed.
	Timestamp time.Time `json:"timestamp"`
}

// ErrInvalid is wrapped by every [Record.Validate] failure.
var ErrInvalid = errors.New("tustats: invalid record")

// NumIncludes returns the number of included files.
func (r *Record) NumIncludes() int {
	return len(r.Includes)
}

// Validate checks the record invariants.
func (r *Record) Validate() error {
	if r.InputFile == "" {
		return fmt.Errorf("%w: input file is empty", ErrInvalid)
	}
	if r.PreprocessDuration < 0 {
		return fmt.Errorf("%w: negative preprocess duration %v", ErrInvalid, r.PreprocessDuration)
	}
	if r.CompileDuration < 0 {
		return fmt.Errorf("%w: negative compile duration %v", ErrInvalid, r.CompileDuration)
	}
	if !r.IsDistributed && r.DistRetryCount != 0 {
		return fmt.Errorf("%w: %d retries on a local compilation", ErrInvalid, r.DistRetryCount)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is not set", ErrInvalid)
	}
	return nil
}

// Equal reports whether two records hold the same values. Timestamps
// are compared as instants and a nil include list equals an empty one,
// which is what survives an encode/decode roundtrip.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.InputFile != other.InputFile ||
		r.PreprocessedSize != other.PreprocessedSize ||
		r.PreprocessDuration != other.PreprocessDuration ||
		r.CompileDuration != other.CompileDuration ||
		r.IsDistributed != other.IsDistributed ||
		r.DistRetryCount != other.DistRetryCount ||
		!r.Timestamp.Equal(other.Timestamp) ||
		len(r.Includes) != len(other.Includes) {
		return false
	}
	for i := range r.Includes {
		if r.Includes[i] != other.Includes[i] {
			return false
		}
	}
	return true
}
