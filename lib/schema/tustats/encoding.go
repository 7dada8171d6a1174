// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tustats

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/tustats/lib/codec"
	"github.com/bureau-foundation/tustats/lib/compress"
)

// SchemaVersion is the body layout written by [Encode]. Bump it (and
// keep a decoder for the old value) whenever a body field changes
// meaning; additive fields with fresh keys do not need a bump.
const SchemaVersion = 1

var (
	// ErrCorrupt reports a stored value that cannot be decoded or fails
	// an integrity check.
	ErrCorrupt = errors.New("tustats: corrupt record")

	// ErrUnsupportedVersion reports an envelope written with a schema
	// version this build does not understand.
	ErrUnsupportedVersion = errors.New("tustats: unsupported schema version")
)

// EncodeOptions controls payload compression.
type EncodeOptions struct {
	// Compression is applied to payloads of at least
	// CompressThreshold bytes.
	Compression compress.Tag

	// CompressThreshold is the payload size in bytes at which
	// compression kicks in. Zero compresses everything.
	CompressThreshold int
}

// DefaultEncodeOptions compresses payloads of 4 KiB and above with zstd.
// A typical C++ unit with a few hundred includes crosses that.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Compression:       compress.Zstd,
		CompressThreshold: 4096,
	}
}

// envelope is the outermost persisted structure. Field numbers are
// part of the on-disk format.
type envelope struct {
	Version     uint         `cbor:"1,keyasint"`
	Compression compress.Tag `cbor:"2,keyasint"`
	Size        uint64       `cbor:"3,keyasint"`
	Checksum    []byte       `cbor:"4,keyasint"`
	Payload     []byte       `cbor:"5,keyasint"`
}

// Paths are byte strings: file names need not be valid UTF-8, and
// CBOR text strings must be.
type bodyV1 struct {
	InputFile        []byte      `cbor:"1,keyasint"`
	PreprocessedSize uint64      `cbor:"2,keyasint"`
	NumIncludes      uint64      `cbor:"3,keyasint"`
	Includes         []includeV1 `cbor:"4,keyasint,omitempty"`
	PreprocessNanos  int64       `cbor:"5,keyasint"`
	CompileNanos     int64       `cbor:"6,keyasint"`
	IsDistributed    bool        `cbor:"7,keyasint"`
	DistRetryCount   uint32      `cbor:"8,keyasint"`
	TimestampSeconds int64       `cbor:"9,keyasint"`
	TimestampNanos   int64       `cbor:"10,keyasint"`
}

// includeV1 encodes as a two-element array [path, line_count].
type includeV1 struct {
	_         struct{} `cbor:",toarray"`
	Path      []byte
	LineCount uint64
}

// maxPayloadSize bounds the uncompressed size a decoder will allocate
// for. Real records are far below it.
const maxPayloadSize = 64 << 20

// checksumKey is the BLAKE3 keyed-hash domain for record payloads:
// ASCII "tustats.record" zero-padded to 32 bytes.
var checksumKey = [32]byte{
	't', 'u', 's', 't', 'a', 't', 's', '.', 'r', 'e', 'c', 'o', 'r', 'd',
}

func checksum(payload []byte) []byte {
	hasher, err := blake3.NewKeyed(checksumKey[:])
	if err != nil {
		panic("tustats: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(payload)
	return hasher.Sum(nil)
}

// Encode serializes a record into a versioned envelope. The record is
// not validated here; callers that accept external input call
// [Record.Validate] first.
func Encode(record *Record, options EncodeOptions) ([]byte, error) {
	body := bodyV1{
		InputFile:        []byte(record.InputFile),
		PreprocessedSize: record.PreprocessedSize,
		NumIncludes:      uint64(len(record.Includes)),
		PreprocessNanos:  int64(record.PreprocessDuration),
		CompileNanos:     int64(record.CompileDuration),
		IsDistributed:    record.IsDistributed,
		DistRetryCount:   record.DistRetryCount,
		TimestampSeconds: record.Timestamp.Unix(),
		TimestampNanos:   int64(record.Timestamp.Nanosecond()),
	}
	if len(record.Includes) > 0 {
		body.Includes = make([]includeV1, len(record.Includes))
		for i, include := range record.Includes {
			body.Includes[i] = includeV1{Path: []byte(include.Path), LineCount: include.LineCount}
		}
	}

	payload, err := codec.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("tustats: encoding body: %w", err)
	}

	stored, tag := payload, compress.None
	if options.Compression != compress.None && len(payload) >= options.CompressThreshold {
		stored, tag, err = compress.CompressOrStore(payload, options.Compression)
		if err != nil {
			return nil, fmt.Errorf("tustats: compressing body: %w", err)
		}
	}

	data, err := codec.Marshal(envelope{
		Version:     SchemaVersion,
		Compression: tag,
		Size:        uint64(len(payload)),
		Checksum:    checksum(payload),
		Payload:     stored,
	})
	if err != nil {
		return nil, fmt.Errorf("tustats: encoding envelope: %w", err)
	}
	return data, nil
}

// Decode parses an envelope produced by [Encode].
func Decode(data []byte) (*Record, error) {
	var outer envelope
	if err := codec.Unmarshal(data, &outer); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", ErrCorrupt, err)
	}
	if outer.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: %d (this build reads %d)", ErrUnsupportedVersion, outer.Version, SchemaVersion)
	}

	if outer.Size > maxPayloadSize {
		return nil, fmt.Errorf("%w: payload size %d exceeds limit", ErrCorrupt, outer.Size)
	}

	payload, err := compress.Decompress(outer.Payload, outer.Compression, int(outer.Size))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !bytes.Equal(checksum(payload), outer.Checksum) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	var body bodyV1
	if err := codec.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: body: %v", ErrCorrupt, err)
	}
	if body.TimestampNanos < 0 || body.TimestampNanos >= int64(time.Second) {
		return nil, fmt.Errorf("%w: timestamp nanoseconds %d out of range", ErrCorrupt, body.TimestampNanos)
	}
	if body.NumIncludes != uint64(len(body.Includes)) {
		return nil, fmt.Errorf("%w: header says %d includes, body has %d",
			ErrCorrupt, body.NumIncludes, len(body.Includes))
	}

	record := &Record{
		InputFile:          string(body.InputFile),
		PreprocessedSize:   body.PreprocessedSize,
		Includes:           make([]IncludeEntry, len(body.Includes)),
		PreprocessDuration: time.Duration(body.PreprocessNanos),
		CompileDuration:    time.Duration(body.CompileNanos),
		IsDistributed:      body.IsDistributed,
		DistRetryCount:     body.DistRetryCount,
		Timestamp:          time.Unix(body.TimestampSeconds, body.TimestampNanos).UTC(),
	}
	for i, include := range body.Includes {
		record.Includes[i] = IncludeEntry{Path: string(include.Path), LineCount: include.LineCount}
	}
	return record, nil
}
