// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rank

import (
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"
)

// PrefixRule maps an include path to the prefix it is grouped under.
type PrefixRule interface {
	Prefix(includePath string) string

	// String returns the rule in ParseRule syntax.
	String() string
}

// DefaultRule is segments:2.
func DefaultRule() PrefixRule { return SegmentRule{Depth: 2} }

// SegmentRule groups by the first Depth components of the include's
// directory. A leading "/" is kept, so "/usr/include/x.h" and
// "usr/include/x.h" stay apart. Depth <= 0 keeps the whole directory.
type SegmentRule struct {
	Depth int
}

func (r SegmentRule) Prefix(includePath string) string {
	absolute, parts := directoryParts(includePath)
	if len(parts) == 0 {
		if absolute {
			return "/"
		}
		return "."
	}
	if r.Depth > 0 && len(parts) > r.Depth {
		parts = parts[:r.Depth]
	}
	return joinParts(absolute, parts)
}

func (r SegmentRule) String() string {
	return "segments:" + strconv.Itoa(r.Depth)
}

// MarkerRule groups by the directory path up to and including the
// first component equal to one of Markers, plus Depth further
// components. With Markers {"include"} and Depth 1,
// "/opt/sdk/include/boost/asio/io.hpp" groups under
// "/opt/sdk/include/boost". Paths without a marker use Fallback, or
// the default rule when Fallback is nil.
type MarkerRule struct {
	Markers  []string
	Depth    int
	Fallback PrefixRule
}

func (r MarkerRule) Prefix(includePath string) string {
	absolute, parts := directoryParts(includePath)
	for i, part := range parts {
		if !slices.Contains(r.Markers, part) {
			continue
		}
		end := min(i+1+max(r.Depth, 0), len(parts))
		return joinParts(absolute, parts[:end])
	}

	fallback := r.Fallback
	if fallback == nil {
		fallback = DefaultRule()
	}
	return fallback.Prefix(includePath)
}

func (r MarkerRule) String() string {
	return "marker:" + strings.Join(r.Markers, ",") + ":" + strconv.Itoa(r.Depth)
}

// ParseRule parses "segments:N", "marker:m1,m2", or "marker:m1,m2:N".
// The empty string yields DefaultRule. A marker rule without a depth
// keeps one component after the marker.
func ParseRule(value string) (PrefixRule, error) {
	if value == "" {
		return DefaultRule(), nil
	}

	kind, rest, _ := strings.Cut(value, ":")
	switch kind {
	case "segments":
		depth, err := strconv.Atoi(rest)
		if err != nil || depth < 0 {
			return nil, fmt.Errorf("rank: invalid segment depth in %q", value)
		}
		return SegmentRule{Depth: depth}, nil

	case "marker":
		list, depthText, hasDepth := strings.Cut(rest, ":")
		depth := 1
		if hasDepth {
			var err error
			depth, err = strconv.Atoi(depthText)
			if err != nil || depth < 0 {
				return nil, fmt.Errorf("rank: invalid marker depth in %q", value)
			}
		}
		var markers []string
		for _, marker := range strings.Split(list, ",") {
			marker = strings.TrimSpace(marker)
			if marker == "" {
				continue
			}
			if strings.Contains(marker, "/") {
				return nil, fmt.Errorf("rank: marker %q must be a single path component", marker)
			}
			markers = append(markers, marker)
		}
		if len(markers) == 0 {
			return nil, fmt.Errorf("rank: marker rule %q names no markers", value)
		}
		return MarkerRule{Markers: markers, Depth: depth}, nil

	default:
		return nil, fmt.Errorf("rank: unknown prefix rule %q (want segments:N or marker:list[:N])", value)
	}
}

// directoryParts normalizes an include path and splits its directory
// into components. Backslashes count as separators.
func directoryParts(includePath string) (absolute bool, parts []string) {
	cleaned := path.Clean(strings.ReplaceAll(includePath, `\`, "/"))
	directory := path.Dir(cleaned)
	absolute = strings.HasPrefix(directory, "/")

	trimmed := strings.TrimPrefix(directory, "/")
	if trimmed == "" || trimmed == "." {
		return absolute, nil
	}
	return absolute, strings.Split(trimmed, "/")
}

func joinParts(absolute bool, parts []string) string {
	joined := strings.Join(parts, "/")
	if absolute {
		return "/" + joined
	}
	return joined
}
