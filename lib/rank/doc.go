// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rank summarizes where a translation unit's include graph
// comes from.
//
// Each include path is mapped to a directory prefix by a [PrefixRule].
// Includes sharing a prefix form a [Group] with a file count and a
// total line count. [Rank] returns the top three groups by file count
// and, separately, by line count. Ties break by ascending prefix, so
// the result is a pure function of the include multiset: include order
// does not matter.
//
// The default rule, segments:2, keeps the first two directory
// components: "a/b/c/x.h" and "a/b/y.h" both fall under "a/b". Files
// with no directory group under ".".
package rank
