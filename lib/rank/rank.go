// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rank

import (
	"cmp"
	"slices"

	"github.com/bureau-foundation/tustats/lib/schema/tustats"
)

// TopK is the number of groups in each ranking.
const TopK = 3

// Group is the set of includes sharing a prefix.
type Group struct {
	Prefix    string
	FileCount uint64
	LineCount uint64
}

// IsZero reports whether g is an unused ranking slot.
func (g Group) IsZero() bool { return g == Group{} }

// Ranking holds the top groups by file count and by line count. When
// fewer than TopK groups exist the trailing slots are zero Groups.
type Ranking struct {
	ByCount [TopK]Group
	BySize  [TopK]Group
}

// Groups partitions includes by prefix and returns every group sorted
// by prefix. The file counts sum to len(includes).
func Groups(includes []tustats.IncludeEntry, rule PrefixRule) []Group {
	if rule == nil {
		rule = DefaultRule()
	}

	index := make(map[string]int, len(includes))
	var groups []Group
	for _, include := range includes {
		prefix := rule.Prefix(include.Path)
		i, ok := index[prefix]
		if !ok {
			i = len(groups)
			index[prefix] = i
			groups = append(groups, Group{Prefix: prefix})
		}
		groups[i].FileCount++
		groups[i].LineCount += include.LineCount
	}

	slices.SortFunc(groups, func(a, b Group) int {
		return cmp.Compare(a.Prefix, b.Prefix)
	})
	return groups
}

// Rank computes both top-K rankings for one record's includes.
func Rank(includes []tustats.IncludeEntry, rule PrefixRule) Ranking {
	groups := Groups(includes, rule)

	var ranking Ranking
	ranking.ByCount = top(groups, func(g Group) uint64 { return g.FileCount })
	ranking.BySize = top(groups, func(g Group) uint64 { return g.LineCount })
	return ranking
}

// top sorts a copy of groups by metric descending, ties by prefix
// ascending, and keeps the first TopK.
func top(groups []Group, metric func(Group) uint64) [TopK]Group {
	sorted := slices.Clone(groups)
	slices.SortFunc(sorted, func(a, b Group) int {
		if c := cmp.Compare(metric(b), metric(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.Prefix, b.Prefix)
	})

	var result [TopK]Group
	copy(result[:], sorted)
	return result
}
