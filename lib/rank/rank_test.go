// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rank

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/bureau-foundation/tustats/lib/schema/tustats"
)

func includes(entries ...any) []tustats.IncludeEntry {
	var result []tustats.IncludeEntry
	for i := 0; i < len(entries); i += 2 {
		result = append(result, tustats.IncludeEntry{
			Path:      entries[i].(string),
			LineCount: uint64(entries[i+1].(int)),
		})
	}
	return result
}

func TestRankScenario(t *testing.T) {
	ranking := Rank(includes(
		"a/b/x.h", 10,
		"a/b/y.h", 20,
		"c/d/z.h", 5,
	), DefaultRule())

	want := Ranking{
		ByCount: [TopK]Group{
			{Prefix: "a/b", FileCount: 2, LineCount: 30},
			{Prefix: "c/d", FileCount: 1, LineCount: 5},
			{},
		},
		BySize: [TopK]Group{
			{Prefix: "a/b", FileCount: 2, LineCount: 30},
			{Prefix: "c/d", FileCount: 1, LineCount: 5},
			{},
		},
	}
	if ranking != want {
		t.Errorf("Rank =\n %+v\nwant\n %+v", ranking, want)
	}
	if !ranking.ByCount[2].IsZero() {
		t.Error("unused slot should be zero")
	}
}

func TestRankEmpty(t *testing.T) {
	if ranking := Rank(nil, DefaultRule()); ranking != (Ranking{}) {
		t.Errorf("Rank(nil) = %+v, want zero", ranking)
	}
}

func TestRankOrdersDiffer(t *testing.T) {
	// Many small headers under "many", one huge header under "big".
	ranking := Rank(includes(
		"many/h/1.h", 1,
		"many/h/2.h", 1,
		"many/h/3.h", 1,
		"big/h/all.h", 5000,
		"mid/h/a.h", 100,
		"mid/h/b.h", 100,
		"tiny/h/t.h", 2,
	), DefaultRule())

	wantCount := []string{"many/h", "mid/h", "big/h"}
	wantSize := []string{"big/h", "mid/h", "many/h"}
	for i := range TopK {
		if ranking.ByCount[i].Prefix != wantCount[i] {
			t.Errorf("ByCount[%d] = %q, want %q", i, ranking.ByCount[i].Prefix, wantCount[i])
		}
		if ranking.BySize[i].Prefix != wantSize[i] {
			t.Errorf("BySize[%d] = %q, want %q", i, ranking.BySize[i].Prefix, wantSize[i])
		}
	}
}

func TestRankTieBreak(t *testing.T) {
	ranking := Rank(includes(
		"zeta/x/1.h", 7,
		"alpha/x/1.h", 7,
		"mu/x/1.h", 7,
		"beta/x/1.h", 7,
	), DefaultRule())

	want := []string{"alpha/x", "beta/x", "mu/x"}
	for i := range TopK {
		if ranking.ByCount[i].Prefix != want[i] || ranking.BySize[i].Prefix != want[i] {
			t.Errorf("slot %d = %q / %q, want %q",
				i, ranking.ByCount[i].Prefix, ranking.BySize[i].Prefix, want[i])
		}
	}
}

func TestRankOrderIndependent(t *testing.T) {
	entries := includes(
		"a/b/1.h", 3, "c/d/1.h", 9, "a/b/2.h", 4,
		"e/f/1.h", 9, "c/d/2.h", 1, "g/h/1.h", 2,
	)
	want := Rank(entries, DefaultRule())

	random := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		shuffled := append([]tustats.IncludeEntry(nil), entries...)
		random.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		if got := Rank(shuffled, DefaultRule()); got != want {
			t.Fatalf("Rank depends on include order: %+v vs %+v", got, want)
		}
	}
}

func TestRankProperties(t *testing.T) {
	random := rand.New(rand.NewPCG(42, 7))
	rules := []PrefixRule{
		DefaultRule(),
		SegmentRule{Depth: 1},
		SegmentRule{Depth: 0},
		MarkerRule{Markers: []string{"include"}, Depth: 1},
	}

	for trial := range 200 {
		n := random.IntN(60)
		var entries []tustats.IncludeEntry
		for range n {
			entries = append(entries, tustats.IncludeEntry{
				Path: fmt.Sprintf("/r%d/include/p%d/q%d/h.h",
					random.IntN(3), random.IntN(4), random.IntN(3)),
				LineCount: uint64(random.IntN(1000)),
			})
		}
		rule := rules[trial%len(rules)]
		groups := Groups(entries, rule)
		ranking := Rank(entries, rule)

		var files uint64
		for _, group := range groups {
			files += group.FileCount
		}
		if files != uint64(n) {
			t.Fatalf("trial %d: group file counts sum to %d, want %d", trial, files, n)
		}

		checkOrdered(t, ranking.ByCount, func(g Group) uint64 { return g.FileCount })
		checkOrdered(t, ranking.BySize, func(g Group) uint64 { return g.LineCount })

		if len(groups) <= TopK {
			var topFiles uint64
			for _, group := range ranking.ByCount {
				topFiles += group.FileCount
			}
			if topFiles != uint64(n) {
				t.Fatalf("trial %d: with %d groups the top file counts sum to %d, want %d",
					trial, len(groups), topFiles, n)
			}
		}
	}
}

func checkOrdered(t *testing.T, slots [TopK]Group, metric func(Group) uint64) {
	t.Helper()
	seen := make(map[string]bool)
	for i, group := range slots {
		if group.IsZero() {
			for _, rest := range slots[i:] {
				if !rest.IsZero() {
					t.Fatalf("non-zero slot after an empty one: %+v", slots)
				}
			}
			return
		}
		if seen[group.Prefix] {
			t.Fatalf("duplicate prefix %q in %+v", group.Prefix, slots)
		}
		seen[group.Prefix] = true
		if i > 0 && metric(group) > metric(slots[i-1]) {
			t.Fatalf("slots not non-increasing: %+v", slots)
		}
	}
}

func TestGroupsSortedByPrefix(t *testing.T) {
	groups := Groups(includes("z/y/1.h", 1, "a/b/1.h", 1, "m/n/1.h", 1, "a/b/2.h", 1), nil)
	want := []Group{
		{Prefix: "a/b", FileCount: 2, LineCount: 2},
		{Prefix: "m/n", FileCount: 1, LineCount: 1},
		{Prefix: "z/y", FileCount: 1, LineCount: 1},
	}
	if len(groups) != len(want) {
		t.Fatalf("Groups = %+v, want %+v", groups, want)
	}
	for i := range want {
		if groups[i] != want[i] {
			t.Errorf("Groups[%d] = %+v, want %+v", i, groups[i], want[i])
		}
	}
}
