// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/tustats/lib/schema/tustats"
)

var engines = []Engine{EngineBadger, EngineSQLite}

func storePath(t *testing.T, _ Engine) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "nested", "tu_stats.db")
}

func openTestStore(t *testing.T, engine Engine) Store {
	t.Helper()
	store, err := Open(Config{
		Path:     storePath(t, engine),
		Engine:   engine,
		Encoding: tustats.DefaultEncodeOptions(),
	})
	if err != nil {
		t.Fatalf("Open(%s): %v", engine, err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(i int) *tustats.Record {
	includes := make([]tustats.IncludeEntry, i%4)
	for j := range includes {
		includes[j] = tustats.IncludeEntry{
			Path:      fmt.Sprintf("lib/part%d/header%d.h", j%2, j),
			LineCount: uint64(10 * (j + 1)),
		}
	}
	return &tustats.Record{
		InputFile:          fmt.Sprintf("src/file%03d.cc", i),
		PreprocessedSize:   uint64(1000 + i),
		Includes:           includes,
		PreprocessDuration: time.Duration(i) * time.Millisecond,
		CompileDuration:    time.Duration(i*3) * time.Millisecond,
		IsDistributed:      i%2 == 1,
		DistRetryCount:     uint32(i % 2),
		Timestamp:          time.Date(2026, 5, 1, 12, 0, i, 0, time.UTC),
	}
}

func collect(t *testing.T, store Store) []Entry {
	t.Helper()
	var entries []Entry
	err := store.Iterate(context.Background(), func(entry Entry) error {
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	return entries
}

func forEachEngine(t *testing.T, test func(t *testing.T, engine Engine)) {
	for _, engine := range engines {
		t.Run(string(engine), func(t *testing.T) { test(t, engine) })
	}
}

func TestAppendIterate(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		store := openTestStore(t, engine)
		ctx := context.Background()

		var keys []Key
		for i := range 20 {
			key, err := store.Append(ctx, testRecord(i))
			if err != nil {
				t.Fatalf("Append(%d): %v", i, err)
			}
			if len(keys) > 0 && key <= keys[len(keys)-1] {
				t.Fatalf("key %s not greater than previous %s", key, keys[len(keys)-1])
			}
			keys = append(keys, key)
		}

		entries := collect(t, store)
		if len(entries) != 20 {
			t.Fatalf("Iterate yielded %d entries, want 20", len(entries))
		}
		for i, entry := range entries {
			if entry.Key != keys[i] {
				t.Errorf("entry %d key = %s, want %s", i, entry.Key, keys[i])
			}
			if !entry.Record.Equal(testRecord(i)) {
				t.Errorf("entry %d = %+v, want %+v", i, entry.Record, testRecord(i))
			}
		}

		count, err := store.Count(ctx)
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if count != 20 {
			t.Errorf("Count = %d, want 20", count)
		}
	})
}

func TestEmptyStore(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		store := openTestStore(t, engine)
		if entries := collect(t, store); len(entries) != 0 {
			t.Errorf("empty store yielded %d entries", len(entries))
		}
		count, err := store.Count(context.Background())
		if err != nil || count != 0 {
			t.Errorf("Count = %d, %v; want 0, nil", count, err)
		}
	})
}

func TestSameFileTwice(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		store := openTestStore(t, engine)
		record := testRecord(3)
		for range 2 {
			if _, err := store.Append(context.Background(), record); err != nil {
				t.Fatalf("Append: %v", err)
			}
		}
		if entries := collect(t, store); len(entries) != 2 {
			t.Errorf("got %d entries for two appends of the same record, want 2", len(entries))
		}
	})
}

func TestConcurrentAppend(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		store := openTestStore(t, engine)
		const writers, perWriter = 8, 25

		var wg sync.WaitGroup
		for w := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range perWriter {
					if _, err := store.Append(context.Background(), testRecord(w*perWriter+i)); err != nil {
						t.Errorf("Append: %v", err)
						return
					}
				}
			}()
		}
		wg.Wait()

		entries := collect(t, store)
		if len(entries) != writers*perWriter {
			t.Fatalf("got %d entries, want %d", len(entries), writers*perWriter)
		}
		seen := make(map[string]bool)
		for i, entry := range entries {
			if i > 0 && entry.Key <= entries[i-1].Key {
				t.Fatalf("keys out of order at %d: %s after %s", i, entry.Key, entries[i-1].Key)
			}
			seen[entry.Record.InputFile] = true
		}
		if len(seen) != writers*perWriter {
			t.Errorf("saw %d distinct input files, want %d", len(seen), writers*perWriter)
		}
	})
}

func TestIterateStop(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		store := openTestStore(t, engine)
		for i := range 5 {
			if _, err := store.Append(context.Background(), testRecord(i)); err != nil {
				t.Fatalf("Append: %v", err)
			}
		}

		visited := 0
		err := store.Iterate(context.Background(), func(Entry) error {
			visited++
			if visited == 2 {
				return ErrStop
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Iterate with ErrStop = %v, want nil", err)
		}
		if visited != 2 {
			t.Errorf("visited %d entries, want 2", visited)
		}

		sentinel := errors.New("callback failed")
		err = store.Iterate(context.Background(), func(Entry) error { return sentinel })
		if !errors.Is(err, sentinel) {
			t.Errorf("Iterate = %v, want %v", err, sentinel)
		}
	})
}

func TestReopenPersists(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		path := storePath(t, engine)
		ctx := context.Background()

		store, err := Open(Config{Path: path, Engine: engine})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		first, err := store.Append(ctx, testRecord(1))
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("second Close: %v", err)
		}

		store, err = Open(Config{Path: path, Engine: engine})
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		defer store.Close()
		second, err := store.Append(ctx, testRecord(2))
		if err != nil {
			t.Fatalf("Append after reopen: %v", err)
		}
		if second <= first {
			t.Errorf("key after reopen %s not greater than %s", second, first)
		}
		if entries := collect(t, store); len(entries) != 2 {
			t.Errorf("got %d entries after reopen, want 2", len(entries))
		}
	})
}

func TestReadOnly(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		path := storePath(t, engine)
		ctx := context.Background()

		if _, err := Open(Config{Path: path, Engine: engine, ReadOnly: true}); !errors.Is(err, ErrOpen) {
			t.Fatalf("read-only Open of missing store = %v, want ErrOpen", err)
		}

		writer, err := Open(Config{Path: path, Engine: engine})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if _, err := writer.Append(ctx, testRecord(0)); err != nil {
			t.Fatalf("Append: %v", err)
		}
		// Badger locks its directory exclusively.
		if err := writer.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}

		reader, err := Open(Config{Path: path, Engine: engine, ReadOnly: true})
		if err != nil {
			t.Fatalf("read-only Open: %v", err)
		}
		defer reader.Close()
		if entries := collect(t, reader); len(entries) != 1 {
			t.Errorf("read-only store yielded %d entries, want 1", len(entries))
		}
		if _, err := reader.Append(ctx, testRecord(1)); !errors.Is(err, ErrAppend) {
			t.Errorf("Append on read-only store = %v, want ErrAppend", err)
		}
	})
}

func TestReadWhileWriterLive(t *testing.T) {
	path := storePath(t, EngineSQLite)
	ctx := context.Background()

	writer, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer writer.Close()
	if _, err := writer.Append(ctx, testRecord(0)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	reader, err := Open(Config{Path: path, ReadOnly: true})
	if err != nil {
		t.Fatalf("read-only Open beside a live writer: %v", err)
	}
	defer reader.Close()
	if entries := collect(t, reader); len(entries) != 1 {
		t.Fatalf("reader saw %d entries, want 1", len(entries))
	}

	if _, err := writer.Append(ctx, testRecord(1)); err != nil {
		t.Fatalf("Append while a reader is open: %v", err)
	}
	entries := collect(t, reader)
	if len(entries) != 2 || !entries[1].Record.Equal(testRecord(1)) {
		t.Errorf("reader saw %d entries after a second append, want 2", len(entries))
	}
}

func TestNonUTF8Paths(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		store := openTestStore(t, engine)
		ctx := context.Background()

		raw := testRecord(1)
		raw.InputFile = "src/\xff\xfe.c"
		raw.Includes = []tustats.IncludeEntry{{Path: "include/\xc3\x28/x.h", LineCount: 2}}
		want := []*tustats.Record{testRecord(0), raw, testRecord(2)}
		for _, record := range want {
			if _, err := store.Append(ctx, record); err != nil {
				t.Fatalf("Append(%q): %v", record.InputFile, err)
			}
		}

		entries := collect(t, store)
		if len(entries) != len(want) {
			t.Fatalf("got %d entries, want %d", len(entries), len(want))
		}
		for i, entry := range entries {
			if !entry.Record.Equal(want[i]) {
				t.Errorf("entry %d = %q, want %q", i, entry.Record.InputFile, want[i].InputFile)
			}
		}
	})
}

func TestClosedStore(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		store, err := Open(Config{Path: storePath(t, engine), Engine: engine})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		store.Close()

		ctx := context.Background()
		if _, err := store.Append(ctx, testRecord(0)); !errors.Is(err, ErrClosed) {
			t.Errorf("Append after Close = %v, want ErrClosed", err)
		}
		if err := store.Iterate(ctx, func(Entry) error { return nil }); !errors.Is(err, ErrClosed) {
			t.Errorf("Iterate after Close = %v, want ErrClosed", err)
		}
		if _, err := store.Count(ctx); !errors.Is(err, ErrClosed) {
			t.Errorf("Count after Close = %v, want ErrClosed", err)
		}
	})
}

func TestIterateRaw(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		store := openTestStore(t, engine)
		key, err := store.Append(context.Background(), testRecord(2))
		if err != nil {
			t.Fatalf("Append: %v", err)
		}

		var raw []byte
		err = store.IterateRaw(context.Background(), func(k Key, value []byte) error {
			if k != key {
				t.Errorf("raw key = %s, want %s", k, key)
			}
			raw = append([]byte(nil), value...)
			return nil
		})
		if err != nil {
			t.Fatalf("IterateRaw: %v", err)
		}
		record, err := tustats.Decode(raw)
		if err != nil {
			t.Fatalf("Decode raw value: %v", err)
		}
		if !record.Equal(testRecord(2)) {
			t.Errorf("raw value decoded to %+v", record)
		}
	})
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open(Config{}); !errors.Is(err, ErrOpen) {
		t.Errorf("Open with empty path = %v, want ErrOpen", err)
	}
	if _, err := Open(Config{Path: t.TempDir(), Engine: "leveldb"}); !errors.Is(err, ErrOpen) {
		t.Errorf("Open with unknown engine = %v, want ErrOpen", err)
	}
}

func TestKeyString(t *testing.T) {
	key := Key(0x2a)
	if key.String() != "000000000000002a" {
		t.Errorf("String() = %q", key.String())
	}
	parsed, err := ParseKey(key.String())
	if err != nil || parsed != key {
		t.Errorf("ParseKey(%q) = %v, %v", key.String(), parsed, err)
	}
	if _, err := ParseKey("not-hex"); err == nil {
		t.Error("ParseKey should reject non-hex input")
	}
}

func TestParseEngine(t *testing.T) {
	for name, want := range map[string]Engine{"": EngineSQLite, "sqlite": EngineSQLite, "badger": EngineBadger} {
		got, err := ParseEngine(name)
		if err != nil || got != want {
			t.Errorf("ParseEngine(%q) = %q, %v; want %q", name, got, err, want)
		}
	}
	if _, err := ParseEngine("fjall"); err == nil {
		t.Error("ParseEngine should reject unknown engines")
	}
}
