package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"objcmeta/internal/errors"
)

func setupTestCache(t *testing.T) (*DocumentCache, string) {
	t.Helper()
	db, tmpDir := setupTestDB(t)
	cache, err := NewDocumentCache(db)
	if err != nil {
		t.Fatalf("NewDocumentCache() error = %v", err)
	}
	return cache, tmpDir
}

func writeHeader(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newEntry(t *testing.T, header string, paths ...string) *DocumentEntry {
	t.Helper()
	files, err := Checksums(append([]string{header}, paths...))
	if err != nil {
		t.Fatal(err)
	}
	return &DocumentEntry{
		Key:      Key("cheader", header, []string{"-DX"}),
		Header:   header,
		Provider: "cheader",
		Args:     []string{"-DX"},
		RunID:    "run-1",
		Document: []byte(`{"variables":[]}`),
		Files:    files,
	}
}

func TestKey(t *testing.T) {
	a := Key("cheader", "/a.h", []string{"-DX"})
	tests := []struct {
		name  string
		other string
	}{
		{"provider", Key("snapshot", "/a.h", []string{"-DX"})},
		{"header", Key("cheader", "/b.h", []string{"-DX"})},
		{"args", Key("cheader", "/a.h", []string{"-DY"})},
		{"arg boundaries", Key("cheader", "/a.h", []string{"-D", "X"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.other == a {
				t.Errorf("Key() did not change with %s", tt.name)
			}
		})
	}
	if len(a) != 64 {
		t.Errorf("len(Key()) = %d, want 64", len(a))
	}
	if Key("cheader", "/a.h", []string{"-DX"}) != a {
		t.Error("Key() is not deterministic")
	}
}

func TestDocumentCache_PutGet(t *testing.T) {
	cache, dir := setupTestCache(t)
	header := writeHeader(t, dir, "a.h", "int a;\n")
	dep := writeHeader(t, dir, "b.h", "int b;\n")

	entry := newEntry(t, header, dep)
	if err := cache.Put(entry, time.Hour); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, found, err := cache.Get(entry.Key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() found = false, want true")
	}
	if !bytes.Equal(got.Document, entry.Document) {
		t.Errorf("Document = %s, want %s", got.Document, entry.Document)
	}
	if got.RunID != "run-1" || got.Provider != "cheader" || got.Header != header {
		t.Errorf("entry = %+v", got)
	}
	if len(got.Args) != 1 || got.Args[0] != "-DX" {
		t.Errorf("Args = %v, want [-DX]", got.Args)
	}
	if len(got.Files) != 2 || got.Files[0].Path != header || got.Files[1].Path != dep {
		t.Errorf("Files = %+v, want [%s %s]", got.Files, header, dep)
	}

	t.Run("miss", func(t *testing.T) {
		_, found, err := cache.Get("nonexistent")
		if err != nil || found {
			t.Errorf("Get(nonexistent) = %v, %v, want miss", found, err)
		}
	})

	t.Run("replace", func(t *testing.T) {
		entry.RunID = "run-2"
		entry.Files = entry.Files[:1]
		if err := cache.Put(entry, 0); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		got, found, err := cache.Get(entry.Key)
		if err != nil || !found {
			t.Fatalf("Get() = %v, %v", found, err)
		}
		if got.RunID != "run-2" || len(got.Files) != 1 || !got.ExpiresAt.IsZero() {
			t.Errorf("replaced entry = %+v", got)
		}
	})
}

func TestDocumentCache_Invalidation(t *testing.T) {
	t.Run("changed dependency", func(t *testing.T) {
		cache, dir := setupTestCache(t)
		header := writeHeader(t, dir, "a.h", "#include \"b.h\"\n")
		dep := writeHeader(t, dir, "b.h", "int b;\n")

		entry := newEntry(t, header, dep)
		if err := cache.Put(entry, time.Hour); err != nil {
			t.Fatal(err)
		}
		writeHeader(t, dir, "b.h", "long b;\n")

		if _, found, err := cache.Get(entry.Key); err != nil || found {
			t.Errorf("Get() after change = %v, %v, want miss", found, err)
		}
		stats, _ := cache.Stats()
		if stats.Documents != 0 || stats.Files != 0 {
			t.Errorf("stale entry kept: %+v", stats)
		}
	})

	t.Run("deleted dependency", func(t *testing.T) {
		cache, dir := setupTestCache(t)
		header := writeHeader(t, dir, "a.h", "int a;\n")
		dep := writeHeader(t, dir, "b.h", "int b;\n")

		entry := newEntry(t, header, dep)
		if err := cache.Put(entry, time.Hour); err != nil {
			t.Fatal(err)
		}
		if err := os.Remove(dep); err != nil {
			t.Fatal(err)
		}
		if _, found, _ := cache.Get(entry.Key); found {
			t.Error("Get() found an entry whose dependency was deleted")
		}
	})

	t.Run("expired", func(t *testing.T) {
		cache, dir := setupTestCache(t)
		header := writeHeader(t, dir, "a.h", "int a;\n")

		entry := newEntry(t, header)
		if err := cache.Put(entry, time.Minute); err != nil {
			t.Fatal(err)
		}
		cache.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		if _, found, _ := cache.Get(entry.Key); found {
			t.Error("Get() found an expired entry")
		}
	})
}

func TestDocumentCache_PruneClearStats(t *testing.T) {
	cache, dir := setupTestCache(t)

	fresh := newEntry(t, writeHeader(t, dir, "fresh.h", "int f;\n"))
	stale := newEntry(t, writeHeader(t, dir, "stale.h", "int s;\n"))
	expiring := newEntry(t, writeHeader(t, dir, "expiring.h", "int e;\n"))
	for _, e := range []*DocumentEntry{fresh, stale, expiring} {
		e.Key = Key("cheader", e.Header, nil)
	}

	if err := cache.Put(fresh, 0); err != nil {
		t.Fatal(err)
	}
	if err := cache.Put(stale, 0); err != nil {
		t.Fatal(err)
	}
	if err := cache.Put(expiring, time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := cache.RecordFailure("broken", errors.ParseFailed, "syntax error", "sum"); err != nil {
		t.Fatal(err)
	}

	stats, err := cache.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Documents != 3 || stats.Files != 3 || stats.Failures != 1 {
		t.Errorf("Stats() = %+v, want 3 documents, 3 files, 1 failure", stats)
	}
	if stats.UncompressedBytes != int64(3*len(fresh.Document)) || stats.CompressedBytes <= 0 {
		t.Errorf("Stats() bytes = %d/%d", stats.CompressedBytes, stats.UncompressedBytes)
	}

	writeHeader(t, dir, "stale.h", "int changed;\n")
	cache.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	removed, err := cache.Prune()
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune() = %d, want 2", removed)
	}
	if _, found, _ := cache.Get(fresh.Key); !found {
		t.Error("Prune() removed a fresh entry")
	}
	if stats, _ := cache.Stats(); stats.Failures != 0 {
		t.Errorf("failures after prune = %d, want 0", stats.Failures)
	}

	removed, err = cache.Clear()
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Clear() = %d, want 1", removed)
	}
	if stats, _ := cache.Stats(); stats.Documents != 0 || stats.Files != 0 {
		t.Errorf("Stats() after Clear = %+v", stats)
	}
}

func TestFailureCache(t *testing.T) {
	cache, _ := setupTestCache(t)

	if entry, err := cache.CheckFailure("k", "sum"); err != nil || entry != nil {
		t.Fatalf("CheckFailure() on empty cache = %+v, %v", entry, err)
	}

	if err := cache.RecordFailure("k", errors.ParseFailed, "unexpected token", "sum"); err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}
	entry, err := cache.CheckFailure("k", "sum")
	if err != nil || entry == nil {
		t.Fatalf("CheckFailure() = %+v, %v", entry, err)
	}
	if entry.Code != errors.ParseFailed || entry.Message != "unexpected token" {
		t.Errorf("entry = %+v", entry)
	}

	t.Run("header changed", func(t *testing.T) {
		if entry, _ := cache.CheckFailure("k", "other"); entry != nil {
			t.Errorf("CheckFailure() with new checksum = %+v, want nil", entry)
		}
		if entry, _ := cache.CheckFailure("k", "sum"); entry != nil {
			t.Error("failure not discarded after checksum mismatch")
		}
	})

	t.Run("no policy", func(t *testing.T) {
		if err := cache.RecordFailure("h", errors.HeaderNotFound, "missing", "sum"); err != nil {
			t.Fatal(err)
		}
		if entry, _ := cache.CheckFailure("h", "sum"); entry != nil {
			t.Errorf("recorded a failure without policy: %+v", entry)
		}
	})

	t.Run("expired", func(t *testing.T) {
		if err := cache.RecordFailure("e", errors.SnapshotInvalid, "bad", "sum"); err != nil {
			t.Fatal(err)
		}
		policy, _ := FailurePolicyFor(errors.SnapshotInvalid)
		cache.now = func() time.Time { return time.Now().Add(policy.TTL + time.Second) }
		defer func() { cache.now = time.Now }()
		if entry, _ := cache.CheckFailure("e", "sum"); entry != nil {
			t.Errorf("CheckFailure() returned expired failure %+v", entry)
		}
	})
}

func TestChecksum(t *testing.T) {
	dir := t.TempDir()
	a := writeHeader(t, dir, "a.h", "int a;\n")
	b := writeHeader(t, dir, "b.h", "int a;\n")
	c := writeHeader(t, dir, "c.h", "int c;\n")

	sumA, err := Checksum(a)
	if err != nil {
		t.Fatal(err)
	}
	sumB, _ := Checksum(b)
	sumC, _ := Checksum(c)
	if sumA != sumB {
		t.Error("identical contents have different checksums")
	}
	if sumA == sumC {
		t.Error("different contents have the same checksum")
	}
	if _, err := Checksum(filepath.Join(dir, "missing.h")); err == nil {
		t.Error("Checksum() error = nil for a missing file")
	}
	if _, err := Checksums([]string{a, filepath.Join(dir, "missing.h")}); err == nil {
		t.Error("Checksums() error = nil for a missing file")
	}
}
