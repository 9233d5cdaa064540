package extract

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"objcmeta/internal/clang"
	"objcmeta/internal/clang/snapshot"
	"objcmeta/internal/errors"
	"objcmeta/internal/slogutil"
	"objcmeta/internal/storage"
)

const headerSnapshot = `version: 1
types:
  - {id: int, spelling: int, kind: Int, size: 4}
  - {id: uint, spelling: unsigned int, kind: UInt, size: 4}
root:
  kind: TranslationUnit
  spelling: a.h
  children:
    - kind: VarDecl
      spelling: kCount
      type: int
      initializer: true
      eval: {kind: Int, int: 3}
    - kind: EnumDecl
      spelling: Color
      enumType: uint
      children:
        - {kind: EnumConstantDecl, spelling: Red, type: uint, value: 0}
        - {kind: EnumConstantDecl, spelling: Green, type: uint, value: 1}
`

func writeSnapshot(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "a.yaml")
	if err := os.WriteFile(path, []byte(headerSnapshot), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newCache(t *testing.T, dir string) *storage.DocumentCache {
	t.Helper()
	db, err := storage.Open(dir, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	cache, err := storage.NewDocumentCache(db)
	if err != nil {
		t.Fatalf("NewDocumentCache() error = %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

// fakeProvider counts parses and closes and can be told to fail.
type fakeProvider struct {
	inner  clang.Provider
	err    error
	parses int
	closes int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Parse(ctx context.Context, path string, args []string) (clang.TranslationUnit, error) {
	p.parses++
	if p.err != nil {
		return nil, p.err
	}
	tu, err := p.inner.Parse(ctx, path, args)
	if err != nil {
		return nil, err
	}
	return &countingUnit{TranslationUnit: tu, closes: &p.closes}, nil
}

type countingUnit struct {
	clang.TranslationUnit
	closes *int
}

func (u *countingUnit) Close() error {
	*u.closes++
	return u.TranslationUnit.Close()
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir)
	provider := &fakeProvider{inner: snapshot.NewProvider(nil)}

	res, err := New(provider).Extract(context.Background(), Request{Header: path})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Cached {
		t.Error("Cached = true without a cache")
	}
	if provider.closes != 1 {
		t.Errorf("Close() calls = %d, want 1", provider.closes)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if len(res.Files) != 1 || res.Files[0] != path {
		t.Errorf("Files = %v, want [%s]", res.Files, path)
	}
	if res.Stats.Variables != 1 || res.Stats.Enums != 1 || res.Stats.Total() != 2 {
		t.Errorf("Stats = %+v, want 1 variable and 1 enum", res.Stats)
	}
	if got := res.Document.Enums[0].Constants[1].Value; got != "1" {
		t.Errorf("Green = %s, want 1", got)
	}
}

func TestExtract_HeaderNotFound(t *testing.T) {
	provider := &fakeProvider{inner: snapshot.NewProvider(nil)}
	dir := t.TempDir()

	for _, header := range []string{filepath.Join(dir, "missing.h"), dir} {
		_, err := New(provider).Extract(context.Background(), Request{Header: header})
		if !errors.Is(err, errors.HeaderNotFound) {
			t.Errorf("Extract(%s) error = %v, want %s", header, err, errors.HeaderNotFound)
		}
	}
	if provider.parses != 0 {
		t.Errorf("Parse() calls = %d, want 0", provider.parses)
	}
}

func TestExtract_ParseFailed(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir)

	tests := []struct {
		name string
		err  error
		want errors.ErrorCode
	}{
		{"plain error", stderrors.New("boom"), errors.ParseFailed},
		{"coded error", errors.Newf(errors.SnapshotInvalid, "bad snapshot"), errors.SnapshotInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{err: tt.err}
			res, err := New(provider).Extract(context.Background(), Request{Header: path})
			if res != nil {
				t.Errorf("Extract() result = %+v, want nil", res)
			}
			if got := errors.CodeOf(err); got != tt.want {
				t.Errorf("Extract() code = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExtract_Canceled(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(snapshot.NewProvider(nil)).Extract(ctx, Request{Header: path})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Extract() error = %v, want %v", err, context.Canceled)
	}
}

func TestExtract_Cache(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir)
	provider := &fakeProvider{inner: snapshot.NewProvider(nil)}
	cache := newCache(t, dir)
	e := New(provider, WithCache(cache, time.Hour))
	ctx := context.Background()

	first, err := e.Extract(ctx, Request{Header: path})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	second, err := e.Extract(ctx, Request{Header: path})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !second.Cached || provider.parses != 1 {
		t.Errorf("second extraction cached = %v, parses = %d, want cached with 1 parse", second.Cached, provider.parses)
	}
	if second.RunID != first.RunID {
		t.Errorf("cached RunID = %s, want %s", second.RunID, first.RunID)
	}
	if second.Stats != first.Stats {
		t.Errorf("cached Stats = %+v, want %+v", second.Stats, first.Stats)
	}
	if v := second.Document.Variables[0].Value; v == nil || v.String() != "3" {
		t.Errorf("cached value = %v, want 3", v)
	}

	t.Run("no cache request", func(t *testing.T) {
		res, err := e.Extract(ctx, Request{Header: path, NoCache: true})
		if err != nil {
			t.Fatal(err)
		}
		if res.Cached || provider.parses != 2 {
			t.Errorf("NoCache extraction cached = %v, parses = %d", res.Cached, provider.parses)
		}
	})

	t.Run("different args", func(t *testing.T) {
		res, err := e.Extract(ctx, Request{Header: path, Args: []string{"-DX"}})
		if err != nil {
			t.Fatal(err)
		}
		if res.Cached {
			t.Error("extraction with new args served from cache")
		}
	})

	t.Run("different settings", func(t *testing.T) {
		other := New(provider, WithCache(cache, time.Hour), WithSettings("dataModel=ILP32"))
		res, err := other.Extract(ctx, Request{Header: path})
		if err != nil {
			t.Fatal(err)
		}
		if res.Cached {
			t.Error("extraction with new settings served from cache")
		}
	})

	t.Run("changed input", func(t *testing.T) {
		parses := provider.parses
		changed := headerSnapshot + "    - {kind: VarDecl, spelling: kOther, type: int, initializer: true, eval: {kind: Int, int: 4}}\n"
		if err := os.WriteFile(path, []byte(changed), 0o644); err != nil {
			t.Fatal(err)
		}
		res, err := e.Extract(ctx, Request{Header: path})
		if err != nil {
			t.Fatal(err)
		}
		if res.Cached || provider.parses != parses+1 || res.Stats.Variables != 2 {
			t.Errorf("changed input: cached = %v, variables = %d", res.Cached, res.Stats.Variables)
		}
	})
}

func TestExtract_FailureCache(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir)
	provider := &fakeProvider{err: stderrors.New("syntax error")}
	e := New(provider, WithCache(newCache(t, dir), time.Hour))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := e.Extract(ctx, Request{Header: path}); !errors.Is(err, errors.ParseFailed) {
			t.Fatalf("Extract() error = %v, want %s", err, errors.ParseFailed)
		}
	}
	if provider.parses != 1 {
		t.Errorf("Parse() calls = %d, want 1", provider.parses)
	}

	// Editing the header retries the parse.
	if err := os.WriteFile(path, []byte(headerSnapshot+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	provider.err = nil
	provider.inner = snapshot.NewProvider(nil)
	if _, err := e.Extract(ctx, Request{Header: path}); err != nil {
		t.Fatalf("Extract() after edit error = %v", err)
	}
	if provider.parses != 2 {
		t.Errorf("Parse() calls = %d, want 2", provider.parses)
	}
}
