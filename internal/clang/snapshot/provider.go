package snapshot

import (
	"context"
	"log/slog"

	"objcmeta/internal/clang"
)

// ProviderName identifies the snapshot provider in config and logs.
const ProviderName = "snapshot"

// Provider parses a header by loading the snapshot recorded for it. The path
// given to Parse is the snapshot file itself; parser arguments were applied
// when the snapshot was recorded and are ignored.
type Provider struct {
	logger *slog.Logger
}

// NewProvider creates a snapshot provider. A nil logger discards output.
func NewProvider(logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provider{logger: logger}
}

// Name implements clang.Provider.
func (p *Provider) Name() string { return ProviderName }

// Parse implements clang.Provider.
func (p *Provider) Parse(ctx context.Context, path string, args []string) (clang.TranslationUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(args) > 0 {
		p.logger.Debug("Ignoring parser arguments for snapshot", "path", path, "args", len(args))
	}

	snap, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Open(snap, path), nil
}

// TranslationUnit replays a snapshot.
type TranslationUnit struct {
	u    *unit
	path string
}

// Open wraps an already decoded snapshot. path is reported as the main file
// when the snapshot lists none.
func Open(snap *Snapshot, path string) *TranslationUnit {
	return &TranslationUnit{u: newUnit(snap), path: path}
}

// Cursor returns the translation unit cursor.
func (tu *TranslationUnit) Cursor() clang.Cursor {
	return tu.u.cursor(&tu.u.snap.Root)
}

// Files returns the snapshot path followed by the headers it was recorded from.
func (tu *TranslationUnit) Files() []string {
	files := []string{tu.path}
	for _, f := range tu.u.snap.Files {
		if f != tu.path {
			files = append(files, f)
		}
	}
	return files
}

// Close releases nothing; snapshots hold no native resources.
func (tu *TranslationUnit) Close() error { return nil }
