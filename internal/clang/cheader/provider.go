//go:build cgo

package cheader

import (
	"context"
	"log/slog"
	"os"

	"objcmeta/internal/clang"
	"objcmeta/internal/errors"
)

// Provider reads C headers with tree-sitter.
type Provider struct {
	opts   Options
	logger *slog.Logger
}

// NewProvider creates a tree-sitter provider. A nil logger discards output.
func NewProvider(opts Options, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.DataModel == "" {
		opts.DataModel = LP64
	}
	return &Provider{opts: opts, logger: logger}
}

// IsAvailable reports whether the provider was built with cgo.
func IsAvailable() bool { return true }

// Name implements clang.Provider.
func (p *Provider) Name() string { return ProviderName }

// Parse implements clang.Provider. Compiler arguments it does not understand
// are logged and ignored.
func (p *Provider) Parse(ctx context.Context, path string, args []string) (clang.TranslationUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts, ignored := p.opts.ApplyArgs(args)
	if err := opts.Validate(); err != nil {
		return nil, errors.New(errors.ParseFailed, "invalid parser options", err)
	}
	if len(ignored) > 0 {
		p.logger.Debug("Ignoring unsupported parser arguments", "args", ignored)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, errors.New(errors.HeaderNotFound, "header not found: "+path, err)
	}

	u, err := newBuilder(ctx, opts, p.logger).build(path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.New(errors.ParseFailed, "failed to parse "+path, err)
	}
	p.logger.Debug("Parsed header",
		"path", path,
		"files", len(u.files),
		"cursors", len(u.root.children),
	)
	return u, nil
}
