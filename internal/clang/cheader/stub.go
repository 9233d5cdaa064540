//go:build !cgo

package cheader

import (
	"context"
	stderrors "errors"
	"log/slog"

	"objcmeta/internal/clang"
	"objcmeta/internal/errors"
)

// ErrNoCGO is returned when the tree-sitter provider is unavailable.
var ErrNoCGO = stderrors.New("C header parsing requires CGO (tree-sitter)")

// Provider is a stub for non-CGO builds.
type Provider struct{}

// NewProvider returns nil when CGO is disabled.
func NewProvider(opts Options, logger *slog.Logger) *Provider {
	return nil
}

// IsAvailable returns false when CGO is disabled.
func IsAvailable() bool { return false }

// Name implements clang.Provider.
func (p *Provider) Name() string { return ProviderName }

// Parse always fails in non-CGO builds.
func (p *Provider) Parse(ctx context.Context, path string, args []string) (clang.TranslationUnit, error) {
	return nil, errors.New(errors.ProviderUnavailable, "the cheader provider is unavailable", ErrNoCGO)
}
