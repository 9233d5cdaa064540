// Package export writes metadata documents in the supported output formats.
package export

import (
	"path/filepath"
	"strings"

	"objcmeta/internal/errors"
)

// Format is an output format name.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatSCIP Format = "scip"
	FormatText Format = "text"
)

// Formats lists every supported format, default first.
var Formats = []Format{FormatJSON, FormatYAML, FormatTOML, FormatSCIP, FormatText}

// ParseFormat resolves a format name. The empty name is JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "scip":
		return FormatSCIP, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", errors.Newf(errors.UnsupportedFormat, "unsupported output format %q", name)
}

// FormatFromPath picks the format from an output file extension, falling
// back to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".scip":
		return FormatSCIP
	case ".txt":
		return FormatText
	default:
		return FormatJSON
	}
}

// Binary reports whether the format is not human-readable.
func (f Format) Binary() bool {
	return f == FormatSCIP
}

// Options configures a written document.
type Options struct {
	// ProjectRoot relativizes file paths in SCIP output.
	ProjectRoot string
	// Header is the extracted header, named in SCIP tool arguments and the text header.
	Header string
}
