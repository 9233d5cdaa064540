package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"objcmeta/internal/errors"
	"objcmeta/internal/metadata"
)

// Write encodes doc to w in format.
func Write(doc *metadata.Document, format Format, w io.Writer) error {
	return WriteWithOptions(doc, format, w, Options{})
}

// WriteWithOptions is Write with format-specific options.
func WriteWithOptions(doc *metadata.Document, format Format, w io.Writer, opts Options) error {
	switch format {
	case FormatJSON, "":
		return writeJSON(doc, w)
	case FormatYAML:
		return writeYAML(doc, w)
	case FormatTOML:
		return writeTOML(doc, w)
	case FormatSCIP:
		return writeSCIP(doc, w, opts)
	case FormatText:
		_, err := io.WriteString(w, FormatTextSummary(doc, opts))
		return err
	}
	return errors.Newf(errors.UnsupportedFormat, "unsupported output format %q", format)
}

func writeJSON(doc *metadata.Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeYAML(doc *metadata.Document, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

// writeTOML goes through the JSON form so TOML keys match the JSON names.
// TOML has no null, so null values are dropped.
func writeTOML(doc *metadata.Document, w io.Writer) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree map[string]interface{}
	if err := dec.Decode(&tree); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}

	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(tomlValue(tree)); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	return nil
}

// tomlValue converts a decoded JSON value into TOML-encodable values.
// Integers outside the int64 range are kept as decimal strings.
func tomlValue(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, child := range v {
			if child == nil {
				continue
			}
			out[k] = tomlValue(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(v))
		for _, child := range v {
			if child != nil {
				out = append(out, tomlValue(child))
			}
		}
		return out
	case json.Number:
		s := v.String()
		if !strings.ContainsAny(s, ".eE") {
			if n, err := v.Int64(); err == nil {
				return n
			}
			return s
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return s
	default:
		return v
	}
}
