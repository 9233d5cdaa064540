// Package snapshot stores a parsed translation unit as a YAML or JSON document
// and replays it through the clang cursor interface.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"objcmeta/internal/clang"
	"objcmeta/internal/errors"
)

// FormatVersion is the snapshot schema version written by Encode.
const FormatVersion = 1

// Snapshot is a recorded translation unit. Types are stored once in a table
// and referenced by id from cursors and other types.
type Snapshot struct {
	Version  int          `json:"version" yaml:"version"`
	Provider string       `json:"provider,omitempty" yaml:"provider,omitempty"`
	Files    []string     `json:"files,omitempty" yaml:"files,omitempty"`
	Types    []TypeRecord `json:"types" yaml:"types"`
	Root     CursorRecord `json:"root" yaml:"root"`
}

// TypeRecord is one entry of the type table.
type TypeRecord struct {
	ID        string         `json:"id" yaml:"id"`
	Spelling  string         `json:"spelling" yaml:"spelling"`
	Kind      clang.TypeKind `json:"kind" yaml:"kind"`
	Canonical string         `json:"canonical,omitempty" yaml:"canonical,omitempty"`
	Size      int64          `json:"size" yaml:"size"`
	Element   string         `json:"element,omitempty" yaml:"element,omitempty"`
	Pointee   string         `json:"pointee,omitempty" yaml:"pointee,omitempty"`
	ArraySize *int64         `json:"arraySize,omitempty" yaml:"arraySize,omitempty"`
	Result    string         `json:"result,omitempty" yaml:"result,omitempty"`
	Args      []string       `json:"args,omitempty" yaml:"args,omitempty"`
}

// CursorRecord is one recorded cursor with its children.
type CursorRecord struct {
	Kind         clang.CursorKind   `json:"kind" yaml:"kind"`
	Spelling     string             `json:"spelling,omitempty" yaml:"spelling,omitempty"`
	DisplayName  string             `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Location     *clang.Location    `json:"location,omitempty" yaml:"location,omitempty"`
	Type         string             `json:"type,omitempty" yaml:"type,omitempty"`
	ResultType   string             `json:"resultType,omitempty" yaml:"resultType,omitempty"`
	EnumType     string             `json:"enumType,omitempty" yaml:"enumType,omitempty"`
	Value        *BigInt            `json:"value,omitempty" yaml:"value,omitempty"`
	Initializer  bool               `json:"initializer,omitempty" yaml:"initializer,omitempty"`
	Eval         *EvalRecord        `json:"eval,omitempty" yaml:"eval,omitempty"`
	Offset       *int64             `json:"offset,omitempty" yaml:"offset,omitempty"`
	Attributes   []string           `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Getter       string             `json:"getter,omitempty" yaml:"getter,omitempty"`
	Setter       string             `json:"setter,omitempty" yaml:"setter,omitempty"`
	Availability clang.Availability `json:"availability,omitempty" yaml:"availability,omitempty"`
	Children     []CursorRecord     `json:"children,omitempty" yaml:"children,omitempty"`
}

// EvalRecord is a recorded initializer evaluation.
type EvalRecord struct {
	Kind  clang.EvalKind `json:"kind" yaml:"kind"`
	Int   *BigInt        `json:"int,omitempty" yaml:"int,omitempty"`
	Float float64        `json:"float,omitempty" yaml:"float,omitempty"`
	Str   string         `json:"str,omitempty" yaml:"str,omitempty"`
}

// BigInt is an arbitrary precision integer that accepts both numbers and
// strings when decoded.
type BigInt struct {
	big.Int
}

// NewBigInt copies n.
func NewBigInt(n *big.Int) *BigInt {
	b := &BigInt{}
	b.Set(n)
	return b
}

func (b *BigInt) parse(text string) error {
	text = strings.Trim(strings.TrimSpace(text), `"`)
	if _, ok := b.SetString(text, 0); !ok {
		return fmt.Errorf("invalid integer %q", text)
	}
	return nil
}

// MarshalJSON writes the integer as a JSON number.
func (b *BigInt) MarshalJSON() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalJSON accepts a number or a string.
func (b *BigInt) UnmarshalJSON(data []byte) error {
	return b.parse(string(data))
}

// MarshalYAML writes the integer as a plain scalar.
func (b *BigInt) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: b.String()}, nil
}

// UnmarshalYAML accepts a number or a string.
func (b *BigInt) UnmarshalYAML(node *yaml.Node) error {
	return b.parse(node.Value)
}

// Format selects the encoding of a snapshot.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks JSON for .json files and YAML otherwise.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Decode reads and validates a snapshot.
func Decode(r io.Reader, format Format) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&snap)
	case FormatYAML, "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&snap)
	default:
		return nil, errors.Newf(errors.UnsupportedFormat, "unknown snapshot format %q", format)
	}
	if err != nil {
		return nil, errors.New(errors.SnapshotInvalid, "failed to decode snapshot", err)
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Load reads a snapshot file.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.HeaderNotFound, fmt.Sprintf("snapshot %s not found", path), err)
		}
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	return Decode(f, FormatFromPath(path))
}

// Encode writes the snapshot.
func Encode(w io.Writer, snap *Snapshot, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.Newf(errors.UnsupportedFormat, "unknown snapshot format %q", format)
	}
}

// Validate checks the schema version, every cursor kind and every type
// reference.
func (s *Snapshot) Validate() error {
	if s.Version != FormatVersion {
		return errors.Newf(errors.SnapshotInvalid, "unsupported snapshot version %d", s.Version)
	}

	ids := make(map[string]bool, len(s.Types))
	for i, t := range s.Types {
		if t.ID == "" {
			return errors.Newf(errors.SnapshotInvalid, "type %d has no id", i)
		}
		if ids[t.ID] {
			return errors.Newf(errors.SnapshotInvalid, "duplicate type id %q", t.ID)
		}
		if t.Kind == "" {
			return errors.Newf(errors.SnapshotInvalid, "type %q has no kind", t.ID)
		}
		ids[t.ID] = true
	}

	ref := func(where, id string) error {
		if id != "" && !ids[id] {
			return errors.Newf(errors.SnapshotInvalid, "%s references unknown type %q", where, id)
		}
		return nil
	}

	for _, t := range s.Types {
		where := fmt.Sprintf("type %q", t.ID)
		for _, id := range append([]string{t.Canonical, t.Element, t.Pointee, t.Result}, t.Args...) {
			if err := ref(where, id); err != nil {
				return err
			}
		}
	}

	if err := s.checkTypeCycles(); err != nil {
		return err
	}

	if s.Root.Kind != clang.CursorTranslationUnit {
		return errors.Newf(errors.SnapshotInvalid, "root cursor kind is %q, want %q", s.Root.Kind, clang.CursorTranslationUnit)
	}

	var walk func(c *CursorRecord, path string) error
	walk = func(c *CursorRecord, path string) error {
		if !c.Kind.Valid() {
			return errors.Newf(errors.SnapshotInvalid, "%s: unknown cursor kind %q", path, c.Kind)
		}
		for _, id := range []string{c.Type, c.ResultType, c.EnumType} {
			if err := ref(path, id); err != nil {
				return err
			}
		}
		if _, unknown := clang.ParsePropertyAttrs(c.Attributes); len(unknown) > 0 {
			return errors.Newf(errors.SnapshotInvalid, "%s: unknown property attributes %v", path, unknown)
		}
		for i := range c.Children {
			child := &c.Children[i]
			if err := walk(child, fmt.Sprintf("%s/%s[%d]", path, child.Kind, i)); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(&s.Root, string(s.Root.Kind))
}

// checkTypeCycles rejects type tables whose element, pointee, result,
// argument or canonical references loop. A type that is its own canonical
// type is not a loop.
func (s *Snapshot) checkTypeCycles() error {
	edges := make(map[string][]string, len(s.Types))
	for _, t := range s.Types {
		var next []string
		if t.Canonical != "" && t.Canonical != t.ID {
			next = append(next, t.Canonical)
		}
		for _, id := range append([]string{t.Element, t.Pointee, t.Result}, t.Args...) {
			if id != "" {
				next = append(next, id)
			}
		}
		edges[t.ID] = next
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(s.Types))
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return errors.Newf(errors.SnapshotInvalid, "type %q refers to itself", id)
		case done:
			return nil
		}
		state[id] = visiting
		for _, next := range edges[id] {
			if err := visit(next); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for _, t := range s.Types {
		if err := visit(t.ID); err != nil {
			return err
		}
	}
	return nil
}
