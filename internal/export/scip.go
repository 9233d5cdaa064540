package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"objcmeta/internal/metadata"
	"objcmeta/internal/version"
)

// symbolPrefix is the scheme and empty package of every emitted symbol.
const symbolPrefix = "objcmeta . . . "

// writeSCIP encodes the document as a SCIP index with one document per
// declaring file. Occurrences are not recorded; the index carries symbol
// information only.
func writeSCIP(doc *metadata.Document, w io.Writer, opts Options) error {
	index, err := BuildIndex(doc, opts)
	if err != nil {
		return err
	}
	data, err := proto.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to encode SCIP index: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// BuildIndex converts doc into a SCIP index.
func BuildIndex(doc *metadata.Document, opts Options) (*scippb.Index, error) {
	root := opts.ProjectRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve project root: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	var args []string
	if opts.Header != "" {
		args = []string{opts.Header}
	}
	index := &scippb.Index{
		Metadata: &scippb.Metadata{
			Version: scippb.ProtocolVersion_UnspecifiedProtocolVersion,
			ToolInfo: &scippb.ToolInfo{
				Name:      version.Name,
				Version:   version.Version,
				Arguments: args,
			},
			ProjectRoot:          "file://" + filepath.ToSlash(root),
			TextDocumentEncoding: scippb.TextEncoding_UTF8,
		},
	}

	for _, group := range NewOrganizer(doc).Organize() {
		document := &scippb.Document{
			RelativePath: relativePath(root, group.Path, opts.Header),
			Language:     scippb.Language_C.String(),
		}
		for _, e := range group.Entries {
			if e.Kind == KindInterface || e.Kind == KindCategory || e.Kind == KindProtocol {
				document.Language = scippb.Language_Objective_C.String()
			}
			document.Symbols = append(document.Symbols, entrySymbols(e)...)
		}
		index.Documents = append(index.Documents, document)
	}

	return index, nil
}

func relativePath(root, path, header string) string {
	if path == "" {
		path = header
	}
	if path == "" {
		return "unknown"
	}
	if filepath.IsAbs(path) {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}

func entrySymbols(e Entry) []*scippb.SymbolInformation {
	sym := EntrySymbol(e)
	info := &scippb.SymbolInformation{
		Symbol:        sym,
		Kind:          entryKind(e.Kind),
		DisplayName:   e.Name,
		Documentation: []string{codeBlock(e.Signature)},
	}
	for _, r := range e.Relations {
		rel := &scippb.Relationship{Symbol: typeSymbol(r.Name, r.Kind == RelationProtocol)}
		switch r.Kind {
		case RelationSuper, RelationProtocol:
			rel.IsImplementation = true
		case RelationExtends:
			rel.IsReference = true
		}
		info.Relationships = append(info.Relationships, rel)
	}

	out := []*scippb.SymbolInformation{info}
	for _, m := range e.Members {
		out = append(out, &scippb.SymbolInformation{
			Symbol:          memberSymbol(sym, m),
			Kind:            entryKind(m.Kind),
			DisplayName:     m.Name,
			Documentation:   []string{codeBlock(m.Signature)},
			EnclosingSymbol: sym,
		})
	}
	return out
}

// EntrySymbol returns the SCIP symbol of a top-level entry.
func EntrySymbol(e Entry) string {
	switch e.Kind {
	case KindVariable:
		return symbolPrefix + escapeName(e.Name) + "."
	case KindFunction:
		return symbolPrefix + escapeName(e.Name) + "()."
	default:
		return typeSymbol(e.Name, e.Kind == KindProtocol)
	}
}

// typeSymbol names a type. Protocols live in their own namespace because a
// class and a protocol may share a name.
func typeSymbol(name string, protocol bool) string {
	if protocol {
		return symbolPrefix + "protocol/" + escapeName(name) + "#"
	}
	return symbolPrefix + escapeName(name) + "#"
}

func memberSymbol(owner string, m Member) string {
	switch m.Kind {
	case KindMethod:
		return owner + escapeName(m.Name) + "()."
	case KindClassMethod:
		return owner + escapeName(m.Name) + "(+)."
	default:
		return owner + escapeName(m.Name) + "."
	}
}

// escapeName backtick-quotes names that are not simple identifiers.
func escapeName(name string) string {
	if name == "" {
		return "``"
	}
	for _, r := range name {
		if !(r == '_' || r == '+' || r == '-' || r == '$' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')) {
			return "`" + strings.ReplaceAll(name, "`", "``") + "`"
		}
	}
	return name
}

func entryKind(kind EntryKind) scippb.SymbolInformation_Kind {
	switch kind {
	case KindVariable:
		return scippb.SymbolInformation_Variable
	case KindEnum:
		return scippb.SymbolInformation_Enum
	case KindStruct:
		return scippb.SymbolInformation_Struct
	case KindFunction:
		return scippb.SymbolInformation_Function
	case KindInterface:
		return scippb.SymbolInformation_Class
	case KindCategory:
		return scippb.SymbolInformation_Extension
	case KindProtocol:
		return scippb.SymbolInformation_Protocol
	case KindField:
		return scippb.SymbolInformation_Field
	case KindConstant:
		return scippb.SymbolInformation_EnumMember
	case KindProperty:
		return scippb.SymbolInformation_Property
	case KindMethod:
		return scippb.SymbolInformation_Method
	case KindClassMethod:
		return scippb.SymbolInformation_StaticMethod
	}
	return scippb.SymbolInformation_UnspecifiedKind
}

func codeBlock(signature string) string {
	return "```objective-c\n" + signature + "\n```"
}
