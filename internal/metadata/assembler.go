package metadata

import (
	"context"
	"log/slog"
	"sort"

	"objcmeta/internal/clang"
)

// Assembler walks the top level of a translation unit and builds a Document.
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler creates an assembler. A nil logger discards output.
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assembler{logger: logger}
}

// Generate builds the document for root with a silent assembler.
func Generate(root clang.Cursor) *Document {
	return NewAssembler(nil).Generate(root)
}

// accumulator is the state of one walk.
type accumulator struct {
	doc        *Document
	categories map[string]bool
	skipped    map[clang.CursorKind]int
	excluded   int
}

// Generate visits the immediate children of root in order. Declarations of
// other kinds are skipped.
func (a *Assembler) Generate(root clang.Cursor) *Document {
	acc := &accumulator{
		doc:        NewDocument(),
		categories: make(map[string]bool),
		skipped:    make(map[clang.CursorKind]int),
	}
	if root == nil {
		return acc.doc
	}

	for _, c := range root.Children() {
		acc.visit(c)
	}

	if a.logger.Enabled(context.Background(), slog.LevelDebug) {
		kinds := make([]string, 0, len(acc.skipped))
		for k := range acc.skipped {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			a.logger.Debug("Skipped top-level cursors", "kind", k, "count", acc.skipped[clang.CursorKind(k)])
		}
		if acc.excluded > 0 {
			a.logger.Debug("Excluded by availability", "count", acc.excluded)
		}
	}
	return acc.doc
}

func (acc *accumulator) visit(c clang.Cursor) {
	doc := acc.doc
	switch c.Kind() {
	case clang.CursorVarDecl:
		if decl, ok := processVariable(c); ok {
			doc.Variables = append(doc.Variables, decl)
		}
	case clang.CursorObjCInterfaceDecl:
		if decl, ok := processInterface(c); ok {
			doc.Interfaces = append(doc.Interfaces, decl)
		} else {
			acc.excluded++
		}
	case clang.CursorObjCCategoryDecl:
		decl, ok := processCategory(c)
		if !ok {
			acc.excluded++
			return
		}
		if acc.categories[decl.Name] {
			return
		}
		acc.categories[decl.Name] = true
		doc.Categories = append(doc.Categories, decl)
	case clang.CursorObjCProtocolDecl:
		if decl, ok := processProtocol(c); ok {
			doc.Protocols = append(doc.Protocols, decl)
		} else {
			acc.excluded++
		}
	case clang.CursorEnumDecl:
		res := processEnum(c)
		if res.decl != nil {
			doc.Enums = append(doc.Enums, *res.decl)
		}
		doc.Variables = append(doc.Variables, res.hoisted...)
	case clang.CursorFunctionDecl:
		if decl, ok := processFunction(c); ok {
			doc.Functions = append(doc.Functions, decl)
		} else {
			acc.excluded++
		}
	case clang.CursorStructDecl:
		doc.Structs = append(doc.Structs, processStruct(c))
	default:
		acc.skipped[c.Kind()]++
	}
}
