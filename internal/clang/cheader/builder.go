//go:build cgo

package cheader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"objcmeta/internal/clang"
)

const maxIncludeDepth = 200

// macro is an object-like or function-like #define.
type macro struct {
	body     string
	function bool

	value     value
	evaluated bool
	expanding bool
}

// builder turns tree-sitter syntax trees into cursors. One builder reads one
// translation unit: the main header and the headers it includes.
type builder struct {
	ctx    context.Context
	opts   Options
	model  *dataModel
	parser *sitter.Parser
	logger *slog.Logger

	root    *cursor
	files   []string
	visited map[string]bool
	depth   int

	typedefs    map[string]*cType
	records     map[string]*recordDecl
	enums       map[string]*enumDecl
	recordTypes map[*recordDecl]*cType
	enumTypes   map[*enumDecl]*cType
	constants   map[string]value
	varTypes    map[string]*cType
	macros      map[string]*macro
	macroDepth  int

	// current file
	path string
	src  []byte

	errorNodes int
	openTrees  int
}

func newBuilder(ctx context.Context, opts Options, logger *slog.Logger) *builder {
	parser := sitter.NewParser()
	parser.SetLanguage(c.GetLanguage())

	b := &builder{
		ctx:         ctx,
		opts:        opts,
		model:       newDataModel(opts.DataModel),
		parser:      parser,
		logger:      logger,
		visited:     make(map[string]bool),
		typedefs:    make(map[string]*cType),
		records:     make(map[string]*recordDecl),
		enums:       make(map[string]*enumDecl),
		recordTypes: make(map[*recordDecl]*cType),
		enumTypes:   make(map[*enumDecl]*cType),
		constants:   make(map[string]value),
		varTypes:    make(map[string]*cType),
		macros:      make(map[string]*macro),
	}
	for name, body := range opts.Defines {
		b.macros[name] = &macro{body: body}
	}
	return b
}

// build parses path and everything it includes. The parser and every tree
// are released before it returns; cursors hold no tree-sitter memory.
func (b *builder) build(path string) (*unit, error) {
	defer b.parser.Close()

	b.root = &cursor{
		kind:     clang.CursorTranslationUnit,
		spelling: path,
		loc:      clang.Location{File: path},
	}
	if err := b.file(path); err != nil {
		return nil, err
	}
	if b.errorNodes > 0 {
		b.logger.Debug("Skipped unparsable regions", "file", path, "count", b.errorNodes)
	}
	return &unit{root: b.root, files: b.files}, nil
}

// file reads one header and appends its declarations to the root.
func (b *builder) file(path string) error {
	if err := b.ctx.Err(); err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	b.visited[path] = true
	b.files = append(b.files, path)

	savedPath, savedSrc := b.path, b.src
	b.path, b.src = path, src
	defer func() { b.path, b.src = savedPath, savedSrc }()

	return b.withTree(src, func(root *sitter.Node) error {
		for i := 0; i < int(root.NamedChildCount()); i++ {
			if err := b.item(root.NamedChild(i)); err != nil {
				return err
			}
		}
		return nil
	})
}

// withTree parses src and hands its root node to fn. The tree is closed when
// fn returns, so nodes must not escape it.
func (b *builder) withTree(src []byte, fn func(root *sitter.Node) error) error {
	tree, err := b.parser.ParseCtx(b.ctx, nil, src)
	if err != nil {
		return fmt.Errorf("parse %s: %w", b.path, err)
	}
	b.openTrees++
	defer func() {
		tree.Close()
		b.openTrees--
	}()
	return fn(tree.RootNode())
}

// item handles one top-level node.
func (b *builder) item(n *sitter.Node) error {
	scope := &b.root.children
	switch n.Type() {
	case "declaration":
		b.declaration(n, scope)
	case "type_definition":
		b.typeDefinition(n, scope)
	case "function_definition":
		b.functionDefinition(n, scope)
	case "struct_specifier", "union_specifier", "enum_specifier":
		b.typeSpecifier(n, scope)
		if n.Type() == "struct_specifier" && n.ChildByFieldName("body") == nil {
			b.forwardDeclaration(n, scope)
		}
	case "preproc_if", "preproc_ifdef":
		for _, inner := range b.branch(n) {
			if err := b.item(inner); err != nil {
				return err
			}
		}
	case "preproc_include":
		if pathNode := n.ChildByFieldName("path"); pathNode != nil {
			return b.include(b.text(pathNode), n)
		}
	case "preproc_call":
		// The C grammar reports #import as a generic directive.
		dir, arg := n.ChildByFieldName("directive"), n.ChildByFieldName("argument")
		if dir != nil && arg != nil && strings.TrimSpace(b.text(dir)) == "#import" {
			return b.include(strings.TrimSpace(b.text(arg)), n)
		}
		b.directive(n, scope)
	case "preproc_def", "preproc_function_def":
		b.directive(n, scope)
	case "ERROR":
		b.errorNodes++
	}
	return nil
}

// branch evaluates a conditional directive and returns the items of the
// branch that is taken.
func (b *builder) branch(n *sitter.Node) []*sitter.Node {
	for n != nil {
		var taken bool
		switch n.Type() {
		case "preproc_if", "preproc_elif":
			taken, _ = b.eval(n.ChildByFieldName("condition")).truth()
		case "preproc_ifdef", "preproc_elifdef":
			name := n.ChildByFieldName("name")
			taken = name != nil && b.isDefined(b.text(name))
			if n.ChildCount() > 0 && strings.HasSuffix(n.Child(0).Type(), "ndef") {
				taken = !taken
			}
		case "preproc_else":
			taken = true
		default:
			return nil
		}
		if taken {
			return b.branchItems(n)
		}
		n = n.ChildByFieldName("alternative")
	}
	return nil
}

func (b *builder) branchItems(n *sitter.Node) []*sitter.Node {
	skip := []*sitter.Node{
		n.ChildByFieldName("condition"),
		n.ChildByFieldName("name"),
		n.ChildByFieldName("alternative"),
	}
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		skipped := false
		for _, s := range skip {
			if s != nil && sameNode(c, s) {
				skipped = true
				break
			}
		}
		if !skipped {
			out = append(out, c)
		}
	}
	return out
}

// directive records #define and #undef. Definitions also become
// MacroDefinition cursors when scope is non-nil.
func (b *builder) directive(n *sitter.Node, scope *[]*cursor) {
	switch n.Type() {
	case "preproc_def", "preproc_function_def":
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		name := b.text(nameNode)
		m := &macro{function: n.Type() == "preproc_function_def"}
		if v := n.ChildByFieldName("value"); v != nil {
			m.body = b.text(v)
		}
		b.macros[name] = m
		if scope != nil {
			*scope = append(*scope, &cursor{
				kind:     clang.CursorMacroDefinition,
				spelling: name,
				loc:      b.location(nameNode),
			})
		}
	case "preproc_call":
		dir := n.ChildByFieldName("directive")
		arg := n.ChildByFieldName("argument")
		if dir != nil && arg != nil && strings.TrimSpace(b.text(dir)) == "#undef" {
			delete(b.macros, strings.TrimSpace(b.text(arg)))
		}
	}
}

// include records the directive and reads the included header once. Headers
// are assumed to be include-guarded.
func (b *builder) include(spec string, n *sitter.Node) error {
	b.root.children = append(b.root.children, &cursor{
		kind:     clang.CursorInclusionDirective,
		spelling: strings.Trim(spec, `"<>`),
		loc:      b.location(n),
	})
	if !b.opts.FollowIncludes {
		return nil
	}

	resolved, ok := resolveInclude(spec, b.path, b.opts.IncludeDirs)
	if !ok {
		b.logger.Debug("Include not found", "include", spec, "from", b.path)
		return nil
	}
	if b.visited[resolved] {
		return nil
	}
	if b.depth >= maxIncludeDepth {
		return fmt.Errorf("#include nested too deeply at %s", b.locString(n))
	}
	b.depth++
	defer func() { b.depth-- }()
	return b.file(resolved)
}

// declaration handles variables and function prototypes.
func (b *builder) declaration(n *sitter.Node, scope *[]*cursor) {
	base := b.specifier(n, scope)
	avail := b.declarationAvailability(n)

	for _, dn := range b.declarators(n) {
		d := b.declarator(dn, base)
		if d.name == "" {
			continue
		}
		if isFunctionKind(d.typ.kind) {
			*scope = append(*scope, b.functionCursor(d, avail))
			continue
		}

		v := &cursor{
			kind:         clang.CursorVarDecl,
			spelling:     d.name,
			loc:          b.location(d.at),
			typ:          d.typ,
			availability: avail,
		}
		b.varTypes[d.name] = d.typ
		if dn.Type() == "init_declarator" {
			if init := dn.ChildByFieldName("value"); init != nil {
				v.initializer = true
				folded := b.eval(init)
				v.eval = evalResult(folded, d.typ)
				if d.typ.isConst && folded.ok() {
					b.constants[d.name] = convert(folded, d.typ)
				}
			}
		}
		*scope = append(*scope, v)
	}
}

func (b *builder) functionCursor(d declared, avail clang.Availability) *cursor {
	return &cursor{
		kind:         clang.CursorFunctionDecl,
		spelling:     d.name,
		loc:          b.location(d.at),
		typ:          d.typ,
		result:       d.typ.result,
		children:     d.params,
		availability: avail,
	}
}

// typeDefinition registers typedef names. An anonymous record takes the
// first typedef name as its spelling.
func (b *builder) typeDefinition(n *sitter.Node, scope *[]*cursor) {
	base := b.specifier(n, scope)
	for _, dn := range b.declarators(n) {
		d := b.declarator(dn, base)
		if d.name == "" {
			continue
		}
		if r := anonymousRecord(base); r != nil && r.typedef == "" && d.typ == base {
			r.typedef = d.name
		}
		td := b.model.typedef(d.name, d.typ)
		b.typedefs[d.name] = td
		*scope = append(*scope, &cursor{
			kind:     clang.CursorTypedefDecl,
			spelling: d.name,
			loc:      b.location(d.at),
			typ:      td,
		})
	}
}

// forwardDeclaration emits "struct Foo;" as a StructDecl without fields.
func (b *builder) forwardDeclaration(n *sitter.Node, scope *[]*cursor) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	r := b.records["struct "+b.text(nameNode)]
	if r == nil {
		return
	}
	*scope = append(*scope, &cursor{
		kind:     clang.CursorStructDecl,
		spelling: r.name,
		loc:      b.location(nameNode),
		typ:      b.recordType(r),
	})
}

func anonymousRecord(t *cType) *recordDecl {
	for t != nil && t.kind == clang.TypeElaborated {
		t = t.target
	}
	if t == nil || t.kind != clang.TypeRecord || t.record.name != "" {
		return nil
	}
	return t.record
}

// functionDefinition handles inline function bodies in headers.
func (b *builder) functionDefinition(n *sitter.Node, scope *[]*cursor) {
	base := b.specifier(n, scope)
	d := b.declarator(n.ChildByFieldName("declarator"), base)
	if d.name == "" || !isFunctionKind(d.typ.kind) {
		return
	}
	end := n.EndByte()
	if body := n.ChildByFieldName("body"); body != nil {
		end = body.StartByte()
	}
	*scope = append(*scope, b.functionCursor(d, parseAvailability(b.textBetween(n.StartByte(), end))))
}

// declarationAvailability reads attributes outside any record or enum body.
func (b *builder) declarationAvailability(n *sitter.Node) clang.Availability {
	spec := n.ChildByFieldName("type")
	if spec == nil {
		return parseAvailability(b.text(n))
	}
	if body := spec.ChildByFieldName("body"); body != nil {
		return parseAvailability(b.textBetween(n.StartByte(), body.StartByte()) + " " + b.textBetween(body.EndByte(), n.EndByte()))
	}
	return parseAvailability(b.text(n))
}

func (b *builder) text(n *sitter.Node) string {
	return n.Content(b.src)
}

func (b *builder) textBetween(start, end uint32) string {
	if start >= end || int(end) > len(b.src) {
		return ""
	}
	return string(b.src[start:end])
}

func (b *builder) location(n *sitter.Node) clang.Location {
	if n == nil {
		return clang.Location{File: b.path}
	}
	p := n.StartPoint()
	return clang.Location{File: b.path, Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func (b *builder) locString(n *sitter.Node) string {
	loc := b.location(n)
	return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Column)
}
