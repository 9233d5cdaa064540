//go:build cgo

package cheader

import (
	"math/big"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"objcmeta/internal/clang"
)

// declared is what a declarator says about one name.
type declared struct {
	name   string
	typ    *cType
	params []*cursor
	at     *sitter.Node
}

// declarator applies C's inside-out declarator rules to base.
func (b *builder) declarator(n *sitter.Node, base *cType) declared {
	d := declared{typ: base, at: n}
	for n != nil {
		switch n.Type() {
		case "identifier", "field_identifier", "type_identifier", "primitive_type":
			d.name = b.text(n)
			d.at = n
			return d
		case "pointer_declarator", "abstract_pointer_declarator":
			p := b.model.pointerTo(d.typ, false)
			if b.hasConst(n) {
				p = p.withConst()
			}
			d.typ = p
			n = n.ChildByFieldName("declarator")
		case "array_declarator", "abstract_array_declarator":
			size := int64(-1)
			if sz := n.ChildByFieldName("size"); sz != nil {
				if v := b.eval(sz); v.kind == intValue && v.i.IsInt64() && v.i.Sign() >= 0 {
					size = v.i.Int64()
				}
			}
			d.typ = b.model.arrayOf(d.typ, size)
			n = n.ChildByFieldName("declarator")
		case "function_declarator", "abstract_function_declarator":
			fn, params := b.parameters(n.ChildByFieldName("parameters"), d.typ)
			d.typ = fn
			d.params = params
			n = n.ChildByFieldName("declarator")
		case "parenthesized_declarator", "abstract_parenthesized_declarator", "attributed_declarator":
			n = firstDeclarator(n)
		case "init_declarator":
			n = n.ChildByFieldName("declarator")
		default:
			return d
		}
	}
	return d
}

func firstDeclarator(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "attribute_specifier", "attribute_declaration", "type_qualifier", "ms_call_modifier", "comment":
			continue
		}
		return c
	}
	return nil
}

func (b *builder) hasConst(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "type_qualifier" && strings.TrimSpace(b.text(c)) == "const" {
			return true
		}
	}
	return false
}

// parameters builds a function type and its ParmDecl cursors. "(void)"
// declares no parameters; "()" declares an unprototyped function.
func (b *builder) parameters(list *sitter.Node, result *cType) (*cType, []*cursor) {
	var (
		types    []*cType
		cursors  []*cursor
		variadic bool
		seen     bool
	)
	if list != nil {
		for i := 0; i < int(list.NamedChildCount()); i++ {
			p := list.NamedChild(i)
			switch p.Type() {
			case "variadic_parameter":
				variadic = true
				seen = true
			case "parameter_declaration":
				seen = true
				base := b.specifier(p, nil)
				d := b.declarator(p.ChildByFieldName("declarator"), base)
				if d.name == "" && d.typ.kind == clang.TypeVoid && p.ChildByFieldName("declarator") == nil {
					continue
				}
				t := d.typ.decayed()
				types = append(types, t)
				cursors = append(cursors, &cursor{
					kind:     clang.CursorParmDecl,
					spelling: d.name,
					loc:      b.location(d.at),
					typ:      t,
				})
			}
		}
	}
	fn := b.model.function(result, types, variadic, seen)
	return fn, cursors
}

// typeDescriptor resolves the type of a cast or sizeof operand.
func (b *builder) typeDescriptor(n *sitter.Node) *cType {
	if n == nil {
		return nil
	}
	base := b.specifier(n, nil)
	return b.declarator(n.ChildByFieldName("declarator"), base).typ
}

// specifier resolves the type specifier of a declaration-like node, applying
// const qualifiers. Record and enum definitions are emitted into scope when
// scope is non-nil.
func (b *builder) specifier(n *sitter.Node, scope *[]*cursor) *cType {
	spec := n.ChildByFieldName("type")
	t := b.typeSpecifier(spec, scope)
	if b.hasConst(n) || (spec != nil && b.hasConst(spec)) {
		t = t.withConst()
	}
	return t
}

func (b *builder) typeSpecifier(n *sitter.Node, scope *[]*cursor) *cType {
	if n == nil {
		// Implicit int.
		return b.model.builtin("int")
	}
	switch n.Type() {
	case "primitive_type":
		if t := b.model.builtin(normalizeBuiltin(strings.Fields(b.text(n)))); t != nil {
			return t
		}
		return b.model.unexposed(b.text(n))
	case "sized_type_specifier":
		if t := b.model.builtin(normalizeBuiltin(strings.Fields(b.text(n)))); t != nil {
			return t
		}
		return b.model.unexposed(b.text(n))
	case "type_identifier":
		name := b.text(n)
		if t, ok := b.typedefs[name]; ok {
			return t
		}
		if t := b.model.builtin(name); t != nil {
			return t
		}
		return b.model.unexposed(name)
	case "struct_specifier", "union_specifier":
		r := b.recordSpecifier(n, scope)
		return b.model.elaborated(b.recordType(r))
	case "enum_specifier":
		e := b.enumSpecifier(n, scope)
		return b.model.elaborated(b.enumType(e))
	}
	return b.model.unexposed(b.text(n))
}

func (b *builder) recordType(r *recordDecl) *cType {
	if t, ok := b.recordTypes[r]; ok {
		return t
	}
	t := &cType{kind: clang.TypeRecord, record: r, arraySize: -1, model: b.model}
	b.recordTypes[r] = t
	return t
}

func (b *builder) enumType(e *enumDecl) *cType {
	if t, ok := b.enumTypes[e]; ok {
		return t
	}
	t := &cType{kind: clang.TypeEnum, enum: e, arraySize: -1, model: b.model}
	b.enumTypes[e] = t
	return t
}

// recordSpecifier resolves a struct or union tag and, when the specifier has
// a body, defines it and emits its declaration cursor.
func (b *builder) recordSpecifier(n *sitter.Node, scope *[]*cursor) *recordDecl {
	union := n.Type() == "union_specifier"
	nameNode := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")

	var r *recordDecl
	if nameNode != nil {
		name := b.text(nameNode)
		key := "struct " + name
		if union {
			key = "union " + name
		}
		r = b.records[key]
		if r == nil || (body != nil && r.complete) {
			r = &recordDecl{union: union, name: name}
			b.records[key] = r
		}
	} else {
		r = &recordDecl{union: union, loc: b.locString(n)}
	}

	if body == nil {
		return r
	}

	kind := clang.CursorStructDecl
	if union {
		kind = clang.CursorUnionDecl
	}
	c := &cursor{
		kind:         kind,
		spelling:     r.name,
		loc:          b.location(firstNonNil(nameNode, n)),
		typ:          b.recordType(r),
		availability: parseAvailability(b.textBetween(n.StartByte(), body.StartByte())),
	}
	b.fieldList(body, r, c)
	r.complete = true
	if scope != nil {
		*scope = append(*scope, c)
	}
	return r
}

// fieldList reads a field_declaration_list into r, adding FieldDecl cursors
// (and nested definitions) to parent.
func (b *builder) fieldList(list *sitter.Node, r *recordDecl, parent *cursor) {
	for i := 0; i < int(list.NamedChildCount()); i++ {
		b.fieldItem(list.NamedChild(i), r, parent)
	}
}

func (b *builder) fieldItem(item *sitter.Node, r *recordDecl, parent *cursor) {
	switch item.Type() {
	case "field_declaration":
		b.fieldDeclaration(item, r, parent)
	case "preproc_if", "preproc_ifdef":
		for _, inner := range b.branch(item) {
			b.fieldItem(inner, r, parent)
		}
	case "preproc_def", "preproc_function_def", "preproc_call":
		b.directive(item, nil)
	}
}

func (b *builder) fieldDeclaration(n *sitter.Node, r *recordDecl, parent *cursor) {
	base := b.specifier(n, &parent.children)

	bitWidth := int64(-1)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "bitfield_clause" && c.NamedChildCount() > 0 {
			if v := b.eval(c.NamedChild(0)); v.kind == intValue && v.i.IsInt64() {
				bitWidth = v.i.Int64()
			}
		}
	}

	decls := b.declarators(n)
	if len(decls) == 0 {
		// Anonymous struct or union member.
		r.fields = append(r.fields, field{typ: base, bitWidth: bitWidth})
		parent.children = append(parent.children, &cursor{
			kind:       clang.CursorFieldDecl,
			loc:        b.location(n),
			typ:        base,
			record:     r,
			fieldIndex: len(r.fields) - 1,
		})
		return
	}
	for _, dn := range decls {
		d := b.declarator(dn, base)
		r.fields = append(r.fields, field{name: d.name, typ: d.typ, bitWidth: bitWidth})
		parent.children = append(parent.children, &cursor{
			kind:       clang.CursorFieldDecl,
			spelling:   d.name,
			loc:        b.location(d.at),
			typ:        d.typ,
			record:     r,
			fieldIndex: len(r.fields) - 1,
		})
	}
}

// enumSpecifier resolves an enum tag and, when it has a body, evaluates its
// constants and emits the EnumDecl cursor.
func (b *builder) enumSpecifier(n *sitter.Node, scope *[]*cursor) *enumDecl {
	nameNode := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")

	var e *enumDecl
	if nameNode != nil {
		name := b.text(nameNode)
		e = b.enums[name]
		if e == nil || (body != nil && e.complete) {
			e = &enumDecl{name: name}
			b.enums[name] = e
		}
	} else {
		e = &enumDecl{loc: b.locString(n)}
	}
	if under := n.ChildByFieldName("underlying_type"); under != nil {
		e.underlying = b.typeSpecifier(under, nil)
		e.complete = true
	}
	if body == nil {
		return e
	}

	et := b.enumType(e)
	c := &cursor{
		kind:         clang.CursorEnumDecl,
		spelling:     e.name,
		loc:          b.location(firstNonNil(nameNode, n)),
		typ:          et,
		enum:         e,
		availability: parseAvailability(b.textBetween(n.StartByte(), body.StartByte())),
	}

	var values []*big.Int
	next := big.NewInt(0)
	for i := 0; i < int(body.NamedChildCount()); i++ {
		item := body.NamedChild(i)
		if item.Type() != "enumerator" {
			continue
		}
		constNode := item.ChildByFieldName("name")
		if constNode == nil {
			continue
		}
		val := new(big.Int).Set(next)
		if expr := item.ChildByFieldName("value"); expr != nil {
			if v := b.eval(expr); v.kind == intValue {
				val.Set(v.i)
			} else {
				b.logger.Debug("Enum constant is not an integer constant",
					"name", b.text(constNode), "expr", b.text(expr))
			}
		}
		name := b.text(constNode)
		b.constants[name] = intOf(val)
		values = append(values, val)
		c.children = append(c.children, &cursor{
			kind:     clang.CursorEnumConstantDecl,
			spelling: name,
			loc:      b.location(constNode),
			typ:      et,
			value:    val,
		})
		next = new(big.Int).Add(val, big.NewInt(1))
	}
	e.inferred = inferEnumType(b.model, values)
	e.complete = true

	if scope != nil {
		*scope = append(*scope, c)
	}
	return e
}

// declarators returns the declarator children of a declaration.
func (b *builder) declarators(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	spec := n.ChildByFieldName("type")
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if spec != nil && sameNode(c, spec) {
			continue
		}
		switch c.Type() {
		case "identifier", "field_identifier", "type_identifier", "primitive_type",
			"pointer_declarator", "array_declarator", "function_declarator",
			"parenthesized_declarator", "attributed_declarator", "init_declarator":
			out = append(out, c)
		}
	}
	return out
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func firstNonNil(nodes ...*sitter.Node) *sitter.Node {
	for _, n := range nodes {
		if n != nil {
			return n
		}
	}
	return nil
}
