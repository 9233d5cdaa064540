//go:build cgo

package cheader

import (
	"math/big"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

const maxMacroDepth = 32

// eval folds a constant expression. Identifiers resolve to enum constants,
// const globals and object-like macros; anything else yields no value.
func (b *builder) eval(n *sitter.Node) value {
	if n == nil {
		return value{}
	}
	switch n.Type() {
	case "number_literal":
		return parseNumber(b.text(n))
	case "char_literal":
		return parseChar(b.text(n))
	case "string_literal":
		if s, ok := parseString(b.text(n)); ok {
			return stringOf(s)
		}
	case "concatenated_string":
		var sb strings.Builder
		for i := 0; i < int(n.NamedChildCount()); i++ {
			part := b.eval(n.NamedChild(i))
			if part.kind != stringValue {
				return value{}
			}
			sb.WriteString(part.s)
		}
		return stringOf(sb.String())
	case "true":
		return int64Of(1)
	case "false", "null":
		return int64Of(0)
	case "identifier":
		return b.lookup(b.text(n))
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return b.eval(n.NamedChild(0))
		}
	case "unary_expression":
		op := n.ChildByFieldName("operator")
		if op == nil {
			return value{}
		}
		return unaryOp(op.Type(), b.eval(n.ChildByFieldName("argument")))
	case "binary_expression":
		op := n.ChildByFieldName("operator")
		if op == nil {
			return value{}
		}
		left := b.eval(n.ChildByFieldName("left"))
		switch op.Type() {
		case "&&":
			if t, ok := left.truth(); ok && !t {
				return int64Of(0)
			}
		case "||":
			if t, ok := left.truth(); ok && t {
				return int64Of(1)
			}
		}
		return binaryOp(op.Type(), left, b.eval(n.ChildByFieldName("right")))
	case "conditional_expression":
		cond, ok := b.eval(n.ChildByFieldName("condition")).truth()
		if !ok {
			return value{}
		}
		if cond {
			return b.eval(n.ChildByFieldName("consequence"))
		}
		return b.eval(n.ChildByFieldName("alternative"))
	case "cast_expression":
		t := b.typeDescriptor(n.ChildByFieldName("type"))
		return convert(b.eval(n.ChildByFieldName("value")), t)
	case "sizeof_expression":
		return b.sizeOf(n)
	case "preproc_defined":
		return boolOf(b.defined(n))
	case "call_expression":
		return b.evalCall(n)
	}
	return value{}
}

func (b *builder) lookup(name string) value {
	if v, ok := b.constants[name]; ok {
		return v
	}
	if m, ok := b.macros[name]; ok && !m.function {
		return b.expandMacro(name, m)
	}
	return value{}
}

// expandMacro evaluates an object-like macro body by parsing it as an
// initializer.
func (b *builder) expandMacro(name string, m *macro) value {
	if m.evaluated {
		return m.value
	}
	if m.expanding || b.macroDepth >= maxMacroDepth {
		return value{}
	}
	m.expanding = true
	b.macroDepth++
	defer func() {
		m.expanding = false
		b.macroDepth--
	}()

	body := strings.TrimSpace(m.body)
	if body == "" {
		return value{}
	}
	src := []byte("int __objcmeta_macro = " + body + ";\n")
	saved := b.src
	b.src = src
	v := value{}
	_ = b.withTree(src, func(root *sitter.Node) error {
		if decl := root.NamedChild(0); decl != nil && decl.Type() == "declaration" {
			if init := decl.ChildByFieldName("declarator"); init != nil && init.Type() == "init_declarator" {
				v = b.eval(init.ChildByFieldName("value"))
			}
		}
		return nil
	})
	b.src = saved

	m.value, m.evaluated = v, true
	return v
}

// defined handles defined(X) and defined X.
func (b *builder) defined(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "identifier" {
			return b.isDefined(b.text(c))
		}
	}
	return false
}

func (b *builder) isDefined(name string) bool {
	_, ok := b.macros[name]
	return ok
}

// evalCall handles the feature-test builtins allowed in #if.
func (b *builder) evalCall(n *sitter.Node) value {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")
	if fn == nil {
		return value{}
	}
	switch b.text(fn) {
	case "__has_include", "__has_include_next":
		if args == nil || args.NamedChildCount() == 0 {
			return int64Of(0)
		}
		spec := strings.TrimSpace(b.text(args))
		spec = strings.TrimSuffix(strings.TrimPrefix(spec, "("), ")")
		_, ok := resolveInclude(spec, b.path, b.opts.IncludeDirs)
		return boolOf(ok)
	case "__has_feature", "__has_extension", "__has_attribute", "__has_builtin",
		"__has_c_attribute", "__has_declspec_attribute", "__is_identifier":
		return int64Of(0)
	}
	return value{}
}

// sizeOf handles sizeof(type) and sizeof(typedef-name).
func (b *builder) sizeOf(n *sitter.Node) value {
	var t *cType
	if td := n.ChildByFieldName("type"); td != nil {
		t = b.typeDescriptor(td)
	} else if v := n.ChildByFieldName("value"); v != nil {
		for v.Type() == "parenthesized_expression" && v.NamedChildCount() == 1 {
			v = v.NamedChild(0)
		}
		if v.Type() == "identifier" {
			t = b.typedefs[b.text(v)]
			if t == nil {
				t = b.varTypes[b.text(v)]
			}
		}
	}
	if t == nil {
		return value{}
	}
	size := t.SizeOf()
	if size < 0 {
		return value{}
	}
	return intOf(big.NewInt(size))
}
