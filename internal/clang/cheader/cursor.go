package cheader

import (
	"math/big"

	"objcmeta/internal/clang"
)

// cursor is a declaration produced by the builder.
type cursor struct {
	kind     clang.CursorKind
	spelling string
	loc      clang.Location
	typ      *cType
	children []*cursor

	result      *cType
	enum        *enumDecl
	value       *big.Int
	initializer bool
	eval        clang.EvalResult

	// set on fields
	record     *recordDecl
	fieldIndex int

	availability clang.Availability
}

func (c *cursor) Kind() clang.CursorKind   { return c.kind }
func (c *cursor) Spelling() string         { return c.spelling }
func (c *cursor) Location() clang.Location { return c.loc }

// DisplayName adds the parameter list for functions, as libclang does.
func (c *cursor) DisplayName() string {
	if c.kind != clang.CursorFunctionDecl || c.typ == nil {
		return c.spelling
	}
	name := c.spelling + "("
	for i, p := range c.typ.params {
		if i > 0 {
			name += ", "
		}
		name += p.Spelling()
	}
	if c.typ.variadic {
		if len(c.typ.params) > 0 {
			name += ", "
		}
		name += "..."
	}
	return name + ")"
}

func (c *cursor) Type() clang.Type { return asType(c.typ) }

func (c *cursor) Children() []clang.Cursor {
	out := make([]clang.Cursor, len(c.children))
	for i, child := range c.children {
		out[i] = child
	}
	return out
}

func (c *cursor) params() []*cursor {
	var out []*cursor
	for _, child := range c.children {
		if child.kind == clang.CursorParmDecl {
			out = append(out, child)
		}
	}
	return out
}

func (c *cursor) NumArguments() int {
	if c.kind != clang.CursorFunctionDecl {
		return -1
	}
	return len(c.params())
}

func (c *cursor) Argument(i int) clang.Cursor {
	params := c.params()
	if i < 0 || i >= len(params) {
		return nil
	}
	return params[i]
}

func (c *cursor) ResultType() clang.Type { return asType(c.result) }

func (c *cursor) EnumIntegerType() clang.Type {
	if c.enum == nil {
		return nil
	}
	return asType(c.enum.integerType())
}

func (c *cursor) EnumConstantValue() *big.Int {
	if c.value == nil {
		return nil
	}
	return new(big.Int).Set(c.value)
}

func (c *cursor) HasInitializer() bool { return c.initializer }

func (c *cursor) Evaluate() clang.EvalResult {
	if !c.initializer || c.eval.Kind == "" {
		return clang.Unexposed
	}
	return c.eval
}

func (c *cursor) FieldOffset() (int64, bool) {
	if c.record == nil {
		return 0, false
	}
	return c.record.fieldOffset(c.fieldIndex)
}

// C headers carry no Objective-C properties.
func (c *cursor) PropertyAttributes() clang.PropertyAttr { return 0 }
func (c *cursor) PropertyGetter() string                 { return "" }
func (c *cursor) PropertySetter() string                 { return "" }

func (c *cursor) Availability() clang.Availability { return c.availability }

// unit is a parsed header and the files it pulled in.
type unit struct {
	root  *cursor
	files []string
}

func (u *unit) Cursor() clang.Cursor { return u.root }
func (u *unit) Files() []string      { return append([]string(nil), u.files...) }
// Close is a no-op; build releases the parse trees before returning.
func (u *unit) Close() error { return nil }
