package metadata

import (
	"math/big"

	"objcmeta/internal/clang"
)

// fakeType is a hand-built clang.Type.
type fakeType struct {
	spelling  string
	kind      clang.TypeKind
	canonical *fakeType
	size      int64
	element   *fakeType
	pointee   *fakeType
	arraySize int64
	result    *fakeType
	args      []*fakeType
}

func builtin(spelling string, kind clang.TypeKind, size int64) *fakeType {
	return &fakeType{spelling: spelling, kind: kind, size: size, arraySize: -1}
}

func pointerTo(t *fakeType) *fakeType {
	return &fakeType{spelling: t.spelling + " *", kind: clang.TypePointer, size: 8, pointee: t, arraySize: -1}
}

func arrayOf(t *fakeType, n int64) *fakeType {
	return &fakeType{spelling: t.spelling + "[" + big.NewInt(n).String() + "]", kind: clang.TypeConstantArray, size: t.size * n, element: t, arraySize: n}
}

func (t *fakeType) Spelling() string     { return t.spelling }
func (t *fakeType) Kind() clang.TypeKind { return t.kind }
func (t *fakeType) SizeOf() int64        { return t.size }
func (t *fakeType) ArraySize() int64     { return t.arraySize }

func (t *fakeType) Canonical() clang.Type {
	if t.canonical != nil {
		return t.canonical
	}
	return t
}

func (t *fakeType) ElementType() clang.Type { return nilType(t.element) }
func (t *fakeType) PointeeType() clang.Type { return nilType(t.pointee) }
func (t *fakeType) ResultType() clang.Type  { return nilType(t.result) }

func (t *fakeType) NumArgTypes() int {
	if t.kind != clang.TypeFunctionProto {
		return -1
	}
	return len(t.args)
}

func (t *fakeType) ArgType(i int) clang.Type { return nilType(t.args[i]) }

// nilType avoids wrapping a nil *fakeType in a non-nil interface.
func nilType(t *fakeType) clang.Type {
	if t == nil {
		return nil
	}
	return t
}

// fakeCursor is a hand-built clang.Cursor.
type fakeCursor struct {
	kind         clang.CursorKind
	spelling     string
	file         string
	typ          *fakeType
	children     []*fakeCursor
	args         []*fakeCursor
	result       *fakeType
	enumType     *fakeType
	value        *big.Int
	initializer  bool
	eval         clang.EvalResult
	offset       int64
	offsetKnown  bool
	attrs        clang.PropertyAttr
	getter       string
	setter       string
	availability clang.Availability
}

func (c *fakeCursor) Kind() clang.CursorKind { return c.kind }
func (c *fakeCursor) Spelling() string       { return c.spelling }
func (c *fakeCursor) DisplayName() string    { return c.spelling }

func (c *fakeCursor) Location() clang.Location {
	return clang.Location{File: c.file, Line: 1, Column: 1}
}

func (c *fakeCursor) Type() clang.Type { return nilType(c.typ) }

func (c *fakeCursor) Children() []clang.Cursor {
	out := make([]clang.Cursor, len(c.children))
	for i, child := range c.children {
		out[i] = child
	}
	return out
}

func (c *fakeCursor) NumArguments() int           { return len(c.args) }
func (c *fakeCursor) Argument(i int) clang.Cursor { return c.args[i] }
func (c *fakeCursor) ResultType() clang.Type      { return nilType(c.result) }
func (c *fakeCursor) EnumIntegerType() clang.Type { return nilType(c.enumType) }
func (c *fakeCursor) EnumConstantValue() *big.Int { return c.value }
func (c *fakeCursor) HasInitializer() bool        { return c.initializer }

func (c *fakeCursor) Evaluate() clang.EvalResult {
	if c.eval.Kind == "" {
		return clang.Unexposed
	}
	return c.eval
}

func (c *fakeCursor) FieldOffset() (int64, bool)             { return c.offset, c.offsetKnown }
func (c *fakeCursor) PropertyAttributes() clang.PropertyAttr { return c.attrs }
func (c *fakeCursor) PropertyGetter() string                 { return c.getter }
func (c *fakeCursor) PropertySetter() string                 { return c.setter }
func (c *fakeCursor) Availability() clang.Availability       { return c.availability }

func tu(children ...*fakeCursor) *fakeCursor {
	return &fakeCursor{kind: clang.CursorTranslationUnit, spelling: "test.h", children: children}
}

var (
	intType    = builtin("int", clang.TypeInt, 4)
	uintType   = builtin("unsigned int", clang.TypeUInt, 4)
	doubleType = builtin("double", clang.TypeDouble, 8)
)
