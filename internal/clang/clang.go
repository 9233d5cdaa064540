// Package clang defines the cursor and type abstraction the metadata engine consumes.
// Concrete providers (recorded snapshots, the tree-sitter C reader) implement it.
package clang

import (
	"context"
	"math/big"
)

// Location is a position inside a source file.
type Location struct {
	File   string `json:"file" yaml:"file"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
}

// Cursor is a handle to one node of a parsed translation unit.
//
// Children returns only the immediate children of the node. Methods that do not
// apply to the cursor's kind return zero values (nil types, zero counts).
type Cursor interface {
	Kind() CursorKind
	Spelling() string
	DisplayName() string
	Location() Location

	// Type is the declared type. Nil when the cursor has none.
	Type() Type
	Children() []Cursor

	// NumArguments and Argument apply to functions and methods.
	NumArguments() int
	Argument(i int) Cursor
	ResultType() Type

	// EnumIntegerType applies to enum declarations, EnumConstantValue to enum constants.
	EnumIntegerType() Type
	EnumConstantValue() *big.Int

	// HasInitializer and Evaluate apply to variables.
	HasInitializer() bool
	Evaluate() EvalResult

	// FieldOffset is the byte offset of a record field. ok is false when the
	// provider cannot determine it.
	FieldOffset() (offset int64, ok bool)

	PropertyAttributes() PropertyAttr
	PropertyGetter() string
	PropertySetter() string

	Availability() Availability
}

// Type is a handle to a type of the translation unit.
type Type interface {
	Spelling() string
	Kind() TypeKind

	// Canonical resolves typedefs and sugar. A canonical type returns itself.
	Canonical() Type

	// SizeOf is the byte size as reported by the provider. Negative values are
	// layout errors (incomplete, dependent) and are passed through untouched.
	SizeOf() int64

	// ElementType and PointeeType are nil when the type has none.
	ElementType() Type
	PointeeType() Type

	// ArraySize is -1 when the length is unknown or the type is not an array.
	ArraySize() int64

	// ResultType is nil for non-function types. NumArgTypes is -1 for them.
	ResultType() Type
	NumArgTypes() int
	ArgType(i int) Type
}

// TranslationUnit is a parsed source file and everything it includes. It owns
// provider resources and must be closed once the walk is done.
type TranslationUnit interface {
	Cursor() Cursor

	// Files lists every file that contributed declarations, main file first.
	Files() []string
	Close() error
}

// Provider parses headers into translation units.
type Provider interface {
	Name() string
	Parse(ctx context.Context, path string, args []string) (TranslationUnit, error)
}
