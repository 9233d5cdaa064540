package clang

import (
	"math/big"
	"strings"
)

// EvalKind classifies the outcome of evaluating an initializer.
type EvalKind string

const (
	EvalUnexposed  EvalKind = "Unexposed"
	EvalInt        EvalKind = "Int"
	EvalFloat      EvalKind = "Float"
	EvalStrLiteral EvalKind = "StrLiteral"
	EvalObjCStrLit EvalKind = "ObjCStrLiteral"
	EvalCFStr      EvalKind = "CFStr"
	EvalOther      EvalKind = "Other"
)

// EvalResult is the compile-time value of an initializer. Only the field
// matching Kind is meaningful.
type EvalResult struct {
	Kind  EvalKind
	Int   *big.Int
	Float float64
	Str   string
}

// Unexposed is the result of an evaluation that produced nothing usable.
var Unexposed = EvalResult{Kind: EvalUnexposed}

// PropertyAttr is the Objective-C property attribute bitmask.
type PropertyAttr uint32

const (
	PropertyReadonly         PropertyAttr = 0x01
	PropertyGetter           PropertyAttr = 0x02
	PropertyAssign           PropertyAttr = 0x04
	PropertyReadwrite        PropertyAttr = 0x08
	PropertyRetain           PropertyAttr = 0x10
	PropertyCopy             PropertyAttr = 0x20
	PropertyNonatomic        PropertyAttr = 0x40
	PropertySetter           PropertyAttr = 0x80
	PropertyAtomic           PropertyAttr = 0x100
	PropertyWeak             PropertyAttr = 0x200
	PropertyStrong           PropertyAttr = 0x400
	PropertyUnsafeUnretained PropertyAttr = 0x800
	PropertyClass            PropertyAttr = 0x1000
)

var propertyAttrNames = []struct {
	attr PropertyAttr
	name string
}{
	{PropertyReadonly, "readonly"},
	{PropertyGetter, "getter"},
	{PropertyAssign, "assign"},
	{PropertyReadwrite, "readwrite"},
	{PropertyRetain, "retain"},
	{PropertyCopy, "copy"},
	{PropertyNonatomic, "nonatomic"},
	{PropertySetter, "setter"},
	{PropertyAtomic, "atomic"},
	{PropertyWeak, "weak"},
	{PropertyStrong, "strong"},
	{PropertyUnsafeUnretained, "unsafe_unretained"},
	{PropertyClass, "class"},
}

// Has reports whether every bit of flag is set.
func (a PropertyAttr) Has(flag PropertyAttr) bool {
	return a&flag == flag
}

// Names lists the set attributes in bit order.
func (a PropertyAttr) Names() []string {
	var names []string
	for _, n := range propertyAttrNames {
		if a.Has(n.attr) {
			names = append(names, n.name)
		}
	}
	return names
}

// ParsePropertyAttrs builds a bitmask from attribute names such as
// "nonatomic" or "readonly". Unknown names are returned separately.
func ParsePropertyAttrs(names []string) (PropertyAttr, []string) {
	var attr PropertyAttr
	var unknown []string
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		found := false
		for _, n := range propertyAttrNames {
			if n.name == name {
				attr |= n.attr
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, name)
		}
	}
	return attr, unknown
}
