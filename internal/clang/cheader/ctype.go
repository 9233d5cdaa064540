package cheader

import (
	"strconv"
	"strings"

	"objcmeta/internal/clang"
)

// Layout errors, matching libclang's CXTypeLayoutError values.
const (
	sizeInvalid    int64 = -1
	sizeIncomplete int64 = -2
)

// cType is a C type. Composite types point at their parts; records and enums
// point at their declaration so layout is computed once the whole file is read.
type cType struct {
	kind      clang.TypeKind
	name      string // builtins, typedefs
	isConst   bool
	target    *cType // typedef and elaborated targets
	element   *cType
	pointee   *cType
	arraySize int64
	result    *cType
	params    []*cType
	variadic  bool
	record    *recordDecl
	enum      *enumDecl
	model     *dataModel

	canonical *cType
}

// dataModel holds builtin sizes for one target.
type dataModel struct {
	name        DataModel
	pointer     int64
	long        int64
	longDouble  int64
	ldAlign     int64
	builtinSize map[clang.TypeKind]int64
}

func newDataModel(m DataModel) *dataModel {
	dm := &dataModel{name: LP64, pointer: 8, long: 8, longDouble: 16, ldAlign: 16}
	if m == ILP32 {
		dm = &dataModel{name: ILP32, pointer: 4, long: 4, longDouble: 12, ldAlign: 4}
	}
	dm.builtinSize = map[clang.TypeKind]int64{
		clang.TypeBool:       1,
		clang.TypeCharS:      1,
		clang.TypeCharU:      1,
		clang.TypeSChar:      1,
		clang.TypeUChar:      1,
		clang.TypeShort:      2,
		clang.TypeUShort:     2,
		clang.TypeInt:        4,
		clang.TypeUInt:       4,
		clang.TypeLong:       dm.long,
		clang.TypeULong:      dm.long,
		clang.TypeLongLong:   8,
		clang.TypeULongLong:  8,
		clang.TypeFloat:      4,
		clang.TypeDouble:     8,
		clang.TypeLongDouble: dm.longDouble,
	}
	return dm
}

// builtinKinds maps normalized builtin spellings to kinds.
var builtinKinds = map[string]clang.TypeKind{
	"void":               clang.TypeVoid,
	"_Bool":              clang.TypeBool,
	"bool":               clang.TypeBool,
	"char":               clang.TypeCharS,
	"signed char":        clang.TypeSChar,
	"unsigned char":      clang.TypeUChar,
	"short":              clang.TypeShort,
	"unsigned short":     clang.TypeUShort,
	"int":                clang.TypeInt,
	"unsigned int":       clang.TypeUInt,
	"long":               clang.TypeLong,
	"unsigned long":      clang.TypeULong,
	"long long":          clang.TypeLongLong,
	"unsigned long long": clang.TypeULongLong,
	"float":              clang.TypeFloat,
	"double":             clang.TypeDouble,
	"long double":        clang.TypeLongDouble,
}

// stdTypedefs are the standard typedef names the C grammar reports as
// primitive types, with their underlying builtin per data model.
var stdTypedefs = map[string]struct{ lp64, ilp32 string }{
	"size_t":      {"unsigned long", "unsigned int"},
	"ssize_t":     {"long", "int"},
	"ptrdiff_t":   {"long", "int"},
	"intptr_t":    {"long", "int"},
	"uintptr_t":   {"unsigned long", "unsigned int"},
	"int8_t":      {"signed char", "signed char"},
	"int16_t":     {"short", "short"},
	"int32_t":     {"int", "int"},
	"int64_t":     {"long long", "long long"},
	"uint8_t":     {"unsigned char", "unsigned char"},
	"uint16_t":    {"unsigned short", "unsigned short"},
	"uint32_t":    {"unsigned int", "unsigned int"},
	"uint64_t":    {"unsigned long long", "unsigned long long"},
	"char8_t":     {"unsigned char", "unsigned char"},
	"char16_t":    {"unsigned short", "unsigned short"},
	"char32_t":    {"unsigned int", "unsigned int"},
	"wchar_t":     {"int", "int"},
	"max_align_t": {"long double", "long double"},
}

// normalizeBuiltin folds multi-word specifiers into libclang's spelling:
// "long int" -> "long", "unsigned" -> "unsigned int", "signed short" -> "short".
func normalizeBuiltin(words []string) string {
	var unsigned, signed bool
	longs, shorts := 0, 0
	base := ""
	for _, w := range words {
		switch w {
		case "unsigned":
			unsigned = true
		case "signed":
			signed = true
		case "long":
			longs++
		case "short":
			shorts++
		case "int":
			if base == "" {
				base = "int"
			}
		default:
			base = w
		}
	}

	switch {
	case base == "char":
		switch {
		case unsigned:
			return "unsigned char"
		case signed:
			return "signed char"
		}
		return "char"
	case base == "double":
		if longs > 0 {
			return "long double"
		}
		return "double"
	case base != "" && base != "int":
		return base
	}

	var name string
	switch {
	case shorts > 0:
		name = "short"
	case longs >= 2:
		name = "long long"
	case longs == 1:
		name = "long"
	default:
		name = "int"
	}
	if unsigned {
		name = "unsigned " + name
	}
	return name
}

func (m *dataModel) builtin(name string) *cType {
	if kind, ok := builtinKinds[name]; ok {
		return &cType{kind: kind, name: name, model: m}
	}
	if std, ok := stdTypedefs[name]; ok {
		under := std.lp64
		if m.name == ILP32 {
			under = std.ilp32
		}
		return &cType{kind: clang.TypeTypedef, name: name, target: m.builtin(under), model: m}
	}
	return nil
}

func (m *dataModel) pointerTo(t *cType, block bool) *cType {
	kind := clang.TypePointer
	if block {
		kind = clang.TypeBlockPointer
	}
	return &cType{kind: kind, pointee: t, arraySize: -1, model: m}
}

func (m *dataModel) arrayOf(t *cType, n int64) *cType {
	kind := clang.TypeConstantArray
	if n < 0 {
		kind = clang.TypeIncompleteArray
		n = -1
	}
	return &cType{kind: kind, element: t, arraySize: n, model: m}
}

func (m *dataModel) function(result *cType, params []*cType, variadic, proto bool) *cType {
	kind := clang.TypeFunctionProto
	if !proto {
		kind = clang.TypeFunctionNoProto
	}
	return &cType{kind: kind, result: result, params: params, variadic: variadic, arraySize: -1, model: m}
}

func (m *dataModel) typedef(name string, target *cType) *cType {
	return &cType{kind: clang.TypeTypedef, name: name, target: target, arraySize: -1, model: m}
}

func (m *dataModel) elaborated(target *cType) *cType {
	return &cType{kind: clang.TypeElaborated, target: target, arraySize: -1, model: m}
}

func (m *dataModel) unexposed(name string) *cType {
	return &cType{kind: clang.TypeUnexposed, name: name, arraySize: -1, model: m}
}

// withConst returns a const-qualified copy of t.
func (t *cType) withConst() *cType {
	if t.isConst {
		return t
	}
	c := *t
	c.isConst = true
	c.canonical = nil
	return &c
}

// Spelling renders the type the way libclang does, e.g. "const char *",
// "int (*)(int)", "double[4]".
func (t *cType) Spelling() string {
	return t.spell("")
}

func (t *cType) spell(inner string) string {
	switch t.kind {
	case clang.TypePointer, clang.TypeBlockPointer:
		part := "*"
		if t.kind == clang.TypeBlockPointer {
			part = "^"
		}
		if t.isConst {
			part += "const"
			if inner != "" {
				part += " "
			}
		}
		part += inner
		if p := t.pointee; p != nil && (p.kind.IsArray() || isFunctionKind(p.kind)) {
			part = "(" + part + ")"
		}
		return t.pointee.spell(part)
	case clang.TypeConstantArray, clang.TypeIncompleteArray:
		dim := "[]"
		if t.kind == clang.TypeConstantArray {
			dim = "[" + strconv.FormatInt(t.arraySize, 10) + "]"
		}
		return t.element.spell(inner + dim)
	case clang.TypeFunctionProto, clang.TypeFunctionNoProto:
		params := make([]string, 0, len(t.params)+1)
		for _, p := range t.params {
			params = append(params, p.Spelling())
		}
		if t.variadic {
			params = append(params, "...")
		}
		if len(params) == 0 && t.kind == clang.TypeFunctionProto {
			params = append(params, "void")
		}
		return t.result.spell(inner + "(" + strings.Join(params, ", ") + ")")
	}

	base := t.baseName()
	if t.isConst {
		base = "const " + base
	}
	switch {
	case inner == "":
		return base
	case strings.HasPrefix(inner, "["):
		return base + inner
	default:
		return base + " " + inner
	}
}

func (t *cType) baseName() string {
	switch t.kind {
	case clang.TypeRecord:
		return t.record.spelling()
	case clang.TypeEnum:
		return t.enum.spelling()
	case clang.TypeElaborated:
		return t.target.baseName()
	}
	return t.name
}

func isFunctionKind(k clang.TypeKind) bool {
	return k == clang.TypeFunctionProto || k == clang.TypeFunctionNoProto
}

// Kind implements clang.Type.
func (t *cType) Kind() clang.TypeKind { return t.kind }

// Canonical strips typedefs and elaboration, keeping qualifiers.
func (t *cType) Canonical() clang.Type {
	return t.canon()
}

func (t *cType) canon() *cType {
	if t.canonical != nil {
		return t.canonical
	}
	var c *cType
	switch t.kind {
	case clang.TypeTypedef, clang.TypeElaborated:
		c = t.target.canon()
		if t.isConst {
			c = c.withConst()
			c.canonical = c
		}
	case clang.TypePointer, clang.TypeBlockPointer:
		if t.pointee.canon() == t.pointee {
			c = t
		} else {
			cp := *t
			cp.pointee = t.pointee.canon()
			c = &cp
		}
	case clang.TypeConstantArray, clang.TypeIncompleteArray:
		if t.element.canon() == t.element {
			c = t
		} else {
			cp := *t
			cp.element = t.element.canon()
			c = &cp
		}
	case clang.TypeFunctionProto, clang.TypeFunctionNoProto:
		cp := *t
		changed := t.result.canon() != t.result
		cp.result = t.result.canon()
		cp.params = make([]*cType, len(t.params))
		for i, p := range t.params {
			cp.params[i] = p.canon()
			changed = changed || cp.params[i] != p
		}
		c = t
		if changed {
			c = &cp
		}
	default:
		c = t
	}
	c.canonical = c
	t.canonical = c
	return c
}

// SizeOf implements clang.Type.
func (t *cType) SizeOf() int64 {
	size, _ := t.layout()
	return size
}

// layout returns size and alignment in bytes. Negative sizes are layout errors.
func (t *cType) layout() (size, align int64) {
	m := t.model
	switch t.kind {
	case clang.TypeVoid:
		return sizeIncomplete, 1
	case clang.TypeLongDouble:
		return m.longDouble, m.ldAlign
	case clang.TypePointer, clang.TypeBlockPointer:
		return m.pointer, m.pointer
	case clang.TypeTypedef, clang.TypeElaborated:
		return t.target.layout()
	case clang.TypeConstantArray:
		esize, ealign := t.element.layout()
		if esize < 0 {
			return esize, ealign
		}
		return esize * t.arraySize, ealign
	case clang.TypeIncompleteArray:
		_, ealign := t.element.layout()
		return sizeIncomplete, ealign
	case clang.TypeFunctionProto, clang.TypeFunctionNoProto:
		return 1, 1
	case clang.TypeRecord:
		return t.record.layout()
	case clang.TypeEnum:
		if !t.enum.complete {
			return sizeIncomplete, 1
		}
		return t.enum.integerType().layout()
	case clang.TypeUnexposed, clang.TypeInvalid:
		return sizeIncomplete, 1
	}
	if size, ok := m.builtinSize[t.kind]; ok {
		return size, size
	}
	return sizeInvalid, 1
}

// ElementType implements clang.Type.
func (t *cType) ElementType() clang.Type { return asType(t.element) }

// PointeeType implements clang.Type.
func (t *cType) PointeeType() clang.Type { return asType(t.pointee) }

// ResultType implements clang.Type.
func (t *cType) ResultType() clang.Type { return asType(t.result) }

// ArraySize implements clang.Type.
func (t *cType) ArraySize() int64 {
	if t.kind != clang.TypeConstantArray {
		return -1
	}
	return t.arraySize
}

// NumArgTypes implements clang.Type.
func (t *cType) NumArgTypes() int {
	if !isFunctionKind(t.kind) {
		return -1
	}
	return len(t.params)
}

// ArgType implements clang.Type.
func (t *cType) ArgType(i int) clang.Type {
	if i < 0 || i >= len(t.params) {
		return nil
	}
	return t.params[i]
}

func asType(t *cType) clang.Type {
	if t == nil {
		return nil
	}
	return t
}

// decayed adjusts a parameter type: arrays become pointers to their element,
// functions become function pointers.
func (t *cType) decayed() *cType {
	switch {
	case t.kind.IsArray():
		return t.model.pointerTo(t.element, false)
	case isFunctionKind(t.kind):
		return t.model.pointerTo(t, false)
	}
	return t
}

// isFloating reports whether the canonical type is a floating-point builtin.
func (t *cType) isFloating() bool {
	return t.canon().kind.IsFloating()
}

// isInteger reports whether the canonical type is an integer or enum.
func (t *cType) isInteger() bool {
	k := t.canon().kind
	return k.IsInteger() || k == clang.TypeEnum
}

// isUnsigned reports whether the canonical integer type is unsigned.
func (t *cType) isUnsigned() bool {
	c := t.canon()
	switch c.kind {
	case clang.TypeBool, clang.TypeCharU, clang.TypeUChar, clang.TypeUShort, clang.TypeUInt, clang.TypeULong, clang.TypeULongLong:
		return true
	case clang.TypeEnum:
		return c.enum.complete && c.enum.integerType().isUnsigned()
	}
	return false
}

// field is one member of a record.
type field struct {
	name     string
	typ      *cType
	bitWidth int64 // -1 when not a bit-field
}

// recordDecl is a struct or union definition shared by every reference to the tag.
type recordDecl struct {
	union    bool
	name     string
	typedef  string // name given by "typedef struct { ... } Name;"
	loc      string // "file:line:col" for anonymous records
	complete bool
	fields   []field

	laidOut    bool
	inProgress bool
	size       int64
	align      int64
	offsets    []int64 // bits
}

func (r *recordDecl) keyword() string {
	if r.union {
		return "union"
	}
	return "struct"
}

func (r *recordDecl) spelling() string {
	switch {
	case r.name != "":
		return r.keyword() + " " + r.name
	case r.typedef != "":
		return r.typedef
	}
	return r.keyword() + " (unnamed at " + r.loc + ")"
}

// layout computes size and alignment with natural alignment rules. Bit-fields
// are packed into storage units of their declared type.
func (r *recordDecl) layout() (int64, int64) {
	if !r.complete {
		return sizeIncomplete, 1
	}
	if r.laidOut {
		return r.size, r.align
	}
	if r.inProgress {
		return sizeInvalid, 1
	}
	r.inProgress = true
	defer func() { r.inProgress = false }()

	var bits, maxBits int64
	align := int64(1)
	offsets := make([]int64, len(r.fields))
	for i, f := range r.fields {
		size, falign := f.typ.layout()
		if size < 0 && !(f.typ.kind == clang.TypeIncompleteArray && i == len(r.fields)-1) {
			return size, 1
		}
		if falign > align {
			align = falign
		}
		if r.union {
			offsets[i] = 0
			if fb := max(size, 0) * 8; fb > maxBits {
				maxBits = fb
			}
			continue
		}
		if f.bitWidth >= 0 {
			unit := size * 8
			if f.bitWidth == 0 {
				bits = alignUp(bits, unit)
				offsets[i] = bits
				continue
			}
			if bits/unit != (bits+f.bitWidth-1)/unit {
				bits = alignUp(bits, unit)
			}
			offsets[i] = bits
			bits += f.bitWidth
			continue
		}
		bits = alignUp(bits, falign*8)
		offsets[i] = bits
		if size > 0 {
			bits += size * 8
		}
	}
	if r.union {
		bits = maxBits
	}

	r.size = alignUp(alignUp(bits, 8)/8, align)
	r.align = align
	r.offsets = offsets
	r.laidOut = true
	return r.size, r.align
}

// fieldOffset returns the byte offset of field i. Bit-fields report unknown.
func (r *recordDecl) fieldOffset(i int) (int64, bool) {
	if i < 0 || i >= len(r.fields) || r.fields[i].bitWidth >= 0 {
		return 0, false
	}
	if size, _ := r.layout(); size < 0 {
		return 0, false
	}
	return r.offsets[i] / 8, true
}

func alignUp(n, align int64) int64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// enumDecl is an enum definition shared by every reference to the tag.
type enumDecl struct {
	name       string
	loc        string
	complete   bool
	underlying *cType // fixed underlying type, if declared
	inferred   *cType
}

func (e *enumDecl) spelling() string {
	if e.name != "" {
		return "enum " + e.name
	}
	return "enum (unnamed at " + e.loc + ")"
}

func (e *enumDecl) integerType() *cType {
	if e.underlying != nil {
		return e.underlying
	}
	return e.inferred
}
