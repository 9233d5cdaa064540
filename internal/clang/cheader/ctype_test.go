package cheader

import (
	"testing"

	"objcmeta/internal/clang"
)

func TestNormalizeBuiltin(t *testing.T) {
	tests := []struct {
		words []string
		want  string
	}{
		{[]string{"unsigned"}, "unsigned int"},
		{[]string{"long", "int"}, "long"},
		{[]string{"unsigned", "long", "long", "int"}, "unsigned long long"},
		{[]string{"signed", "short"}, "short"},
		{[]string{"unsigned", "char"}, "unsigned char"},
		{[]string{"signed", "char"}, "signed char"},
		{[]string{"long", "double"}, "long double"},
		{[]string{"signed"}, "int"},
		{[]string{"float"}, "float"},
	}
	for _, tt := range tests {
		if got := normalizeBuiltin(tt.words); got != tt.want {
			t.Errorf("normalizeBuiltin(%v) = %q, want %q", tt.words, got, tt.want)
		}
	}
}

func TestSpelling(t *testing.T) {
	m := newDataModel(LP64)
	i := m.builtin("int")
	char := m.builtin("char")
	fn := m.function(m.builtin("void"), []*cType{i}, false, true)

	tests := []struct {
		name string
		typ  *cType
		want string
	}{
		{"pointer", m.pointerTo(i, false), "int *"},
		{"pointer to pointer", m.pointerTo(m.pointerTo(i, false), false), "int **"},
		{"const char pointer", m.pointerTo(char.withConst(), false), "const char *"},
		{"const pointer", m.pointerTo(i, false).withConst(), "int *const"},
		{"array", m.arrayOf(m.builtin("double"), 4), "double[4]"},
		{"incomplete array", m.arrayOf(i, -1), "int[]"},
		{"array of pointers", m.arrayOf(m.pointerTo(i, false), 3), "int *[3]"},
		{"pointer to array", m.pointerTo(m.arrayOf(i, 4), false), "int (*)[4]"},
		{"function pointer", m.pointerTo(fn, false), "void (*)(int)"},
		{"function", m.function(i, []*cType{i, i}, false, true), "int (int, int)"},
		{"no parameters", m.function(i, nil, false, true), "int (void)"},
		{"unprototyped", m.function(i, nil, false, false), "int ()"},
		{"variadic", m.function(i, []*cType{m.pointerTo(char.withConst(), false)}, true, true), "int (const char *, ...)"},
		{"block", m.pointerTo(m.function(i, []*cType{i}, false, true), true), "int (^)(int)"},
		{"typedef", m.typedef("Count", i), "Count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.Spelling(); got != tt.want {
				t.Errorf("Spelling() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	m := newDataModel(LP64)
	size := m.builtin("size_t")

	if size.Kind() != clang.TypeTypedef {
		t.Errorf("size_t kind = %v, want %v", size.Kind(), clang.TypeTypedef)
	}
	if got := size.Canonical().Spelling(); got != "unsigned long" {
		t.Errorf("size_t canonical = %q, want %q", got, "unsigned long")
	}
	if got := m.pointerTo(size, false).Canonical().Spelling(); got != "unsigned long *" {
		t.Errorf("size_t * canonical = %q, want %q", got, "unsigned long *")
	}

	i := m.builtin("int")
	if i.Canonical() != clang.Type(i) {
		t.Error("canonical of a builtin is not itself")
	}

	ilp := newDataModel(ILP32)
	if got := ilp.builtin("size_t").Canonical().Spelling(); got != "unsigned int" {
		t.Errorf("ILP32 size_t canonical = %q, want %q", got, "unsigned int")
	}
}

func TestSizeOf(t *testing.T) {
	lp := newDataModel(LP64)
	ilp := newDataModel(ILP32)

	tests := []struct {
		name string
		typ  *cType
		want int64
	}{
		{"int", lp.builtin("int"), 4},
		{"long LP64", lp.builtin("long"), 8},
		{"long ILP32", ilp.builtin("long"), 4},
		{"pointer LP64", lp.pointerTo(lp.builtin("char"), false), 8},
		{"pointer ILP32", ilp.pointerTo(ilp.builtin("char"), false), 4},
		{"long double", lp.builtin("long double"), 16},
		{"void", lp.builtin("void"), sizeIncomplete},
		{"array", lp.arrayOf(lp.builtin("short"), 5), 10},
		{"incomplete array", lp.arrayOf(lp.builtin("int"), -1), sizeIncomplete},
		{"function", lp.function(lp.builtin("int"), nil, false, true), 1},
		{"unknown", lp.unexposed("NSInteger"), sizeIncomplete},
		{"typedef", lp.typedef("T", lp.builtin("double")), 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.SizeOf(); got != tt.want {
				t.Errorf("SizeOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

func recordOf(m *dataModel, union bool, fields ...field) (*recordDecl, *cType) {
	r := &recordDecl{union: union, name: "R", complete: true, fields: fields}
	return r, &cType{kind: clang.TypeRecord, record: r, arraySize: -1, model: m}
}

func TestRecordLayout(t *testing.T) {
	m := newDataModel(LP64)
	char, i, d := m.builtin("char"), m.builtin("int"), m.builtin("double")
	u := m.builtin("unsigned int")

	tests := []struct {
		name    string
		union   bool
		fields  []field
		size    int64
		offsets []int64 // -1 for unknown
	}{
		{
			name:    "padding",
			fields:  []field{{"c", char, -1}, {"i", i, -1}, {"d", d, -1}},
			size:    16,
			offsets: []int64{0, 4, 8},
		},
		{
			name:    "tail padding",
			fields:  []field{{"d", d, -1}, {"c", char, -1}},
			size:    16,
			offsets: []int64{0, 8},
		},
		{
			name:    "union",
			union:   true,
			fields:  []field{{"c", char, -1}, {"d", d, -1}},
			size:    8,
			offsets: []int64{0, 0},
		},
		{
			name:    "bit-fields",
			fields:  []field{{"a", u, 3}, {"b", u, 5}, {"c", i, -1}},
			size:    8,
			offsets: []int64{-1, -1, 4},
		},
		{
			name:    "flexible array",
			fields:  []field{{"n", i, -1}, {"data", m.arrayOf(char, -1), -1}},
			size:    4,
			offsets: []int64{0, 4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, typ := recordOf(m, tt.union, tt.fields...)
			if got := typ.SizeOf(); got != tt.size {
				t.Errorf("SizeOf() = %d, want %d", got, tt.size)
			}
			for idx, want := range tt.offsets {
				got, ok := r.fieldOffset(idx)
				if want < 0 {
					if ok {
						t.Errorf("fieldOffset(%d) ok = true, want false", idx)
					}
					continue
				}
				if !ok || got != want {
					t.Errorf("fieldOffset(%d) = %d, %v, want %d, true", idx, got, ok, want)
				}
			}
		})
	}
}

func TestRecordLayout_Incomplete(t *testing.T) {
	m := newDataModel(LP64)
	r := &recordDecl{name: "Opaque"}
	typ := &cType{kind: clang.TypeRecord, record: r, arraySize: -1, model: m}

	if got := typ.SizeOf(); got != sizeIncomplete {
		t.Errorf("SizeOf() = %d, want %d", got, sizeIncomplete)
	}
	if got := m.pointerTo(typ, false).SizeOf(); got != 8 {
		t.Errorf("pointer SizeOf() = %d, want 8", got)
	}
	if got := typ.Spelling(); got != "struct Opaque" {
		t.Errorf("Spelling() = %q, want %q", got, "struct Opaque")
	}
}

func TestRecordSpelling(t *testing.T) {
	anon := &recordDecl{loc: "a.h:3:9"}
	if got := anon.spelling(); got != "struct (unnamed at a.h:3:9)" {
		t.Errorf("spelling() = %q", got)
	}
	anon.typedef = "Point"
	if got := anon.spelling(); got != "Point" {
		t.Errorf("spelling() = %q, want Point", got)
	}

	e := &enumDecl{loc: "a.h:1:9"}
	if got := e.spelling(); got != "enum (unnamed at a.h:1:9)" {
		t.Errorf("enum spelling() = %q", got)
	}
}

func TestDecayed(t *testing.T) {
	m := newDataModel(LP64)
	i := m.builtin("int")

	if got := m.arrayOf(i, 4).decayed().Spelling(); got != "int *" {
		t.Errorf("array decayed = %q, want %q", got, "int *")
	}
	fn := m.function(i, nil, false, true)
	if got := fn.decayed().Kind(); got != clang.TypePointer {
		t.Errorf("function decayed kind = %v, want %v", got, clang.TypePointer)
	}
	if got := i.decayed(); got != i {
		t.Error("int decayed changed the type")
	}
}

func TestFunctionType(t *testing.T) {
	m := newDataModel(LP64)
	i := m.builtin("int")
	fn := m.function(i, []*cType{i, m.builtin("double")}, false, true)

	if fn.NumArgTypes() != 2 {
		t.Errorf("NumArgTypes() = %d, want 2", fn.NumArgTypes())
	}
	if fn.ArgType(1).Spelling() != "double" {
		t.Errorf("ArgType(1) = %q, want double", fn.ArgType(1).Spelling())
	}
	if fn.ArgType(2) != nil {
		t.Error("ArgType(2) != nil")
	}
	if fn.ResultType().Kind() != clang.TypeInt {
		t.Errorf("ResultType() kind = %v, want Int", fn.ResultType().Kind())
	}
	if i.NumArgTypes() != -1 || i.ResultType() != nil || i.PointeeType() != nil {
		t.Error("int reports function or pointer parts")
	}
}
