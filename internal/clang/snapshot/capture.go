package snapshot

import (
	"math"
	"strconv"

	"objcmeta/internal/clang"
)

// Capture records a translation unit so it can be replayed without the
// provider that produced it.
func Capture(tu clang.TranslationUnit, provider string) *Snapshot {
	c := &capturer{ids: make(map[string]string)}
	snap := &Snapshot{
		Version:  FormatVersion,
		Provider: provider,
		Files:    tu.Files(),
	}
	snap.Root = c.cursor(tu.Cursor())
	snap.Types = c.types
	return snap
}

type capturer struct {
	ids   map[string]string
	types []TypeRecord
}

// typeKey identifies a type by kind, spelling and size. Types that agree on
// all three are interchangeable for the metadata walk.
func typeKey(t clang.Type) string {
	return string(t.Kind()) + "|" + t.Spelling() + "|" + strconv.FormatInt(t.SizeOf(), 10)
}

func (c *capturer) typ(t clang.Type) string {
	if t == nil {
		return ""
	}
	key := typeKey(t)
	if id, ok := c.ids[key]; ok {
		return id
	}

	id := "t" + strconv.Itoa(len(c.types))
	c.ids[key] = id
	idx := len(c.types)
	c.types = append(c.types, TypeRecord{
		ID:       id,
		Spelling: t.Spelling(),
		Kind:     t.Kind(),
		Size:     t.SizeOf(),
	})

	rec := TypeRecord{
		ID:       id,
		Spelling: t.Spelling(),
		Kind:     t.Kind(),
		Size:     t.SizeOf(),
	}
	if canon := t.Canonical(); canon != nil && typeKey(canon) != key {
		rec.Canonical = c.typ(canon)
	}
	rec.Element = c.typ(t.ElementType())
	rec.Pointee = c.typ(t.PointeeType())
	if n := t.ArraySize(); n >= 0 {
		rec.ArraySize = &n
	}
	rec.Result = c.typ(t.ResultType())
	for i := 0; i < t.NumArgTypes(); i++ {
		rec.Args = append(rec.Args, c.typ(t.ArgType(i)))
	}

	c.types[idx] = rec
	return id
}

func (c *capturer) cursor(cur clang.Cursor) CursorRecord {
	rec := CursorRecord{
		Kind:     cur.Kind(),
		Spelling: cur.Spelling(),
		Type:     c.typ(cur.Type()),
	}
	if dn := cur.DisplayName(); dn != rec.Spelling {
		rec.DisplayName = dn
	}
	if loc := cur.Location(); loc != (clang.Location{}) {
		rec.Location = &loc
	}

	switch cur.Kind() {
	case clang.CursorFunctionDecl, clang.CursorObjCInstanceMethodDecl, clang.CursorObjCClassMethodDecl:
		rec.ResultType = c.typ(cur.ResultType())
	case clang.CursorEnumDecl:
		rec.EnumType = c.typ(cur.EnumIntegerType())
	case clang.CursorEnumConstantDecl:
		if v := cur.EnumConstantValue(); v != nil {
			rec.Value = NewBigInt(v)
		}
	case clang.CursorVarDecl:
		if cur.HasInitializer() {
			rec.Initializer = true
			rec.Eval = evalRecord(cur.Evaluate())
		}
	case clang.CursorFieldDecl, clang.CursorObjCIvarDecl:
		if off, ok := cur.FieldOffset(); ok {
			rec.Offset = &off
		}
	case clang.CursorObjCPropertyDecl:
		rec.Attributes = cur.PropertyAttributes().Names()
		rec.Getter = cur.PropertyGetter()
		rec.Setter = cur.PropertySetter()
	}

	if a := cur.Availability(); !a.IsZero() {
		rec.Availability = a
	}

	hasParams := false
	for _, child := range cur.Children() {
		if child.Kind() == clang.CursorParmDecl {
			hasParams = true
		}
		rec.Children = append(rec.Children, c.cursor(child))
	}
	// Providers that expose arguments only through Argument(i) still replay
	// them as ParmDecl children.
	if !hasParams {
		for i := 0; i < cur.NumArguments(); i++ {
			if arg := cur.Argument(i); arg != nil {
				rec.Children = append(rec.Children, c.cursor(arg))
			}
		}
	}
	return rec
}

func evalRecord(res clang.EvalResult) *EvalRecord {
	rec := &EvalRecord{Kind: res.Kind, Float: res.Float, Str: res.Str}
	// JSON has no encoding for non-finite numbers; keep them as text.
	if res.Kind == clang.EvalFloat && (math.IsNaN(res.Float) || math.IsInf(res.Float, 0)) {
		rec.Float = 0
		rec.Str = strconv.FormatFloat(res.Float, 'g', -1, 64)
	}
	if res.Int != nil {
		rec.Int = NewBigInt(res.Int)
	}
	return rec
}
