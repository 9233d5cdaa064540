package snapshot

import (
	"math/big"
	"strconv"
	"strings"

	"objcmeta/internal/clang"
)

// unit resolves type ids and owns the cursor tree of one snapshot.
type unit struct {
	snap  *Snapshot
	types map[string]*snapType
}

func newUnit(snap *Snapshot) *unit {
	u := &unit{snap: snap, types: make(map[string]*snapType, len(snap.Types))}
	for i := range snap.Types {
		rec := &snap.Types[i]
		u.types[rec.ID] = &snapType{u: u, rec: rec}
	}
	return u
}

func (u *unit) typ(id string) clang.Type {
	if id == "" {
		return nil
	}
	if t, ok := u.types[id]; ok {
		return t
	}
	return nil
}

func (u *unit) cursor(rec *CursorRecord) *snapCursor {
	return &snapCursor{u: u, rec: rec}
}

type snapType struct {
	u   *unit
	rec *TypeRecord
}

func (t *snapType) Spelling() string     { return t.rec.Spelling }
func (t *snapType) Kind() clang.TypeKind { return t.rec.Kind }
func (t *snapType) SizeOf() int64        { return t.rec.Size }
func (t *snapType) ElementType() clang.Type {
	return t.u.typ(t.rec.Element)
}
func (t *snapType) PointeeType() clang.Type {
	return t.u.typ(t.rec.Pointee)
}
func (t *snapType) ResultType() clang.Type {
	return t.u.typ(t.rec.Result)
}

func (t *snapType) Canonical() clang.Type {
	if c := t.u.typ(t.rec.Canonical); c != nil {
		return c
	}
	return t
}

func (t *snapType) ArraySize() int64 {
	if t.rec.ArraySize == nil {
		return -1
	}
	return *t.rec.ArraySize
}

func (t *snapType) NumArgTypes() int {
	switch t.rec.Kind {
	case clang.TypeFunctionProto, clang.TypeFunctionNoProto:
		return len(t.rec.Args)
	}
	return -1
}

func (t *snapType) ArgType(i int) clang.Type {
	if i < 0 || i >= len(t.rec.Args) {
		return nil
	}
	return t.u.typ(t.rec.Args[i])
}

type snapCursor struct {
	u   *unit
	rec *CursorRecord
}

func (c *snapCursor) Kind() clang.CursorKind { return c.rec.Kind }
func (c *snapCursor) Spelling() string       { return c.rec.Spelling }

func (c *snapCursor) DisplayName() string {
	if c.rec.DisplayName != "" {
		return c.rec.DisplayName
	}
	return c.rec.Spelling
}

func (c *snapCursor) Location() clang.Location {
	if c.rec.Location == nil {
		return clang.Location{}
	}
	return *c.rec.Location
}

func (c *snapCursor) Type() clang.Type       { return c.u.typ(c.rec.Type) }
func (c *snapCursor) ResultType() clang.Type { return c.u.typ(c.rec.ResultType) }

func (c *snapCursor) Children() []clang.Cursor {
	children := make([]clang.Cursor, len(c.rec.Children))
	for i := range c.rec.Children {
		children[i] = c.u.cursor(&c.rec.Children[i])
	}
	return children
}

// arguments are the ParmDecl children of a callable.
func (c *snapCursor) arguments() []*CursorRecord {
	var args []*CursorRecord
	for i := range c.rec.Children {
		if c.rec.Children[i].Kind == clang.CursorParmDecl {
			args = append(args, &c.rec.Children[i])
		}
	}
	return args
}

func (c *snapCursor) NumArguments() int {
	switch c.rec.Kind {
	case clang.CursorFunctionDecl, clang.CursorObjCInstanceMethodDecl, clang.CursorObjCClassMethodDecl:
		return len(c.arguments())
	}
	return -1
}

func (c *snapCursor) Argument(i int) clang.Cursor {
	args := c.arguments()
	if i < 0 || i >= len(args) {
		return nil
	}
	return c.u.cursor(args[i])
}

func (c *snapCursor) EnumIntegerType() clang.Type { return c.u.typ(c.rec.EnumType) }

func (c *snapCursor) EnumConstantValue() *big.Int {
	if c.rec.Value == nil {
		return nil
	}
	return new(big.Int).Set(&c.rec.Value.Int)
}

func (c *snapCursor) HasInitializer() bool { return c.rec.Initializer }

func (c *snapCursor) Evaluate() clang.EvalResult {
	e := c.rec.Eval
	if e == nil {
		return clang.Unexposed
	}
	res := clang.EvalResult{Kind: e.Kind, Float: e.Float, Str: e.Str}
	if e.Kind == clang.EvalFloat && e.Str != "" {
		if f, err := strconv.ParseFloat(e.Str, 64); err == nil {
			res.Float = f
		}
	}
	if e.Int != nil {
		res.Int = new(big.Int).Set(&e.Int.Int)
	}
	return res
}

func (c *snapCursor) FieldOffset() (int64, bool) {
	if c.rec.Offset == nil {
		return 0, false
	}
	return *c.rec.Offset, true
}

func (c *snapCursor) PropertyAttributes() clang.PropertyAttr {
	attrs, _ := clang.ParsePropertyAttrs(c.rec.Attributes)
	return attrs
}

// PropertyGetter falls back to the property name when no getter was recorded.
func (c *snapCursor) PropertyGetter() string {
	if c.rec.Getter != "" || c.rec.Kind != clang.CursorObjCPropertyDecl {
		return c.rec.Getter
	}
	return c.rec.Spelling
}

// PropertySetter falls back to the conventional setName: selector.
func (c *snapCursor) PropertySetter() string {
	if c.rec.Setter != "" || c.rec.Kind != clang.CursorObjCPropertyDecl || c.rec.Spelling == "" {
		return c.rec.Setter
	}
	name := c.rec.Spelling
	return "set" + strings.ToUpper(name[:1]) + name[1:] + ":"
}

func (c *snapCursor) Availability() clang.Availability { return c.rec.Availability }
