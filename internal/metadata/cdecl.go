package metadata

import (
	"strings"

	"objcmeta/internal/clang"
)

func processStruct(c clang.Cursor) StructDecl {
	t := c.Type()

	name := c.Spelling()
	if name == "" && t != nil {
		name = strings.TrimPrefix(t.Spelling(), "struct ")
	}

	var size int64
	if t != nil {
		size = t.SizeOf()
	}

	fields := []FieldDecl{}
	for _, child := range c.Children() {
		if child.Kind() != clang.CursorFieldDecl {
			continue
		}
		offset, ok := child.FieldOffset()
		if !ok {
			offset = 0
		}
		fields = append(fields, FieldDecl{
			Name:   child.Spelling(),
			Type:   describeType(child.Type()),
			Offset: offset,
		})
	}

	return StructDecl{
		Name:   name,
		File:   c.Location().File,
		Size:   size,
		Fields: fields,
	}
}

func processFunction(c clang.Cursor) (decl FunctionDecl, ok bool) {
	availability, ok := platformAvailability(c.Availability())
	if !ok {
		return FunctionDecl{}, false
	}
	return FunctionDecl{
		Name:         c.Spelling(),
		File:         c.Location().File,
		Parameters:   parameters(c),
		Result:       describeType(c.ResultType()),
		Availability: availability,
	}, true
}

// processVariable converts a global with an initializer. Declarations without
// one (extern) are skipped.
func processVariable(c clang.Cursor) (decl VarDecl, ok bool) {
	if !c.HasInitializer() {
		return VarDecl{}, false
	}
	return VarDecl{
		Name:  c.Spelling(),
		File:  c.Location().File,
		Type:  describeType(c.Type()),
		Value: evalValue(c.Evaluate()),
	}, true
}

func evalValue(res clang.EvalResult) Value {
	switch res.Kind {
	case clang.EvalInt:
		if res.Int == nil {
			return nil
		}
		return NewIntValue(res.Int)
	case clang.EvalFloat:
		return FloatValue(res.Float)
	case clang.EvalStrLiteral, clang.EvalObjCStrLit:
		return StringValue(res.Str)
	default:
		return nil
	}
}
