package metadata

import (
	"math/big"
	"strings"

	"objcmeta/internal/clang"
)

// unnamedMarker appears in the type spelling of anonymous declarations.
const unnamedMarker = "(unnamed at "

// enumResult is the outcome of processing one enum: the enum itself, absent
// when no constant stayed attached, and the constants hoisted to variables.
type enumResult struct {
	decl    *EnumDecl
	hoisted []VarDecl
}

func processEnum(c clang.Cursor) enumResult {
	name := enumName(c)
	file := c.Location().File
	underlying := describeType(c.EnumIntegerType())

	constants := []EnumConstant{}
	var hoisted []VarDecl
	for _, child := range c.Children() {
		if child.Kind() != clang.CursorEnumConstantDecl {
			continue
		}
		value := enumValue(child)
		if name == "" {
			hoisted = append(hoisted, VarDecl{
				Name:  child.Spelling(),
				File:  file,
				Type:  underlying,
				Value: IntValue{value},
			})
			continue
		}
		constants = append(constants, EnumConstant{Name: child.Spelling(), Value: value.String()})
	}

	res := enumResult{hoisted: hoisted}
	if len(constants) > 0 {
		res.decl = &EnumDecl{
			Name:      name,
			File:      file,
			Type:      underlying,
			Constants: constants,
		}
	}
	return res
}

func enumName(c clang.Cursor) string {
	name := c.Spelling()
	if name == "" {
		if t := c.Type(); t != nil {
			name = t.Spelling()
		}
	}
	if strings.Contains(name, unnamedMarker) {
		return ""
	}
	return name
}

func enumValue(c clang.Cursor) *big.Int {
	v := c.EnumConstantValue()
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
