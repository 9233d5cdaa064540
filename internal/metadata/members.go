package metadata

import "objcmeta/internal/clang"

// members accumulates the properties and methods of an Objective-C container.
type members struct {
	properties      []PropertyDecl
	instanceMethods []MethodDecl
	classMethods    []MethodDecl
}

func newMembers() members {
	return members{
		properties:      []PropertyDecl{},
		instanceMethods: []MethodDecl{},
		classMethods:    []MethodDecl{},
	}
}

// add records child if it is a property or method. It reports whether the
// child was consumed.
func (m *members) add(child clang.Cursor) bool {
	switch child.Kind() {
	case clang.CursorObjCPropertyDecl:
		m.properties = append(m.properties, processProperty(child))
	case clang.CursorObjCInstanceMethodDecl:
		m.instanceMethods = append(m.instanceMethods, processMethod(child))
	case clang.CursorObjCClassMethodDecl:
		m.classMethods = append(m.classMethods, processMethod(child))
	default:
		return false
	}
	return true
}

func processProperty(c clang.Cursor) PropertyDecl {
	attrs := c.PropertyAttributes()
	return PropertyDecl{
		Name:      c.Spelling(),
		Type:      describeType(c.Type()),
		Getter:    c.PropertyGetter(),
		Setter:    c.PropertySetter(),
		Static:    attrs&clang.PropertyClass != 0,
		Readonly:  attrs&clang.PropertyReadonly != 0,
		Nonatomic: attrs&clang.PropertyNonatomic != 0,
		Weak:      attrs&clang.PropertyWeak != 0,
	}
}

func processMethod(c clang.Cursor) MethodDecl {
	return MethodDecl{
		Name:       c.Spelling(),
		Parameters: parameters(c),
		Result:     describeType(c.ResultType()),
	}
}

// parameters describes the arguments of a function or method in order.
func parameters(c clang.Cursor) []ParameterDecl {
	n := c.NumArguments()
	params := make([]ParameterDecl, 0, max(n, 0))
	for i := 0; i < n; i++ {
		arg := c.Argument(i)
		if arg == nil {
			params = append(params, ParameterDecl{Type: describeType(nil)})
			continue
		}
		params = append(params, ParameterDecl{
			Name: arg.Spelling(),
			Type: describeType(arg.Type()),
		})
	}
	return params
}

func classRef(c clang.Cursor) ClassRef {
	return ClassRef{Name: c.Spelling(), File: c.Location().File}
}
