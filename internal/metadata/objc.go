package metadata

import "objcmeta/internal/clang"

// processInterface converts an @interface. ok is false when availability
// excludes it.
func processInterface(c clang.Cursor) (decl InterfaceDecl, ok bool) {
	availability, ok := platformAvailability(c.Availability())
	if !ok {
		return InterfaceDecl{}, false
	}

	var super *ClassRef
	m := newMembers()
	for _, child := range c.Children() {
		if m.add(child) {
			continue
		}
		if child.Kind() == clang.CursorObjCSuperClassRef {
			ref := classRef(child)
			super = &ref
		}
	}

	return InterfaceDecl{
		Name:            c.Spelling(),
		File:            c.Location().File,
		Super:           super,
		Properties:      m.properties,
		InstanceMethods: m.instanceMethods,
		ClassMethods:    m.classMethods,
		Availability:    availability,
	}, true
}

// processCategory converts a category. The extended class defaults to an
// empty reference when the cursor has no class reference child.
func processCategory(c clang.Cursor) (decl CategoryDecl, ok bool) {
	availability, ok := platformAvailability(c.Availability())
	if !ok {
		return CategoryDecl{}, false
	}

	var extended ClassRef
	m := newMembers()
	for _, child := range c.Children() {
		if m.add(child) {
			continue
		}
		if child.Kind() == clang.CursorObjCClassRef {
			extended = classRef(child)
		}
	}

	return CategoryDecl{
		Name:            c.Spelling(),
		File:            c.Location().File,
		Interface:       extended,
		Properties:      m.properties,
		InstanceMethods: m.instanceMethods,
		ClassMethods:    m.classMethods,
		Availability:    availability,
	}, true
}

func processProtocol(c clang.Cursor) (decl ProtocolDecl, ok bool) {
	availability, ok := platformAvailability(c.Availability())
	if !ok {
		return ProtocolDecl{}, false
	}

	protocols := []ClassRef{}
	m := newMembers()
	for _, child := range c.Children() {
		if m.add(child) {
			continue
		}
		if child.Kind() == clang.CursorObjCProtocolRef {
			protocols = append(protocols, classRef(child))
		}
	}

	return ProtocolDecl{
		Name:            c.Spelling(),
		File:            c.Location().File,
		Protocols:       protocols,
		Properties:      m.properties,
		InstanceMethods: m.instanceMethods,
		ClassMethods:    m.classMethods,
		Availability:    availability,
	}, true
}
