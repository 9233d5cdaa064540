package clang

// CursorKind is the kind tag of a cursor. Values use libclang's spelling.
type CursorKind string

const (
	CursorUnexposed              CursorKind = "UnexposedDecl"
	CursorTranslationUnit        CursorKind = "TranslationUnit"
	CursorStructDecl             CursorKind = "StructDecl"
	CursorUnionDecl              CursorKind = "UnionDecl"
	CursorEnumDecl               CursorKind = "EnumDecl"
	CursorFieldDecl              CursorKind = "FieldDecl"
	CursorEnumConstantDecl       CursorKind = "EnumConstantDecl"
	CursorFunctionDecl           CursorKind = "FunctionDecl"
	CursorVarDecl                CursorKind = "VarDecl"
	CursorParmDecl               CursorKind = "ParmDecl"
	CursorTypedefDecl            CursorKind = "TypedefDecl"
	CursorObjCInterfaceDecl      CursorKind = "ObjCInterfaceDecl"
	CursorObjCCategoryDecl       CursorKind = "ObjCCategoryDecl"
	CursorObjCProtocolDecl       CursorKind = "ObjCProtocolDecl"
	CursorObjCPropertyDecl       CursorKind = "ObjCPropertyDecl"
	CursorObjCIvarDecl           CursorKind = "ObjCIvarDecl"
	CursorObjCInstanceMethodDecl CursorKind = "ObjCInstanceMethodDecl"
	CursorObjCClassMethodDecl    CursorKind = "ObjCClassMethodDecl"
	CursorObjCSuperClassRef      CursorKind = "ObjCSuperClassRef"
	CursorObjCProtocolRef        CursorKind = "ObjCProtocolRef"
	CursorObjCClassRef           CursorKind = "ObjCClassRef"
	CursorTypeRef                CursorKind = "TypeRef"
	CursorMacroDefinition        CursorKind = "MacroDefinition"
	CursorInclusionDirective     CursorKind = "InclusionDirective"
)

var cursorKinds = map[CursorKind]bool{
	CursorUnexposed:              true,
	CursorTranslationUnit:        true,
	CursorStructDecl:             true,
	CursorUnionDecl:              true,
	CursorEnumDecl:               true,
	CursorFieldDecl:              true,
	CursorEnumConstantDecl:       true,
	CursorFunctionDecl:           true,
	CursorVarDecl:                true,
	CursorParmDecl:               true,
	CursorTypedefDecl:            true,
	CursorObjCInterfaceDecl:      true,
	CursorObjCCategoryDecl:       true,
	CursorObjCProtocolDecl:       true,
	CursorObjCPropertyDecl:       true,
	CursorObjCIvarDecl:           true,
	CursorObjCInstanceMethodDecl: true,
	CursorObjCClassMethodDecl:    true,
	CursorObjCSuperClassRef:      true,
	CursorObjCProtocolRef:        true,
	CursorObjCClassRef:           true,
	CursorTypeRef:                true,
	CursorMacroDefinition:        true,
	CursorInclusionDirective:     true,
}

// Valid reports whether k is a known cursor kind.
func (k CursorKind) Valid() bool {
	return cursorKinds[k]
}

// TypeKind is the kind of a type, spelled the way libclang spells it.
type TypeKind string

const (
	TypeInvalid           TypeKind = "Invalid"
	TypeUnexposed         TypeKind = "Unexposed"
	TypeVoid              TypeKind = "Void"
	TypeBool              TypeKind = "Bool"
	TypeCharU             TypeKind = "Char_U"
	TypeUChar             TypeKind = "UChar"
	TypeUShort            TypeKind = "UShort"
	TypeUInt              TypeKind = "UInt"
	TypeULong             TypeKind = "ULong"
	TypeULongLong         TypeKind = "ULongLong"
	TypeCharS             TypeKind = "Char_S"
	TypeSChar             TypeKind = "SChar"
	TypeShort             TypeKind = "Short"
	TypeInt               TypeKind = "Int"
	TypeLong              TypeKind = "Long"
	TypeLongLong          TypeKind = "LongLong"
	TypeFloat             TypeKind = "Float"
	TypeDouble            TypeKind = "Double"
	TypeLongDouble        TypeKind = "LongDouble"
	TypeObjCID            TypeKind = "ObjCId"
	TypeObjCClass         TypeKind = "ObjCClass"
	TypeObjCSel           TypeKind = "ObjCSel"
	TypePointer           TypeKind = "Pointer"
	TypeBlockPointer      TypeKind = "BlockPointer"
	TypeLValueReference   TypeKind = "LValueReference"
	TypeRValueReference   TypeKind = "RValueReference"
	TypeRecord            TypeKind = "Record"
	TypeEnum              TypeKind = "Enum"
	TypeTypedef           TypeKind = "Typedef"
	TypeObjCInterface     TypeKind = "ObjCInterface"
	TypeObjCObjectPointer TypeKind = "ObjCObjectPointer"
	TypeObjCObject        TypeKind = "ObjCObject"
	TypeObjCTypeParam     TypeKind = "ObjCTypeParam"
	TypeFunctionNoProto   TypeKind = "FunctionNoProto"
	TypeFunctionProto     TypeKind = "FunctionProto"
	TypeConstantArray     TypeKind = "ConstantArray"
	TypeIncompleteArray   TypeKind = "IncompleteArray"
	TypeVariableArray     TypeKind = "VariableArray"
	TypeVector            TypeKind = "Vector"
	TypeExtVector         TypeKind = "ExtVector"
	TypeElaborated        TypeKind = "Elaborated"
	TypeAttributed        TypeKind = "Attributed"
	TypeAtomic            TypeKind = "Atomic"
)

// IsPointerLike reports whether types of this kind carry a pointee.
func (k TypeKind) IsPointerLike() bool {
	switch k {
	case TypePointer, TypeBlockPointer, TypeLValueReference, TypeRValueReference, TypeObjCObjectPointer:
		return true
	}
	return false
}

// IsArray reports whether types of this kind carry an element type.
func (k TypeKind) IsArray() bool {
	switch k {
	case TypeConstantArray, TypeIncompleteArray, TypeVariableArray, TypeVector, TypeExtVector:
		return true
	}
	return false
}

// IsInteger reports whether k is a builtin integer kind.
func (k TypeKind) IsInteger() bool {
	switch k {
	case TypeBool, TypeCharU, TypeUChar, TypeUShort, TypeUInt, TypeULong, TypeULongLong,
		TypeCharS, TypeSChar, TypeShort, TypeInt, TypeLong, TypeLongLong:
		return true
	}
	return false
}

// IsFloating reports whether k is a builtin floating-point kind.
func (k TypeKind) IsFloating() bool {
	switch k {
	case TypeFloat, TypeDouble, TypeLongDouble:
		return true
	}
	return false
}
