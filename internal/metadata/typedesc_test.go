package metadata

import (
	"testing"

	"objcmeta/internal/clang"
)

func TestDescribeType_Pointer(t *testing.T) {
	desc := describeType(pointerTo(intType))

	if desc.CanonicalKind != clang.TypePointer {
		t.Errorf("CanonicalKind = %v, want %v", desc.CanonicalKind, clang.TypePointer)
	}
	if desc.PointeeType == nil {
		t.Fatal("PointeeType = nil, want descriptor")
	}
	if desc.PointeeType.CanonicalKind != clang.TypeInt {
		t.Errorf("PointeeType.CanonicalKind = %v, want %v", desc.PointeeType.CanonicalKind, clang.TypeInt)
	}
	if desc.ElementType != nil || desc.ArraySize != nil || desc.Block != nil {
		t.Errorf("pointer carries unexpected payload: %+v", desc)
	}
}

func TestDescribeType_Array(t *testing.T) {
	desc := describeType(arrayOf(doubleType, 4))

	if desc.ArraySize == nil || *desc.ArraySize != 4 {
		t.Fatalf("ArraySize = %v, want 4", desc.ArraySize)
	}
	if desc.ElementType == nil {
		t.Fatal("ElementType = nil, want descriptor")
	}
	if desc.ElementType.CanonicalKind != clang.TypeDouble {
		t.Errorf("ElementType.CanonicalKind = %v, want %v", desc.ElementType.CanonicalKind, clang.TypeDouble)
	}
	if desc.Size != 32 {
		t.Errorf("Size = %d, want 32", desc.Size)
	}
}

func TestDescribeType_ArraySize(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want *int64
	}{
		{"unknown length", -1, nil},
		{"zero length", 0, ptr(int64(0))},
		{"fixed length", 16, ptr(int64(16))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr := &fakeType{spelling: "char[]", kind: clang.TypeIncompleteArray, element: builtin("char", clang.TypeCharS, 1), arraySize: tt.size}
			got := describeType(arr).ArraySize

			switch {
			case tt.want == nil && got != nil:
				t.Errorf("ArraySize = %d, want absent", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("ArraySize = %v, want %d", got, *tt.want)
			}
		})
	}
}

func blockType() *fakeType {
	fn := &fakeType{
		spelling:  "int (int, int)",
		kind:      clang.TypeFunctionProto,
		size:      1,
		result:    intType,
		args:      []*fakeType{intType, intType},
		arraySize: -1,
	}
	return &fakeType{spelling: "int (^)(int, int)", kind: clang.TypeBlockPointer, size: 8, pointee: fn, arraySize: -1}
}

func TestDescribeType_Block(t *testing.T) {
	desc := describeType(blockType())

	if desc.Block == nil {
		t.Fatal("Block = nil, want signature")
	}
	if desc.Block.ReturnType == nil || desc.Block.ReturnType.Canonical != "int" {
		t.Errorf("Block.ReturnType = %+v, want canonical int", desc.Block.ReturnType)
	}
	if len(desc.Block.Parameters) != 2 {
		t.Fatalf("len(Block.Parameters) = %d, want 2", len(desc.Block.Parameters))
	}
	for i, p := range desc.Block.Parameters {
		if p.Canonical != "int" {
			t.Errorf("Block.Parameters[%d].Canonical = %q, want %q", i, p.Canonical, "int")
		}
	}
	if desc.PointeeType == nil || desc.PointeeType.Kind != clang.TypeFunctionProto {
		t.Errorf("PointeeType = %+v, want function prototype", desc.PointeeType)
	}
}

func TestDescribeType_TypedefBlock(t *testing.T) {
	block := blockType()
	handler := &fakeType{spelling: "Handler", kind: clang.TypeTypedef, size: 8, canonical: block, arraySize: -1}

	desc := describeType(handler)

	if desc.CanonicalKind != clang.TypeBlockPointer {
		t.Fatalf("CanonicalKind = %v, want %v", desc.CanonicalKind, clang.TypeBlockPointer)
	}
	if desc.Block == nil || len(desc.Block.Parameters) != 2 {
		t.Errorf("Block = %+v, want two parameters through the canonical type", desc.Block)
	}
}

func TestDescribeType_OpaquePointee(t *testing.T) {
	opaque := &fakeType{spelling: "struct Opaque", kind: clang.TypeRecord, size: -2, arraySize: -1}
	desc := describeType(pointerTo(opaque))

	if desc.PointeeType == nil {
		t.Fatal("PointeeType = nil, want descriptor for incomplete record")
	}
	if desc.PointeeType.Size != -2 {
		t.Errorf("PointeeType.Size = %d, want -2", desc.PointeeType.Size)
	}
}

func TestDescribeType_SelfReferentialRecord(t *testing.T) {
	node := &fakeType{spelling: "struct Node", kind: clang.TypeRecord, size: 16, arraySize: -1}
	next := pointerTo(node)

	desc := describeType(next)

	if desc.PointeeType == nil || desc.PointeeType.PointeeType != nil {
		t.Errorf("PointeeType = %+v, want a leaf record descriptor", desc.PointeeType)
	}
}

func TestDescribeType_Nil(t *testing.T) {
	desc := describeType(nil)
	if desc.Kind != clang.TypeInvalid {
		t.Errorf("Kind = %v, want %v", desc.Kind, clang.TypeInvalid)
	}
}

func ptr[T any](v T) *T { return &v }
