package clang

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input   string
		want    Version
		wantErr bool
	}{
		{"10.15", Version{10, 15}, false},
		{"13.0.1", Version{13, 0, 1}, false},
		{"10_9", Version{10, 9}, false},
		{"  11 ", Version{11}, false},
		{"", nil, false},
		{"ten", nil, true},
		{"1.-2", nil, true},
		{"..", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVersion(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVersion(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseVersion(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestVersionJSON(t *testing.T) {
	entry := PlatformAvailability{Platform: "macos", Introduced: Version{10, 15}}

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"platform":"macos","introduced":"10.15","unavailable":false}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var back PlatformAvailability
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(back, entry) {
		t.Errorf("Unmarshal() = %+v, want %+v", back, entry)
	}
}

func TestPropertyAttr(t *testing.T) {
	attrs, unknown := ParsePropertyAttrs([]string{"nonatomic", " readonly", "class", "fancy"})

	if len(unknown) != 1 || unknown[0] != "fancy" {
		t.Errorf("unknown = %v, want [fancy]", unknown)
	}
	if attrs != PropertyNonatomic|PropertyReadonly|PropertyClass {
		t.Errorf("attrs = %#x, want %#x", attrs, PropertyNonatomic|PropertyReadonly|PropertyClass)
	}
	if attrs.Has(PropertyWeak) {
		t.Error("Has(PropertyWeak) = true, want false")
	}
	if got := attrs.Names(); !reflect.DeepEqual(got, []string{"readonly", "nonatomic", "class"}) {
		t.Errorf("Names() = %v, want [readonly nonatomic class]", got)
	}
}

func TestTypeKindClasses(t *testing.T) {
	tests := []struct {
		kind     TypeKind
		pointer  bool
		array    bool
		integer  bool
		floating bool
	}{
		{TypePointer, true, false, false, false},
		{TypeBlockPointer, true, false, false, false},
		{TypeObjCObjectPointer, true, false, false, false},
		{TypeConstantArray, false, true, false, false},
		{TypeIncompleteArray, false, true, false, false},
		{TypeULongLong, false, false, true, false},
		{TypeCharS, false, false, true, false},
		{TypeDouble, false, false, false, true},
		{TypeRecord, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.IsPointerLike(); got != tt.pointer {
				t.Errorf("IsPointerLike() = %v, want %v", got, tt.pointer)
			}
			if got := tt.kind.IsArray(); got != tt.array {
				t.Errorf("IsArray() = %v, want %v", got, tt.array)
			}
			if got := tt.kind.IsInteger(); got != tt.integer {
				t.Errorf("IsInteger() = %v, want %v", got, tt.integer)
			}
			if got := tt.kind.IsFloating(); got != tt.floating {
				t.Errorf("IsFloating() = %v, want %v", got, tt.floating)
			}
		})
	}
}

func TestCursorKindValid(t *testing.T) {
	if !CursorObjCCategoryDecl.Valid() {
		t.Error("ObjCCategoryDecl.Valid() = false, want true")
	}
	if CursorKind("CXXMethod").Valid() {
		t.Error("CXXMethod.Valid() = true, want false")
	}
}
