// Package metadata turns a parsed C/Objective-C translation unit into a flat,
// serializable description of its top-level declarations.
package metadata

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"objcmeta/internal/clang"
)

// TypeDescriptor is a normalized description of a type.
type TypeDescriptor struct {
	Name          string          `json:"name" yaml:"name"`
	Kind          clang.TypeKind  `json:"kind" yaml:"kind"`
	Canonical     string          `json:"canonical" yaml:"canonical"`
	CanonicalKind clang.TypeKind  `json:"canonicalKind" yaml:"canonicalKind"`
	Size          int64           `json:"size" yaml:"size"`
	ElementType   *TypeDescriptor `json:"elementType,omitempty" yaml:"elementType,omitempty"`
	PointeeType   *TypeDescriptor `json:"pointeeType,omitempty" yaml:"pointeeType,omitempty"`
	ArraySize     *int64          `json:"arraySize,omitempty" yaml:"arraySize,omitempty"`
	Block         *BlockSignature `json:"block,omitempty" yaml:"block,omitempty"`
}

// BlockSignature is the call signature of a block pointer.
type BlockSignature struct {
	ReturnType *TypeDescriptor  `json:"returnType,omitempty" yaml:"returnType,omitempty"`
	Parameters []TypeDescriptor `json:"parameters" yaml:"parameters"`
}

// ClassRef refers to an interface or protocol by name. The referent may not
// be part of the same document.
type ClassRef struct {
	Name string `json:"name" yaml:"name"`
	File string `json:"file" yaml:"file"`
}

// ParameterDecl is a function or method parameter.
type ParameterDecl struct {
	Name string         `json:"name" yaml:"name"`
	Type TypeDescriptor `json:"type" yaml:"type"`
}

// MethodDecl is an Objective-C method. Name is the full selector.
type MethodDecl struct {
	Name       string          `json:"name" yaml:"name"`
	Parameters []ParameterDecl `json:"parameters" yaml:"parameters"`
	Result     TypeDescriptor  `json:"result" yaml:"result"`
}

// PropertyDecl is an Objective-C property.
type PropertyDecl struct {
	Name      string         `json:"name" yaml:"name"`
	Type      TypeDescriptor `json:"type" yaml:"type"`
	Getter    string         `json:"getter" yaml:"getter"`
	Setter    string         `json:"setter" yaml:"setter"`
	Static    bool           `json:"static" yaml:"static"`
	Readonly  bool           `json:"readonly" yaml:"readonly"`
	Nonatomic bool           `json:"nonatomic" yaml:"nonatomic"`
	Weak      bool           `json:"weak" yaml:"weak"`
}

// InterfaceDecl is an @interface.
type InterfaceDecl struct {
	Name            string                       `json:"name" yaml:"name"`
	File            string                       `json:"file" yaml:"file"`
	Super           *ClassRef                    `json:"super" yaml:"super"`
	Properties      []PropertyDecl               `json:"properties" yaml:"properties"`
	InstanceMethods []MethodDecl                 `json:"instanceMethods" yaml:"instanceMethods"`
	ClassMethods    []MethodDecl                 `json:"classMethods" yaml:"classMethods"`
	Availability    []clang.PlatformAvailability `json:"availability" yaml:"availability"`
}

// CategoryDecl is an @interface Class (Category).
type CategoryDecl struct {
	Name            string                       `json:"name" yaml:"name"`
	File            string                       `json:"file" yaml:"file"`
	Interface       ClassRef                     `json:"interface" yaml:"interface"`
	Properties      []PropertyDecl               `json:"properties" yaml:"properties"`
	InstanceMethods []MethodDecl                 `json:"instanceMethods" yaml:"instanceMethods"`
	ClassMethods    []MethodDecl                 `json:"classMethods" yaml:"classMethods"`
	Availability    []clang.PlatformAvailability `json:"availability" yaml:"availability"`
}

// ProtocolDecl is an @protocol.
type ProtocolDecl struct {
	Name            string                       `json:"name" yaml:"name"`
	File            string                       `json:"file" yaml:"file"`
	Protocols       []ClassRef                   `json:"protocols" yaml:"protocols"`
	Properties      []PropertyDecl               `json:"properties" yaml:"properties"`
	InstanceMethods []MethodDecl                 `json:"instanceMethods" yaml:"instanceMethods"`
	ClassMethods    []MethodDecl                 `json:"classMethods" yaml:"classMethods"`
	Availability    []clang.PlatformAvailability `json:"availability" yaml:"availability"`
}

// EnumConstant is a named enumerator with its value in decimal.
type EnumConstant struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// EnumDecl is a named enum.
type EnumDecl struct {
	Name      string         `json:"name" yaml:"name"`
	File      string         `json:"file" yaml:"file"`
	Type      TypeDescriptor `json:"type" yaml:"type"`
	Constants []EnumConstant `json:"constants" yaml:"constants"`
}

// FieldDecl is a struct field. Offset is in bytes.
type FieldDecl struct {
	Name   string         `json:"name" yaml:"name"`
	Type   TypeDescriptor `json:"type" yaml:"type"`
	Offset int64          `json:"offset" yaml:"offset"`
}

// StructDecl is a struct definition or forward declaration.
type StructDecl struct {
	Name   string      `json:"name" yaml:"name"`
	File   string      `json:"file" yaml:"file"`
	Size   int64       `json:"size" yaml:"size"`
	Fields []FieldDecl `json:"fields" yaml:"fields"`
}

// FunctionDecl is a C function declaration.
type FunctionDecl struct {
	Name         string                       `json:"name" yaml:"name"`
	File         string                       `json:"file" yaml:"file"`
	Parameters   []ParameterDecl              `json:"parameters" yaml:"parameters"`
	Result       TypeDescriptor               `json:"result" yaml:"result"`
	Availability []clang.PlatformAvailability `json:"availability" yaml:"availability"`
}

// VarDecl is a global with a compile-time value. Value is nil when the
// initializer could not be evaluated to a supported kind.
type VarDecl struct {
	Name  string         `json:"name" yaml:"name"`
	File  string         `json:"file" yaml:"file"`
	Type  TypeDescriptor `json:"type" yaml:"type"`
	Value Value          `json:"value" yaml:"value"`
}

// Value is the compile-time value of a VarDecl: StringValue, FloatValue or IntValue.
type Value interface {
	isValue()
	String() string
}

// StringValue is a C or Objective-C string literal.
type StringValue string

// FloatValue is a double-precision value.
type FloatValue float64

// IntValue is an integer of arbitrary precision.
type IntValue struct {
	*big.Int
}

func (StringValue) isValue() {}
func (FloatValue) isValue()  {}
func (IntValue) isValue()    {}

func (v StringValue) String() string { return string(v) }

func (v FloatValue) String() string {
	return strconv.FormatFloat(float64(v), 'g', -1, 64)
}

// NewIntValue copies n into an IntValue.
func NewIntValue(n *big.Int) IntValue {
	return IntValue{new(big.Int).Set(n)}
}

// MarshalJSON encodes non-finite values as null. Finite values always carry a
// fraction or exponent so they decode back as floats.
func (v FloatValue) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

// MarshalYAML encodes non-finite values as null.
func (v FloatValue) MarshalYAML() (interface{}, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil
	}
	return f, nil
}

// MarshalYAML keeps the full precision of the integer.
func (v IntValue) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: v.Int.String()}, nil
}

// UnmarshalJSON restores the concrete Value kind from its JSON form.
func (d *VarDecl) UnmarshalJSON(data []byte) error {
	type plain VarDecl
	var raw struct {
		plain
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = VarDecl(raw.plain)
	value, err := decodeValue(raw.Value)
	if err != nil {
		return err
	}
	d.Value = value
	return nil
}

func decodeValue(data json.RawMessage) (Value, error) {
	text := strings.TrimSpace(string(data))
	if text == "" || text == "null" {
		return nil, nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return StringValue(s), nil
	}
	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float value %s: %w", text, err)
		}
		return FloatValue(f), nil
	}
	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer value %s", text)
	}
	return IntValue{n}, nil
}

// Document is the extraction result: seven lists in source order.
type Document struct {
	Variables  []VarDecl       `json:"variables" yaml:"variables"`
	Enums      []EnumDecl      `json:"enums" yaml:"enums"`
	Structs    []StructDecl    `json:"structs" yaml:"structs"`
	Functions  []FunctionDecl  `json:"functions" yaml:"functions"`
	Interfaces []InterfaceDecl `json:"interfaces" yaml:"interfaces"`
	Categories []CategoryDecl  `json:"categories" yaml:"categories"`
	Protocols  []ProtocolDecl  `json:"protocols" yaml:"protocols"`
}

// NewDocument returns a document with every list allocated, so that empty
// lists serialize as [] rather than null.
func NewDocument() *Document {
	return &Document{
		Variables:  []VarDecl{},
		Enums:      []EnumDecl{},
		Structs:    []StructDecl{},
		Functions:  []FunctionDecl{},
		Interfaces: []InterfaceDecl{},
		Categories: []CategoryDecl{},
		Protocols:  []ProtocolDecl{},
	}
}

// Stats counts the records of each list.
type Stats struct {
	Variables  int `json:"variables"`
	Enums      int `json:"enums"`
	Structs    int `json:"structs"`
	Functions  int `json:"functions"`
	Interfaces int `json:"interfaces"`
	Categories int `json:"categories"`
	Protocols  int `json:"protocols"`
}

// Total is the number of records across all lists.
func (s Stats) Total() int {
	return s.Variables + s.Enums + s.Structs + s.Functions + s.Interfaces + s.Categories + s.Protocols
}

// Stats returns the record counts of the document.
func (d *Document) Stats() Stats {
	return Stats{
		Variables:  len(d.Variables),
		Enums:      len(d.Enums),
		Structs:    len(d.Structs),
		Functions:  len(d.Functions),
		Interfaces: len(d.Interfaces),
		Categories: len(d.Categories),
		Protocols:  len(d.Protocols),
	}
}
