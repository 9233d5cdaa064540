package export

import (
	"fmt"
	"strconv"
	"strings"

	"objcmeta/internal/metadata"
)

// EntryKind classifies an organized record or member.
type EntryKind string

const (
	KindVariable    EntryKind = "variable"
	KindEnum        EntryKind = "enum"
	KindStruct      EntryKind = "struct"
	KindFunction    EntryKind = "function"
	KindInterface   EntryKind = "interface"
	KindCategory    EntryKind = "category"
	KindProtocol    EntryKind = "protocol"
	KindField       EntryKind = "field"
	KindConstant    EntryKind = "constant"
	KindProperty    EntryKind = "property"
	KindMethod      EntryKind = "method"
	KindClassMethod EntryKind = "classMethod"
)

// RelationKind is how an entry refers to another type.
type RelationKind string

const (
	RelationSuper    RelationKind = "super"
	RelationProtocol RelationKind = "protocol"
	RelationExtends  RelationKind = "extends"
)

// Relation links an entry to a class or protocol by name.
type Relation struct {
	Kind RelationKind
	Name string
}

// Member is a field, enum constant, property or method of an entry.
type Member struct {
	Kind      EntryKind
	Name      string
	Signature string
}

// Entry is one top-level record with a printable signature.
type Entry struct {
	Kind      EntryKind
	Name      string
	Signature string
	Members   []Member
	Relations []Relation
}

// FileGroup holds the entries declared in one file.
type FileGroup struct {
	Path    string
	Entries []Entry
}

// Organizer groups the records of a document by declaring file.
type Organizer struct {
	doc *metadata.Document
}

// NewOrganizer creates an organizer for doc.
func NewOrganizer(doc *metadata.Document) *Organizer {
	return &Organizer{doc: doc}
}

// Organize returns one group per file in order of first appearance. Within a
// file, entries keep the document's list order.
func (o *Organizer) Organize() []FileGroup {
	var groups []FileGroup
	index := make(map[string]int)
	add := func(file string, e Entry) {
		i, ok := index[file]
		if !ok {
			i = len(groups)
			index[file] = i
			groups = append(groups, FileGroup{Path: file})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}

	doc := o.doc
	for _, v := range doc.Variables {
		add(v.File, Entry{Kind: KindVariable, Name: v.Name, Signature: variableSignature(v)})
	}
	for _, e := range doc.Enums {
		entry := Entry{Kind: KindEnum, Name: e.Name, Signature: fmt.Sprintf("enum %s : %s", e.Name, e.Type.Name)}
		for _, c := range e.Constants {
			entry.Members = append(entry.Members, Member{Kind: KindConstant, Name: c.Name, Signature: c.Name + " = " + c.Value})
		}
		add(e.File, entry)
	}
	for _, s := range doc.Structs {
		entry := Entry{Kind: KindStruct, Name: s.Name, Signature: structSignature(s)}
		for _, f := range s.Fields {
			entry.Members = append(entry.Members, Member{
				Kind:      KindField,
				Name:      f.Name,
				Signature: fmt.Sprintf("%s @%d", declaration(f.Type.Name, f.Name), f.Offset),
			})
		}
		add(s.File, entry)
	}
	for _, f := range doc.Functions {
		add(f.File, Entry{Kind: KindFunction, Name: f.Name, Signature: functionSignature(f)})
	}
	for _, i := range doc.Interfaces {
		entry := Entry{Kind: KindInterface, Name: i.Name, Signature: "@interface " + i.Name}
		if i.Super != nil {
			entry.Signature += " : " + i.Super.Name
			entry.Relations = append(entry.Relations, Relation{Kind: RelationSuper, Name: i.Super.Name})
		}
		entry.Members = objcMembers(i.Properties, i.InstanceMethods, i.ClassMethods)
		add(i.File, entry)
	}
	for _, c := range doc.Categories {
		entry := Entry{
			Kind:      KindCategory,
			Name:      c.Interface.Name + "(" + c.Name + ")",
			Signature: fmt.Sprintf("@interface %s (%s)", c.Interface.Name, c.Name),
			Members:   objcMembers(c.Properties, c.InstanceMethods, c.ClassMethods),
		}
		if c.Interface.Name != "" {
			entry.Relations = append(entry.Relations, Relation{Kind: RelationExtends, Name: c.Interface.Name})
		}
		add(c.File, entry)
	}
	for _, p := range doc.Protocols {
		entry := Entry{Kind: KindProtocol, Name: p.Name, Signature: "@protocol " + p.Name}
		if len(p.Protocols) > 0 {
			names := make([]string, len(p.Protocols))
			for i, ref := range p.Protocols {
				names[i] = ref.Name
				entry.Relations = append(entry.Relations, Relation{Kind: RelationProtocol, Name: ref.Name})
			}
			entry.Signature += " <" + strings.Join(names, ", ") + ">"
		}
		entry.Members = objcMembers(p.Properties, p.InstanceMethods, p.ClassMethods)
		add(p.File, entry)
	}

	return groups
}

func objcMembers(props []metadata.PropertyDecl, instance, class []metadata.MethodDecl) []Member {
	var out []Member
	for _, p := range props {
		out = append(out, Member{Kind: KindProperty, Name: p.Name, Signature: propertySignature(p)})
	}
	for _, m := range instance {
		out = append(out, Member{Kind: KindMethod, Name: m.Name, Signature: methodSignature("-", m)})
	}
	for _, m := range class {
		out = append(out, Member{Kind: KindClassMethod, Name: m.Name, Signature: methodSignature("+", m)})
	}
	return out
}

// declaration joins a type spelling and a name the way C declares them.
func declaration(typeName, name string) string {
	if name == "" {
		return typeName
	}
	if strings.HasSuffix(typeName, "*") {
		return typeName + name
	}
	return typeName + " " + name
}

func variableSignature(v metadata.VarDecl) string {
	sig := declaration(v.Type.Name, v.Name)
	switch value := v.Value.(type) {
	case nil:
	case metadata.StringValue:
		sig += " = " + strconv.Quote(string(value))
	default:
		sig += " = " + value.String()
	}
	return sig
}

func structSignature(s metadata.StructDecl) string {
	if s.Size < 0 {
		return fmt.Sprintf("struct %s (incomplete)", s.Name)
	}
	return fmt.Sprintf("struct %s (%d bytes)", s.Name, s.Size)
}

func functionSignature(f metadata.FunctionDecl) string {
	params := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		params[i] = declaration(p.Type.Name, p.Name)
	}
	list := strings.Join(params, ", ")
	if list == "" {
		list = "void"
	}
	return fmt.Sprintf("%s(%s)", declaration(f.Result.Name, f.Name), list)
}

func methodSignature(prefix string, m metadata.MethodDecl) string {
	sig := fmt.Sprintf("%s (%s)", prefix, m.Result.Name)
	if len(m.Parameters) == 0 {
		return sig + m.Name
	}
	parts := strings.SplitAfter(m.Name, ":")
	var b strings.Builder
	b.WriteString(sig)
	for i, p := range m.Parameters {
		if i > 0 {
			b.WriteString(" ")
		}
		if i < len(parts) {
			b.WriteString(parts[i])
		}
		fmt.Fprintf(&b, "(%s)%s", p.Type.Name, p.Name)
	}
	return b.String()
}

func propertySignature(p metadata.PropertyDecl) string {
	var attrs []string
	if p.Static {
		attrs = append(attrs, "class")
	}
	if p.Nonatomic {
		attrs = append(attrs, "nonatomic")
	}
	if p.Readonly {
		attrs = append(attrs, "readonly")
	}
	if p.Weak {
		attrs = append(attrs, "weak")
	}
	if p.Getter != "" && p.Getter != p.Name {
		attrs = append(attrs, "getter="+p.Getter)
	}
	sig := "@property "
	if len(attrs) > 0 {
		sig += "(" + strings.Join(attrs, ", ") + ") "
	}
	return sig + declaration(p.Type.Name, p.Name)
}
