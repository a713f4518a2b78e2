package lumos

import (
	"strings"

	json "github.com/goccy/go-json"
)

// Schema is the validated, ordered list of type definitions produced by Transform.
// Consumers must treat it as read-only.
type Schema []TypeDefinition

// Find returns the definition with the given name, or nil.
func (schema Schema) Find(name string) TypeDefinition {
	for _, td := range schema {
		if td.TypeName() == name {
			return td
		}
	}
	return nil
}

// Names returns the declared type names in declaration order.
func (schema Schema) Names() []string {
	names := make([]string, 0, len(schema))
	for _, td := range schema {
		names = append(names, td.TypeName())
	}
	return names
}

// TypeDefinition is either a *StructDefinition or an *EnumDefinition.
type TypeDefinition interface {
	TypeName() string
	Meta() Metadata
	isTypeDefinition()
}

type Metadata struct {
	// Solana is set by the #[solana] attribute.
	Solana bool `json:"solana"`
	// Attributes holds the names of all attributes on the declaration, in source order.
	Attributes []string `json:"attributes"`
}

func (m Metadata) Has(attr string) bool {
	for _, a := range m.Attributes {
		if a == attr {
			return true
		}
	}
	return false
}

// IsAccount reports whether the type carries #[account] and so gets an 8-byte discriminator.
func (m Metadata) IsAccount() bool {
	return m.Has("account")
}

type StructDefinition struct {
	Name     string             `json:"name"`
	Fields   []*FieldDefinition `json:"fields"`
	Metadata Metadata           `json:"metadata"`
}

func (s *StructDefinition) TypeName() string { return s.Name }
func (s *StructDefinition) Meta() Metadata   { return s.Metadata }
func (*StructDefinition) isTypeDefinition()  {}

type EnumDefinition struct {
	Name     string               `json:"name"`
	Variants []*VariantDefinition `json:"variants"`
	Metadata Metadata             `json:"metadata"`
}

func (e *EnumDefinition) TypeName() string { return e.Name }
func (e *EnumDefinition) Meta() Metadata   { return e.Metadata }
func (*EnumDefinition) isTypeDefinition()  {}

// IsUnitOnly reports whether every variant is a unit variant.
func (e *EnumDefinition) IsUnitOnly() bool {
	for _, v := range e.Variants {
		if v.Kind != UnitVariant {
			return false
		}
	}
	return true
}

type VariantKind int

const (
	UnitVariant VariantKind = iota
	TupleVariant
	StructVariant
)

func (k VariantKind) String() string {
	switch k {
	case UnitVariant:
		return "unit"
	case TupleVariant:
		return "tuple"
	case StructVariant:
		return "struct"
	}
	return "?"
}

func (k VariantKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// VariantDefinition is one enum alternative; its discriminant is its index in the enum.
type VariantDefinition struct {
	Kind   VariantKind        `json:"kind"`
	Name   string             `json:"name"`
	Types  []TypeInfo         `json:"types,omitempty"`
	Fields []*FieldDefinition `json:"fields,omitempty"`
}

// FieldDefinition is a named, typed slot. When Optional is set, Type is an *Option.
type FieldDefinition struct {
	Name     string   `json:"name"`
	Type     TypeInfo `json:"type"`
	Optional bool     `json:"optional,omitempty"`
}

// TypeInfo is the closed set of resolved types: *Primitive, *UserDefined, *Array, *Option.
type TypeInfo interface {
	isTypeInfo()
}

// Primitive holds a canonical primitive name; aliases never appear here.
type Primitive struct {
	Name string
}

type UserDefined struct {
	Name string
}

type Array struct {
	Elem TypeInfo
}

type Option struct {
	Elem TypeInfo
}

func (*Primitive) isTypeInfo()   {}
func (*UserDefined) isTypeInfo() {}
func (*Array) isTypeInfo()       {}
func (*Option) isTypeInfo()      {}

func (t *Primitive) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"primitive": t.Name})
}

func (t *UserDefined) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"user_defined": t.Name})
}

func (t *Array) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]TypeInfo{"array": t.Elem})
}

func (t *Option) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]TypeInfo{"option": t.Elem})
}

// TypeString renders a TypeInfo in declaration syntax, e.g. "Option<[u8]>".
func TypeString(t TypeInfo) string {
	var buf strings.Builder
	writeType(&buf, t)
	return buf.String()
}

func writeType(buf *strings.Builder, t TypeInfo) {
	switch t := t.(type) {
	case *Primitive:
		buf.WriteString(t.Name)
	case *UserDefined:
		buf.WriteString(t.Name)
	case *Array:
		buf.WriteString("[")
		writeType(buf, t.Elem)
		buf.WriteString("]")
	case *Option:
		buf.WriteString("Option<")
		writeType(buf, t.Elem)
		buf.WriteString(">")
	}
}

// Walk calls fn for t and every TypeInfo nested within it, outermost first.
func Walk(t TypeInfo, fn func(TypeInfo)) {
	fn(t)
	switch t := t.(type) {
	case *Array:
		Walk(t.Elem, fn)
	case *Option:
		Walk(t.Elem, fn)
	}
}

// FieldTypes calls fn for every field and tuple slot type in td, in declaration order.
func FieldTypes(td TypeDefinition, fn func(TypeInfo)) {
	switch td := td.(type) {
	case *StructDefinition:
		for _, f := range td.Fields {
			fn(f.Type)
		}
	case *EnumDefinition:
		for _, v := range td.Variants {
			for _, t := range v.Types {
				fn(t)
			}
			for _, f := range v.Fields {
				fn(f.Type)
			}
		}
	}
}

type structJSON struct {
	Kind string `json:"kind"`
	*StructDefinition
}

type enumJSON struct {
	Kind string `json:"kind"`
	*EnumDefinition
}

// MarshalJSON tags each definition with its kind so dumps are self-describing.
func (schema Schema) MarshalJSON() ([]byte, error) {
	out := make([]interface{}, 0, len(schema))
	for _, td := range schema {
		switch td := td.(type) {
		case *StructDefinition:
			out = append(out, structJSON{Kind: "struct", StructDefinition: td})
		case *EnumDefinition:
			out = append(out, enumJSON{Kind: "enum", EnumDefinition: td})
		}
	}
	return json.Marshal(out)
}
