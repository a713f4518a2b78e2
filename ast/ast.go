// Package ast holds the syntax tree produced by the parser. Type references are left
// unresolved; the distinction between primitives and user types is made later.
package ast

import (
	"strconv"
)

// Pos is a 1-based source position.
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// File is an ordered list of schema items.
type File struct {
	Items []Item
}

// Item is either a *StructDef or an *EnumDef.
type Item interface {
	ItemName() string
	ItemAttributes() []*Attribute
	ItemPos() Pos
	isItem()
}

type StructDef struct {
	Name       string
	Attributes []*Attribute
	Fields     []*FieldDef
	Pos        Pos
}

func (s *StructDef) ItemName() string             { return s.Name }
func (s *StructDef) ItemAttributes() []*Attribute { return s.Attributes }
func (s *StructDef) ItemPos() Pos                 { return s.Pos }
func (*StructDef) isItem()                        {}

type EnumDef struct {
	Name       string
	Attributes []*Attribute
	Variants   []*Variant
	Pos        Pos
}

func (e *EnumDef) ItemName() string             { return e.Name }
func (e *EnumDef) ItemAttributes() []*Attribute { return e.Attributes }
func (e *EnumDef) ItemPos() Pos                 { return e.Pos }
func (*EnumDef) isItem()                        {}

// IsUnitOnly reports whether no variant carries a payload.
func (e *EnumDef) IsUnitOnly() bool {
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

// Variant is one alternative of an enum. Types is set for tuple variants, Fields for
// struct variants; a unit variant has neither.
type Variant struct {
	Kind   VariantKind
	Name   string
	Types  []TypeRef
	Fields []*FieldDef
	Pos    Pos
}

type FieldDef struct {
	Name       string
	Type       TypeRef
	Optional   bool
	Attributes []*Attribute
	Pos        Pos
}

// TypeRef is the closed set of type expressions: *NamedType, *ArrayType, *OptionType.
type TypeRef interface {
	String() string
	isTypeRef()
}

// NamedType is a bare identifier; it may name a primitive, an alias, or a user type.
type NamedType struct {
	Name string
	Pos  Pos
}

func (t *NamedType) String() string { return t.Name }
func (*NamedType) isTypeRef()       {}

type ArrayType struct {
	Elem TypeRef
}

func (t *ArrayType) String() string { return "[" + t.Elem.String() + "]" }
func (*ArrayType) isTypeRef()       {}

// OptionType is an Option<T> that is not the outermost type of a field; the outermost
// one is folded into FieldDef.Optional.
type OptionType struct {
	Elem TypeRef
}

func (t *OptionType) String() string { return "Option<" + t.Elem.String() + ">" }
func (*OptionType) isTypeRef()       {}

type AttributeValueKind int

const (
	StringValue AttributeValueKind = iota
	IntegerValue
	BoolValue
)

type AttributeValue struct {
	Kind    AttributeValueKind
	String  string
	Integer uint64
	Bool    bool
}

func (v *AttributeValue) Text() string {
	switch v.Kind {
	case IntegerValue:
		return strconv.FormatUint(v.Integer, 10)
	case BoolValue:
		return strconv.FormatBool(v.Bool)
	}
	return v.String
}

// Attribute is #[name] or #[name(value)].
type Attribute struct {
	Name  string
	Value *AttributeValue
}

func (a *Attribute) String() string {
	if a.Value == nil {
		return "#[" + a.Name + "]"
	}
	if a.Value.Kind == StringValue {
		return "#[" + a.Name + "(" + strconv.Quote(a.Value.String) + ")]"
	}
	return "#[" + a.Name + "(" + a.Value.Text() + ")]"
}

func GetAttribute(attrs []*Attribute, name string) *Attribute {
	for _, a := range attrs {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func HasAttribute(attrs []*Attribute, name string) bool {
	return GetAttribute(attrs, name) != nil
}
