// Package layout computes Borsh encoded sizes for a schema and encodes values to the
// same byte layout the generated Rust and TypeScript code use.
package layout

import (
	"fmt"

	"github.com/boynton/lumos"
	"github.com/boynton/lumos/errors"
)

// Unbounded is the Max of a Size with no upper limit.
const Unbounded = -1

// DiscriminatorSize is the prefix reserved ahead of an #[account] struct.
const DiscriminatorSize = 8

// EnumTagSize is the width of the little-endian variant index, and EnumTagType the
// primitive both generators spell it with.
const (
	EnumTagSize = 4
	EnumTagType = "u32"
)

// LengthPrefixSize is the width of the little-endian length of a String or array.
const LengthPrefixSize = 4

// Size is the range of encoded lengths a type can take.
type Size struct {
	Min int
	Max int
}

func Fixed(n int) Size {
	return Size{Min: n, Max: n}
}

func (s Size) IsFixed() bool {
	return s.Max == s.Min
}

func (s Size) Bounded() bool {
	return s.Max != Unbounded
}

// Plus is the size of s followed by o.
func (s Size) Plus(o Size) Size {
	r := Size{Min: s.Min + o.Min, Max: Unbounded}
	if s.Bounded() && o.Bounded() {
		r.Max = s.Max + o.Max
	}
	return r
}

// Or is the size of a value that is either s or o.
func (s Size) Or(o Size) Size {
	r := Size{Min: s.Min, Max: s.Max}
	if o.Min < r.Min {
		r.Min = o.Min
	}
	if !s.Bounded() || !o.Bounded() {
		r.Max = Unbounded
	} else if o.Max > r.Max {
		r.Max = o.Max
	}
	return r
}

func (s Size) String() string {
	switch {
	case s.IsFixed():
		return fmt.Sprintf("%d bytes", s.Min)
	case s.Bounded():
		return fmt.Sprintf("%d..%d bytes", s.Min, s.Max)
	}
	return fmt.Sprintf(">= %d bytes", s.Min)
}

// Calculator sizes types of one schema. It is not safe for concurrent use.
type Calculator struct {
	schema     lumos.Schema
	cache      map[string]Size
	inProgress map[string]bool
}

func NewCalculator(schema lumos.Schema) *Calculator {
	return &Calculator{
		schema:     schema,
		cache:      make(map[string]Size),
		inProgress: make(map[string]bool),
	}
}

// SizeOf returns the encoded size of a value of type t.
func SizeOf(schema lumos.Schema, t lumos.TypeInfo) Size {
	return NewCalculator(schema).TypeSize(t)
}

// SizeOfType returns the size of a stored value of the named type, including the
// discriminator of an #[account] struct.
func SizeOfType(schema lumos.Schema, name string) (Size, error) {
	return NewCalculator(schema).DefinitionSize(name)
}

func (c *Calculator) DefinitionSize(name string) (Size, error) {
	td := c.schema.Find(name)
	if td == nil {
		return Size{}, errors.Newf("unknown type '%s'", name)
	}
	size := c.named(name)
	if td.Meta().IsAccount() {
		size = Fixed(DiscriminatorSize).Plus(size)
	}
	return size, nil
}

func (c *Calculator) TypeSize(t lumos.TypeInfo) Size {
	switch t := t.(type) {
	case *lumos.Primitive:
		return PrimitiveSize(t.Name)
	case *lumos.UserDefined:
		return c.named(t.Name)
	case *lumos.Array:
		return Size{Min: LengthPrefixSize, Max: Unbounded}
	case *lumos.Option:
		return Size{Min: 1, Max: 1}.Or(Fixed(1).Plus(c.TypeSize(t.Elem)))
	}
	panic(errors.AssertionFailedf("unknown type info %T", t))
}

// PrimitiveSize looks a canonical name up in the shared primitive table.
func PrimitiveSize(name string) Size {
	p, ok := lumos.LookupPrimitive(name)
	if !ok {
		panic(errors.AssertionFailedf("not a canonical primitive: %s", name))
	}
	if !p.Fixed() {
		return Size{Min: LengthPrefixSize, Max: Unbounded}
	}
	return Fixed(p.Size)
}

// named sizes a referenced definition. Embedded accounts carry no discriminator; a
// recursive reference contributes an unknown amount.
func (c *Calculator) named(name string) Size {
	if size, ok := c.cache[name]; ok {
		return size
	}
	if c.inProgress[name] {
		return Size{Min: 0, Max: Unbounded}
	}
	td := c.schema.Find(name)
	if td == nil {
		return Size{Min: 0, Max: Unbounded}
	}
	c.inProgress[name] = true
	var size Size
	switch td := td.(type) {
	case *lumos.StructDefinition:
		size = c.fieldsSize(td.Fields)
	case *lumos.EnumDefinition:
		size = c.enumSize(td)
	}
	delete(c.inProgress, name)
	if len(c.inProgress) == 0 {
		c.cache[name] = size
	}
	return size
}

func (c *Calculator) fieldsSize(fields []*lumos.FieldDefinition) Size {
	size := Fixed(0)
	for _, f := range fields {
		size = size.Plus(c.TypeSize(f.Type))
	}
	return size
}

func (c *Calculator) VariantSize(v *lumos.VariantDefinition) Size {
	size := Fixed(0)
	for _, t := range v.Types {
		size = size.Plus(c.TypeSize(t))
	}
	return size.Plus(c.fieldsSize(v.Fields))
}

func (c *Calculator) enumSize(e *lumos.EnumDefinition) Size {
	if len(e.Variants) == 0 {
		return Fixed(EnumTagSize)
	}
	payload := c.VariantSize(e.Variants[0])
	for _, v := range e.Variants[1:] {
		payload = payload.Or(c.VariantSize(v))
	}
	return Fixed(EnumTagSize).Plus(payload)
}

// FieldSize is one row of a size breakdown.
type FieldSize struct {
	Name string
	Type string
	Size Size
}

// Breakdown lists the contribution of each part of the named type: the discriminator of
// an account, each struct field, or the enum tag followed by every variant payload.
func Breakdown(schema lumos.Schema, name string) ([]FieldSize, error) {
	c := NewCalculator(schema)
	td := schema.Find(name)
	if td == nil {
		return nil, errors.Newf("unknown type '%s'", name)
	}
	var rows []FieldSize
	switch td := td.(type) {
	case *lumos.StructDefinition:
		if td.Metadata.IsAccount() {
			rows = append(rows, FieldSize{Name: "discriminator", Type: "[u8; 8]", Size: Fixed(DiscriminatorSize)})
		}
		for _, f := range td.Fields {
			rows = append(rows, FieldSize{Name: f.Name, Type: lumos.TypeString(f.Type), Size: c.TypeSize(f.Type)})
		}
	case *lumos.EnumDefinition:
		rows = append(rows, FieldSize{Name: "discriminant", Type: EnumTagType, Size: Fixed(EnumTagSize)})
		for _, v := range td.Variants {
			rows = append(rows, FieldSize{Name: v.Name, Type: v.Kind.String(), Size: c.VariantSize(v)})
		}
	}
	return rows, nil
}
