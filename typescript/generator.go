// Package typescript renders a schema as TypeScript interfaces plus @coral-xyz/borsh
// layouts that decode the bytes written by the generated Rust types.
package typescript

import (
	"fmt"
	"strings"

	"github.com/boynton/lumos"
	"github.com/boynton/lumos/layout"
	"github.com/boynton/lumos/util"
)

const indent = "  "

// lazyLayout defers resolving a schema constant until the first encode or decode, so a
// layout can refer to itself or to a type declared further down.
const lazyLayout = `
class LazyLayout<T> extends BufferLayout<T> {
  constructor(private readonly target: () => borsh.Layout<T>, property?: string) {
    super(-1, property);
  }

  decode(b: Buffer, offset = 0): T {
    return this.target().decode(b, offset);
  }

  encode(src: T, b: Buffer, offset = 0): number {
    return this.target().encode(src, b, offset);
  }

  getSpan(b: Buffer, offset = 0): number {
    return this.target().getSpan(b, offset);
  }
}

function lazy<T>(target: () => borsh.Layout<T>, property?: string): borsh.Layout<T> {
  return new LazyLayout(target, property);
}
`

type Generator struct {
	lumos.Generator
	Source string
	schema lumos.Schema
	// position is the declaration index of every type; current is the one being emitted.
	position map[string]int
	current  int
}

// Generate renders the whole schema as one TypeScript module.
func Generate(schema lumos.Schema, conf *util.Data) string {
	gen := NewGenerator(schema, conf)
	return gen.Generate()
}

func NewGenerator(schema lumos.Schema, conf *util.Data) *Generator {
	gen := &Generator{schema: schema, position: make(map[string]int, len(schema))}
	for i, td := range schema {
		gen.position[td.TypeName()] = i
	}
	gen.Config = conf
	gen.Source = conf.GetString("source")
	return gen
}

func (gen *Generator) Generate() string {
	gen.Begin()
	gen.EmitHeader("//", gen.Source)
	gen.EmitImports()
	if gen.hasAccounts() {
		gen.Emitf("\nexport const ACCOUNT_DISCRIMINATOR_SIZE = %d;\n", layout.DiscriminatorSize)
	}
	if gen.needsLazy() {
		gen.Emit(lazyLayout)
	}
	for i, td := range gen.schema {
		util.Debug("typescript: emitting ", td.TypeName())
		gen.current = i
		gen.Emit("\n")
		switch td := td.(type) {
		case *lumos.StructDefinition:
			gen.EmitInterface(td)
			gen.Emit("\n")
			gen.EmitStructSchema(td)
			if td.Metadata.IsAccount() {
				gen.Emit("\n")
				gen.EmitAccountSchema(td)
			}
		case *lumos.EnumDefinition:
			gen.EmitUnion(td)
			if len(td.Variants) > 0 {
				gen.Emit("\n")
				gen.EmitEnumSchema(td)
			}
		}
	}
	return gen.End()
}

// usesType reports whether any field, at any depth, has a primitive decoded as tsType.
func (gen *Generator) usesType(tsType string) bool {
	used := false
	for _, td := range gen.schema {
		lumos.FieldTypes(td, func(t lumos.TypeInfo) {
			lumos.Walk(t, func(t lumos.TypeInfo) {
				if p, ok := t.(*lumos.Primitive); ok && TypeName(p) == tsType {
					used = true
				}
			})
		})
	}
	return used
}

func (gen *Generator) hasAccounts() bool {
	for _, td := range gen.schema {
		if _, ok := td.(*lumos.StructDefinition); ok && td.Meta().IsAccount() {
			return true
		}
	}
	return false
}

// deferred reports whether a reference to name, made while emitting the current type,
// points at a constant that is not initialized yet.
func (gen *Generator) deferred(name string) bool {
	pos, ok := gen.position[name]
	return ok && pos >= gen.current
}

func (gen *Generator) needsLazy() bool {
	for i, td := range gen.schema {
		found := false
		lumos.FieldTypes(td, func(t lumos.TypeInfo) {
			lumos.Walk(t, func(t lumos.TypeInfo) {
				if u, ok := t.(*lumos.UserDefined); ok && gen.position[u.Name] >= i {
					found = true
				}
			})
		})
		if found {
			return true
		}
	}
	return false
}

// needsBorsh is false when nothing but empty enums is declared, since those get no layout.
func (gen *Generator) needsBorsh() bool {
	for _, td := range gen.schema {
		if e, ok := td.(*lumos.EnumDefinition); ok && len(e.Variants) == 0 {
			continue
		}
		return true
	}
	return false
}

func (gen *Generator) EmitImports() {
	if gen.usesType("BN") {
		gen.Emit("import BN from 'bn.js';\n")
	}
	if gen.usesType("PublicKey") {
		gen.Emit("import { PublicKey } from '@solana/web3.js';\n")
	}
	if gen.needsBorsh() {
		gen.Emit("import * as borsh from '@coral-xyz/borsh';\n")
	}
	if gen.needsLazy() {
		gen.Emit("import { Layout as BufferLayout } from 'buffer-layout';\n")
	}
}

func (gen *Generator) EmitInterface(td *lumos.StructDefinition) {
	if len(td.Fields) == 0 {
		gen.Emitf("export interface %s {}\n", td.Name)
		return
	}
	gen.Emitf("export interface %s {\n", td.Name)
	for _, f := range td.Fields {
		gen.Emitf("%s%s;\n", indent, fieldDecl(f))
	}
	gen.Emit("}\n")
}

func fieldDecl(f *lumos.FieldDefinition) string {
	if f.Optional {
		return fmt.Sprintf("%s?: %s", f.Name, TypeName(f.Type))
	}
	return fmt.Sprintf("%s: %s", f.Name, TypeName(f.Type))
}

func (gen *Generator) EmitStructSchema(td *lumos.StructDefinition) {
	gen.Emitf("export const %sSchema = borsh.struct(%s);\n", td.Name, gen.layoutList(nil, td.Fields, nil, indent))
}

// EmitAccountSchema writes the layout of the raw account data: the discriminator, then
// the fields. XSchema itself stays the layout used when X is embedded in another type.
func (gen *Generator) EmitAccountSchema(td *lumos.StructDefinition) {
	gen.Emitf("export interface %sAccount extends %s {\n", td.Name, td.Name)
	gen.Emitf("%sdiscriminator: number[];\n}\n\n", indent)
	prefix := []string{"borsh.array(borsh.u8(), ACCOUNT_DISCRIMINATOR_SIZE, 'discriminator')"}
	gen.Emitf("export const %sAccountSchema = borsh.struct(%s);\n", td.Name, gen.layoutList(prefix, td.Fields, nil, indent))
}

// EmitUnion writes the enum as a discriminated union on "kind". Tuple slots are named
// _0, _1 and so on, matching the property names in the layout.
func (gen *Generator) EmitUnion(td *lumos.EnumDefinition) {
	if len(td.Variants) == 0 {
		gen.Emitf("export type %s = never;\n", td.Name)
		return
	}
	gen.Emitf("export type %s =\n", td.Name)
	for i, v := range td.Variants {
		parts := []string{fmt.Sprintf("kind: '%s'", v.Name)}
		for j, t := range v.Types {
			parts = append(parts, fmt.Sprintf("_%d: %s", j, TypeName(t)))
		}
		for _, f := range v.Fields {
			parts = append(parts, fieldDecl(f))
		}
		term := ""
		if i == len(td.Variants)-1 {
			term = ";"
		}
		gen.Emitf("%s| { %s }%s\n", indent, strings.Join(parts, "; "), term)
	}
}

// EmitEnumSchema passes an explicit discriminant layout; rustEnum would otherwise read a
// single byte.
func (gen *Generator) EmitEnumSchema(td *lumos.EnumDefinition) {
	gen.Emitf("export const %sSchema = borsh.rustEnum([\n", td.Name)
	for _, v := range td.Variants {
		gen.Emitf("%sborsh.struct(%s, '%s'),\n", indent, gen.layoutList(nil, v.Fields, v.Types, indent+indent), v.Name)
	}
	gen.Emitf("], undefined, %s);\n", Layout(&lumos.Primitive{Name: layout.EnumTagType}, ""))
}

// layoutList renders the property layouts of a struct body: prefix entries, tuple
// slots, then fields.
func (gen *Generator) layoutList(prefix []string, fields []*lumos.FieldDefinition, types []lumos.TypeInfo, pad string) string {
	if len(prefix) == 0 && len(fields) == 0 && len(types) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteString("[\n")
	for _, p := range prefix {
		fmt.Fprintf(&b, "%s%s,\n", pad, p)
	}
	for i, t := range types {
		fmt.Fprintf(&b, "%s%s,\n", pad, layoutOf(t, fmt.Sprintf("_%d", i), gen.deferred))
	}
	for _, f := range fields {
		fmt.Fprintf(&b, "%s%s,\n", pad, layoutOf(f.Type, f.Name, gen.deferred))
	}
	b.WriteString(pad[:len(pad)-len(indent)])
	b.WriteString("]")
	return b.String()
}

// TypeName is the TypeScript type of a decoded value.
func TypeName(t lumos.TypeInfo) string {
	switch t := t.(type) {
	case *lumos.Primitive:
		if p, ok := lumos.LookupPrimitive(t.Name); ok {
			return p.TypeScript
		}
		return t.Name
	case *lumos.UserDefined:
		return t.Name
	case *lumos.Array:
		elem := TypeName(t.Elem)
		if strings.Contains(elem, " ") {
			elem = "(" + elem + ")"
		}
		return elem + "[]"
	case *lumos.Option:
		return TypeName(t.Elem) + " | undefined"
	}
	panic(fmt.Sprintf("unknown type info %T", t))
}

// Layout is the borsh layout expression for t. An empty property gives an element
// layout, as used inside vec and option.
func Layout(t lumos.TypeInfo, property string) string {
	return layoutOf(t, property, nil)
}

// layoutOf wraps references to the types deferred reports in a lazy layout.
func layoutOf(t lumos.TypeInfo, property string, deferred func(string) bool) string {
	switch t := t.(type) {
	case *lumos.Primitive:
		p, ok := lumos.LookupPrimitive(t.Name)
		if !ok {
			panic(fmt.Sprintf("not a canonical primitive: %s", t.Name))
		}
		if p.Borsh == "array" {
			return fmt.Sprintf("borsh.array(borsh.u8(), %d%s)", p.Size, propertyArg(property))
		}
		return fmt.Sprintf("borsh.%s(%s)", p.Borsh, quote(property))
	case *lumos.UserDefined:
		if deferred != nil && deferred(t.Name) {
			return fmt.Sprintf("lazy(() => %sSchema%s)", t.Name, propertyArg(property))
		}
		if property == "" {
			return t.Name + "Schema"
		}
		return fmt.Sprintf("%sSchema.replicate(%s)", t.Name, quote(property))
	case *lumos.Array:
		return fmt.Sprintf("borsh.vec(%s%s)", layoutOf(t.Elem, "", deferred), propertyArg(property))
	case *lumos.Option:
		return fmt.Sprintf("borsh.option(%s%s)", layoutOf(t.Elem, "", deferred), propertyArg(property))
	}
	panic(fmt.Sprintf("unknown type info %T", t))
}

func quote(s string) string {
	if s == "" {
		return ""
	}
	return "'" + s + "'"
}

func propertyArg(property string) string {
	if property == "" {
		return ""
	}
	return ", " + quote(property)
}
