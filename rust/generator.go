// Package rust renders a schema as Rust declarations with Borsh (or Anchor)
// serialization. Structs derive it; enums get impls that write a u32 variant index.
package rust

import (
	"fmt"
	"strings"

	"github.com/boynton/lumos"
	"github.com/boynton/lumos/layout"
	"github.com/boynton/lumos/util"
)

// Anchor modes for the rust.anchor option. In auto mode the Anchor prelude is used when
// any struct is an #[account].
const (
	AnchorAuto   = "auto"
	AnchorAlways = "always"
	AnchorNever  = "never"
)

var rustKeywords = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true, "crate": true,
	"else": true, "enum": true, "extern": true, "false": true, "fn": true,
	"for": true, "if": true, "impl": true, "in": true, "let": true,
	"loop": true, "match": true, "mod": true, "move": true, "mut": true,
	"pub": true, "ref": true, "return": true, "self": true, "Self": true,
	"static": true, "struct": true, "super": true, "trait": true, "true": true,
	"type": true, "unsafe": true, "use": true, "where": true, "while": true,
	"async": true, "await": true, "dyn": true, "abstract": true, "become": true,
	"box": true, "do": true, "final": true, "macro": true, "override": true,
	"priv": true, "typeof": true, "unsized": true, "virtual": true, "yield": true,
	"try": true,
}

// toRustIdent escapes keywords as raw identifiers.
func toRustIdent(name string) string {
	switch name {
	case "self", "Self", "super", "crate":
		return name + "_"
	}
	if rustKeywords[name] {
		return "r#" + name
	}
	return name
}

type Generator struct {
	lumos.Generator
	Source string
	schema lumos.Schema
	sizes  *layout.Calculator
	anchor bool
	boxed  map[string]map[string]bool
}

// Generate renders the whole schema as one Rust module.
func Generate(schema lumos.Schema, conf *util.Data) string {
	gen := NewGenerator(schema, conf)
	return gen.Generate()
}

func NewGenerator(schema lumos.Schema, conf *util.Data) *Generator {
	gen := &Generator{schema: schema, sizes: layout.NewCalculator(schema)}
	gen.Config = conf
	gen.Source = conf.GetString("source")
	switch gen.Config.GetStringOr(AnchorAuto, "rust", "anchor") {
	case AnchorAlways:
		gen.anchor = true
	case AnchorNever:
		gen.anchor = false
	default:
		for _, td := range schema {
			if td.Meta().IsAccount() {
				gen.anchor = true
			}
		}
	}
	gen.boxed = recursiveEdges(schema)
	return gen
}

func (gen *Generator) Generate() string {
	gen.Begin()
	gen.EmitHeader("//", gen.Source)
	if len(gen.schema) > 0 {
		gen.EmitImports()
	}
	for _, td := range gen.schema {
		util.Debug("rust: emitting ", td.TypeName())
		gen.Emit("\n")
		switch td := td.(type) {
		case *lumos.StructDefinition:
			gen.EmitStruct(td)
		case *lumos.EnumDefinition:
			gen.EmitEnum(td)
		}
		gen.EmitSizeConstants(td)
	}
	return gen.End()
}

func (gen *Generator) usesPublicKey() bool {
	used := false
	for _, td := range gen.schema {
		lumos.FieldTypes(td, func(t lumos.TypeInfo) {
			lumos.Walk(t, func(t lumos.TypeInfo) {
				if p, ok := t.(*lumos.Primitive); ok && p.Name == "PublicKey" {
					used = true
				}
			})
		})
	}
	return used
}

// EmitImports writes only the use declarations the rendered types need.
func (gen *Generator) EmitImports() {
	if gen.anchor {
		gen.Emit("use anchor_lang::prelude::*;\n")
		return
	}
	gen.Emit("use borsh::{BorshDeserialize, BorshSerialize};\n")
	if gen.usesPublicKey() {
		gen.Emit("use solana_program::pubkey::Pubkey;\n")
	}
}

func (gen *Generator) derives() string {
	ser, de := gen.traits()
	return fmt.Sprintf("#[derive(%s, %s, Clone, Debug, PartialEq)]\n", ser, de)
}

// traits names the serialization traits in scope. The Anchor names are re-exports of
// the borsh traits.
func (gen *Generator) traits() (string, string) {
	if gen.anchor {
		return "AnchorSerialize", "AnchorDeserialize"
	}
	return "BorshSerialize", "BorshDeserialize"
}

// lints returns the allow attributes needed to keep rustc quiet about names that do not
// follow Rust conventions. Names are never rewritten since they are part of the schema.
func lints(typeNames []string, fieldNames []string) string {
	s := ""
	for _, n := range typeNames {
		if util.ToPascalCase(n) != n {
			s += "#[allow(non_camel_case_types)]\n"
			break
		}
	}
	for _, n := range fieldNames {
		if util.ToSnakeCase(n) != n {
			s += "#[allow(non_snake_case)]\n"
			break
		}
	}
	return s
}

func fieldNames(fields []*lumos.FieldDefinition) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}

func (gen *Generator) EmitStruct(td *lumos.StructDefinition) {
	gen.Emit(lints([]string{td.Name}, fieldNames(td.Fields)))
	if td.Metadata.IsAccount() && gen.anchor {
		gen.Emit("#[account]\n")
	} else {
		gen.Emit(gen.derives())
	}
	name := toRustIdent(td.Name)
	if len(td.Fields) == 0 {
		gen.Emitf("pub struct %s {}\n", name)
		return
	}
	gen.Emitf("pub struct %s {\n", name)
	for _, f := range td.Fields {
		gen.Emitf("    pub %s: %s,\n", toRustIdent(f.Name), gen.typeName(td.Name, f.Type))
	}
	gen.Emit("}\n")
}

func (gen *Generator) EmitEnum(td *lumos.EnumDefinition) {
	typeNames := []string{td.Name}
	var fields []string
	for _, v := range td.Variants {
		typeNames = append(typeNames, v.Name)
		fields = append(fields, fieldNames(v.Fields)...)
	}
	gen.Emit(lints(typeNames, fields))
	name := toRustIdent(td.Name)
	if len(td.Variants) == 0 {
		gen.Emitf("#[derive(Clone, Debug, PartialEq)]\npub enum %s {}\n", name)
		return
	}
	gen.Emit("#[derive(Clone, Debug, PartialEq)]\n")
	gen.Emitf("pub enum %s {\n", name)
	for _, v := range td.Variants {
		vname := toRustIdent(v.Name)
		switch v.Kind {
		case lumos.UnitVariant:
			gen.Emitf("    %s,\n", vname)
		case lumos.TupleVariant:
			types := make([]string, 0, len(v.Types))
			for _, t := range v.Types {
				types = append(types, gen.typeName(td.Name, t))
			}
			gen.Emitf("    %s(%s),\n", vname, strings.Join(types, ", "))
		case lumos.StructVariant:
			if len(v.Fields) == 0 {
				gen.Emitf("    %s {},\n", vname)
				continue
			}
			gen.Emitf("    %s {\n", vname)
			for _, f := range v.Fields {
				gen.Emitf("        %s: %s,\n", toRustIdent(f.Name), gen.typeName(td.Name, f.Type))
			}
			gen.Emit("    },\n")
		}
	}
	gen.Emit("}\n")
	gen.EmitEnumSerialize(td)
	gen.EmitEnumDeserialize(td)
}

// variantPattern binds the payload of v to v0, v1 and so on.
func variantPattern(v *lumos.VariantDefinition) string {
	name := "Self::" + toRustIdent(v.Name)
	switch v.Kind {
	case lumos.TupleVariant:
		binds := make([]string, 0, len(v.Types))
		for i := range v.Types {
			binds = append(binds, fmt.Sprintf("v%d", i))
		}
		return name + "(" + strings.Join(binds, ", ") + ")"
	case lumos.StructVariant:
		if len(v.Fields) == 0 {
			return name + " {}"
		}
		binds := make([]string, 0, len(v.Fields))
		for i, f := range v.Fields {
			binds = append(binds, fmt.Sprintf("%s: v%d", toRustIdent(f.Name), i))
		}
		return name + " { " + strings.Join(binds, ", ") + " }"
	}
	return name
}

func payloadCount(v *lumos.VariantDefinition) int {
	return len(v.Types) + len(v.Fields)
}

// EmitEnumSerialize writes the variant index as a little-endian u32 ahead of the payload.
// The derived borsh impls would write a single byte.
func (gen *Generator) EmitEnumSerialize(td *lumos.EnumDefinition) {
	ser, _ := gen.traits()
	gen.Emitf("\nimpl %s for %s {\n", ser, toRustIdent(td.Name))
	gen.Emit("    fn serialize<W: std::io::Write>(&self, writer: &mut W) -> std::io::Result<()> {\n")
	gen.Emit("        match self {\n")
	for i, v := range td.Variants {
		n := payloadCount(v)
		if n == 0 {
			gen.Emitf("            %s => %d%s.serialize(writer),\n", variantPattern(v), i, layout.EnumTagType)
			continue
		}
		gen.Emitf("            %s => {\n", variantPattern(v))
		gen.Emitf("                %d%s.serialize(writer)?;\n", i, layout.EnumTagType)
		for j := 0; j < n; j++ {
			if j == n-1 {
				gen.Emitf("                v%d.serialize(writer)\n", j)
			} else {
				gen.Emitf("                v%d.serialize(writer)?;\n", j)
			}
		}
		gen.Emit("            }\n")
	}
	gen.Emit("        }\n    }\n}\n")
}

func (gen *Generator) EmitEnumDeserialize(td *lumos.EnumDefinition) {
	_, de := gen.traits()
	read := de + "::deserialize_reader(reader)?"
	gen.Emitf("\nimpl %s for %s {\n", de, toRustIdent(td.Name))
	gen.Emit("    fn deserialize_reader<R: std::io::Read>(reader: &mut R) -> std::io::Result<Self> {\n")
	gen.Emitf("        let tag = %s::deserialize_reader(reader)?;\n", layout.EnumTagType)
	gen.Emit("        match tag {\n")
	for i, v := range td.Variants {
		name := "Self::" + toRustIdent(v.Name)
		switch {
		case v.Kind == lumos.TupleVariant && len(v.Types) > 0:
			gen.Emitf("            %d => Ok(%s(\n", i, name)
			for range v.Types {
				gen.Emitf("                %s,\n", read)
			}
			gen.Emit("            )),\n")
		case v.Kind == lumos.StructVariant && len(v.Fields) > 0:
			gen.Emitf("            %d => Ok(%s {\n", i, name)
			for _, f := range v.Fields {
				gen.Emitf("                %s: %s,\n", toRustIdent(f.Name), read)
			}
			gen.Emit("            }),\n")
		case v.Kind == lumos.TupleVariant:
			gen.Emitf("            %d => Ok(%s()),\n", i, name)
		case v.Kind == lumos.StructVariant:
			gen.Emitf("            %d => Ok(%s {}),\n", i, name)
		default:
			gen.Emitf("            %d => Ok(%s),\n", i, name)
		}
	}
	gen.Emit("            _ => Err(std::io::Error::new(\n")
	gen.Emit("                std::io::ErrorKind::InvalidData,\n")
	gen.Emitf("                format!(\"invalid %s variant {}\", tag),\n", td.Name)
	gen.Emit("            )),\n")
	gen.Emit("        }\n    }\n}\n")
}

// EmitSizeConstants writes the encoded size bounds of a type. For an #[account] struct
// the bounds include the discriminator in every anchor mode, so they are the account
// space rather than the length of the struct's own serialization.
func (gen *Generator) EmitSizeConstants(td lumos.TypeDefinition) {
	size, err := gen.sizes.DefinitionSize(td.TypeName())
	if err != nil {
		gen.Err = err
		return
	}
	gen.Emitf("\nimpl %s {\n", toRustIdent(td.TypeName()))
	if td.Meta().IsAccount() {
		gen.Emitf("    pub const DISCRIMINATOR_SIZE: usize = %d;\n", layout.DiscriminatorSize)
	}
	if size.IsFixed() {
		gen.Emitf("    pub const SIZE: usize = %d;\n", size.Min)
	} else {
		gen.Emitf("    pub const MIN_SIZE: usize = %d;\n", size.Min)
		if size.Bounded() {
			gen.Emitf("    pub const MAX_SIZE: usize = %d;\n", size.Max)
		}
	}
	gen.Emit("}\n")
}

// typeName renders t as it appears inside the declaration of owner.
func (gen *Generator) typeName(owner string, t lumos.TypeInfo) string {
	switch t := t.(type) {
	case *lumos.Primitive:
		if p, ok := lumos.LookupPrimitive(t.Name); ok {
			return p.Rust
		}
		return t.Name
	case *lumos.UserDefined:
		name := toRustIdent(t.Name)
		if gen.boxed[owner][t.Name] {
			return "Box<" + name + ">"
		}
		return name
	case *lumos.Array:
		return "Vec<" + gen.typeName("", t.Elem) + ">"
	case *lumos.Option:
		return "Option<" + gen.typeName(owner, t.Elem) + ">"
	}
	panic(fmt.Sprintf("unknown type info %T", t))
}

// recursiveEdges finds the references that make a type contain itself without a Vec in
// between. Those need a Box to give the Rust type a finite size.
func recursiveEdges(schema lumos.Schema) map[string]map[string]bool {
	direct := make(map[string][]string)
	for _, td := range schema {
		name := td.TypeName()
		lumos.FieldTypes(td, func(t lumos.TypeInfo) {
			for _, ref := range directRefs(t) {
				direct[name] = append(direct[name], ref)
			}
		})
	}
	reaches := func(from, to string) bool {
		seen := make(map[string]bool)
		stack := []string{from}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if n == to {
				return true
			}
			if seen[n] {
				continue
			}
			seen[n] = true
			stack = append(stack, direct[n]...)
		}
		return false
	}
	boxed := make(map[string]map[string]bool)
	for _, td := range schema {
		owner := td.TypeName()
		for _, ref := range direct[owner] {
			if reaches(ref, owner) {
				if boxed[owner] == nil {
					boxed[owner] = make(map[string]bool)
				}
				boxed[owner][ref] = true
			}
		}
	}
	return boxed
}

// directRefs lists user types embedded by value, i.e. not behind a Vec.
func directRefs(t lumos.TypeInfo) []string {
	switch t := t.(type) {
	case *lumos.UserDefined:
		return []string{t.Name}
	case *lumos.Option:
		return directRefs(t.Elem)
	}
	return nil
}
