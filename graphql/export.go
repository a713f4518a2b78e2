// Package graphql renders a read-only GraphQL view of a schema, for tooling that browses
// account data over GraphQL.
package graphql

import (
	"fmt"

	"github.com/boynton/lumos"
	"github.com/boynton/lumos/util"
)

// Export renders schema as GraphQL SDL and checks that the result parses and that every
// referenced type is declared.
func Export(schema lumos.Schema, conf *util.Data) (string, error) {
	w := NewWriter(schema, conf)
	sdl := w.Generate()
	if w.Err != nil {
		return "", w.Err
	}
	if _, err := Verify(sdl); err != nil {
		return "", err
	}
	return sdl, nil
}

type Writer struct {
	lumos.Generator
	schema        lumos.Schema
	customScalars []string
	scalarSeen    map[string]bool
}

func NewWriter(schema lumos.Schema, conf *util.Data) *Writer {
	w := &Writer{
		schema:     schema,
		scalarSeen: make(map[string]bool),
	}
	w.Config = conf
	return w
}

func (w *Writer) Generate() string {
	w.Begin()
	w.EmitHeader("#", w.Config.GetString("source"))
	for _, td := range w.schema {
		switch td := td.(type) {
		case *lumos.StructDefinition:
			w.EmitObject(td.Name, td.Fields, nil)
		case *lumos.EnumDefinition:
			if len(td.Variants) == 0 {
				w.scalar(td.Name)
			} else if td.IsUnitOnly() {
				w.EmitEnum(td)
			} else {
				w.EmitUnion(td)
			}
		}
	}
	for _, name := range w.customScalars {
		w.Emitf("scalar %s\n", name)
	}
	return w.End()
}

// EmitObject writes an object type. Tuple slots become fields _0, _1 and so on. An
// object without fields gets a placeholder, since GraphQL requires at least one.
func (w *Writer) EmitObject(name string, fields []*lumos.FieldDefinition, types []lumos.TypeInfo) {
	w.Emitf("type %s {\n", name)
	if len(fields) == 0 && len(types) == 0 {
		w.Emit("  _empty: Boolean\n")
	}
	for i, t := range types {
		w.Emitf("  _%d: %s\n", i, w.typeRef(t))
	}
	for _, f := range fields {
		w.Emitf("  %s: %s\n", f.Name, w.typeRef(f.Type))
	}
	w.Emit("}\n\n")
}

func (w *Writer) EmitEnum(td *lumos.EnumDefinition) {
	w.Emitf("enum %s {\n", td.Name)
	for _, v := range td.Variants {
		w.Emitf("  %s\n", v.Name)
	}
	w.Emit("}\n\n")
}

// EmitUnion writes each variant as an object named <Enum><Variant>, then the union of them.
func (w *Writer) EmitUnion(td *lumos.EnumDefinition) {
	for _, v := range td.Variants {
		w.EmitObject(td.Name+v.Name, v.Fields, v.Types)
	}
	w.Emitf("union %s =\n", td.Name)
	for i, v := range td.Variants {
		if i > 0 {
			w.Emit("  | ")
		} else {
			w.Emit("    ")
		}
		w.Emitf("%s%s\n", td.Name, v.Name)
	}
	w.Emit("\n")
}

// typeRef is non-null unless t is an Option.
func (w *Writer) typeRef(t lumos.TypeInfo) string {
	if o, ok := t.(*lumos.Option); ok {
		return w.nullableRef(o.Elem)
	}
	return w.nullableRef(t) + "!"
}

func (w *Writer) nullableRef(t lumos.TypeInfo) string {
	switch t := t.(type) {
	case *lumos.Primitive:
		return w.scalarType(t.Name)
	case *lumos.UserDefined:
		return t.Name
	case *lumos.Array:
		return "[" + w.typeRef(t.Elem) + "]"
	case *lumos.Option:
		return w.nullableRef(t.Elem)
	}
	panic(fmt.Sprintf("unknown type info %T", t))
}

func (w *Writer) scalarType(name string) string {
	switch name {
	case "bool":
		return "Boolean"
	case "String":
		return "String"
	case "u8", "u16", "u32", "i8", "i16", "i32":
		return "Int"
	case "f32", "f64":
		return "Float"
	case "u64":
		return w.customScalar(name, "U64")
	case "i64":
		return w.customScalar(name, "I64")
	case "u128":
		return w.customScalar(name, "U128")
	case "i128":
		return w.customScalar(name, "I128")
	}
	return w.customScalar(name, name)
}

// customScalar names the scalar used for a primitive; "custom-scalars" in the config
// can rename it.
func (w *Writer) customScalar(name string, defaultName string) string {
	tname := w.Config.GetStringOr(defaultName, "custom-scalars", name)
	w.scalar(tname)
	return tname
}

func (w *Writer) scalar(name string) {
	if !w.scalarSeen[name] {
		w.scalarSeen[name] = true
		w.customScalars = append(w.customScalars, name)
	}
}
