package lumos

import (
	"fmt"
	"strings"
	"text/template"
)

const indentAmount = "    "

// SourceGenerator renders a Schema back into declaration source in canonical form:
// one attribute per line, four-space indent, optional fields written as "name?: T".
type SourceGenerator struct {
	Generator
	Schema Schema
}

// Unparse returns the canonical source for schema. Compiling the result yields an equal
// Schema, except that attribute arguments are not kept in the IR and so are not printed.
func Unparse(schema Schema) (string, error) {
	g := &SourceGenerator{Schema: schema}
	src := g.Generate()
	if g.Err != nil {
		return "", g.Err
	}
	return src, nil
}

func (g *SourceGenerator) Generate() string {
	funcMap := template.FuncMap{
		"attributes": func(td TypeDefinition) string {
			var s strings.Builder
			for _, a := range td.Meta().Attributes {
				fmt.Fprintf(&s, "#[%s]\n", a)
			}
			return s.String()
		},
		"definition": func(td TypeDefinition) string {
			switch td := td.(type) {
			case *StructDefinition:
				return "struct " + td.Name + " " + fieldBlock(td.Fields, "")
			case *EnumDefinition:
				return "enum " + td.Name + " " + variantBlock(td.Variants)
			}
			return ""
		},
	}
	g.Begin()
	g.EmitTemplate("lumos", sourceTemplate, g.Schema, funcMap)
	return g.End()
}

func fieldBlock(fields []*FieldDefinition, indent string) string {
	if len(fields) == 0 {
		return "{}"
	}
	s := "{\n"
	for _, f := range fields {
		s += indent + indentAmount + fieldSource(f) + ",\n"
	}
	return s + indent + "}"
}

func fieldSource(f *FieldDefinition) string {
	if opt, ok := f.Type.(*Option); ok && f.Optional {
		if _, nested := opt.Elem.(*Option); !nested {
			return fmt.Sprintf("%s?: %s", f.Name, TypeString(opt.Elem))
		}
	}
	return fmt.Sprintf("%s: %s", f.Name, TypeString(f.Type))
}

func variantBlock(variants []*VariantDefinition) string {
	if len(variants) == 0 {
		return "{}"
	}
	s := "{\n"
	for _, v := range variants {
		s += indentAmount + v.Name
		switch v.Kind {
		case TupleVariant:
			types := make([]string, 0, len(v.Types))
			for _, t := range v.Types {
				types = append(types, TypeString(t))
			}
			s += "(" + strings.Join(types, ", ") + ")"
		case StructVariant:
			s += " " + fieldBlock(v.Fields, indentAmount)
		}
		s += ",\n"
	}
	return s + "}"
}

const sourceTemplate = `{{range $i, $td := .}}{{if $i}}
{{end}}{{attributes $td}}{{definition $td}}
{{end}}`
