package lumos

import (
	"github.com/boynton/lumos/ast"
	"github.com/boynton/lumos/errors"
	"github.com/boynton/lumos/util"
)

// Transform converts a parsed file into a validated Schema. Every definition is
// normalized first, then all type references are checked against the full set of
// declared names, so forward and self references are legal.
func Transform(file *ast.File) (Schema, error) {
	if file == nil || len(file.Items) == 0 {
		return nil, errors.Mark(errors.New("No struct or enum definitions found"), errors.ErrNoDeclarations)
	}
	schema := make(Schema, 0, len(file.Items))
	for _, item := range file.Items {
		var td TypeDefinition
		switch item := item.(type) {
		case *ast.StructDef:
			td = transformStruct(item)
		case *ast.EnumDef:
			if len(item.Variants) == 0 {
				return nil, errors.Structuref("Enum '%s' must have at least one variant", item.Name)
			}
			td = transformEnum(item)
		default:
			return nil, errors.AssertionFailedf("unknown item type %T", item)
		}
		util.Debug("transformed ", td.TypeName())
		schema = append(schema, td)
	}
	if err := Validate(schema); err != nil {
		return nil, err
	}
	return schema, nil
}

func transformStruct(def *ast.StructDef) *StructDefinition {
	return &StructDefinition{
		Name:     def.Name,
		Fields:   transformFields(def.Fields),
		Metadata: extractMetadata(def.Attributes),
	}
}

func transformEnum(def *ast.EnumDef) *EnumDefinition {
	enum := &EnumDefinition{
		Name:     def.Name,
		Variants: make([]*VariantDefinition, 0, len(def.Variants)),
		Metadata: extractMetadata(def.Attributes),
	}
	for _, v := range def.Variants {
		vd := &VariantDefinition{Name: v.Name}
		switch v.Kind {
		case ast.UnitVariant:
			vd.Kind = UnitVariant
		case ast.TupleVariant:
			vd.Kind = TupleVariant
			vd.Types = make([]TypeInfo, 0, len(v.Types))
			for _, t := range v.Types {
				vd.Types = append(vd.Types, transformType(t))
			}
		case ast.StructVariant:
			vd.Kind = StructVariant
			vd.Fields = transformFields(v.Fields)
		}
		enum.Variants = append(enum.Variants, vd)
	}
	return enum
}

func transformFields(fields []*ast.FieldDef) []*FieldDefinition {
	defs := make([]*FieldDefinition, 0, len(fields))
	for _, f := range fields {
		t := transformType(f.Type)
		if f.Optional {
			t = &Option{Elem: t}
		}
		defs = append(defs, &FieldDefinition{Name: f.Name, Type: t, Optional: f.Optional})
	}
	return defs
}

// transformType resolves names against the primitive table. Unknown names become
// UserDefined references and are checked by Validate.
func transformType(t ast.TypeRef) TypeInfo {
	switch t := t.(type) {
	case *ast.NamedType:
		if canonical, ok := CanonicalPrimitive(t.Name); ok {
			return &Primitive{Name: canonical}
		}
		return &UserDefined{Name: t.Name}
	case *ast.ArrayType:
		return &Array{Elem: transformType(t.Elem)}
	case *ast.OptionType:
		return &Option{Elem: transformType(t.Elem)}
	}
	panic(errors.AssertionFailedf("unknown type reference %T", t))
}

func extractMetadata(attrs []*ast.Attribute) Metadata {
	md := Metadata{Attributes: make([]string, 0, len(attrs))}
	for _, a := range attrs {
		md.Attributes = append(md.Attributes, a.Name)
	}
	md.Solana = ast.HasAttribute(attrs, "solana")
	return md
}
