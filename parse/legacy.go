package parse

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/boynton/lumos/ast"
	"github.com/boynton/lumos/errors"
	"github.com/boynton/lumos/util"
)

// LegacySchema is the single-struct TOML schema format:
//
//	name = "User"
//	solana = true
//
//	[[fields]]
//	name = "id"
//	type = "u64"
//	optional = false
type LegacySchema struct {
	Name   string        `toml:"name"`
	Solana bool          `toml:"solana"`
	Fields []LegacyField `toml:"fields"`
}

type LegacyField struct {
	Name     string `toml:"name"`
	Type     string `toml:"type"`
	Optional bool   `toml:"optional"`
}

// LegacyTOML converts a TOML schema into a one-struct AST. Field types use the same type
// syntax as declaration source, so "[u8]" and "Option<String>" are accepted.
func LegacyTOML(src string) (*ast.File, error) {
	var schema LegacySchema
	md, err := toml.Decode(src, &schema)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "invalid TOML schema"), errors.ErrSyntax)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Syntaxf("unknown key '%s' in TOML schema", undecoded[0].String())
	}
	if !util.IsSymbol(schema.Name) {
		return nil, errors.Syntaxf("TOML schema name %q is not a valid identifier", schema.Name)
	}
	def := &ast.StructDef{Name: schema.Name, Fields: make([]*ast.FieldDef, 0, len(schema.Fields))}
	if schema.Solana {
		def.Attributes = append(def.Attributes, &ast.Attribute{Name: "solana"})
	}
	seen := make(map[string]bool)
	for i, f := range schema.Fields {
		if !util.IsSymbol(f.Name) {
			return nil, errors.Syntaxf("field %d of %s: %q is not a valid identifier", i, schema.Name, f.Name)
		}
		if seen[f.Name] {
			return nil, errors.Structuref("Duplicate field '%s' in %s", f.Name, schema.Name)
		}
		seen[f.Name] = true
		t, err := typeFromString(f.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s.%s", schema.Name, f.Name)
		}
		field := &ast.FieldDef{Name: f.Name, Type: t, Optional: f.Optional}
		if opt, ok := t.(*ast.OptionType); ok {
			if f.Optional {
				return nil, errors.Syntaxf("Field '%s' is marked optional twice ('optional' and Option<...>)", f.Name)
			}
			field.Type = opt.Elem
			field.Optional = true
		}
		def.Fields = append(def.Fields, field)
	}
	return &ast.File{Items: []ast.Item{def}}, nil
}

func typeFromString(s string) (ast.TypeRef, error) {
	p := newParser("", s)
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if tok := p.getToken(); tok.Type != util.EOF {
		return nil, p.Error(fmt.Sprintf("Unexpected %s after type", describe(tok)))
	}
	return t, nil
}
