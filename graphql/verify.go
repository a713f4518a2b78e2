package graphql

import (
	"github.com/boynton/lumos/errors"

	gql_ast "github.com/graphql-go/graphql/language/ast"
	gql_parser "github.com/graphql-go/graphql/language/parser"
	gql_source "github.com/graphql-go/graphql/language/source"
)

var builtinScalars = map[string]bool{
	"Int":     true,
	"Float":   true,
	"String":  true,
	"Boolean": true,
	"ID":      true,
}

// Verify parses a GraphQL document and checks that every field and union member names a
// declared or built-in type.
func Verify(sdl string) (*gql_ast.Document, error) {
	doc, err := gql_parser.Parse(gql_parser.ParseParams{
		Source: &gql_source.Source{
			Body: []byte(sdl),
			Name: "GraphQL",
		},
		Options: gql_parser.ParseOptions{
			NoLocation: true,
		},
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "cannot parse generated GraphQL"), errors.ErrCodeGen)
	}
	declared := make(map[string]bool)
	for _, def := range doc.Definitions {
		switch tdef := def.(type) {
		case *gql_ast.ObjectDefinition:
			declared[tdef.Name.Value] = true
		case *gql_ast.EnumDefinition:
			declared[tdef.Name.Value] = true
		case *gql_ast.UnionDefinition:
			declared[tdef.Name.Value] = true
		case *gql_ast.ScalarDefinition:
			declared[tdef.Name.Value] = true
		}
	}
	check := func(owner, name string) error {
		if declared[name] || builtinScalars[name] {
			return nil
		}
		return errors.Mark(errors.Newf("GraphQL type '%s' used in '%s' is not declared", name, owner), errors.ErrCodeGen)
	}
	for _, def := range doc.Definitions {
		switch tdef := def.(type) {
		case *gql_ast.ObjectDefinition:
			for _, fd := range tdef.Fields {
				if err := check(tdef.Name.Value+"."+fd.Name.Value, namedType(fd.Type)); err != nil {
					return nil, err
				}
			}
		case *gql_ast.UnionDefinition:
			for _, member := range tdef.Types {
				if err := check(tdef.Name.Value, member.Name.Value); err != nil {
					return nil, err
				}
			}
		}
	}
	return doc, nil
}

func namedType(t gql_ast.Type) string {
	switch t := t.(type) {
	case *gql_ast.NonNull:
		return namedType(t.Type)
	case *gql_ast.List:
		return namedType(t.Type)
	case *gql_ast.Named:
		return t.Name.Value
	}
	return ""
}
