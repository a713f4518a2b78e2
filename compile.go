package lumos

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/boynton/lumos/ast"
	"github.com/boynton/lumos/errors"
	"github.com/boynton/lumos/parse"
)

// Compile parses and transforms declaration source. Source without any struct or enum
// yields an empty Schema and no error; callers decide whether that deserves a warning.
func Compile(src string) (Schema, error) {
	file, err := parse.String(src)
	return compileAST(file, err)
}

// CompileFile is Compile for a file on disk. Files ending in .toml are read as the
// single-struct TOML schema format.
func CompileFile(path string) (Schema, error) {
	file, err := parseFile(path)
	schema, err := compileAST(file, err)
	if err != nil {
		return nil, errors.Wrapf(err, "compile %s", filepath.Base(path))
	}
	return schema, nil
}

func parseFile(path string) (*ast.File, error) {
	if strings.ToLower(filepath.Ext(path)) != ".toml" {
		return parse.File(path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", path)
	}
	return parse.LegacyTOML(string(b))
}

func compileAST(file *ast.File, err error) (Schema, error) {
	if errors.IsNoDeclarations(err) {
		return Schema{}, nil
	}
	if err != nil {
		return nil, err
	}
	return Transform(file)
}
