package lumos

import (
	"fmt"

	"github.com/boynton/lumos/errors"
)

// Validate checks that every UserDefined reference, at any depth, names a definition in
// the schema. It stops at the first unresolved reference.
func Validate(schema Schema) error {
	declared := make(map[string]bool, len(schema))
	for _, td := range schema {
		declared[td.TypeName()] = true
	}
	for _, td := range schema {
		switch td := td.(type) {
		case *StructDefinition:
			for _, f := range td.Fields {
				if err := validateType(f.Type, declared, td.Name+"."+f.Name); err != nil {
					return err
				}
			}
		case *EnumDefinition:
			for _, v := range td.Variants {
				for i, t := range v.Types {
					if err := validateType(t, declared, fmt.Sprintf("%s.%s[%d]", td.Name, v.Name, i)); err != nil {
						return err
					}
				}
				for _, f := range v.Fields {
					if err := validateType(f.Type, declared, td.Name+"."+v.Name+"."+f.Name); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func validateType(t TypeInfo, declared map[string]bool, location string) error {
	switch t := t.(type) {
	case *Primitive:
		return nil
	case *UserDefined:
		if !declared[t.Name] {
			err := errors.TypeValidationf("Undefined type '%s' referenced in '%s'", t.Name, location)
			return errors.WithHintf(err, "declare a struct or enum named %s in the same file", t.Name)
		}
		return nil
	case *Array:
		return validateType(t.Elem, declared, location)
	case *Option:
		return validateType(t.Elem, declared, location)
	}
	return errors.AssertionFailedf("unknown type info %T at %s", t, location)
}
