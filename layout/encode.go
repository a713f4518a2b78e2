package layout

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"

	"github.com/mr-tron/base58"

	"github.com/boynton/lumos"
	"github.com/boynton/lumos/errors"
)

// Variant is an enum value. Values holds tuple slots, Fields the fields of a struct variant.
// A unit variant may also be given as its name string.
type Variant struct {
	Name   string
	Values []interface{}
	Fields map[string]interface{}
}

// Some marks a present optional value explicitly, which is needed for Option<Option<T>>:
// nil is None, Some{nil} is Some(None).
type Some struct {
	Value interface{}
}

type encodeOptions struct {
	discriminator [DiscriminatorSize]byte
}

type EncodeOption func(*encodeOptions)

// WithDiscriminator sets the prefix written ahead of an #[account] struct. The default is zeros.
func WithDiscriminator(d [DiscriminatorSize]byte) EncodeOption {
	return func(o *encodeOptions) {
		o.discriminator = d
	}
}

// Encode serializes value as the named type, using the Borsh rules the generated code follows.
// Structs are given as map[string]interface{}; absent optional fields encode as None.
func Encode(schema lumos.Schema, name string, value interface{}, opts ...EncodeOption) ([]byte, error) {
	td := schema.Find(name)
	if td == nil {
		return nil, errors.Newf("unknown type '%s'", name)
	}
	var options encodeOptions
	for _, opt := range opts {
		opt(&options)
	}
	e := &encoder{schema: schema}
	if td.Meta().IsAccount() {
		e.buf.Write(options.discriminator[:])
	}
	if err := e.encodeNamed(td, value, name); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// EncodeType serializes value as t.
func EncodeType(schema lumos.Schema, t lumos.TypeInfo, value interface{}) ([]byte, error) {
	e := &encoder{schema: schema}
	if err := e.encode(t, value, lumos.TypeString(t)); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	schema lumos.Schema
	buf    bytes.Buffer
}

func mismatch(path string, want string, got interface{}) error {
	return errors.Newf("%s: expected %s, got %T", path, want, got)
}

func (e *encoder) encode(t lumos.TypeInfo, value interface{}, path string) error {
	switch t := t.(type) {
	case *lumos.Primitive:
		return e.encodePrimitive(t.Name, value, path)
	case *lumos.UserDefined:
		td := e.schema.Find(t.Name)
		if td == nil {
			return errors.Newf("%s: unknown type '%s'", path, t.Name)
		}
		return e.encodeNamed(td, value, path)
	case *lumos.Array:
		rv := reflect.ValueOf(value)
		if value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return mismatch(path, "a list", value)
		}
		if uint64(rv.Len()) > math.MaxUint32 {
			return errors.Newf("%s: %d elements exceed the u32 length prefix", path, rv.Len())
		}
		e.putUint(uint64(rv.Len()), 4)
		for i := 0; i < rv.Len(); i++ {
			if err := e.encode(t.Elem, rv.Index(i).Interface(), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case *lumos.Option:
		if value == nil {
			e.buf.WriteByte(0)
			return nil
		}
		e.buf.WriteByte(1)
		if some, ok := value.(Some); ok {
			value = some.Value
		}
		return e.encode(t.Elem, value, path)
	}
	return errors.AssertionFailedf("unknown type info %T", t)
}

func (e *encoder) encodeNamed(td lumos.TypeDefinition, value interface{}, path string) error {
	switch td := td.(type) {
	case *lumos.StructDefinition:
		m, ok := value.(map[string]interface{})
		if !ok {
			return mismatch(path, "a struct value for "+td.Name, value)
		}
		return e.encodeFields(td.Fields, m, path)
	case *lumos.EnumDefinition:
		var v Variant
		switch val := value.(type) {
		case Variant:
			v = val
		case *Variant:
			v = *val
		case string:
			v = Variant{Name: val}
		default:
			return mismatch(path, "a variant of "+td.Name, value)
		}
		for i, vd := range td.Variants {
			if vd.Name == v.Name {
				e.putUint(uint64(i), EnumTagSize)
				return e.encodeVariant(vd, v, path+"::"+vd.Name)
			}
		}
		return errors.Newf("%s: %s has no variant '%s'", path, td.Name, v.Name)
	}
	return errors.AssertionFailedf("unknown type definition %T", td)
}

func (e *encoder) encodeVariant(vd *lumos.VariantDefinition, v Variant, path string) error {
	switch vd.Kind {
	case lumos.UnitVariant:
		if len(v.Values) > 0 || len(v.Fields) > 0 {
			return errors.Newf("%s: unit variant takes no payload", path)
		}
		return nil
	case lumos.TupleVariant:
		if len(v.Values) != len(vd.Types) {
			return errors.Newf("%s: expected %d values, got %d", path, len(vd.Types), len(v.Values))
		}
		for i, t := range vd.Types {
			if err := e.encode(t, v.Values[i], fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	}
	return e.encodeFields(vd.Fields, v.Fields, path)
}

func (e *encoder) encodeFields(fields []*lumos.FieldDefinition, values map[string]interface{}, path string) error {
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Name] = true
		value, present := values[f.Name]
		if !present && !f.Optional {
			return errors.Newf("%s: missing field '%s'", path, f.Name)
		}
		if err := e.encode(f.Type, value, path+"."+f.Name); err != nil {
			return err
		}
	}
	var extra []string
	for k := range values {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return errors.Newf("%s: unknown field '%s'", path, extra[0])
	}
	return nil
}

func (e *encoder) putUint(n uint64, width int) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	e.buf.Write(b[:width])
}

func (e *encoder) encodePrimitive(name string, value interface{}, path string) error {
	switch name {
	case "u8", "u16", "u32", "u64":
		width := PrimitiveSize(name).Min
		n, ok := toUint(value)
		if !ok {
			return mismatch(path, "an unsigned integer", value)
		}
		if width < 8 && n >= 1<<(8*uint(width)) {
			return errors.Newf("%s: %d overflows %s", path, n, name)
		}
		e.putUint(n, width)
	case "i8", "i16", "i32", "i64":
		width := PrimitiveSize(name).Min
		n, ok := toInt(value)
		if !ok {
			return mismatch(path, "an integer", value)
		}
		bits := 8 * uint(width)
		if width < 8 && (n < -(1<<(bits-1)) || n >= 1<<(bits-1)) {
			return errors.Newf("%s: %d overflows %s", path, n, name)
		}
		e.putUint(uint64(n), width)
	case "u128", "i128":
		return e.encode128(name, value, path)
	case "f32":
		f, ok := toFloat(value)
		if !ok {
			return mismatch(path, "a number", value)
		}
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(f)))
		e.buf.Write(b[:])
	case "f64":
		f, ok := toFloat(value)
		if !ok {
			return mismatch(path, "a number", value)
		}
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
		e.buf.Write(b[:])
	case "bool":
		b, ok := value.(bool)
		if !ok {
			return mismatch(path, "a bool", value)
		}
		if b {
			e.buf.WriteByte(1)
		} else {
			e.buf.WriteByte(0)
		}
	case "String":
		s, ok := value.(string)
		if !ok {
			return mismatch(path, "a string", value)
		}
		e.putUint(uint64(len(s)), LengthPrefixSize)
		e.buf.WriteString(s)
	case "PublicKey", "Signature":
		b, err := fixedBytes(value, PrimitiveSize(name).Min)
		if err != nil {
			return errors.Wrapf(err, "%s", path)
		}
		e.buf.Write(b)
	default:
		return errors.AssertionFailedf("no encoding for primitive %s", name)
	}
	return nil
}

var (
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	twoTo128   = new(big.Int).Lsh(big.NewInt(1), 128)
)

func (e *encoder) encode128(name string, value interface{}, path string) error {
	var n *big.Int
	switch v := value.(type) {
	case *big.Int:
		n = new(big.Int).Set(v)
	default:
		if i, ok := toInt(value); ok {
			n = big.NewInt(i)
		} else if u, ok := toUint(value); ok {
			n = new(big.Int).SetUint64(u)
		} else {
			return mismatch(path, "a 128-bit integer", value)
		}
	}
	if name == "u128" {
		if n.Sign() < 0 || n.Cmp(maxUint128) > 0 {
			return errors.Newf("%s: %s overflows u128", path, n)
		}
	} else {
		if n.Cmp(minInt128) < 0 || n.Cmp(maxInt128) > 0 {
			return errors.Newf("%s: %s overflows i128", path, n)
		}
		if n.Sign() < 0 {
			n.Add(n, twoTo128)
		}
	}
	var be [16]byte
	n.FillBytes(be[:])
	for i := len(be) - 1; i >= 0; i-- {
		e.buf.WriteByte(be[i])
	}
	return nil
}

// fixedBytes accepts a byte array, a byte slice, or a base58 string of exactly size bytes.
func fixedBytes(value interface{}, size int) ([]byte, error) {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case [32]byte:
		b = v[:]
	case [64]byte:
		b = v[:]
	case string:
		decoded, err := base58.Decode(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid base58 %q", v)
		}
		b = decoded
	default:
		return nil, errors.Newf("expected %d bytes or a base58 string, got %T", size, value)
	}
	if len(b) != size {
		return nil, errors.Newf("expected %d bytes, got %d", size, len(b))
	}
	return b, nil
}

func toUint(value interface{}) (uint64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() < 0 {
			return 0, false
		}
		return uint64(rv.Int()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f < 0 || f != math.Trunc(f) || f >= math.MaxUint64 {
			return 0, false
		}
		return uint64(f), true
	}
	return 0, false
}

func toInt(value interface{}) (int64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if rv.Uint() > math.MaxInt64 {
			return 0, false
		}
		return int64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}

func toFloat(value interface{}) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}
