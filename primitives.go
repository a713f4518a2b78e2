package lumos

// Variable marks a primitive whose encoded size depends on its value.
const Variable = -1

// PrimitiveType describes one canonical primitive and how each backend spells it.
type PrimitiveType struct {
	Name string
	// Size is the encoded size in bytes, or Variable.
	Size int
	// Rust is the Rust type used in generated declarations.
	Rust string
	// TypeScript is the TypeScript type used in generated interfaces. It is the type
	// @coral-xyz/borsh decodes to, so integers wider than 32 bits are BN.
	TypeScript string
	// Borsh is the @coral-xyz/borsh layout function. "array" means a fixed u8 array of Size.
	Borsh string
}

// Fixed reports whether values of this primitive always encode to Size bytes.
func (p PrimitiveType) Fixed() bool {
	return p.Size != Variable
}

// Primitives is the layout table shared by every backend. Integers and floats are
// little-endian, bool is a single 0/1 byte, String is a u32 length plus UTF-8 bytes,
// PublicKey and Signature are opaque byte arrays.
var Primitives = []PrimitiveType{
	{Name: "u8", Size: 1, Rust: "u8", TypeScript: "number", Borsh: "u8"},
	{Name: "u16", Size: 2, Rust: "u16", TypeScript: "number", Borsh: "u16"},
	{Name: "u32", Size: 4, Rust: "u32", TypeScript: "number", Borsh: "u32"},
	{Name: "u64", Size: 8, Rust: "u64", TypeScript: "BN", Borsh: "u64"},
	{Name: "u128", Size: 16, Rust: "u128", TypeScript: "BN", Borsh: "u128"},
	{Name: "i8", Size: 1, Rust: "i8", TypeScript: "number", Borsh: "i8"},
	{Name: "i16", Size: 2, Rust: "i16", TypeScript: "number", Borsh: "i16"},
	{Name: "i32", Size: 4, Rust: "i32", TypeScript: "number", Borsh: "i32"},
	{Name: "i64", Size: 8, Rust: "i64", TypeScript: "BN", Borsh: "i64"},
	{Name: "i128", Size: 16, Rust: "i128", TypeScript: "BN", Borsh: "i128"},
	{Name: "f32", Size: 4, Rust: "f32", TypeScript: "number", Borsh: "f32"},
	{Name: "f64", Size: 8, Rust: "f64", TypeScript: "number", Borsh: "f64"},
	{Name: "bool", Size: 1, Rust: "bool", TypeScript: "boolean", Borsh: "bool"},
	{Name: "String", Size: Variable, Rust: "String", TypeScript: "string", Borsh: "str"},
	{Name: "PublicKey", Size: 32, Rust: "Pubkey", TypeScript: "PublicKey", Borsh: "publicKey"},
	{Name: "Signature", Size: 64, Rust: "[u8; 64]", TypeScript: "number[]", Borsh: "array"},
}

var aliases = map[string]string{
	"number":  "u64",
	"string":  "String",
	"boolean": "bool",
}

var primitiveIndex = func() map[string]int {
	m := make(map[string]int, len(Primitives))
	for i, p := range Primitives {
		m[p.Name] = i
	}
	return m
}()

// LookupPrimitive returns the table entry for a canonical name. Aliases are not accepted.
func LookupPrimitive(name string) (PrimitiveType, bool) {
	if i, ok := primitiveIndex[name]; ok {
		return Primitives[i], true
	}
	return PrimitiveType{}, false
}

// CanonicalPrimitive maps a canonical name to itself and an alias to its canonical name.
// Any other name is not a primitive.
func CanonicalPrimitive(name string) (string, bool) {
	if _, ok := primitiveIndex[name]; ok {
		return name, true
	}
	if canonical, ok := aliases[name]; ok {
		return canonical, true
	}
	return "", false
}

// IsAlias reports whether name is one of the alias spellings.
func IsAlias(name string) bool {
	_, ok := aliases[name]
	return ok
}
