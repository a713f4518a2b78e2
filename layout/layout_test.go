package layout

import (
	"math/big"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boynton/lumos"
)

func mustCompile(t *testing.T, src string) lumos.Schema {
	t.Helper()
	schema, err := lumos.Compile(src)
	require.NoError(t, err)
	return schema
}

func TestArraySize(t *testing.T) {
	schema := mustCompile(t, `struct S { items: [u8] }`)
	size, err := SizeOfType(schema, "S")
	require.NoError(t, err)
	assert.Equal(t, 4, size.Min)
	assert.False(t, size.Bounded())

	empty, err := Encode(schema, "S", map[string]interface{}{"items": []interface{}{}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, empty)

	one, err := Encode(schema, "S", map[string]interface{}{"items": []byte{9}})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 9}, one)
}

func TestEnumEncoding(t *testing.T) {
	schema := mustCompile(t, `enum E { A, B(u32) }`)

	a, err := Encode(schema, "E", "A")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, a)

	b, err := Encode(schema, "E", Variant{Name: "B", Values: []interface{}{7}})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 7, 0, 0, 0}, b)

	size, err := SizeOfType(schema, "E")
	require.NoError(t, err)
	assert.Equal(t, Size{Min: 4, Max: 8}, size)

	_, err = Encode(schema, "E", "C")
	assert.Error(t, err)
	_, err = Encode(schema, "E", Variant{Name: "B"})
	assert.Error(t, err)
}

func TestEnumTagTypeMatchesSize(t *testing.T) {
	assert.Equal(t, Fixed(EnumTagSize), PrimitiveSize(EnumTagType))
	tag, err := EncodeType(lumos.Schema{}, &lumos.Primitive{Name: EnumTagType}, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0}, tag)
}

func TestAccountDiscriminator(t *testing.T) {
	schema := mustCompile(t, `
#[solana]
#[account]
struct Vault { owner: PublicKey, balance: u64, bump: u8 }

struct Holder { vault: Vault }
`)
	size, err := SizeOfType(schema, "Vault")
	require.NoError(t, err)
	assert.Equal(t, Fixed(8+32+8+1), size)

	embedded, err := SizeOfType(schema, "Holder")
	require.NoError(t, err)
	assert.Equal(t, Fixed(32+8+1), embedded)

	owner := make([]byte, 32)
	owner[0] = 0xAA
	value := map[string]interface{}{"owner": base58.Encode(owner), "balance": uint64(5), "bump": 255}
	data, err := Encode(schema, "Vault", value, WithDiscriminator([8]byte{1, 2, 3, 4, 5, 6, 7, 8}))
	require.NoError(t, err)
	require.Len(t, data, size.Min)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 0xAA}, data[:9])
	assert.Equal(t, byte(5), data[8+32])
	assert.Equal(t, byte(255), data[len(data)-1])

	breakdown, err := Breakdown(schema, "Vault")
	require.NoError(t, err)
	require.Len(t, breakdown, 4)
	assert.Equal(t, "discriminator", breakdown[0].Name)
	assert.Equal(t, "owner", breakdown[1].Name)
	assert.Equal(t, Fixed(32), breakdown[1].Size)
}

func TestOptionEncoding(t *testing.T) {
	schema := mustCompile(t, `struct O { a: Option<u16>, b?: String, c: Option<Option<u8>> }`)

	data, err := Encode(schema, "O", map[string]interface{}{"a": 258, "c": Some{nil}})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 1, 0, 1, 0}, data)

	data, err = Encode(schema, "O", map[string]interface{}{"b": "hi", "c": Some{3}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 0, 0, 0, 'h', 'i', 1, 1, 3}, data)

	size, err := SizeOfType(schema, "O")
	require.NoError(t, err)
	assert.Equal(t, 3, size.Min)
	assert.False(t, size.Bounded())
}

func TestIntegers(t *testing.T) {
	schema := mustCompile(t, `struct N { a: i16, b: u128, c: i128, d: f32, e: bool }`)
	data, err := Encode(schema, "N", map[string]interface{}{
		"a": -2,
		"b": new(big.Int).Lsh(big.NewInt(1), 64),
		"c": -1,
		"d": 1.5,
		"e": true,
	})
	require.NoError(t, err)
	require.Len(t, data, 2+16+16+4+1)
	assert.Equal(t, []byte{0xFE, 0xFF}, data[:2])
	assert.Equal(t, byte(1), data[2+8])
	for _, b := range data[18:34] {
		assert.Equal(t, byte(0xFF), b)
	}
	assert.Equal(t, []byte{0, 0, 0xC0, 0x3F}, data[34:38])
	assert.Equal(t, byte(1), data[38])

	_, err = Encode(schema, "N", map[string]interface{}{"a": 40000, "b": 0, "c": 0, "d": 0, "e": false})
	assert.Error(t, err)
	_, err = EncodeType(schema, &lumos.Primitive{Name: "u8"}, 256)
	assert.Error(t, err)
	_, err = EncodeType(schema, &lumos.Primitive{Name: "u64"}, -1)
	assert.Error(t, err)
}

func TestStructErrors(t *testing.T) {
	schema := mustCompile(t, `struct S { a: u8 }`)
	_, err := Encode(schema, "S", map[string]interface{}{})
	assert.Error(t, err)
	_, err = Encode(schema, "S", map[string]interface{}{"a": 1, "z": 2})
	assert.Error(t, err)
	_, err = Encode(schema, "Missing", nil)
	assert.Error(t, err)
	_, err = Encode(schema, "S", "not a struct")
	assert.Error(t, err)
}

func TestRecursiveSize(t *testing.T) {
	schema := mustCompile(t, `struct Node { value: u32, next: Option<Node> }`)
	size, err := SizeOfType(schema, "Node")
	require.NoError(t, err)
	assert.Equal(t, 5, size.Min)
	assert.False(t, size.Bounded())

	data, err := Encode(schema, "Node", map[string]interface{}{
		"value": 1,
		"next":  map[string]interface{}{"value": 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 1, 2, 0, 0, 0, 0}, data)
}

// Every fixed-size definition must encode to exactly the size the table predicts.
func TestLayoutAgreement(t *testing.T) {
	schema := mustCompile(t, `
struct Prims { a: u8, b: u16, c: u32, d: u64, e: u128, f: i8, g: i16, h: i32, i: i64, j: i128, k: f32, l: f64, m: bool, n: PublicKey, o: Signature }
enum Small { X, Y(u8, u16), Z { p: Prims } }
`)
	prims := map[string]interface{}{
		"a": 1, "b": 1, "c": 1, "d": 1, "e": 1, "f": 1, "g": 1, "h": 1, "i": 1, "j": 1,
		"k": 1.0, "l": 1.0, "m": false, "n": make([]byte, 32), "o": [64]byte{},
	}
	size, err := SizeOfType(schema, "Prims")
	require.NoError(t, err)
	require.True(t, size.IsFixed())
	data, err := Encode(schema, "Prims", prims)
	require.NoError(t, err)
	assert.Len(t, data, size.Min)
	assert.Equal(t, 1+2+4+8+16+1+2+4+8+16+4+8+1+32+64, size.Min)

	enumSize, err := SizeOfType(schema, "Small")
	require.NoError(t, err)
	z, err := Encode(schema, "Small", Variant{Name: "Z", Fields: map[string]interface{}{"p": prims}})
	require.NoError(t, err)
	assert.Len(t, z, enumSize.Max)
	x, err := Encode(schema, "Small", Variant{Name: "X"})
	require.NoError(t, err)
	assert.Len(t, x, enumSize.Min)
}

func TestSizeString(t *testing.T) {
	assert.Equal(t, "8 bytes", Fixed(8).String())
	assert.Equal(t, "4..8 bytes", Size{Min: 4, Max: 8}.String())
	assert.Equal(t, ">= 4 bytes", Size{Min: 4, Max: Unbounded}.String())
}
