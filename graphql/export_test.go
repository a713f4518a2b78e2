package graphql

import (
	"testing"

	"github.com/boynton/lumos"
	"github.com/boynton/lumos/errors"
	"github.com/boynton/lumos/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func export(test *testing.T, src string, conf *util.Data) string {
	schema, err := lumos.Compile(src)
	require.NoError(test, err)
	sdl, err := Export(schema, conf)
	require.NoError(test, err)
	return sdl
}

func TestExportStruct(test *testing.T) {
	sdl := export(test, `
#[account]
struct Player {
    name: String,
    level: u16,
    wallet: PublicKey,
    score: u64,
    nickname?: String,
    tags: [String],
    scores: [Option<i32>],
}`, nil)
	expected := `type Player {
  name: String!
  level: Int!
  wallet: PublicKey!
  score: U64!
  nickname: String
  tags: [String!]!
  scores: [Int]!
}
`
	assert.Contains(test, sdl, expected)
	assert.Contains(test, sdl, "scalar PublicKey\nscalar U64\n")
}

func TestExportEnums(test *testing.T) {
	sdl := export(test, `
enum Status { Active, Frozen }
enum Action {
    Stop,
    Move(i32, i32),
    Rename { name: String },
}`, nil)
	assert.Contains(test, sdl, "enum Status {\n  Active\n  Frozen\n}\n")
	assert.Contains(test, sdl, "type ActionStop {\n  _empty: Boolean\n}\n")
	assert.Contains(test, sdl, "type ActionMove {\n  _0: Int!\n  _1: Int!\n}\n")
	assert.Contains(test, sdl, "type ActionRename {\n  name: String!\n}\n")
	assert.Contains(test, sdl, "union Action =\n    ActionStop\n  | ActionMove\n  | ActionRename\n")
}

func TestExportCustomScalarNames(test *testing.T) {
	conf := util.NewData()
	conf.Put("custom-scalars", map[string]interface{}{"u64": "BigInt"})
	sdl := export(test, `struct Amount { value: u64, fee: number }`, conf)
	assert.Contains(test, sdl, "  value: BigInt!\n")
	assert.Contains(test, sdl, "  fee: BigInt!\n")
	assert.Contains(test, sdl, "scalar BigInt\n")
	assert.NotContains(test, sdl, "U64")
}

func TestExportReferencesAndEmpty(test *testing.T) {
	sdl := export(test, `
struct Empty {}
struct Holder { inner: Empty, list: [Empty], maybe: Option<Empty> }`, nil)
	assert.Contains(test, sdl, "type Empty {\n  _empty: Boolean\n}\n")
	assert.Contains(test, sdl, "  inner: Empty!\n  list: [Empty!]!\n  maybe: Empty\n")
}

func TestVerify(test *testing.T) {
	_, err := Verify("type A {\n  b: B!\n}\n")
	require.Error(test, err)
	assert.True(test, errors.Is(err, errors.ErrCodeGen))
	assert.Contains(test, err.Error(), "'B' used in 'A.b'")

	_, err = Verify("type A {")
	require.Error(test, err)
	assert.True(test, errors.Is(err, errors.ErrCodeGen))

	doc, err := Verify("scalar B\ntype A {\n  b: [B]\n}\n")
	require.NoError(test, err)
	assert.Len(test, doc.Definitions, 2)
}

func TestExportDeterministic(test *testing.T) {
	src := `struct A { x: i128, y: u128, k: PublicKey, s: Signature }`
	first := export(test, src, nil)
	second := export(test, src, nil)
	assert.Equal(test, first, second)
	assert.Contains(test, first, "scalar I128\nscalar U128\nscalar PublicKey\nscalar Signature\n")
}
