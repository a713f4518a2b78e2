package rust

import (
	"fmt"
	"strings"
	"testing"

	"github.com/boynton/lumos"
	"github.com/boynton/lumos/layout"
	"github.com/boynton/lumos/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(test *testing.T, src string) lumos.Schema {
	schema, err := lumos.Compile(src)
	require.NoError(test, err)
	return schema
}

func TestPlainBorshStruct(test *testing.T) {
	schema := compile(test, `
struct Data {
    tiny: u8,
    key: PublicKey,
    items: [u32],
    maybe?: string,
}`)
	out := Generate(schema, nil)
	assert.True(test, strings.HasPrefix(out, "// Code generated by lumos. DO NOT EDIT.\n\n"))
	assert.Contains(test, out, "use borsh::{BorshDeserialize, BorshSerialize};\n")
	assert.Contains(test, out, "use solana_program::pubkey::Pubkey;\n")
	assert.NotContains(test, out, "anchor_lang")
	assert.Contains(test, out, "#[derive(BorshSerialize, BorshDeserialize, Clone, Debug, PartialEq)]\npub struct Data {\n")
	assert.Contains(test, out, "    pub tiny: u8,\n")
	assert.Contains(test, out, "    pub key: Pubkey,\n")
	assert.Contains(test, out, "    pub items: Vec<u32>,\n")
	assert.Contains(test, out, "    pub maybe: Option<String>,\n")
	assert.Contains(test, out, "impl Data {\n    pub const MIN_SIZE: usize = 38;\n}\n")
	assert.NotContains(test, out, "MAX_SIZE")
}

func TestPubkeyImportOnlyWhenUsed(test *testing.T) {
	schema := compile(test, `struct Point { x: i32, y: i32 }`)
	out := Generate(schema, nil)
	assert.NotContains(test, out, "Pubkey")
	assert.Contains(test, out, "impl Point {\n    pub const SIZE: usize = 8;\n}\n")
}

func TestAccountUsesAnchor(test *testing.T) {
	schema := compile(test, `
#[solana]
#[account]
struct Counter {
    count: u64,
    authority: PublicKey,
}

struct Config {
    admin: PublicKey,
}`)
	out := Generate(schema, nil)
	assert.Contains(test, out, "use anchor_lang::prelude::*;\n")
	assert.NotContains(test, out, "use borsh")
	assert.NotContains(test, out, "solana_program")
	assert.Contains(test, out, "#[account]\npub struct Counter {\n")
	assert.Contains(test, out, "#[derive(AnchorSerialize, AnchorDeserialize, Clone, Debug, PartialEq)]\npub struct Config {\n")
	assert.Contains(test, out, "impl Counter {\n    pub const DISCRIMINATOR_SIZE: usize = 8;\n    pub const SIZE: usize = 48;\n}\n")
	assert.Contains(test, out, "impl Config {\n    pub const SIZE: usize = 32;\n}\n")
}

func TestAnchorModeOption(test *testing.T) {
	schema := compile(test, `#[account] struct A { x: u8 }`)
	conf := util.NewData()
	conf.Put("rust", map[string]interface{}{"anchor": AnchorNever})
	out := Generate(schema, conf)
	assert.Contains(test, out, "use borsh::")
	assert.NotContains(test, out, "#[account]")
	assert.Contains(test, out, "impl A {\n    pub const DISCRIMINATOR_SIZE: usize = 8;\n    pub const SIZE: usize = 9;\n}\n")

	schema = compile(test, `struct B { x: u8 }`)
	conf.Put("rust", map[string]interface{}{"anchor": AnchorAlways})
	out = Generate(schema, conf)
	assert.Contains(test, out, "use anchor_lang::prelude::*;\n")
	assert.Contains(test, out, "AnchorSerialize")
}

func TestEnumVariants(test *testing.T) {
	schema := compile(test, `
enum Action {
    Stop,
    Move(i32, i32),
    Rename { name: String },
}`)
	out := Generate(schema, nil)
	expected := `#[derive(Clone, Debug, PartialEq)]
pub enum Action {
    Stop,
    Move(i32, i32),
    Rename {
        name: String,
    },
}

impl BorshSerialize for Action {
    fn serialize<W: std::io::Write>(&self, writer: &mut W) -> std::io::Result<()> {
        match self {
            Self::Stop => 0u32.serialize(writer),
            Self::Move(v0, v1) => {
                1u32.serialize(writer)?;
                v0.serialize(writer)?;
                v1.serialize(writer)
            }
            Self::Rename { name: v0 } => {
                2u32.serialize(writer)?;
                v0.serialize(writer)
            }
        }
    }
}

impl BorshDeserialize for Action {
    fn deserialize_reader<R: std::io::Read>(reader: &mut R) -> std::io::Result<Self> {
        let tag = u32::deserialize_reader(reader)?;
        match tag {
            0 => Ok(Self::Stop),
            1 => Ok(Self::Move(
                BorshDeserialize::deserialize_reader(reader)?,
                BorshDeserialize::deserialize_reader(reader)?,
            )),
            2 => Ok(Self::Rename {
                name: BorshDeserialize::deserialize_reader(reader)?,
            }),
            _ => Err(std::io::Error::new(
                std::io::ErrorKind::InvalidData,
                format!("invalid Action variant {}", tag),
            )),
        }
    }
}

impl Action {
    pub const MIN_SIZE: usize = 4;
}
`
	assert.Contains(test, out, expected)
	assert.NotContains(test, out, "BorshSerialize, BorshDeserialize, Clone")
}

func TestEnumTagMatchesLayout(test *testing.T) {
	schema := compile(test, `
#[account] struct Holder { e: E }
enum E { A, B(u32), C { type: u8 } }`)
	out := Generate(schema, nil)
	tag := layout.EnumTagType
	require.Equal(test, layout.Fixed(layout.EnumTagSize), layout.PrimitiveSize(tag))
	assert.Contains(test, out, "impl AnchorSerialize for E {\n")
	assert.Contains(test, out, "impl AnchorDeserialize for E {\n")
	assert.Contains(test, out, "            Self::A => 0"+tag+".serialize(writer),\n")
	assert.Contains(test, out, "                1"+tag+".serialize(writer)?;\n")
	assert.Contains(test, out, "            Self::C { r#type: v0 } => {\n")
	assert.Contains(test, out, "        let tag = "+tag+"::deserialize_reader(reader)?;\n")
	assert.Contains(test, out, "                r#type: AnchorDeserialize::deserialize_reader(reader)?,\n")

	// the constants agree with the bytes a unit and a data variant encode to
	a, err := layout.Encode(schema, "E", "A")
	require.NoError(test, err)
	b, err := layout.Encode(schema, "E", layout.Variant{Name: "B", Values: []interface{}{7}})
	require.NoError(test, err)
	assert.Contains(test, out, fmt.Sprintf("impl E {\n    pub const MIN_SIZE: usize = %d;\n    pub const MAX_SIZE: usize = %d;\n}\n", len(a), len(b)))
}

func TestEmptyTypes(test *testing.T) {
	schema := compile(test, `struct Empty {}`)
	out := Generate(schema, nil)
	assert.Contains(test, out, "pub struct Empty {}\n")
	assert.Contains(test, out, "pub const SIZE: usize = 0;")

	schema = lumos.Schema{&lumos.EnumDefinition{Name: "Never"}}
	out = Generate(schema, nil)
	assert.Contains(test, out, "#[derive(Clone, Debug, PartialEq)]\npub enum Never {}\n")
}

func TestKeywordFields(test *testing.T) {
	schema := compile(test, `struct Item { type: u8, match: bool, self: u8 }`)
	out := Generate(schema, nil)
	assert.Contains(test, out, "    pub r#type: u8,\n")
	assert.Contains(test, out, "    pub r#match: bool,\n")
	assert.Contains(test, out, "    pub self_: u8,\n")
}

func TestRecursiveTypesAreBoxed(test *testing.T) {
	schema := compile(test, `
struct Node {
    value: u64,
    next: Option<Node>,
    children: [Node],
}`)
	out := Generate(schema, nil)
	assert.Contains(test, out, "    pub next: Option<Box<Node>>,\n")
	assert.Contains(test, out, "    pub children: Vec<Node>,\n")
	assert.Contains(test, out, "impl Node {\n    pub const MIN_SIZE: usize = 13;\n}\n")
}

func TestMutualRecursion(test *testing.T) {
	schema := compile(test, `
struct A { b: Option<B> }
struct B { a: Option<A>, leaf: Leaf }
struct Leaf { x: u8 }`)
	out := Generate(schema, nil)
	assert.Contains(test, out, "    pub b: Option<Box<B>>,\n")
	assert.Contains(test, out, "    pub a: Option<Box<A>>,\n")
	assert.Contains(test, out, "    pub leaf: Leaf,\n")
}

func TestSignatureAndSource(test *testing.T) {
	schema := compile(test, `struct Signed { sig: Signature }`)
	conf := util.NewData()
	conf.Put("source", "signed.lumos")
	out := Generate(schema, conf)
	assert.Contains(test, out, "// Source: signed.lumos\n")
	assert.Contains(test, out, "    pub sig: [u8; 64],\n")
	assert.Contains(test, out, "pub const SIZE: usize = 64;")

	conf.Put("header", false)
	out = Generate(schema, conf)
	assert.True(test, strings.HasPrefix(out, "use borsh::"))
}

func TestDeterministicOutput(test *testing.T) {
	src := `
#[account] struct Vault { owner: PublicKey, balance: u64 }
enum Event { Deposit(u64), Withdraw { amount: u64 } }`
	first := Generate(compile(test, src), nil)
	second := Generate(compile(test, src), nil)
	assert.Equal(test, first, second)
	assert.Less(test, strings.Index(first, "pub struct Vault"), strings.Index(first, "pub enum Event"))
}

func TestEmptySchema(test *testing.T) {
	out := Generate(lumos.Schema{}, nil)
	assert.Equal(test, "// Code generated by lumos. DO NOT EDIT.\n\n", out)
}

func TestNamingLints(test *testing.T) {
	schema := compile(test, `
struct player_stats { playerName: String, level: u8 }
struct Clean { level: u8 }
enum Mode { Fast, slow_mode }`)
	out := Generate(schema, nil)
	assert.Contains(test, out, "#[allow(non_camel_case_types)]\n#[allow(non_snake_case)]\n#[derive(BorshSerialize, BorshDeserialize, Clone, Debug, PartialEq)]\npub struct player_stats {\n")
	assert.Contains(test, out, "    pub playerName: String,\n")
	assert.Contains(test, out, "\n#[derive(BorshSerialize, BorshDeserialize, Clone, Debug, PartialEq)]\npub struct Clean {\n")
	assert.Contains(test, out, "#[allow(non_camel_case_types)]\n#[derive(Clone, Debug, PartialEq)]\npub enum Mode {\n")
}
