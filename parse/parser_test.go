package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boynton/lumos/ast"
	"github.com/boynton/lumos/errors"
)

func testParse(test *testing.T, expectSuccess bool, src string) *ast.File {
	test.Helper()
	file, err := String(src)
	if expectSuccess {
		if err != nil {
			test.Errorf("%v", err)
		}
	} else if err == nil {
		test.Errorf("Expected failure parsing %q", src)
	}
	return file
}

func TestSimpleStruct(test *testing.T) {
	file := testParse(test, true, `struct User { id: u64, name: String }`)
	require.Len(test, file.Items, 1)
	s, ok := file.Items[0].(*ast.StructDef)
	require.True(test, ok)
	assert.Equal(test, "User", s.Name)
	require.Len(test, s.Fields, 2)
	assert.Equal(test, "id", s.Fields[0].Name)
	assert.Equal(test, "u64", s.Fields[0].Type.String())
	assert.Equal(test, "name", s.Fields[1].Name)
	assert.Equal(test, "String", s.Fields[1].Type.String())
	assert.False(test, s.Fields[0].Optional)
}

func TestAttributes(test *testing.T) {
	file := testParse(test, true, `
#[solana]
#[account]
struct Player {
    #[key] wallet: PublicKey,
    #[max(32)] name: String,
    #[flag(true)] active: bool,
    #[label("hello world")] label: String,
    #[seeds(b"player", wallet)] bump: u8,
}
`)
	s := file.Items[0].(*ast.StructDef)
	assert.True(test, ast.HasAttribute(s.Attributes, "solana"))
	assert.True(test, ast.HasAttribute(s.Attributes, "account"))
	assert.False(test, ast.HasAttribute(s.Attributes, "key"))

	assert.True(test, ast.HasAttribute(s.Fields[0].Attributes, "key"))
	assert.Nil(test, ast.GetAttribute(s.Fields[0].Attributes, "key").Value)

	max := ast.GetAttribute(s.Fields[1].Attributes, "max").Value
	assert.Equal(test, ast.IntegerValue, max.Kind)
	assert.Equal(test, uint64(32), max.Integer)
	assert.Equal(test, "#[max(32)]", ast.GetAttribute(s.Fields[1].Attributes, "max").String())

	flag := ast.GetAttribute(s.Fields[2].Attributes, "flag").Value
	assert.Equal(test, ast.BoolValue, flag.Kind)
	assert.True(test, flag.Bool)

	label := ast.GetAttribute(s.Fields[3].Attributes, "label").Value
	assert.Equal(test, ast.StringValue, label.Kind)
	assert.Equal(test, "hello world", label.String)
	assert.Equal(test, `#[label("hello world")]`, ast.GetAttribute(s.Fields[3].Attributes, "label").String())

	seeds := ast.GetAttribute(s.Fields[4].Attributes, "seeds").Value
	assert.Equal(test, ast.StringValue, seeds.Kind)
	assert.Equal(test, `b "player", wallet`, seeds.String)
}

func TestOptionalSpellings(test *testing.T) {
	file := testParse(test, true, `
struct Profile {
    email: Option<String>,
    phone?: String,
    nested: Option<Option<u64>>,
    tags: [Option<String>],
    maybe_tags: Option<[String]>,
}
`)
	fields := file.Items[0].(*ast.StructDef).Fields
	assert.True(test, fields[0].Optional)
	assert.Equal(test, "String", fields[0].Type.String())

	assert.True(test, fields[1].Optional)
	assert.Equal(test, "String", fields[1].Type.String())

	assert.True(test, fields[2].Optional)
	assert.IsType(test, &ast.OptionType{}, fields[2].Type)
	assert.Equal(test, "Option<u64>", fields[2].Type.String())

	assert.False(test, fields[3].Optional)
	assert.Equal(test, "[Option<String>]", fields[3].Type.String())

	assert.True(test, fields[4].Optional)
	assert.Equal(test, "[String]", fields[4].Type.String())
}

func TestOptionalMarkedTwice(test *testing.T) {
	_, err := String(`struct S { x?: Option<u8> }`)
	require.Error(test, err)
	assert.True(test, errors.IsSyntaxError(err))
	assert.Contains(test, err.Error(), "marked optional twice")
}

func TestEnumVariants(test *testing.T) {
	file := testParse(test, true, `
enum GameEvent {
    Started,
    Scored(PublicKey, u64),
    Ended { winner: PublicKey, score: u64 },
    #[deprecated] Legacy,
}`)
	e, ok := file.Items[0].(*ast.EnumDef)
	require.True(test, ok)
	require.Len(test, e.Variants, 4)
	assert.Equal(test, ast.UnitVariant, e.Variants[0].Kind)
	assert.Equal(test, ast.TupleVariant, e.Variants[1].Kind)
	assert.Len(test, e.Variants[1].Types, 2)
	assert.Equal(test, ast.StructVariant, e.Variants[2].Kind)
	assert.Equal(test, "winner", e.Variants[2].Fields[0].Name)
	assert.Equal(test, "Legacy", e.Variants[3].Name)
	assert.False(test, e.IsUnitOnly())
}

func TestEmptyStructAndEnum(test *testing.T) {
	file := testParse(test, true, `struct Empty {}`)
	assert.Empty(test, file.Items[0].(*ast.StructDef).Fields)

	_, err := String(`enum Nothing {}`)
	require.Error(test, err)
	assert.True(test, errors.Is(err, errors.ErrStructure))
	assert.Contains(test, err.Error(), "Nothing")
}

func TestNoDeclarations(test *testing.T) {
	for _, src := range []string{"", "// just a comment\n", "use foo::bar;\nconst X: u8 = 1;"} {
		_, err := String(src)
		require.Error(test, err)
		assert.True(test, errors.IsNoDeclarations(err), src)
	}
}

func TestIgnoresOtherItems(test *testing.T) {
	file := testParse(test, true, `
#![allow(dead_code)]
use anchor_lang::prelude::*;

pub const MAX: u64 = 10;

#[derive(Debug)]
pub fn helper(x: u8) -> u8 { if x > 1 { x } else { 0 } }

impl Foo {
    fn bar(&self) {}
}

pub struct Foo { pub a: u8 }

mod inner;
type Alias = [u8; 4];
`)
	require.Len(test, file.Items, 1)
	s := file.Items[0].(*ast.StructDef)
	assert.Equal(test, "Foo", s.Name)
	assert.Empty(test, s.Attributes)
}

func TestTrailingCommaAndWhitespace(test *testing.T) {
	testParse(test, true, `struct A { x: u8 }`)
	testParse(test, true, `struct A { x: u8, }`)
	testParse(test, true, "struct   A\n{\n\tx :\tu8 ,\n\ty:[ u8 ]\n}")
	testParse(test, true, `enum E { A, B, }`)
	testParse(test, true, `enum E { A(u8,), B }`)
}

func TestPathsAndVec(test *testing.T) {
	file := testParse(test, true, `struct A { k: solana_program::pubkey::Pubkey, v: Vec<u8>, o: std::option::Option<u8> }`)
	fields := file.Items[0].(*ast.StructDef).Fields
	assert.Equal(test, "Pubkey", fields[0].Type.String())
	assert.Equal(test, "[u8]", fields[1].Type.String())
	assert.True(test, fields[2].Optional)
}

func TestSyntaxErrors(test *testing.T) {
	cases := []string{
		`struct A { x: u8`,
		`struct A { x u8 }`,
		`struct A { x: u8 y: u8 }`,
		`struct A { x: [u8 }`,
		`struct A { x: [u8; 4] }`,
		`struct A { x: HashMap<u8, u8> }`,
		`struct A(u8);`,
		`struct { x: u8 }`,
		`struct A { 9x: u8 }`,
		`enum E { A = 1 }`,
		`enum E { A(u8 }`,
		`struct A { x: "str" }`,
		`#[solana`,
		`#[solana]`,
		`}`,
		`fn f() {`,
	}
	for _, src := range cases {
		_, err := String(src)
		if !assert.Error(test, err, src) {
			continue
		}
		assert.True(test, errors.IsSyntaxError(err), "%s: %v", src, err)
	}
}

func TestErrorLocation(test *testing.T) {
	_, err := String("struct A {\n  x u8\n}")
	require.Error(test, err)
	assert.Contains(test, err.Error(), "2:5")
	assert.Contains(test, err.Error(), "Expected ':'")
}

func TestDuplicates(test *testing.T) {
	for _, src := range []string{
		`struct A { x: u8 } struct A { y: u8 }`,
		`struct A { x: u8 } enum A { B }`,
		`struct A { x: u8, x: u16 }`,
		`enum E { A, A }`,
		`enum E { A { x: u8, x: u8 } }`,
	} {
		_, err := String(src)
		require.Error(test, err, src)
		assert.True(test, errors.Is(err, errors.ErrStructure), src)
	}
}

func TestLegacyTOML(test *testing.T) {
	file, err := LegacyTOML(`
name = "User"
solana = true

[[fields]]
name = "id"
type = "u64"

[[fields]]
name = "tags"
type = "[String]"

[[fields]]
name = "email"
type = "String"
optional = true
`)
	require.NoError(test, err)
	s := file.Items[0].(*ast.StructDef)
	assert.Equal(test, "User", s.Name)
	assert.True(test, ast.HasAttribute(s.Attributes, "solana"))
	require.Len(test, s.Fields, 3)
	assert.Equal(test, "[String]", s.Fields[1].Type.String())
	assert.True(test, s.Fields[2].Optional)

	_, err = LegacyTOML("name = \"X\"\n[[fields]]\nname = \"a\"\ntype = \"[u8\"\n")
	assert.True(test, errors.IsSyntaxError(err))

	_, err = LegacyTOML("name = \"X\"\ncolour = 1\n")
	assert.Error(test, err)
}
