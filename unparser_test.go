package lumos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnparseCanonical(test *testing.T) {
	schema := compile(test, `
#[solana] #[account] pub struct Player { pub wallet: PublicKey, score: number, nick: Option<string>, }
enum Move { Stop, Go(i8, [u8]), Jump { height: u16 } }
struct Empty {}`)
	src, err := Unparse(schema)
	require.NoError(test, err)
	expected := `#[solana]
#[account]
struct Player {
    wallet: PublicKey,
    score: u64,
    nick?: String,
}

enum Move {
    Stop,
    Go(i8, [u8]),
    Jump {
        height: u16,
    },
}

struct Empty {}
`
	assert.Equal(test, expected, src)
}

func TestUnparseRoundTrip(test *testing.T) {
	sources := []string{
		`struct A { x: Option<Option<u8>>, y: [Option<B>], z?: [B] } struct B { b: bool }`,
		`#[account] struct C { sig: Signature, big: i128 } enum D { One(C), Two { c: Option<C> } }`,
	}
	for _, src := range sources {
		schema := compile(test, src)
		out, err := Unparse(schema)
		require.NoError(test, err)
		again := compile(test, out)
		assert.Equal(test, schema, again, out)
		out2, err := Unparse(again)
		require.NoError(test, err)
		assert.Equal(test, out, out2)
	}
}

func TestUnparseEmpty(test *testing.T) {
	src, err := Unparse(Schema{})
	require.NoError(test, err)
	assert.Equal(test, "", src)
}
