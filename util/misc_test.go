package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCasing(test *testing.T) {
	assert.Equal(test, "player_account", ToSnakeCase("PlayerAccount"))
	assert.Equal(test, "https_connection", ToSnakeCase("HTTPSConnection"))
	assert.Equal(test, "already_snake", ToSnakeCase("already_snake"))
	assert.Equal(test, "PlayerAccount", ToPascalCase("player_account"))
	assert.Equal(test, "GameState", ToPascalCase("GameState"))
	assert.Equal(test, "", ToPascalCase(""))
}

func TestIsSymbol(test *testing.T) {
	assert.True(test, IsSymbol("_x"))
	assert.True(test, IsSymbol("u64"))
	assert.False(test, IsSymbol("9lives"))
	assert.False(test, IsSymbol("_"))
	assert.False(test, IsSymbol(""))
}

func TestFormatComment(test *testing.T) {
	assert.Equal(test, "// one\n// two\n", FormatComment("", "// ", "one\ntwo", 80, false))
	wrapped := FormatComment("  ", "/// ", "alpha beta gamma delta", 16, false)
	assert.Equal(test, "  /// alpha beta\n  /// gamma\n  /// delta\n", wrapped)
}

func TestDataFromFile(test *testing.T) {
	dir := test.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(test, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	for _, path := range []string{
		write("conf.json", `{"header": false, "rust": {"anchor": "never"}}`),
		write("conf.yaml", "header: false\nrust:\n  anchor: never\n"),
		write("conf.toml", "header = false\n[rust]\nanchor = \"never\"\n"),
	} {
		data, err := DataFromFile(path)
		require.NoError(test, err, path)
		assert.True(test, data.Has("header"), path)
		assert.False(test, data.GetBoolOr(true, "header"), path)
		assert.Equal(test, "never", data.GetString("rust", "anchor"), path)
		assert.Equal(test, "auto", data.GetStringOr("auto", "typescript", "mode"), path)
	}

	_, err := DataFromFile(write("bad.json", "{"))
	assert.Error(test, err)
}

func TestDataPut(test *testing.T) {
	data := NewData()
	data.Put("count", 3)
	assert.Equal(test, 3, data.GetInt("count"))
	var nilData *Data
	assert.False(test, nilData.Has("x"))
}
