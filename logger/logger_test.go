package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestUseObserver(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	saved := Logger
	defer func() { Logger = saved }()

	Use(zap.New(core))
	Logger.Debugw("parsed declaration", "name", "User")

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "parsed declaration", entries[0].Message)
	assert.Equal(t, "User", entries[0].ContextMap()["name"])
}

func TestInitialize(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()

	assert.NoError(t, Initialize(true, false))
	assert.False(t, JSONOutput)
	assert.NoError(t, Initialize(false, true))
	assert.True(t, JSONOutput)
}
