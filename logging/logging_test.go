package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/rustyeddy/fibrange/config"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, Level("debug"))
	assert.Equal(t, zapcore.WarnLevel, Level("warn"))
	assert.Equal(t, zapcore.ErrorLevel, Level("error"))
	assert.Equal(t, zapcore.InfoLevel, Level("info"))
	assert.Equal(t, zapcore.InfoLevel, Level(""))
}

func TestNew(t *testing.T) {
	log := New(config.LogConfig{Level: "warn", Encoding: "console"})
	assert.NotNil(t, log)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))

	log = New(config.LogConfig{Level: "debug"})
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}
