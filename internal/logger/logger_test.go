package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"unknown": zapcore.InfoLevel,
	}
	for level, want := range cases {
		for _, format := range []string{"json", "console"} {
			log, err := NewLogger(level, format, "carrito-cli")
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(want), "%s/%s", level, format)
			if want > zapcore.DebugLevel {
				assert.False(t, log.Core().Enabled(want-1), "%s/%s", level, format)
			}
		}
	}
}
