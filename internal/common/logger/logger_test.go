package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestZapWrapper_FieldsAndNamed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	child := log.Named("wizard").WithFields(map[string]interface{}{"step": "personal-info"})
	child.WithError(errors.New("disk full")).Warn("save failed", map[string]interface{}{"attempt": 1})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "save failed", entry.Message)
	assert.Equal(t, "wizard", entry.LoggerName)

	ctx := entry.ContextMap()
	assert.Equal(t, "wizard", ctx["component"])
	assert.Equal(t, "personal-info", ctx["step"])
	assert.Equal(t, "disk full", ctx["error"])
	assert.Equal(t, int64(1), ctx["attempt"])
}

func TestMapToZapFields_SortedAndNil(t *testing.T) {
	assert.Nil(t, mapToZapFields(nil))

	fields := mapToZapFields(map[string]interface{}{"b": 2, "a": 1, "c": errors.New("x")})
	require.Len(t, fields, 3)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "b", fields[1].Key)
	assert.Equal(t, "c", fields[2].Key)
}

func TestNewStructured(t *testing.T) {
	log := NewStructured(Options{Level: "debug", Format: "json"})
	assert.NotNil(t, log)
	log.Debug("hello", nil)

	assert.NotNil(t, NewNoOpLogger())
	NewTestLogger(t).Info("from test", map[string]interface{}{"k": "v"})
}
