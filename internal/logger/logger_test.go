package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("debug", "json", []string{"stdout"}, []string{"stderr"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger("loud", "json", []string{"stdout"}, []string{"stderr"})
	assert.Error(t, err)
}

func TestNamedFallsBackToGlobal(t *testing.T) {
	assert.NotNil(t, Named(nil, "session"))
}
