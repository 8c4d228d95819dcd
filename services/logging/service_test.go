package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "json format", config: Config{Level: "info", Format: "json"}},
		{name: "console format", config: Config{Level: "debug", Format: "console"}},
		{name: "empty config falls back to defaults", config: Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.config)
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.NotNil(t, svc.Logger())
		})
	}
}

func TestService_NilSafety(t *testing.T) {
	var svc *Service

	assert.NotPanics(t, func() {
		svc.Debug("debug")
		svc.Info("info", zap.String("key", "value"))
		svc.Warn("warn")
		svc.Error("error")
	})
	assert.Nil(t, svc.Logger())
	assert.NoError(t, svc.Sync())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("info"))
	assert.Equal(t, zapcore.WarnLevel, parseLogLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("unknown"))
}
