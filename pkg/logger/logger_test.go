package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnaudderison/logtime19/internal/config"
	"github.com/arnaudderison/logtime19/pkg/logger"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		level         string
		format        string
		expectedLevel logrus.Level
		expectedJSON  bool
	}{
		{"debug_json", "debug", "json", logrus.DebugLevel, true},
		{"warn_text", "WARN", "text", logrus.WarnLevel, false},
		{"invalid_level_defaults_to_info", "loud", "json", logrus.InfoLevel, true},
		{"unknown_format_defaults_to_json", "info", "xml", logrus.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.New(tt.level, tt.format, "stdout")

			assert.Equal(t, tt.expectedLevel, log.GetLevel())
			_, isJSON := log.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.expectedJSON, isJSON)
		})
	}
}

func TestNewWithConfig(t *testing.T) {
	log := logger.NewWithConfig(&config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"})

	assert.Equal(t, logrus.ErrorLevel, log.GetLevel())
}

func TestCorrelationID(t *testing.T) {
	ctx := logger.SetCorrelationID(context.Background(), "req-123")
	assert.Equal(t, "req-123", logger.GetCorrelationID(ctx))
	assert.Empty(t, logger.GetCorrelationID(context.Background()))

	var buf bytes.Buffer
	log := logger.New("info", "json", "stdout")
	log.SetOutput(&buf)

	logger.WithCorrelationID(ctx, log).Info("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-123", line[logger.CorrelationIDField])
	assert.Equal(t, "hello", line["message"])
}

func TestWithCorrelationID_Missing(t *testing.T) {
	log := logger.New("info", "json", "stdout")

	entry := logger.WithCorrelationID(context.Background(), log)

	assert.NotContains(t, entry.Data, logger.CorrelationIDField)
}
