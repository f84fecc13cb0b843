package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := map[string]struct {
		level    string
		expected logrus.Level
	}{
		"Default": {level: "", expected: logrus.InfoLevel},
		"Debug":   {level: "debug", expected: logrus.DebugLevel},
		"Upper":   {level: "WARN", expected: logrus.WarnLevel},
		"Error":   {level: " error ", expected: logrus.ErrorLevel},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			logger, err := NewLogger(tc.level, false)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, logger.GetLevel())
		})
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger("chatty", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chatty")
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "info", true)
	require.NoError(t, err)

	logger.WithField("series", "acme/en").Info("fitted")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "fitted", entry["msg"])
	assert.Equal(t, "acme/en", entry["series"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewLogger_TextFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn", false)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("nothing") })
}
