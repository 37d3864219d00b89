package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithConfig(Config{Level: "warn", Format: JSON, Output: &buf})

	slog.Debug("dropped")
	slog.Info("dropped")
	slog.Warn("kept")
	slog.Error("kept")

	lines := nonEmptyLines(buf.String())
	assert.Len(t, lines, 2)
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithConfig(Config{Level: "info", Format: JSON, Output: &buf})

	slog.Info("processing", "asset", "BTC")

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(nonEmptyLines(buf.String())[0]), &record))
	assert.Equal(t, "processing", record["msg"])
	assert.Equal(t, "BTC", record["asset"])
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithConfig(Config{Level: "info", Format: Text, Output: &buf})

	slog.Info("processing", "asset", "ETH")
	assert.Contains(t, buf.String(), "asset=ETH")
}

func TestParseLevelFallback(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
