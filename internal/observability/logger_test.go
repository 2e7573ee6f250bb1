package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Info("pipeline finished", "rows", 42)
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "pipeline finished", entry["msg"])
	assert.EqualValues(t, 42, entry["rows"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "text")

	logger.Debug("stage done", "stage", "clean")

	assert.Contains(t, buf.String(), "stage=clean")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestMetricsForTesting_AreUsable(t *testing.T) {
	m := NewMetricsForTesting()

	m.RowsLoaded.Add(3)
	m.RowsDropped.WithLabelValues("out_of_range").Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RowsLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowsDropped.WithLabelValues("out_of_range")))
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "air.prom")

	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "go_goroutines")
}
