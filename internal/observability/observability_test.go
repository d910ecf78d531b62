package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"crimemap/internal/classify"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for input, want := range tests {
		assert.Equal(t, want, ParseLevel(input), "level %q", input)
	}
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", "json")

	logger.Info("dropped")
	logger.Warn("import finished", "records", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "import finished", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.EqualValues(t, 3, entry["records"])
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info", "text")

	logger.Info("serving", "addr", "127.0.0.1:8080")

	assert.Contains(t, buf.String(), "msg=serving")
	assert.Contains(t, buf.String(), "addr=127.0.0.1:8080")
}

func TestMetrics_ObserveRowsAndImports(t *testing.T) {
	m := NewMetricsForTesting()

	m.ObserveRows(map[classify.Reason]int{
		classify.ReasonRejectedLabel: 2,
		classify.ReasonNoPeriod:      0,
	}, 5)
	m.ObserveImport("ok", 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RowsClassified.WithLabelValues("rejected_label")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.RowsClassified.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Imports.WithLabelValues("ok")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.RecordsLoaded))
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := NewMetricsForTesting()

	m.ObserveRequest("/api/records", "200", 20*time.Millisecond)
	m.ObserveRequest("/api/records", "200", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/records", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRows(map[classify.Reason]int{classify.ReasonEmptyLabel: 1}, 1)
		m.ObserveImport("ok", 1)
		m.ObserveRequest("/", "200", time.Millisecond)
	})
}
