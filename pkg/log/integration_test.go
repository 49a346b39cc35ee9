package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/autoscigo/pkg/errors"
)

func TestTestLoggerLevels(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelInfo)

	testLogger.Debug("hidden")
	testLogger.Info("analysis finished", SamplesKey, 100)
	testLogger.Warn("column looks constant", ColumnsKey, "id")
	testLogger.Error("build failed", fmt.Errorf("shape unresolved"), NodeNameKey, "pixels")

	require.NotEmpty(t, buffer.String())
	assert.False(t, testLogger.ContainsMessage("hidden"))
	assert.True(t, testLogger.ContainsField(SamplesKey, 100.0))
	assert.True(t, testLogger.ContainsField(ErrAttrKey, "shape unresolved"))
	assert.True(t, testLogger.ContainsField(NodeNameKey, "pixels"))
	assert.Equal(t, 1, testLogger.CountLevel("WARN"))

	ctx := context.Background()
	assert.True(t, testLogger.Enabled(ctx, LevelError))
	assert.False(t, testLogger.Enabled(ctx, LevelDebug))
}

func TestTestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	nodeLogger := testLogger.With(
		NodeNameKey, "table",
		NodeModalityKey, "StructuredDataInput",
	)
	nodeLogger.Info("adapter locked", OperationKey, OperationAdapt)

	entries, err := testLogger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "table", entries[0][NodeNameKey])
	assert.Equal(t, "StructuredDataInput", entries[0][NodeModalityKey])
	assert.Equal(t, OperationAdapt, entries[0][OperationKey])
}

func TestTestLoggerProvider(t *testing.T) {
	provider, buffer := NewTestLoggerProvider(LevelDebug)
	provider.GetLogger().Info("root")
	provider.GetLoggerWithName("pipeline").Info("named")

	out := buffer.String()
	assert.True(t, strings.Contains(out, "root"))
	assert.True(t, strings.Contains(out, `"ml.component":"pipeline"`))

	provider.SetLevel(LevelError)
	provider.TestLogger().Info("dropped")
	assert.False(t, provider.TestLogger().ContainsMessage("dropped"))
}

func TestConcurrentTestLogging(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				testLogger.Info("batch", "worker", id, "batch", j)
			}
		}(i)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProviderTo(&buf, LevelInfo)

	logger := provider.GetLoggerWithName("analysers").With(NodeNameKey, "pixels")
	logger.Debug("not emitted")
	logger.Info("finalized", ShapeKey, []int{28, 28}, SamplesKey, 60000)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "finalized", entry["message"])
	assert.Equal(t, "analysers", entry[ComponentKey])
	assert.Equal(t, "pixels", entry[NodeNameKey])
	assert.Equal(t, 60000.0, entry[SamplesKey])

	assert.False(t, logger.Enabled(context.Background(), LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), LevelWarn))
}

func TestZerologEmbedsStructuredErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologProviderTo(&buf, LevelDebug).GetLogger()

	err := errors.NewConfigurationError("TimeseriesInput(sales)", "lookback", "unresolved")
	logger.Error("build failed", err)

	out := buf.String()
	assert.Contains(t, out, `"component":"TimeseriesInput(sales)"`)
	assert.Contains(t, out, `"error.message"`)
}

func TestSetProviderRoutesWarnings(t *testing.T) {
	provider, _ := NewTestLoggerProvider(LevelDebug)
	SetProvider(provider)
	defer SetProvider(NewZerologProviderTo(&bytes.Buffer{}, LevelInfo))

	errors.Warn(errors.NewDataConversionWarning("float64", "string", "structured input"))

	assert.Equal(t, 1, provider.TestLogger().CountLevel("WARN"))
	assert.True(t, provider.TestLogger().ContainsField(ComponentKey, "warnings"))
	assert.Same(t, provider, Provider())
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, l)
	assert.Equal(t, slog.LevelDebug, ToLogLevel("debug"))

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
	assert.Panics(t, func() { ToLogLevel("verbose") })
}

func TestErrFmtHandlerAddsStacktrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil)))

	logger.Error("failed", ErrAttr(errors.NewValueError("Adapter.Adapt", "bad input")))
	assert.Contains(t, buf.String(), `"`+StacktraceAttrKey+`"`)

	buf.Reset()
	logger.Info("no error attached")
	assert.NotContains(t, buf.String(), StacktraceAttrKey)
}
