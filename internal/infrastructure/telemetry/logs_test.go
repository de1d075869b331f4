package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type exportedRecord struct {
	body     string
	severity otellog.Severity
	attrs    map[string]string
}

type memoryExporter struct {
	mu      sync.Mutex
	records []exportedRecord
}

func (e *memoryExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		rec := exportedRecord{body: r.Body().AsString(), severity: r.Severity(), attrs: map[string]string{}}
		r.WalkAttributes(func(kv otellog.KeyValue) bool {
			rec.attrs[kv.Key] = kv.Value.String()
			return true
		})
		e.records = append(e.records, rec)
	}
	return nil
}

func (e *memoryExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryExporter) ForceFlush(context.Context) error { return nil }

func (e *memoryExporter) all() []exportedRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]exportedRecord(nil), e.records...)
}

func newTestLoggerProvider(t *testing.T) (*LoggerProvider, *memoryExporter) {
	t.Helper()
	exporter := &memoryExporter{}
	lp := &LoggerProvider{
		provider: sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter))),
		logger:   zap.NewNop(),
		config:   LogsConfig{Enabled: true, ServiceName: "perception"},
	}
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })
	return lp, exporter
}

// ==================== Log bridge ====================

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.ForceFlush(ctx))
	assert.NoError(t, lp.Shutdown(ctx))

	core := NewZapOTELCore(ZapBridgeConfig{ServiceName: "perception", LoggerProvider: lp})
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
	assert.False(t, NewZapOTELCore(ZapBridgeConfig{}).Enabled(zapcore.ErrorLevel))
}

func TestNewZapOTELCore(t *testing.T) {
	t.Run("forwards entries with fields", func(t *testing.T) {
		lp, exporter := newTestLoggerProvider(t)
		require.True(t, lp.IsEnabled())
		log := zap.New(NewZapOTELCore(ZapBridgeConfig{
			ServiceName:    "perception",
			LoggerProvider: lp,
			Level:          zapcore.DebugLevel,
		}))

		log.With(zap.String("document_number", "S00001")).Warn("document event handling failed")
		require.NoError(t, lp.ForceFlush(context.Background()))

		records := exporter.all()
		require.Len(t, records, 1)
		assert.Equal(t, "document event handling failed", records[0].body)
		assert.Equal(t, otellog.SeverityWarn, records[0].severity)
		assert.Equal(t, "S00001", records[0].attrs["document_number"])
	})

	t.Run("drops entries below the level", func(t *testing.T) {
		lp, exporter := newTestLoggerProvider(t)
		log := zap.New(NewZapOTELCore(ZapBridgeConfig{
			ServiceName:    "perception",
			LoggerProvider: lp,
			Level:          zapcore.InfoLevel,
		}))

		log.Debug("perception already up to date")
		log.With(zap.String("k", "v")).Debug("still filtered after With")
		log.Info("perception applied manually")

		records := exporter.all()
		require.Len(t, records, 1)
		assert.Equal(t, "perception applied manually", records[0].body)
		assert.Equal(t, otellog.SeverityInfo, records[0].severity)
	})
}
