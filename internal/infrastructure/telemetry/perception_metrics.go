package telemetry

import (
	"context"
	"fmt"

	"github.com/erp/perception/internal/domain/perception"
	"github.com/erp/perception/internal/domain/trade"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	AttrDocumentKind = attribute.Key("document_kind")
	AttrReason       = attribute.Key("reason")
	AttrChange       = attribute.Key("change")
)

// PerceptionMetrics counts engine outcomes. It implements perception.Recorder.
type PerceptionMetrics struct {
	runs     *Counter
	lines    *Counter
	restored *Counter
	failures *Counter
}

// NewPerceptionMetrics registers the perception counters on meter
func NewPerceptionMetrics(meter metric.Meter) (*PerceptionMetrics, error) {
	if meter == nil {
		return nil, fmt.Errorf("NewPerceptionMetrics: %w", ErrMeterNil)
	}

	runs, err := NewCounter(meter, "perception_recalculations_total", "Completed perception recalculations", "{runs}")
	if err != nil {
		return nil, err
	}
	lines, err := NewCounter(meter, "perception_line_changes_total", "Perception taxes added to or removed from lines", "{lines}")
	if err != nil {
		return nil, err
	}
	restored, err := NewCounter(meter, "perception_restored_total", "Perception taxes re-added after confirmation", "{taxes}")
	if err != nil {
		return nil, err
	}
	failures, err := NewCounter(meter, "perception_failures_total", "Recalculations aborted and rolled back", "{runs}")
	if err != nil {
		return nil, err
	}

	return &PerceptionMetrics{runs: runs, lines: lines, restored: restored, failures: failures}, nil
}

// RecordApplied counts a completed recalculation and its line changes
func (m *PerceptionMetrics) RecordApplied(ctx context.Context, kind trade.Kind, added, removed int) {
	m.runs.Inc(ctx, AttrDocumentKind.String(string(kind)))
	if added > 0 {
		m.lines.Add(ctx, int64(added), AttrDocumentKind.String(string(kind)), AttrChange.String("added"))
	}
	if removed > 0 {
		m.lines.Add(ctx, int64(removed), AttrDocumentKind.String(string(kind)), AttrChange.String("removed"))
	}
}

// RecordRestored counts taxes re-added after confirmation
func (m *PerceptionMetrics) RecordRestored(ctx context.Context, kind trade.Kind, restored int) {
	if restored > 0 {
		m.restored.Add(ctx, int64(restored), AttrDocumentKind.String(string(kind)))
	}
}

// RecordFailure counts an aborted recalculation
func (m *PerceptionMetrics) RecordFailure(ctx context.Context, kind trade.Kind, reason string) {
	m.failures.Inc(ctx, AttrDocumentKind.String(string(kind)), AttrReason.String(reason))
}

var _ perception.Recorder = (*PerceptionMetrics)(nil)
