package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "inventory-audit"

// Metrics records import and search counters. Lenient parsing (discarded filters, unparseable
// quantities) is counted here so silent data loss stays observable.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	importRows       metric.Int64Counter
	lenientFields    metric.Int64Counter
	searchResults    metric.Int64Histogram
	searchTruncated  metric.Int64Counter
	discardedFilters metric.Int64Counter
}

// NewMetrics creates the instruments on mp. A nil mp uses a no-op provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	meter := mp.Meter(meterName)

	var (
		m   Metrics
		err error
	)
	if m.importRows, err = meter.Int64Counter("import.rows",
		metric.WithDescription("Item rows persisted by CSV imports"), metric.WithUnit("{row}")); err != nil {
		return nil, err
	}
	if m.lenientFields, err = meter.Int64Counter("import.lenient_fields",
		metric.WithDescription("Import fields stored as absent or defaulted because they could not be parsed")); err != nil {
		return nil, err
	}
	if m.searchResults, err = meter.Int64Histogram("search.results",
		metric.WithDescription("Rows returned per search"), metric.WithUnit("{row}")); err != nil {
		return nil, err
	}
	if m.searchTruncated, err = meter.Int64Counter("search.truncated",
		metric.WithDescription("Searches whose result hit the row cap")); err != nil {
		return nil, err
	}
	if m.discardedFilters, err = meter.Int64Counter("search.discarded_filters",
		metric.WithDescription("Search filters dropped because they could not be parsed")); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordImport counts persisted rows and one lenient event per field name in lenient.
func (m *Metrics) RecordImport(ctx context.Context, rows int, lenient []string) {
	if m == nil {
		return
	}
	m.importRows.Add(ctx, int64(rows))
	for _, field := range lenient {
		m.lenientFields.Add(ctx, 1, metric.WithAttributes(attribute.String("field", field)))
	}
}

// RecordSearch records the result size, truncation, and every discarded filter name.
func (m *Metrics) RecordSearch(ctx context.Context, results int, truncated bool, discarded []string) {
	if m == nil {
		return
	}
	m.searchResults.Record(ctx, int64(results))
	if truncated {
		m.searchTruncated.Add(ctx, 1)
	}
	for _, filter := range discarded {
		m.discardedFilters.Add(ctx, 1, metric.WithAttributes(attribute.String("filter", filter)))
	}
}
