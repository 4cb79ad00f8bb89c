package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"inventory-audit/backend/internal/platform/isotime"
	"inventory-audit/backend/internal/telemetry"
)

// RecordEmitter is the part of an OTel logger the event emitter needs.
type RecordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends import events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("inventory-audit.imports")}
}

// NewEventEmitterWithLogger wraps an existing logger (or any RecordEmitter).
func NewEventEmitterWithLogger(logger RecordEmitter) telemetry.EventEmitter {
	if logger == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.ImportEvent) error { return nil }

type otelEmitter struct {
	logger RecordEmitter
}

// Emit converts the import event to an OTel log record and emits it.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.ImportEvent) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetSeverity(otellog.SeverityInfo)
	if event.Warnings > 0 {
		rec.SetSeverity(otellog.SeverityWarn)
	}
	rec.SetEventName("inventory.audit.imported")
	rec.SetBody(otellog.StringValue("csv import completed"))
	rec.AddAttributes(
		otellog.Int64("audit_id", event.AuditID),
		otellog.Int64("lab_id", event.LabID),
		otellog.Bool("lab_created", event.LabCreated),
		otellog.Int("items", event.Items),
		otellog.Int("warnings", event.Warnings),
	)
	if event.LabName != "" {
		rec.AddAttributes(otellog.String("lab_name", event.LabName))
	}
	if !event.AuditDate.IsZero() {
		rec.AddAttributes(otellog.String("audit_date", isotime.Format(event.AuditDate)))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
