package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"inventory-audit/backend/internal/telemetry"
)

func TestNewEventEmitter_NilProvider_ReturnsNoop(t *testing.T) {
	em := NewEventEmitter(nil)
	if em == nil {
		t.Fatal("NewEventEmitter(nil) returned nil")
	}
	if err := em.Emit(context.Background(), &telemetry.ImportEvent{AuditID: 1}); err != nil {
		t.Errorf("noop Emit: %v", err)
	}
	if NewEventEmitterWithLogger(nil) == nil {
		t.Fatal("NewEventEmitterWithLogger(nil) returned nil")
	}
}

func TestEmit_NilEvent_ReturnsNil(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	em := NewEventEmitter(provider)
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(ctx, nil): %v", err)
	}
}

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	rec   otellog.Record
	calls int
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.rec = rec
	r.calls++
}

func attrs(rec otellog.Record) map[string]otellog.Value {
	out := map[string]otellog.Value{}
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		out[kv.Key] = kv.Value
		return true
	})
	return out
}

func TestEmit_AttributeMapping(t *testing.T) {
	capture := &recordCapture{}
	em := NewEventEmitterWithLogger(capture)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	err := em.Emit(context.Background(), &telemetry.ImportEvent{
		AuditID:    11,
		LabID:      3,
		LabName:    "Chemistry",
		LabCreated: true,
		Items:      42,
		Warnings:   2,
		AuditDate:  at,
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if capture.calls != 1 {
		t.Fatalf("calls = %d, want 1", capture.calls)
	}
	if !capture.rec.Timestamp().Equal(at) {
		t.Errorf("timestamp = %v, want %v", capture.rec.Timestamp(), at)
	}
	if capture.rec.Severity() != otellog.SeverityWarn {
		t.Errorf("severity = %v, want warn when warnings > 0", capture.rec.Severity())
	}
	got := attrs(capture.rec)
	if got["audit_id"].AsInt64() != 11 {
		t.Errorf("audit_id = %v", got["audit_id"])
	}
	if got["items"].AsInt64() != 42 {
		t.Errorf("items = %v", got["items"])
	}
	if !got["lab_created"].AsBool() {
		t.Errorf("lab_created = %v", got["lab_created"])
	}
	if got["lab_name"].AsString() != "Chemistry" {
		t.Errorf("lab_name = %v", got["lab_name"])
	}
	if got["audit_date"].AsString() != "2025-06-01T12:00:00.000Z" {
		t.Errorf("audit_date = %v", got["audit_date"])
	}
}

func TestEmit_DefaultsTimestampAndSeverity(t *testing.T) {
	capture := &recordCapture{}
	em := NewEventEmitterWithLogger(capture)
	before := time.Now().UTC()

	if err := em.Emit(context.Background(), &telemetry.ImportEvent{AuditID: 1}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if capture.rec.Timestamp().Before(before) {
		t.Errorf("timestamp %v should default to now", capture.rec.Timestamp())
	}
	if capture.rec.Severity() != otellog.SeverityInfo {
		t.Errorf("severity = %v, want info", capture.rec.Severity())
	}
	if _, ok := attrs(capture.rec)["lab_name"]; ok {
		t.Error("empty lab_name should not be recorded")
	}
}
