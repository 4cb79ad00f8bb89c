package telemetry

import (
	"context"
	"errors"
	"time"
)

// ImportEvent describes one completed CSV import.
type ImportEvent struct {
	AuditID    int64
	LabID      int64
	LabName    string
	LabCreated bool
	Items      int
	Warnings   int
	AuditDate  time.Time
	OccurredAt time.Time
}

// EventEmitter emits import events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *ImportEvent) error
}

// MultiEmitter fans an event out to every non-nil emitter. All emitters run; their errors are joined.
func MultiEmitter(emitters ...EventEmitter) EventEmitter {
	var out multiEmitter
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

type multiEmitter []EventEmitter

func (m multiEmitter) Emit(ctx context.Context, event *ImportEvent) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
