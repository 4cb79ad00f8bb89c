package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"inventory-audit/backend/internal/audit/domain"
	itemdomain "inventory-audit/backend/internal/item/domain"
	labdomain "inventory-audit/backend/internal/lab/domain"
	"inventory-audit/backend/internal/platform/isotime"
	"inventory-audit/backend/internal/telemetry"
)

// Sentinel errors for the import service; the handler maps them to HTTP statuses.
var (
	ErrLabNameRequired = errors.New("lab_name required")
	ErrFileRequired    = errors.New("file required")
	ErrUnreadableFile  = errors.New("unreadable file")
	ErrInvalidDate     = errors.New("invalid date")
)

// maxReportedWarnings caps ImportResult.Warnings; WarningCount still counts every one.
const maxReportedWarnings = 100

// LabRepo is the minimal lab repository needed by the import service.
type LabRepo interface {
	GetOrCreateByName(ctx context.Context, name string) (*labdomain.Lab, bool, error)
}

// AuditRepo is the minimal audit repository needed by the import service.
type AuditRepo interface {
	CreateWithItems(ctx context.Context, a *domain.Audit, items []*itemdomain.Item) error
}

// ImportRequest is one upload. Date is an optional ISO-8601 string.
type ImportRequest struct {
	LabName string
	Notes   string
	Date    string
	File    io.Reader
}

// RowWarning records a value that was stored leniently or a line that was skipped.
// Row is the 1-based line in the file; 0 refers to the request itself.
type RowWarning struct {
	Row    int    `json:"row"`
	Field  string `json:"field,omitempty"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

// ImportResult describes the audit created by an import.
type ImportResult struct {
	AuditID      int64
	LabID        int64
	LabName      string
	LabCreated   bool
	AuditDate    time.Time
	ItemCount    int
	WarningCount int
	Warnings     []RowWarning
}

// ImportService turns an uploaded delimited file into one audit with its items.
type ImportService struct {
	labs    LabRepo
	audits  AuditRepo
	strict  bool
	metrics *telemetry.Metrics
	emitter telemetry.EventEmitter
	logger  *zap.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// ImportOptions configures an ImportService. Zero values select the defaults.
type ImportOptions struct {
	// Strict rejects an unparseable request date with ErrInvalidDate instead of using the current time.
	Strict  bool
	Metrics *telemetry.Metrics
	// Emitter receives one event per successful import; nil disables events.
	Emitter telemetry.EventEmitter
	Logger  *zap.Logger
	// Now overrides the clock used for missing dates.
	Now func() time.Time
}

// NewImportService returns an import service persisting through labs and audits.
func NewImportService(labs LabRepo, audits AuditRepo, opts ImportOptions) *ImportService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ImportService{
		labs:    labs,
		audits:  audits,
		strict:  opts.Strict,
		metrics: opts.Metrics,
		emitter: opts.Emitter,
		logger:  logger,
		tracer:  otel.Tracer("inventory-audit/audit"),
		now:     now,
	}
}

// Import validates the request, decodes and maps the whole file, and only then resolves the lab
// and writes the audit with its items in one transaction. An unreadable file writes nothing.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	ctx, span := s.tracer.Start(ctx, "audit.Import")
	defer span.End()

	labName := strings.TrimSpace(req.LabName)
	if labName == "" {
		return nil, ErrLabNameRequired
	}
	if req.File == nil {
		return nil, ErrFileRequired
	}

	var warnings []RowWarning
	date, dateWarning, err := s.resolveDate(req.Date)
	if err != nil {
		return nil, err
	}
	if dateWarning != nil {
		warnings = append(warnings, *dateWarning)
	}

	data, err := decodeUpload(req.File)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	tbl, err := parseTable(data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	items, rowWarnings := mapRows(tbl)
	warnings = append(warnings, tbl.skipped...)
	warnings = append(warnings, rowWarnings...)

	lab, created, err := s.labs.GetOrCreateByName(ctx, labName)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if created {
		s.logger.Info("lab created", zap.Int64("lab_id", lab.ID), zap.String("lab_name", lab.Name))
	}

	a := &domain.Audit{LabID: lab.ID, Date: date, Notes: req.Notes}
	if err := s.audits.CreateWithItems(ctx, a, items); err != nil {
		span.RecordError(err)
		return nil, err
	}

	res := &ImportResult{
		AuditID:      a.ID,
		LabID:        lab.ID,
		LabName:      lab.Name,
		LabCreated:   created,
		AuditDate:    date,
		ItemCount:    len(items),
		WarningCount: len(warnings),
		Warnings:     warnings,
	}
	if len(res.Warnings) > maxReportedWarnings {
		res.Warnings = res.Warnings[:maxReportedWarnings]
	}
	if res.Warnings == nil {
		res.Warnings = []RowWarning{}
	}

	span.SetAttributes(
		attribute.Int64("audit.id", a.ID),
		attribute.Int("audit.items", len(items)),
		attribute.Int("audit.warnings", len(warnings)),
	)
	s.metrics.RecordImport(ctx, len(items), lenientFields(warnings))
	s.logger.Info("audit imported",
		zap.Int64("audit_id", a.ID),
		zap.Int64("lab_id", lab.ID),
		zap.Int("items", len(items)),
		zap.Int("warnings", len(warnings)),
	)
	telemetry.EmitAsync(s.emitter, s.logger, &telemetry.ImportEvent{
		AuditID:    a.ID,
		LabID:      lab.ID,
		LabName:    lab.Name,
		LabCreated: created,
		Items:      len(items),
		Warnings:   len(warnings),
		AuditDate:  date,
		OccurredAt: s.now().UTC(),
	})
	return res, nil
}

// resolveDate parses raw, falling back to the current UTC time when it is empty or, outside
// strict mode, unparseable.
func (s *ImportService) resolveDate(raw string) (time.Time, *RowWarning, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.now().UTC(), nil, nil
	}
	t, err := isotime.Parse(raw)
	if err == nil {
		return t, nil, nil
	}
	if s.strict {
		return time.Time{}, nil, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return s.now().UTC(), &RowWarning{Field: "date", Value: raw, Reason: "not an ISO-8601 date; current time used"}, nil
}

// mapRows converts every record to an item. Quantities that are present but not integers are
// stored as absent and reported.
func mapRows(tbl *table) ([]*itemdomain.Item, []RowWarning) {
	cols := newColumnMap(tbl.header)
	items := make([]*itemdomain.Item, 0, len(tbl.records))
	var warnings []RowWarning
	for _, rec := range tbl.records {
		it := &itemdomain.Item{
			Code:   cols.text(rec.fields, FieldCode),
			Name:   cols.text(rec.fields, FieldName),
			Status: cols.text(rec.fields, FieldStatus),
		}
		var (
			raw string
			ok  bool
		)
		if it.SystemQty, raw, ok = cols.quantity(rec.fields, FieldSystemQty); !ok {
			warnings = append(warnings, RowWarning{Row: rec.line, Field: FieldSystemQty, Value: raw, Reason: "not an integer; stored as absent"})
		}
		if it.PhysicalQty, raw, ok = cols.quantity(rec.fields, FieldPhysicalQty); !ok {
			warnings = append(warnings, RowWarning{Row: rec.line, Field: FieldPhysicalQty, Value: raw, Reason: "not an integer; stored as absent"})
		}
		items = append(items, it)
	}
	return items, warnings
}

func lenientFields(warnings []RowWarning) []string {
	var out []string
	for _, w := range warnings {
		if w.Field != "" {
			out = append(out, w.Field)
		}
	}
	return out
}
