package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"inventory-audit/backend/internal/audit/service"
	"inventory-audit/backend/internal/platform/isotime"
	"inventory-audit/backend/internal/platform/respond"
)

const (
	// DefaultMaxUploadBytes bounds the multipart body when no limit is configured.
	DefaultMaxUploadBytes = 32 << 20
	multipartMemory       = 8 << 20
	msgMissingFields      = "lab_name and file required"
)

// Importer runs a CSV import.
type Importer interface {
	Import(ctx context.Context, req service.ImportRequest) (*service.ImportResult, error)
}

// Server serves the import endpoint.
type Server struct {
	importer       Importer
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewServer returns an import handler. maxUploadBytes <= 0 means DefaultMaxUploadBytes.
func NewServer(importer Importer, maxUploadBytes int64, logger *zap.Logger) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{importer: importer, maxUploadBytes: maxUploadBytes, logger: logger}
}

// ImportResponse is the success body of POST /api/import_csv.
type ImportResponse struct {
	OK           bool                 `json:"ok"`
	AuditID      int64                `json:"audit_id"`
	LabID        int64                `json:"lab_id"`
	LabCreated   bool                 `json:"lab_created"`
	AuditDate    string               `json:"audit_date"`
	Items        int                  `json:"items"`
	WarningCount int                  `json:"warning_count"`
	Warnings     []service.RowWarning `json:"warnings"`
}

// ImportCSV handles POST /api/import_csv with multipart fields lab_name, notes, date and file.
func (s *Server) ImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, r, http.StatusRequestEntityTooLarge, respond.CodeInvalidArgument, "upload too large")
			return
		}
		respond.Error(w, r, http.StatusBadRequest, respond.CodeInvalidArgument, msgMissingFields)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := service.ImportRequest{
		LabName: r.FormValue("lab_name"),
		Notes:   r.FormValue("notes"),
		Date:    r.FormValue("date"),
	}
	if strings.TrimSpace(req.LabName) == "" {
		respond.Error(w, r, http.StatusBadRequest, respond.CodeInvalidArgument, msgMissingFields)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, respond.CodeInvalidArgument, msgMissingFields)
		return
	}
	defer file.Close()
	req.File = file

	res, err := s.importer.Import(r.Context(), req)
	if err != nil {
		s.writeImportError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, ImportResponse{
		OK:           true,
		AuditID:      res.AuditID,
		LabID:        res.LabID,
		LabCreated:   res.LabCreated,
		AuditDate:    isotime.Format(res.AuditDate),
		Items:        res.ItemCount,
		WarningCount: res.WarningCount,
		Warnings:     res.Warnings,
	})
}

func (s *Server) writeImportError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrLabNameRequired), errors.Is(err, service.ErrFileRequired):
		respond.Error(w, r, http.StatusBadRequest, respond.CodeInvalidArgument, msgMissingFields)
	case errors.Is(err, service.ErrInvalidDate):
		respond.Error(w, r, http.StatusBadRequest, respond.CodeInvalidArgument, err.Error())
	case errors.Is(err, service.ErrUnreadableFile):
		s.logger.Warn("import rejected", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, respond.CodeUnreadableFile, err.Error())
	default:
		respond.Internal(w, r, s.logger, "import csv", err)
	}
}
