package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"inventory-audit/backend/internal/item/service"
	"inventory-audit/backend/internal/platform/isotime"
	"inventory-audit/backend/internal/platform/respond"
)

// Response headers carrying search metadata alongside the array body.
const (
	HeaderTruncated        = "X-Result-Truncated"
	HeaderDiscardedFilters = "X-Discarded-Filters"
)

// Searcher runs an item search.
type Searcher interface {
	Search(ctx context.Context, p service.Params) (*service.SearchResult, error)
}

// Server serves the item search endpoint.
type Server struct {
	search Searcher
	logger *zap.Logger
}

// NewServer returns a search handler backed by search.
func NewServer(search Searcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{search: search, logger: logger}
}

// ItemJSON is one search hit. Quantities are null when absent.
type ItemJSON struct {
	ID          int64  `json:"id"`
	AuditID     int64  `json:"audit_id"`
	LabID       int64  `json:"lab_id"`
	LabName     string `json:"lab_name"`
	AuditDate   string `json:"audit_date"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	SystemQty   *int64 `json:"system_qty"`
	PhysicalQty *int64 `json:"physical_qty"`
	Status      string `json:"status"`
}

// Search handles GET /api/search?q=&lab_id=&status=&date_from=&date_to=.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.search.Search(r.Context(), service.Params{
		Q:        q.Get("q"),
		LabID:    q.Get("lab_id"),
		Status:   q.Get("status"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidFilter) {
			respond.Error(w, r, http.StatusBadRequest, respond.CodeInvalidArgument, err.Error())
			return
		}
		respond.Internal(w, r, s.logger, "search items", err)
		return
	}

	out := make([]ItemJSON, 0, len(res.Items))
	for _, row := range res.Items {
		out = append(out, ItemJSON{
			ID:          row.ID,
			AuditID:     row.AuditID,
			LabID:       row.LabID,
			LabName:     row.LabName,
			AuditDate:   isotime.Format(row.AuditDate),
			Code:        row.Code,
			Name:        row.Name,
			SystemQty:   row.SystemQty,
			PhysicalQty: row.PhysicalQty,
			Status:      row.Status,
		})
	}
	w.Header().Set(HeaderTruncated, strconv.FormatBool(res.Truncated))
	if len(res.Discarded) > 0 {
		w.Header().Set(HeaderDiscardedFilters, strings.Join(res.Discarded, ","))
	}
	respond.JSON(w, http.StatusOK, out)
}
