package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"inventory-audit/backend/internal/lab/domain"
	"inventory-audit/backend/internal/platform/respond"
)

// Lister is the lab query the handler needs.
type Lister interface {
	List(ctx context.Context) ([]*domain.Lab, error)
}

// Server serves the lab JSON endpoints.
type Server struct {
	labs   Lister
	logger *zap.Logger
}

// NewServer returns a lab handler backed by labs.
func NewServer(labs Lister, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{labs: labs, logger: logger}
}

// LabJSON is the wire form of a lab. Location is null when unknown.
type LabJSON struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Location *string `json:"location"`
}

// ListLabs handles GET /api/labs.
func (s *Server) ListLabs(w http.ResponseWriter, r *http.Request) {
	labs, err := s.labs.List(r.Context())
	if err != nil {
		respond.Internal(w, r, s.logger, "list labs", err)
		return
	}
	out := make([]LabJSON, 0, len(labs))
	for _, l := range labs {
		out = append(out, LabJSON{ID: l.ID, Name: l.Name, Location: l.Location})
	}
	respond.JSON(w, http.StatusOK, out)
}
