package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"inventory-audit/backend/internal/platform/respond"
)

const pingTimeout = 2 * time.Second

// Pinger checks readiness of a dependency (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server serves the readiness probe.
type Server struct {
	pinger Pinger
	logger *zap.Logger
}

// NewServer returns a health handler. If pinger is nil the probe always reports ok.
func NewServer(pinger Pinger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{pinger: pinger, logger: logger}
}

type statusJSON struct {
	Status string `json:"status"`
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := s.pinger.PingContext(ctx); err != nil {
			s.logger.Warn("health: database ping failed", zap.Error(err))
			respond.JSON(w, http.StatusServiceUnavailable, statusJSON{Status: "unavailable"})
			return
		}
	}
	respond.JSON(w, http.StatusOK, statusJSON{Status: "ok"})
}
