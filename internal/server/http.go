package server

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	audithandler "inventory-audit/backend/internal/audit/handler"
	healthhandler "inventory-audit/backend/internal/health/handler"
	itemhandler "inventory-audit/backend/internal/item/handler"
	labhandler "inventory-audit/backend/internal/lab/handler"
	"inventory-audit/backend/internal/server/middleware"
	webhandler "inventory-audit/backend/internal/web/handler"
)

// Deps holds the collaborators the HTTP surface is built from.
type Deps struct {
	Labs      labhandler.Lister
	Search    itemhandler.Searcher
	Importer  audithandler.Importer
	LabPages  webhandler.LabGetter
	LabAudits webhandler.AuditLister
	// HealthPinger is used by /healthz (e.g. *sql.DB). If nil, the probe skips the ping.
	HealthPinger healthhandler.Pinger
	// MaxUploadBytes bounds import bodies; <= 0 uses the handler default.
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// NewHandler registers every route and wraps the router with the middleware chain.
//
// Route → handler mapping:
//   - GET  /                → internal/web/handler (index page)
//   - GET  /lab/{lab_id}    → internal/web/handler (lab page)
//   - GET  /static/         → internal/web/handler (embedded assets)
//   - GET  /api/labs        → internal/lab/handler
//   - GET  /api/search      → internal/item/handler
//   - POST /api/import_csv  → internal/audit/handler
//   - GET  /healthz         → internal/health/handler
func NewHandler(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	web := webhandler.NewServer(deps.LabPages, deps.LabAudits, logger)
	labs := labhandler.NewServer(deps.Labs, logger)
	items := itemhandler.NewServer(deps.Search, logger)
	imports := audithandler.NewServer(deps.Importer, deps.MaxUploadBytes, logger)
	health := healthhandler.NewServer(deps.HealthPinger, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", web.Index)
	mux.HandleFunc("GET /lab/{lab_id}", web.Lab)
	mux.Handle("GET /static/", webhandler.Static())
	mux.HandleFunc("GET /api/labs", labs.ListLabs)
	mux.HandleFunc("GET /api/search", items.Search)
	mux.HandleFunc("POST /api/import_csv", imports.ImportCSV)
	mux.HandleFunc("GET /healthz", health.HealthCheck)

	instrumented := otelhttp.NewHandler(mux, "http.server",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/healthz" }),
	)
	return middleware.Chain(instrumented,
		middleware.RequestID(logger),
		middleware.AccessLog(logger, map[string]bool{"/healthz": true}),
		middleware.Recover(logger),
	)
}
