// Package handler renders the HTML pages and serves the embedded static assets.
package handler

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	auditdomain "inventory-audit/backend/internal/audit/domain"
	labdomain "inventory-audit/backend/internal/lab/domain"
	"inventory-audit/backend/internal/platform/requestctx"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04") },
}).ParseFS(templateFS, "templates/*.html"))

// LabGetter loads one lab; nil, nil means not found.
type LabGetter interface {
	GetByID(ctx context.Context, id int64) (*labdomain.Lab, error)
}

// AuditLister lists the audit summaries of a lab.
type AuditLister interface {
	ListByLab(ctx context.Context, labID int64) ([]*auditdomain.Summary, error)
}

// Server renders the index and lab pages.
type Server struct {
	labs   LabGetter
	audits AuditLister
	logger *zap.Logger
}

// NewServer returns the HTML handler.
func NewServer(labs LabGetter, audits AuditLister, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{labs: labs, audits: audits, logger: logger}
}

type labPage struct {
	Lab    *labdomain.Lab
	Audits []*auditdomain.Summary
}

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", nil)
}

// Lab handles GET /lab/{lab_id}. A non-integer or unknown id is a 404.
func (s *Server) Lab(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("lab_id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}
	lab, err := s.labs.GetByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get lab", err)
		return
	}
	if lab == nil {
		http.NotFound(w, r)
		return
	}
	audits, err := s.audits.ListByLab(r.Context(), id)
	if err != nil {
		s.fail(w, r, "list audits", err)
		return
	}
	s.render(w, r, "lab.html", labPage{Lab: lab, Audits: audits})
}

// Static returns the handler for /static/ assets.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("web: static assets: %v", err))
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.fail(w, r, "render "+name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	requestctx.Logger(r.Context(), s.logger).Error(msg, zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
