package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditdomain "inventory-audit/backend/internal/audit/domain"
	labdomain "inventory-audit/backend/internal/lab/domain"
)

type stubLabs struct {
	labs map[int64]*labdomain.Lab
	err  error
}

func (s stubLabs) GetByID(ctx context.Context, id int64) (*labdomain.Lab, error) {
	return s.labs[id], s.err
}

type stubAudits struct {
	byLab map[int64][]*auditdomain.Summary
	err   error
}

func (s stubAudits) ListByLab(ctx context.Context, labID int64) ([]*auditdomain.Summary, error) {
	return s.byLab[labID], s.err
}

func newMux(srv *Server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", srv.Index)
	mux.HandleFunc("GET /lab/{lab_id}", srv.Lab)
	mux.Handle("GET /static/", Static())
	return mux
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestIndex(t *testing.T) {
	rec := get(t, newMux(NewServer(stubLabs{}, stubAudits{}, nil)), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `id="importForm"`)
	assert.Contains(t, body, `id="labSelect"`)
	assert.Contains(t, body, `src="/static/main.js"`)
}

func TestLab(t *testing.T) {
	loc := "Bloco <B>"
	labs := stubLabs{labs: map[int64]*labdomain.Lab{
		1: {ID: 1, Name: "Química", Location: &loc},
		2: {ID: 2, Name: "Física"},
	}}
	audits := stubAudits{byLab: map[int64][]*auditdomain.Summary{
		1: {{Audit: auditdomain.Audit{ID: 7, LabID: 1, Date: time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC), Notes: "anual"}, ItemCount: 12, Mismatched: 2}},
	}}
	mux := newMux(NewServer(labs, audits, nil))

	rec := get(t, mux, "/lab/1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Química</h1>")
	assert.Contains(t, body, "Bloco &lt;B&gt;", "location must be escaped")
	assert.Contains(t, body, "2025-03-04 10:30")
	assert.Contains(t, body, "<td>12</td>")
	assert.Contains(t, body, "anual")

	rec = get(t, mux, "/lab/2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Nenhuma auditoria registrada.")
	assert.NotContains(t, rec.Body.String(), `class="location"`)
}

func TestLab_NotFound(t *testing.T) {
	mux := newMux(NewServer(stubLabs{}, stubAudits{}, nil))
	for _, path := range []string{"/lab/99", "/lab/abc", "/lab/0", "/lab/-1"} {
		rec := get(t, mux, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestLab_StoreError(t *testing.T) {
	mux := newMux(NewServer(stubLabs{err: errors.New("db down")}, stubAudits{}, nil))
	rec := get(t, mux, "/lab/1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")

	labs := stubLabs{labs: map[int64]*labdomain.Lab{1: {ID: 1, Name: "X"}}}
	mux = newMux(NewServer(labs, stubAudits{err: errors.New("db down")}, nil))
	assert.Equal(t, http.StatusInternalServerError, get(t, mux, "/lab/1").Code)
}

func TestStatic(t *testing.T) {
	mux := newMux(NewServer(stubLabs{}, stubAudits{}, nil))

	rec := get(t, mux, "/static/main.js")
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "/api/search")

	assert.Equal(t, http.StatusNotFound, get(t, mux, "/static/missing.js").Code)
}
