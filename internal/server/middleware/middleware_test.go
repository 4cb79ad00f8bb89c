package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"inventory-audit/backend/internal/platform/requestctx"
	"inventory-audit/backend/internal/platform/respond"
)

func TestRequestID_Generated(t *testing.T) {
	var seen string
	h := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = requestctx.RequestID(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err, "generated id should be a uuid")
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
}

func TestRequestID_Incoming(t *testing.T) {
	testCases := []struct {
		name     string
		incoming string
		reused   bool
	}{
		{"valid", "abc-123", true},
		{"too long", strings.Repeat("a", maxRequestIDLen+1), false},
		{"control characters", "abc\x01", false},
		{"spaces", "a b", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			h := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = requestctx.RequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderRequestID, tc.incoming)
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tc.reused, seen == tc.incoming)
			assert.NotEmpty(t, seen)
		})
	}
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("hello"))
	}), RequestID(logger), AccessLog(logger, map[string]bool{"/healthz": true}))

	for _, path := range []string{"/ok", "/missing", "/healthz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(HeaderRequestID, "rid-"+strings.TrimPrefix(path, "/"))
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 2, "skipped paths are not logged")

	ok := entries[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", ok["path"])
	assert.Equal(t, int64(200), ok["status"])
	assert.Equal(t, int64(5), ok["bytes"])
	assert.Equal(t, "rid-ok", ok["request_id"])
	assert.Equal(t, "192.0.2.1", ok["client_ip"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(404), entries[1].ContextMap()["status"])
}

func TestRecover(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	logger := zap.New(core)
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), RequestID(logger), Recover(logger))

	req := httptest.NewRequest(http.MethodGet, "/explode", nil)
	req.Header.Set(HeaderRequestID, "rid-1")
	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(rec, req) })

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body respond.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, respond.ErrorBody{Error: "internal error", Code: respond.CodeInternal, RequestID: "rid-1"}, body)
	assert.Equal(t, 1, logs.FilterMessage("panic serving request").Len())
}

func TestRecover_AbortHandlerRepanics(t *testing.T) {
	h := Recover(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestClientIP(t *testing.T) {
	testCases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.5"}, "10.0.0.1:1234", "203.0.113.5"},
		{"forwarded for list", map[string]string{"X-Forwarded-For": " 203.0.113.5 , 10.0.0.2"}, "", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.1:1234", "198.51.100.7"},
		{"forwarded wins", map[string]string{"X-Forwarded-For": "203.0.113.5", "X-Real-IP": "198.51.100.7"}, "", "203.0.113.5"},
		{"remote addr", nil, "10.0.0.1:1234", "10.0.0.1"},
		{"remote without port", nil, "10.0.0.1", "10.0.0.1"},
		{"unknown", nil, "", "unknown"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, ClientIP(req))
		})
	}
}
