// Package respond writes JSON bodies and the stable error shape used by every API endpoint.
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"inventory-audit/backend/internal/platform/requestctx"
)

// Error codes carried in ErrorBody.Code.
const (
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeUnreadableFile  = "unreadable_file"
	CodeInternal        = "internal"
)

// ErrorBody is the JSON shape of every API error. Error stays a plain string so existing
// clients reading json.error keep working.
type ErrorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("respond: encode failed", zap.Error(err))
	}
}

// Error writes an ErrorBody with the request id taken from r's context.
func Error(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	body := ErrorBody{Error: msg, Code: code}
	if r != nil {
		body.RequestID, _ = requestctx.RequestID(r.Context())
	}
	JSON(w, status, body)
}

// Internal logs err with the request logger and writes a generic 500 without leaking details.
func Internal(w http.ResponseWriter, r *http.Request, logger *zap.Logger, msg string, err error) {
	requestctx.Logger(r.Context(), logger).Error(msg, zap.Error(err))
	Error(w, r, http.StatusInternalServerError, CodeInternal, "internal error")
}
