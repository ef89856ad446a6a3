package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/hongminglow/payments-dashboard/internal/apperr"
)

// ErrorBody is the error shape the mobile client reads (`message`).
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

var logger atomic.Pointer[slog.Logger]

// SetLogger routes encode failures to l. A nil l restores slog.Default.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func log() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// JSON writes payload as the response body with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log().Error("respond: encode payload failed", slog.Any("error", err))
	}
}

// Error writes an error response with the shared body structure.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{StatusCode: status, Message: message})
}

// Err maps err through the error taxonomy. Internal errors get a generic message.
func Err(w http.ResponseWriter, err error) {
	Error(w, apperr.StatusOf(err), apperr.PublicMessage(err))
}
