package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hongminglow/payments-dashboard/internal/apperr"
	"github.com/hongminglow/payments-dashboard/internal/http/respond"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid JSON payload")
	}
	return nil
}

// fail writes err to the client; only unexpected failures are logged.
func fail(w http.ResponseWriter, log *slog.Logger, err error) {
	if apperr.StatusOf(err) >= http.StatusInternalServerError {
		log.Error("request failed", slog.Any("error", err))
	}
	respond.Err(w, err)
}
