package respond

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hongminglow/payments-dashboard/internal/apperr"
)

func TestJSONEncodeFailureUsesConfiguredLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { SetLogger(nil) })

	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, map[string]float64{"total": math.NaN()})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "encode payload failed")
}

func TestErrMapsTaxonomy(t *testing.T) {
	rec := httptest.NewRecorder()
	Err(rec, apperr.New(apperr.KindNotFound, "payment not found"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"statusCode":404,"message":"payment not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Err(rec, errors.New("dial tcp: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"statusCode":500,"message":"internal server error"}`, rec.Body.String())
}
