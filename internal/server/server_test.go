package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/payments-dashboard/internal/app"
	"github.com/hongminglow/payments-dashboard/internal/config"
	"github.com/hongminglow/payments-dashboard/internal/models"
	"github.com/hongminglow/payments-dashboard/internal/server"
	"github.com/hongminglow/payments-dashboard/internal/storage/memory"
)

type fixture struct {
	ts    *httptest.Server
	app   *app.App
	store *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Config{
		Port:          "0",
		StorageDriver: config.DriverMemory,
		JWTSecret:     "test-secret",
		JWTIssuer:     "payments-dashboard",
		JWTTTLMinutes: 60,
		BcryptCost:    bcrypt.MinCost,
		AdminUsername: "admin",
		AdminPassword: "admin123",
		MaxPageLimit:  100,
		StatsTimezone: "UTC",
		CORSOrigins:   []string{"*"},
	}
	store := memory.New()
	a, err := app.New(store, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, a.Users.SeedDefaultAdmin(context.Background()))

	ts := httptest.NewServer(server.NewHandler(cfg, a.Deps()))
	t.Cleanup(ts.Close)
	return &fixture{ts: ts, app: a, store: store}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (f *fixture) login(t *testing.T, username, password string) string {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestAdminCreatesViewerWithDefaultRole(t *testing.T) {
	f := newFixture(t)
	adminToken := f.login(t, "admin", "admin123")

	claims, err := f.app.Tokens.Validate(adminToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	resp, body := f.do(t, http.MethodPost, "/users", adminToken, map[string]string{"username": "u1", "password": "p1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created map[string]any
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "viewer", created["role"])
	assert.NotContains(t, created, "password")
	assert.NotContains(t, created, "passwordHash")

	resp, body = f.do(t, http.MethodGet, "/users", f.login(t, "u1", "p1"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body), "$2a$")
	var list []models.User
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 2)
}

func TestViewerCannotCreateUsers(t *testing.T) {
	f := newFixture(t)
	_, err := f.app.Users.CreateUser(context.Background(), "viewer1", "pw", "")
	require.NoError(t, err)
	viewerToken := f.login(t, "viewer1", "pw")

	resp, body := f.do(t, http.MethodPost, "/users", viewerToken, map[string]string{"username": "sneaky", "password": "pw"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, string(body))

	_, err = f.store.FindByUsername(context.Background(), "sneaky")
	assert.Error(t, err, "no user may be created on a rejected request")
}

func TestDuplicateUserIsConflict(t *testing.T) {
	f := newFixture(t)
	adminToken := f.login(t, "admin", "admin123")

	resp, _ := f.do(t, http.MethodPost, "/users", adminToken, map[string]string{"username": "admin", "password": "x"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/users", adminToken, map[string]string{"username": "u2", "password": "x", "role": "root"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	f := newFixture(t)

	wrongResp, wrongBody := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "nope"})
	ghostResp, ghostBody := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "ghost", "password": "nope"})

	assert.Equal(t, http.StatusUnauthorized, wrongResp.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, ghostResp.StatusCode)
	assert.JSONEq(t, string(wrongBody), string(ghostBody))

	resp, _ := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGuardedRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/users", "/payments", "/payments/stats", "/payments/abc"} {
		resp, _ := f.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)

		resp, _ = f.do(t, http.MethodGet, path, "forged.token.value", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestPaymentListingScenario(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "admin", "admin123")
	base := time.Now().UTC().Add(-24 * time.Hour)
	for i := 0; i < 12; i++ {
		status := models.StatusSuccess
		if i < 3 {
			status = models.StatusFailed
		}
		_, err := f.store.CreatePayment(context.Background(), models.Payment{
			ID: fmt.Sprintf("pay-%02d", i), Amount: 100, Receiver: "r", Method: models.MethodUPI,
			Status: status, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	resp, body := f.do(t, http.MethodGet, "/payments?page=1&limit=10", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var page models.PaymentPage
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page.Data, 10)
	assert.EqualValues(t, 2, page.TotalPages)
	assert.Equal(t, "pay-11", page.Data[0].ID)

	resp, body = f.do(t, http.MethodGet, "/payments?page=2&limit=10", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page.Data, 2)

	resp, body = f.do(t, http.MethodGet, "/payments?page=9&limit=10", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"data":[]`)

	resp, body = f.do(t, http.MethodGet, "/payments?page=9223372036854775807&limit=10", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"data":[]`)
	assert.Contains(t, string(body), `"total":12`)

	resp, body = f.do(t, http.MethodGet, "/payments?status=failed", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	assert.EqualValues(t, 3, page.Total)

	resp, _ = f.do(t, http.MethodGet, "/payments?status=lost", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPaymentCreateGetAndStats(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "admin", "admin123")

	resp, body := f.do(t, http.MethodPost, "/payments", token, map[string]any{
		"amount": 499.5, "receiver": "Asha", "method": "card", "status": "success",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created models.Payment
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.ID)

	resp, body = f.do(t, http.MethodGet, "/payments/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"_id":"`+created.ID+`"`)

	resp, _ = f.do(t, http.MethodGet, "/payments/does-not-exist", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = f.do(t, http.MethodGet, "/payments/stats", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var stats models.PaymentStats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.EqualValues(t, 1, stats.TotalToday)
	assert.InDelta(t, 499.5, stats.TotalRevenue, 1e-9)
	require.Len(t, stats.Last7Days, 1)
	assert.Equal(t, time.Now().UTC().Format(time.DateOnly), stats.Last7Days[0].Date)
}

func TestDecodeEndpointReadsOwnToken(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "admin", "admin123")

	resp, body := f.do(t, http.MethodPost, "/auth/decode", "", map[string]string{"token": token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var decoded struct {
		Role    string `json:"role"`
		Expired bool   `json:"expired"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "admin", decoded.Role)
	assert.False(t, decoded.Expired)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
}
