package auth

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/hongminglow/payments-dashboard/internal/apperr"
	"github.com/hongminglow/payments-dashboard/internal/http/respond"
	"github.com/hongminglow/payments-dashboard/internal/models"
)

// Operation names a guarded capability.
type Operation string

const (
	OpCreateUser    Operation = "users.create"
	OpListUsers     Operation = "users.list"
	OpListPayments  Operation = "payments.list"
	OpPaymentStats  Operation = "payments.stats"
	OpGetPayment    Operation = "payments.get"
	OpCreatePayment Operation = "payments.create"
)

// ErrInvalidOrExpired rejects a request whose bearer token failed validation.
// The underlying validator error stays in the chain for logging only.
var ErrInvalidOrExpired = apperr.New(apperr.KindAuthentication, "unauthorized")

// Policy maps each operation to the roles allowed to perform it.
type Policy map[Operation][]models.Role

// DefaultPolicy is the capability table served by the API.
func DefaultPolicy() Policy {
	both := []models.Role{models.RoleAdmin, models.RoleViewer}
	return Policy{
		OpCreateUser:    {models.RoleAdmin},
		OpListUsers:     both,
		OpListPayments:  both,
		OpPaymentStats:  both,
		OpGetPayment:    both,
		OpCreatePayment: both,
	}
}

// TokenValidator verifies a presented token and returns its claims.
type TokenValidator interface {
	Validate(raw string) (*Claims, error)
}

// Guard authenticates a bearer token and checks its role against Policy.
// It holds no per-request state and is safe for concurrent use.
type Guard struct {
	tokens TokenValidator
	policy Policy
}

// NewGuard copies policy so later changes by the caller have no effect.
func NewGuard(tokens TokenValidator, policy Policy) *Guard {
	cp := make(Policy, len(policy))
	for op, roles := range policy {
		cp[op] = slices.Clone(roles)
	}
	return &Guard{tokens: tokens, policy: cp}
}

// Authorize runs the guard pipeline for one request: bearer present, token
// valid, role allowed. Operations missing from the policy are denied.
func (g *Guard) Authorize(authorization string, op Operation) (*Claims, error) {
	raw, ok := bearerToken(authorization)
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	claims, err := g.tokens.Validate(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOrExpired, err)
	}
	if !slices.Contains(g.policy[op], claims.Role) {
		return nil, apperr.ErrForbidden
	}
	return claims, nil
}

// Require wraps next so that it only runs for requests authorized for op.
func (g *Guard) Require(op Operation, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := g.Authorize(r.Header.Get("Authorization"), op)
		if err != nil {
			respond.Err(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
