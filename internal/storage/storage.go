package storage

import (
	"context"
	"time"

	"github.com/hongminglow/payments-dashboard/internal/apperr"
	"github.com/hongminglow/payments-dashboard/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = apperr.New(apperr.KindNotFound, "record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = apperr.New(apperr.KindDuplicate, "record already exists")

// UserStore captures persistence operations needed by the credential service.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// PaymentQuery selects a window of payments ordered by created_at descending.
type PaymentQuery struct {
	Filter models.PaymentFilter
	Skip   int64
	Limit  int64
}

// PaymentStore is the read/aggregate surface over payments plus the single insert path.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment models.Payment) (models.Payment, error)
	FindPayment(ctx context.Context, id string) (models.Payment, error)
	FindPayments(ctx context.Context, query PaymentQuery) ([]models.Payment, error)
	CountPayments(ctx context.Context, filter models.PaymentFilter) (int64, error)
	SumAmount(ctx context.Context, filter models.PaymentFilter) (float64, error)
	// RevenueByDay sums successful payments created at or after since, grouped by
	// calendar day in loc, ascending. Days without payments are absent.
	RevenueByDay(ctx context.Context, since time.Time, loc *time.Location) ([]models.DailyRevenue, error)
}

// Store bundles both repositories behind one closeable backend.
type Store interface {
	UserStore
	PaymentStore
	Close()
}
