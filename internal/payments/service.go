// Package payments serves filtered payment listings and dashboard aggregates.
package payments

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hongminglow/payments-dashboard/internal/apperr"
	"github.com/hongminglow/payments-dashboard/internal/models"
	"github.com/hongminglow/payments-dashboard/internal/storage"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	// statsWindowDays is the length of the revenue series, today included.
	statsWindowDays = 7
)

// Options tune listing limits and the calendar used for day boundaries.
type Options struct {
	MaxLimit int
	Location *time.Location
	Now      func() time.Time
}

// Service is the payments query engine.
type Service struct {
	store    storage.PaymentStore
	maxLimit int
	loc      *time.Location
	now      func() time.Time
}

func NewService(store storage.PaymentStore, opts Options) *Service {
	s := &Service{store: store, maxLimit: opts.MaxLimit, loc: opts.Location, now: opts.Now}
	if s.maxLimit <= 0 {
		s.maxLimit = 100
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Location is the calendar used for "today" and day grouping.
func (s *Service) Location() *time.Location { return s.loc }

// List returns page of the payments matching filter, newest first. Pages past
// the end are empty rather than an error.
func (s *Service) List(ctx context.Context, filter models.PaymentFilter, page, limit int) (models.PaymentPage, error) {
	const op = "payments.List"

	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	var (
		data  []models.Payment
		total int64
	)
	// a skip past MaxInt64 can only land beyond the last page
	pastEnd := int64(page-1) > math.MaxInt64/int64(limit)
	g, gctx := errgroup.WithContext(ctx)
	if !pastEnd {
		g.Go(func() error {
			var err error
			data, err = s.store.FindPayments(gctx, storage.PaymentQuery{
				Filter: filter,
				Skip:   int64(page-1) * int64(limit),
				Limit:  int64(limit),
			})
			return err
		})
	}
	g.Go(func() error {
		var err error
		total, err = s.store.CountPayments(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.PaymentPage{}, fmt.Errorf("%s: %w", op, err)
	}
	if data == nil {
		data = []models.Payment{}
	}

	return models.PaymentPage{
		Data:       data,
		Page:       page,
		Total:      total,
		TotalPages: TotalPages(total, limit),
	}, nil
}

// TotalPages is ceil(total/limit).
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	l := int64(limit)
	return (total + l - 1) / l
}

// Stats computes the four dashboard aggregates concurrently. They are separate
// reads and need not reflect one snapshot.
func (s *Service) Stats(ctx context.Context) (models.PaymentStats, error) {
	const op = "payments.Stats"

	today := StartOfDay(s.now(), s.loc)
	weekStart := today.AddDate(0, 0, -(statsWindowDays - 1))

	var stats models.PaymentStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.TotalToday, err = s.store.CountPayments(gctx, models.PaymentFilter{StartDate: &today})
		return err
	})
	g.Go(func() error {
		var err error
		stats.FailedCount, err = s.store.CountPayments(gctx, models.PaymentFilter{Status: models.StatusFailed})
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalRevenue, err = s.store.SumAmount(gctx, models.PaymentFilter{Status: models.StatusSuccess})
		return err
	})
	g.Go(func() error {
		var err error
		stats.Last7Days, err = s.store.RevenueByDay(gctx, weekStart, s.loc)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.PaymentStats{}, fmt.Errorf("%s: %w", op, err)
	}
	if stats.Last7Days == nil {
		stats.Last7Days = []models.DailyRevenue{}
	}
	return stats, nil
}

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Get returns a single payment.
func (s *Service) Get(ctx context.Context, id string) (models.Payment, error) {
	p, err := s.store.FindPayment(ctx, strings.TrimSpace(id))
	if err != nil {
		return models.Payment{}, fmt.Errorf("payments.Get: %w", err)
	}
	return p, nil
}

// CreateInput is an unvalidated payment from the write path.
type CreateInput struct {
	Amount   float64
	Receiver string
	Method   string
	Status   string
}

// Create validates in and records a new payment stamped with the current time.
func (s *Service) Create(ctx context.Context, in CreateInput) (models.Payment, error) {
	const op = "payments.Create"

	if !(in.Amount > 0) || math.IsInf(in.Amount, 0) {
		return models.Payment{}, apperr.Validation("amount must be a positive number")
	}
	receiver := strings.TrimSpace(in.Receiver)
	if receiver == "" {
		return models.Payment{}, apperr.Validation("receiver is required")
	}
	method, err := models.ParsePaymentMethod(strings.TrimSpace(in.Method))
	if err != nil {
		return models.Payment{}, apperr.Validation("method must be one of upi, card, netbanking")
	}
	status, err := models.ParsePaymentStatus(strings.TrimSpace(in.Status))
	if err != nil {
		return models.Payment{}, apperr.Validation("status must be one of success, pending, failed")
	}

	now := s.now().UTC()
	created, err := s.store.CreatePayment(ctx, models.Payment{
		ID:        uuid.NewString(),
		Amount:    in.Amount,
		Receiver:  receiver,
		Method:    method,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return models.Payment{}, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}
