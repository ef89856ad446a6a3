// Package memory is an in-process storage backend used by tests and local runs
// without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hongminglow/payments-dashboard/internal/models"
	"github.com/hongminglow/payments-dashboard/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps users and payments in maps guarded by a RWMutex.
type Store struct {
	mu       sync.RWMutex
	users    map[string]models.User
	byName   map[string]string
	payments map[string]models.Payment
}

func New() *Store {
	return &Store{
		users:    make(map[string]models.User),
		byName:   make(map[string]string),
		payments: make(map[string]models.Payment),
	}
}

func (s *Store) Close() {}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[user.Username]; ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = user
	s.byName[user.Username] = user.ID
	return user, nil
}

func (s *Store) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[username]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Username < out[j].Username
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreatePayment(_ context.Context, payment models.Payment) (models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[payment.ID]; ok {
		return models.Payment{}, storage.ErrAlreadyExists
	}
	s.payments[payment.ID] = payment
	return payment, nil
}

func (s *Store) FindPayment(_ context.Context, id string) (models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return models.Payment{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) FindPayments(_ context.Context, query storage.PaymentQuery) ([]models.Payment, error) {
	matched := s.matching(query.Filter)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if query.Skip < 0 || query.Skip >= int64(len(matched)) {
		return []models.Payment{}, nil
	}
	end := int64(len(matched))
	if query.Limit > 0 && query.Limit < end-query.Skip {
		end = query.Skip + query.Limit
	}
	return matched[query.Skip:end], nil
}

func (s *Store) CountPayments(_ context.Context, filter models.PaymentFilter) (int64, error) {
	return int64(len(s.matching(filter))), nil
}

func (s *Store) SumAmount(_ context.Context, filter models.PaymentFilter) (float64, error) {
	var total float64
	for _, p := range s.matching(filter) {
		total += p.Amount
	}
	return total, nil
}

func (s *Store) RevenueByDay(_ context.Context, since time.Time, loc *time.Location) ([]models.DailyRevenue, error) {
	filter := models.PaymentFilter{Status: models.StatusSuccess, StartDate: &since}
	totals := make(map[string]float64)
	for _, p := range s.matching(filter) {
		totals[p.CreatedAt.In(loc).Format(time.DateOnly)] += p.Amount
	}
	out := make([]models.DailyRevenue, 0, len(totals))
	for day, total := range totals {
		out = append(out, models.DailyRevenue{Date: day, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *Store) matching(filter models.PaymentFilter) []models.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}
