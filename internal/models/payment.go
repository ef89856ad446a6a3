package models

import (
	"fmt"
	"time"
)

type PaymentMethod string

const (
	MethodUPI        PaymentMethod = "upi"
	MethodCard       PaymentMethod = "card"
	MethodNetbanking PaymentMethod = "netbanking"
)

type PaymentStatus string

const (
	StatusSuccess PaymentStatus = "success"
	StatusPending PaymentStatus = "pending"
	StatusFailed  PaymentStatus = "failed"
)

// ParsePaymentMethod validates a method value.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	switch m := PaymentMethod(value); m {
	case MethodUPI, MethodCard, MethodNetbanking:
		return m, nil
	default:
		return "", fmt.Errorf("unknown payment method %q", value)
	}
}

// ParsePaymentStatus validates a status value.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	switch s := PaymentStatus(value); s {
	case StatusSuccess, StatusPending, StatusFailed:
		return s, nil
	default:
		return "", fmt.Errorf("unknown payment status %q", value)
	}
}

// Payment is a single recorded transfer. CreatedAt is fixed at insert time.
type Payment struct {
	ID        string        `json:"_id"`
	Amount    float64       `json:"amount"`
	Receiver  string        `json:"receiver"`
	Method    PaymentMethod `json:"method"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// PaymentFilter holds the optional listing predicates; zero values impose no constraint.
type PaymentFilter struct {
	Status    PaymentStatus
	Method    PaymentMethod
	StartDate *time.Time
	EndDate   *time.Time
}

// Matches reports whether p satisfies every set predicate.
func (f PaymentFilter) Matches(p Payment) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Method != "" && p.Method != f.Method {
		return false
	}
	if f.StartDate != nil && p.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && p.CreatedAt.After(*f.EndDate) {
		return false
	}
	return true
}

// PaymentPage is one page of a listing sorted newest first.
type PaymentPage struct {
	Data       []Payment `json:"data"`
	Page       int       `json:"page"`
	Total      int64     `json:"total"`
	TotalPages int64     `json:"totalPages"`
}

// DailyRevenue is the successful-payment total for one calendar day (YYYY-MM-DD).
type DailyRevenue struct {
	Date  string  `json:"_id"`
	Total float64 `json:"total"`
}

// PaymentStats backs the dashboard cards and the weekly revenue chart.
type PaymentStats struct {
	TotalToday   int64          `json:"totalToday"`
	FailedCount  int64          `json:"failedCount"`
	TotalRevenue float64        `json:"totalRevenue"`
	Last7Days    []DailyRevenue `json:"last7Days"`
}
