package payments

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hongminglow/payments-dashboard/internal/apperr"
	"github.com/hongminglow/payments-dashboard/internal/models"
)

// ListQuery is a parsed GET /payments query string.
type ListQuery struct {
	Filter models.PaymentFilter
	Page   int
	Limit  int
}

// ParseListQuery reads page, limit, status, method, startDate and endDate.
// Bare dates are read as midnight in loc.
func ParseListQuery(values url.Values, loc *time.Location) (ListQuery, error) {
	q := ListQuery{Page: DefaultPage, Limit: DefaultLimit}

	var err error
	if q.Page, err = positiveInt(values.Get("page"), DefaultPage); err != nil {
		return ListQuery{}, apperr.Validation("page must be a positive integer")
	}
	if q.Limit, err = positiveInt(values.Get("limit"), DefaultLimit); err != nil {
		return ListQuery{}, apperr.Validation("limit must be a positive integer")
	}

	if v := strings.TrimSpace(values.Get("status")); v != "" {
		if q.Filter.Status, err = models.ParsePaymentStatus(v); err != nil {
			return ListQuery{}, apperr.Validation("status must be one of success, pending, failed")
		}
	}
	if v := strings.TrimSpace(values.Get("method")); v != "" {
		if q.Filter.Method, err = models.ParsePaymentMethod(v); err != nil {
			return ListQuery{}, apperr.Validation("method must be one of upi, card, netbanking")
		}
	}
	if q.Filter.StartDate, err = parseDate(values.Get("startDate"), loc); err != nil {
		return ListQuery{}, apperr.Validation("startDate must be an ISO-8601 date")
	}
	if q.Filter.EndDate, err = parseDate(values.Get("endDate"), loc); err != nil {
		return ListQuery{}, apperr.Validation("endDate must be an ISO-8601 date")
	}
	return q, nil
}

func positiveInt(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

func parseDate(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
