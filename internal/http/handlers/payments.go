package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/hongminglow/payments-dashboard/internal/auth"
	"github.com/hongminglow/payments-dashboard/internal/http/respond"
	"github.com/hongminglow/payments-dashboard/internal/models"
	"github.com/hongminglow/payments-dashboard/internal/models/dto"
	"github.com/hongminglow/payments-dashboard/internal/payments"
)

// PaymentService is the query engine plus the create path.
type PaymentService interface {
	List(ctx context.Context, filter models.PaymentFilter, page, limit int) (models.PaymentPage, error)
	Stats(ctx context.Context) (models.PaymentStats, error)
	Get(ctx context.Context, id string) (models.Payment, error)
	Create(ctx context.Context, in payments.CreateInput) (models.Payment, error)
	Location() *time.Location
}

type PaymentsHandler struct {
	payments PaymentService
	log      *slog.Logger
}

func NewPaymentsHandler(svc PaymentService, log *slog.Logger) *PaymentsHandler {
	return &PaymentsHandler{payments: svc, log: log}
}

// Register attaches guarded payment routes. /payments/stats is registered
// before /payments/{id} so it is not captured as an id.
func (h *PaymentsHandler) Register(r *mux.Router, guard *auth.Guard) {
	r.Handle("/payments", guard.Require(auth.OpListPayments, http.HandlerFunc(h.handleList))).Methods(http.MethodGet)
	r.Handle("/payments", guard.Require(auth.OpCreatePayment, http.HandlerFunc(h.handleCreate))).Methods(http.MethodPost)
	r.Handle("/payments/stats", guard.Require(auth.OpPaymentStats, http.HandlerFunc(h.handleStats))).Methods(http.MethodGet)
	r.Handle("/payments/{id}", guard.Require(auth.OpGetPayment, http.HandlerFunc(h.handleGet))).Methods(http.MethodGet)
}

func (h *PaymentsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handlers.ListPayments"))

	q, err := payments.ParseListQuery(r.URL.Query(), h.payments.Location())
	if err != nil {
		respond.Err(w, err)
		return
	}
	page, err := h.payments.List(r.Context(), q.Filter, q.Page, q.Limit)
	if err != nil {
		fail(w, log, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

func (h *PaymentsHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.payments.Stats(r.Context())
	if err != nil {
		fail(w, h.log.With(slog.String("op", "handlers.PaymentStats")), err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}

func (h *PaymentsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	payment, err := h.payments.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		fail(w, h.log.With(slog.String("op", "handlers.GetPayment")), err)
		return
	}
	respond.JSON(w, http.StatusOK, payment)
}

func (h *PaymentsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "handlers.CreatePayment"))

	var req dto.CreatePaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Err(w, err)
		return
	}
	created, err := h.payments.Create(r.Context(), payments.CreateInput{
		Amount:   req.Amount,
		Receiver: req.Receiver,
		Method:   req.Method,
		Status:   req.Status,
	})
	if err != nil {
		fail(w, log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}
