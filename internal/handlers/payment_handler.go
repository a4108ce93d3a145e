package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/drivehub/booking-service/internal/domain"
	"github.com/drivehub/booking-service/internal/domain/models"
	"github.com/drivehub/booking-service/internal/domain/ports"
	svcports "github.com/drivehub/booking-service/internal/services/ports"
)

// PaymentHandler serves the payment and settlement endpoints
type PaymentHandler struct {
	service svcports.PaymentService
	logger  ports.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(service svcports.PaymentService, logger ports.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, logger: logger}
}

// RegisterRoutes registers the payment routes on the router
func (h *PaymentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/payments", h.RequestPayment).Methods("POST")
	router.HandleFunc("/api/v1/payments/{id}", h.Get).Methods("GET")
	router.HandleFunc("/api/v1/payments/{id}/refund", h.Refund).Methods("POST")
	router.HandleFunc("/api/v1/payments/{id}/settlement/complete", h.CompleteSettlement).Methods("POST")
	router.HandleFunc("/api/v1/payments/{id}/settlement/fail", h.FailSettlement).Methods("POST")
	router.HandleFunc("/api/v1/reservations/{id}/payments", h.ListByReservation).Methods("GET")
}

type requestPaymentBody struct {
	ReservationID string `json:"reservation_id"`
	Instrument    string `json:"instrument"`
	BankCode      string `json:"bank_code,omitempty"`
	DueHours      int32  `json:"due_hours,omitempty"`
}

// RequestPayment handles POST /api/v1/payments
func (h *PaymentHandler) RequestPayment(w http.ResponseWriter, r *http.Request) {
	var body requestPaymentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, h.logger, domain.ErrValidationFailed.WithDetail("body", "malformed json"))
		return
	}

	payment, err := h.service.RequestPayment(r.Context(), svcports.RequestPaymentRequest{
		ReservationID: body.ReservationID,
		Instrument:    models.PaymentInstrument(body.Instrument),
		BankCode:      body.BankCode,
		DueHours:      body.DueHours,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentDTO(payment))
}

// Get handles GET /api/v1/payments/{id}
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	payment, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(payment))
}

type refundBody struct {
	Amount string `json:"amount,omitempty"` // empty refunds the full remainder
	Reason string `json:"reason"`
}

// Refund handles POST /api/v1/payments/{id}/refund
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var body refundBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, h.logger, domain.ErrValidationFailed.WithDetail("body", "malformed json"))
		return
	}

	req := svcports.RefundRequest{
		PaymentID: mux.Vars(r)["id"],
		Reason:    body.Reason,
	}
	if body.Amount != "" {
		amount, err := decimal.NewFromString(body.Amount)
		if err != nil {
			writeError(w, h.logger, domain.ErrInvalidAmount.WithDetail("field", "amount"))
			return
		}
		req.Amount = &amount
	}

	payment, err := h.service.Refund(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(payment))
}

// CompleteSettlement handles POST /api/v1/payments/{id}/settlement/complete
func (h *PaymentHandler) CompleteSettlement(w http.ResponseWriter, r *http.Request) {
	payment, err := h.service.CompleteSettlement(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(payment))
}

// FailSettlement handles POST /api/v1/payments/{id}/settlement/fail
func (h *PaymentHandler) FailSettlement(w http.ResponseWriter, r *http.Request) {
	payment, err := h.service.FailSettlement(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(payment))
}

// ListByReservation handles GET /api/v1/reservations/{id}/payments
func (h *PaymentHandler) ListByReservation(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListByReservation(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTOs(payments))
}
