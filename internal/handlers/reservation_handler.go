package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/drivehub/booking-service/internal/domain"
	"github.com/drivehub/booking-service/internal/domain/models"
	"github.com/drivehub/booking-service/internal/domain/ports"
	svcports "github.com/drivehub/booking-service/internal/services/ports"
)

// ReservationHandler serves the reservation endpoints
type ReservationHandler struct {
	service svcports.ReservationService
	logger  ports.Logger
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(service svcports.ReservationService, logger ports.Logger) *ReservationHandler {
	return &ReservationHandler{service: service, logger: logger}
}

// RegisterRoutes registers the reservation routes on the router
func (h *ReservationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/reservations", h.Create).Methods("POST")
	router.HandleFunc("/api/v1/reservations/{id}", h.Get).Methods("GET")
	router.HandleFunc("/api/v1/reservations/number/{no}", h.GetByNumber).Methods("GET")
	router.HandleFunc("/api/v1/reservations/{id}/approve", h.Approve).Methods("POST")
	router.HandleFunc("/api/v1/reservations/{id}/cancel", h.Cancel).Methods("POST")
	router.HandleFunc("/api/v1/reservations/{id}/pickup", h.Pickup).Methods("POST")
	router.HandleFunc("/api/v1/reservations/{id}/return", h.Return).Methods("POST")
	router.HandleFunc("/api/v1/reservations/{id}/memo", h.SetMemo).Methods("PUT")
}

type createReservationBody struct {
	BranchID      string    `json:"branch_id"`
	VehicleID     string    `json:"vehicle_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	CustomerEmail string    `json:"customer_email"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	BasePrice     string    `json:"base_price"`
	TotalPrice    string    `json:"total_price"`
}

// Create handles POST /api/v1/reservations
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createReservationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, h.logger, domain.ErrValidationFailed.WithDetail("body", "malformed json"))
		return
	}

	basePrice, err := decimal.NewFromString(body.BasePrice)
	if err != nil {
		writeError(w, h.logger, domain.ErrInvalidAmount.WithDetail("field", "base_price"))
		return
	}
	totalPrice, err := decimal.NewFromString(body.TotalPrice)
	if err != nil {
		writeError(w, h.logger, domain.ErrInvalidAmount.WithDetail("field", "total_price"))
		return
	}

	reservation, err := h.service.Create(r.Context(), svcports.CreateReservationRequest{
		BranchID:  body.BranchID,
		VehicleID: body.VehicleID,
		Customer: models.Customer{
			Name:  body.CustomerName,
			Phone: body.CustomerPhone,
			Email: body.CustomerEmail,
		},
		StartsAt:   body.StartsAt,
		EndsAt:     body.EndsAt,
		BasePrice:  basePrice,
		TotalPrice: totalPrice,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReservationDTO(reservation))
}

// Get handles GET /api/v1/reservations/{id}
func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(reservation))
}

// GetByNumber handles GET /api/v1/reservations/number/{no}
func (h *ReservationHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.service.GetByNumber(r.Context(), mux.Vars(r)["no"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(reservation))
}

// Approve handles POST /api/v1/reservations/{id}/approve
func (h *ReservationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.service.Approve(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(reservation))
}

type cancelReservationBody struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /api/v1/reservations/{id}/cancel
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var body cancelReservationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, h.logger, domain.ErrValidationFailed.WithDetail("body", "malformed json"))
		return
	}

	reservation, err := h.service.Cancel(r.Context(), mux.Vars(r)["id"], body.Reason)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(reservation))
}

// Pickup handles POST /api/v1/reservations/{id}/pickup
func (h *ReservationHandler) Pickup(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.service.MarkInUse(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(reservation))
}

// Return handles POST /api/v1/reservations/{id}/return
func (h *ReservationHandler) Return(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.service.Complete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(reservation))
}

type memoBody struct {
	Memo string `json:"memo"`
}

// SetMemo handles PUT /api/v1/reservations/{id}/memo
func (h *ReservationHandler) SetMemo(w http.ResponseWriter, r *http.Request) {
	var body memoBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, h.logger, domain.ErrValidationFailed.WithDetail("body", "malformed json"))
		return
	}

	reservation, err := h.service.SetAdminMemo(r.Context(), mux.Vars(r)["id"], body.Memo)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(reservation))
}
