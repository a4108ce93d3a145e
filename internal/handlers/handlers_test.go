package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/drivehub/booking-service/internal/domain"
	"github.com/drivehub/booking-service/internal/domain/models"
	"github.com/drivehub/booking-service/internal/handlers"
	svcports "github.com/drivehub/booking-service/internal/services/ports"
)

type envelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func newTestRouter(t *testing.T) (http.Handler, *MockReservationService, *MockPaymentService) {
	t.Helper()
	reservations := new(MockReservationService)
	payments := new(MockPaymentService)
	router := handlers.NewRouter(reservations, payments, nil, nopLogger{})
	return router, reservations, payments
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func sampleReservation() *models.Reservation {
	now := time.Now()
	return &models.Reservation{
		ID:            "res-1",
		ReservationNo: "RSV-A1B2C3D4E5",
		BranchID:      "branch-1",
		VehicleID:     "veh-1",
		Customer:      models.Customer{Name: "Kim Minsoo", Phone: "010-1234-5678"},
		StartsAt:      now.Add(24 * time.Hour),
		EndsAt:        now.Add(72 * time.Hour),
		BasePrice:     decimal.NewFromInt(80000),
		TotalPrice:    decimal.NewFromInt(100000),
		Status:        models.ReservationPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func samplePayment() *models.Payment {
	now := time.Now()
	return &models.Payment{
		ID:               "pay-1",
		OrderID:          "ord-1",
		ReservationID:    "res-1",
		BranchID:         "branch-1",
		Amount:           decimal.NewFromInt(100000),
		Instrument:       models.InstrumentCard,
		BranchPercent:    90,
		HQPercent:        10,
		BranchAmount:     decimal.NewFromInt(90000),
		HQAmount:         decimal.NewFromInt(10000),
		RefundAmount:     decimal.Zero,
		Status:           models.PaymentCompleted,
		SettlementStatus: models.SettlementPending,
		Card:             &models.CardDetail{Issuer: "Shinhan", MaskedNumber: "4321-****-****-1234"},
		GatewayTxnID:     "gw-txn-1",
		PaidAt:           &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestCreateReservation(t *testing.T) {
	router, reservations, _ := newTestRouter(t)

	reservations.On("Create", mock.Anything, mock.MatchedBy(func(req svcports.CreateReservationRequest) bool {
		return req.BranchID == "branch-1" &&
			req.Customer.Name == "Kim Minsoo" &&
			req.TotalPrice.Equal(decimal.NewFromInt(100000))
	})).Return(sampleReservation(), nil)

	rec, env := doJSON(t, router, "POST", "/api/v1/reservations", map[string]interface{}{
		"branch_id":      "branch-1",
		"vehicle_id":     "veh-1",
		"customer_name":  "Kim Minsoo",
		"customer_phone": "010-1234-5678",
		"starts_at":      time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"ends_at":        time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		"base_price":     "80000",
		"total_price":    "100000",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "res-1", env.Data["id"])
	assert.Equal(t, "RSV-A1B2C3D4E5", env.Data["reservation_no"])
	assert.Equal(t, "100000", env.Data["total_price"])
}

func TestCreateReservation_BadPrice(t *testing.T) {
	router, reservations, _ := newTestRouter(t)

	rec, env := doJSON(t, router, "POST", "/api/v1/reservations", map[string]interface{}{
		"branch_id":   "branch-1",
		"vehicle_id":  "veh-1",
		"base_price":  "eighty thousand",
		"total_price": "100000",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_AMOUNT_INVALID", env.Error.Code)
	reservations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReservation_ValidationErrorStatus(t *testing.T) {
	router, reservations, _ := newTestRouter(t)

	reservations.On("Create", mock.Anything, mock.Anything).
		Return(nil, domain.ErrValidationDates)

	rec, env := doJSON(t, router, "POST", "/api/v1/reservations", map[string]interface{}{
		"branch_id":   "branch-1",
		"vehicle_id":  "veh-1",
		"base_price":  "80000",
		"total_price": "100000",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_DATES", env.Error.Code)
}

func TestGetReservation_NotFound(t *testing.T) {
	router, reservations, _ := newTestRouter(t)

	reservations.On("Get", mock.Anything, "missing").
		Return(nil, domain.ErrReservationNotFound.WithDetail("reservation_id", "missing"))

	rec, env := doJSON(t, router, "GET", "/api/v1/reservations/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND_RESERVATION", env.Error.Code)
	assert.Equal(t, "missing", env.Error.Details["reservation_id"])
}

func TestCancelReservation(t *testing.T) {
	router, reservations, _ := newTestRouter(t)

	cancelled := sampleReservation()
	cancelled.Status = models.ReservationCancelled
	reason := "change of plans"
	cancelled.CancelReason = &reason

	reservations.On("Cancel", mock.Anything, "res-1", "change of plans").Return(cancelled, nil)

	rec, env := doJSON(t, router, "POST", "/api/v1/reservations/res-1/cancel",
		map[string]string{"reason": "change of plans"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", env.Data["status"])
	assert.Equal(t, "change of plans", env.Data["cancel_reason"])
}

func TestCancelReservation_InvalidTransition(t *testing.T) {
	router, reservations, _ := newTestRouter(t)

	reservations.On("Cancel", mock.Anything, "res-1", mock.Anything).
		Return(nil, domain.ErrInvalidTransition.WithDetail("status", "in_use"))

	rec, env := doJSON(t, router, "POST", "/api/v1/reservations/res-1/cancel",
		map[string]string{"reason": "too late"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "TRANSITION_INVALID", env.Error.Code)
}

func TestRequestPayment(t *testing.T) {
	router, _, payments := newTestRouter(t)

	payments.On("RequestPayment", mock.Anything, svcports.RequestPaymentRequest{
		ReservationID: "res-1",
		Instrument:    models.InstrumentCard,
	}).Return(samplePayment(), nil)

	rec, env := doJSON(t, router, "POST", "/api/v1/payments", map[string]string{
		"reservation_id": "res-1",
		"instrument":     "card",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "pay-1", env.Data["id"])
	assert.Equal(t, "completed", env.Data["status"])
	assert.Equal(t, "90000", env.Data["branch_amount"])
	assert.Equal(t, "10000", env.Data["hq_amount"])

	card, ok := env.Data["card"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Shinhan", card["issuer"])
}

func TestRequestPayment_Declined(t *testing.T) {
	router, _, payments := newTestRouter(t)

	payments.On("RequestPayment", mock.Anything, mock.Anything).
		Return(nil, domain.ErrGatewayDeclined.WithDetail("result_code", "INSUFFICIENT_FUNDS"))

	rec, env := doJSON(t, router, "POST", "/api/v1/payments", map[string]string{
		"reservation_id": "res-1",
		"instrument":     "card",
	})

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "GATEWAY_DECLINED", env.Error.Code)
	assert.Equal(t, "INSUFFICIENT_FUNDS", env.Error.Details["result_code"])
}

func TestRequestPayment_ActiveConflict(t *testing.T) {
	router, _, payments := newTestRouter(t)

	payments.On("RequestPayment", mock.Anything, mock.Anything).
		Return(nil, domain.ErrActivePaymentExists)

	rec, env := doJSON(t, router, "POST", "/api/v1/payments", map[string]string{
		"reservation_id": "res-1",
		"instrument":     "card",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT_ACTIVE_PAYMENT", env.Error.Code)
}

func TestRefund_PartialAmount(t *testing.T) {
	router, _, payments := newTestRouter(t)

	refunded := samplePayment()
	refunded.Status = models.PaymentPartialRefund
	refunded.RefundAmount = decimal.NewFromInt(40000)

	payments.On("Refund", mock.Anything, mock.MatchedBy(func(req svcports.RefundRequest) bool {
		return req.PaymentID == "pay-1" &&
			req.Amount != nil && req.Amount.Equal(decimal.NewFromInt(40000)) &&
			req.Reason == "returned early"
	})).Return(refunded, nil)

	rec, env := doJSON(t, router, "POST", "/api/v1/payments/pay-1/refund", map[string]string{
		"amount": "40000",
		"reason": "returned early",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial_refund", env.Data["status"])
	assert.Equal(t, "40000", env.Data["refund_amount"])
}

func TestRefund_FullWhenAmountOmitted(t *testing.T) {
	router, _, payments := newTestRouter(t)

	refunded := samplePayment()
	refunded.Status = models.PaymentRefunded
	refunded.RefundAmount = refunded.Amount

	payments.On("Refund", mock.Anything, mock.MatchedBy(func(req svcports.RefundRequest) bool {
		return req.PaymentID == "pay-1" && req.Amount == nil
	})).Return(refunded, nil)

	rec, env := doJSON(t, router, "POST", "/api/v1/payments/pay-1/refund",
		map[string]string{"reason": "cancelled"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "refunded", env.Data["status"])
}

func TestRefund_ExceedsRemainder(t *testing.T) {
	router, _, payments := newTestRouter(t)

	payments.On("Refund", mock.Anything, mock.Anything).
		Return(nil, domain.ErrAmountExceedsRemainder)

	rec, env := doJSON(t, router, "POST", "/api/v1/payments/pay-1/refund", map[string]string{
		"amount": "999999",
		"reason": "oops",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "AMOUNT_EXCEEDS_REMAINDER", env.Error.Code)
}

func TestDepositWebhook(t *testing.T) {
	router, _, payments := newTestRouter(t)

	completed := samplePayment()
	completed.Instrument = models.InstrumentVirtualAccount
	completed.Card = nil

	payments.On("ConfirmDeposit", mock.Anything, svcports.DepositNotification{
		OrderID:      "ord-1",
		GatewayTxnID: "gw-txn-9",
		SharedSecret: "secret-1",
	}).Return(completed, nil)

	rec, env := doJSON(t, router, "POST", "/webhooks/deposit", map[string]string{
		"event_type":     "deposit.completed",
		"order_id":       "ord-1",
		"transaction_id": "gw-txn-9",
		"status":         "completed",
		"shared_secret":  "secret-1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "completed", env.Data["status"])
}

func TestDepositWebhook_BadSecret(t *testing.T) {
	router, _, payments := newTestRouter(t)

	payments.On("ConfirmDeposit", mock.Anything, mock.Anything).
		Return(nil, domain.ErrSignatureMismatch)

	rec, env := doJSON(t, router, "POST", "/webhooks/deposit", map[string]string{
		"event_type":     "deposit.completed",
		"order_id":       "ord-1",
		"transaction_id": "gw-txn-9",
		"shared_secret":  "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH_SIGNATURE_MISMATCH", env.Error.Code)
}

func TestInternalErrorIsSanitized(t *testing.T) {
	router, reservations, _ := newTestRouter(t)

	reservations.On("Get", mock.Anything, "res-1").
		Return(nil, fmt.Errorf("pq: connection reset by peer"))

	rec, env := doJSON(t, router, "GET", "/api/v1/reservations/res-1", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	assert.Equal(t, "internal server error", env.Error.Message)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestCompleteSettlement(t *testing.T) {
	router, _, payments := newTestRouter(t)

	settled := samplePayment()
	settled.SettlementStatus = models.SettlementCompleted
	payments.On("CompleteSettlement", mock.Anything, "pay-1").Return(settled, nil)

	rec, env := doJSON(t, router, "POST", "/api/v1/payments/pay-1/settlement/complete", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", env.Data["settlement_status"])
}

func TestListPaymentsByReservation(t *testing.T) {
	router, _, payments := newTestRouter(t)

	payments.On("ListByReservation", mock.Anything, "res-1").
		Return([]*models.Payment{samplePayment()}, nil)

	req := httptest.NewRequest("GET", "/api/v1/reservations/res-1/payments", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Success bool                     `json:"success"`
		Data    []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, "pay-1", env.Data[0]["id"])
}

func TestHealthz(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
