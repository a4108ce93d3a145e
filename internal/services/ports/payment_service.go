package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/drivehub/booking-service/internal/domain/models"
)

// RequestPaymentRequest starts a payment attempt against a reservation
type RequestPaymentRequest struct {
	ReservationID string
	Instrument    models.PaymentInstrument
	BankCode      string // virtual_account only
	DueHours      int32  // virtual_account only; 0 uses the configured default
}

// RefundRequest reverses a completed payment. A nil Amount refunds the full
// refundable remainder.
type RefundRequest struct {
	PaymentID string
	Amount    *decimal.Decimal
	Reason    string
}

// DepositNotification is an out-of-band completion event for a deferred payment
type DepositNotification struct {
	OrderID      string
	GatewayTxnID string
	SharedSecret string
}

// PaymentService owns the payment and settlement state machines
type PaymentService interface {
	RequestPayment(ctx context.Context, req RequestPaymentRequest) (*models.Payment, error)

	Refund(ctx context.Context, req RefundRequest) (*models.Payment, error)

	// ConfirmDeposit applies a deposit notification idempotently; the webhook
	// endpoint responds 2xx only after this returns.
	ConfirmDeposit(ctx context.Context, n DepositNotification) (*models.Payment, error)

	ExpireVirtualAccount(ctx context.Context, paymentID string) (*models.Payment, error)

	// ExpireOverdueVirtualAccounts sweeps all overdue awaiting_deposit payments
	ExpireOverdueVirtualAccounts(ctx context.Context) (int, error)

	// AdvanceSettlements moves completed payments' settlement from pending to processing
	AdvanceSettlements(ctx context.Context) (int, error)

	CompleteSettlement(ctx context.Context, paymentID string) (*models.Payment, error)

	FailSettlement(ctx context.Context, paymentID string) (*models.Payment, error)

	Get(ctx context.Context, id string) (*models.Payment, error)

	ListByReservation(ctx context.Context, reservationID string) ([]*models.Payment, error)
}
