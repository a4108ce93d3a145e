package ports

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// ReservationLifecycle is the narrow surface the payment side uses to drive
// reservation transitions. Payment completion and refunds push reservation
// state in this direction only; the reservation side never polls payments.
// Both methods join the caller's open transaction so the payment and
// reservation rows commit atomically.
type ReservationLifecycle interface {
	OnPaymentCompleted(ctx context.Context, tx pgx.Tx, reservationID string) error
	OnPaymentRefunded(ctx context.Context, tx pgx.Tx, reservationID string, full bool) error
}

// RefundProcessor reverses a completed payment. Reservation cancellation
// uses it when a completed payment must be returned to the customer.
type RefundProcessor interface {
	RefundActivePayment(ctx context.Context, reservationID string, reason string) error
}
