package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/drivehub/booking-service/internal/domain/models"
)

// ReservationRepository persists reservations. Passing a nil DBTX runs the
// statement against the pool; otherwise it joins the caller's transaction.
type ReservationRepository interface {
	Create(ctx context.Context, tx DBTX, reservation *models.Reservation) error

	GetByID(ctx context.Context, tx DBTX, id string) (*models.Reservation, error)

	// GetByIDForUpdate locks the reservation row for the rest of the transaction
	GetByIDForUpdate(ctx context.Context, tx DBTX, id string) (*models.Reservation, error)

	GetByNumber(ctx context.Context, tx DBTX, reservationNo string) (*models.Reservation, error)

	// UpdateStatus writes status and the denormalized payment status together
	UpdateStatus(ctx context.Context, tx DBTX, id string, status models.ReservationStatus, paymentStatus models.ReservationPaymentStatus) error

	SetCancelReason(ctx context.Context, tx DBTX, id string, reason string) error

	SetAdminMemo(ctx context.Context, tx DBTX, id string, memo string) error
}

// PaymentRepository persists payments
type PaymentRepository interface {
	// Create inserts a payment. The payments table carries a partial unique
	// index on reservation_id over non-terminal statuses; a violation is
	// surfaced as CONFLICT_ACTIVE_PAYMENT.
	Create(ctx context.Context, tx DBTX, payment *models.Payment) error

	GetByID(ctx context.Context, tx DBTX, id string) (*models.Payment, error)

	GetByIDForUpdate(ctx context.Context, tx DBTX, id string) (*models.Payment, error)

	GetByOrderIDForUpdate(ctx context.Context, tx DBTX, orderID string) (*models.Payment, error)

	GetActiveByReservation(ctx context.Context, tx DBTX, reservationID string) (*models.Payment, error)

	ListByReservation(ctx context.Context, tx DBTX, reservationID string) ([]*models.Payment, error)

	// MarkCompleted records a successful charge or confirmed deposit
	MarkCompleted(ctx context.Context, tx DBTX, id string, gatewayTxnID string, card *models.CardDetail, paidAt time.Time) error

	// MarkAwaitingDeposit stores the issued virtual account on a pending payment
	MarkAwaitingDeposit(ctx context.Context, tx DBTX, id string, account *models.VirtualAccountDetail) error

	MarkFailed(ctx context.Context, tx DBTX, id string) error

	MarkCancelled(ctx context.Context, tx DBTX, id string, cancelledAt time.Time) error

	// ApplyRefund writes the new refund total, recomputed shares, and status in one statement
	ApplyRefund(ctx context.Context, tx DBTX, id string, status models.PaymentStatus, refundAmount, branchAmount, hqAmount decimal.Decimal) error

	UpdateSettlementStatus(ctx context.Context, tx DBTX, id string, status models.SettlementStatus) error

	// ListOverdueAwaitingDeposit returns virtual-account payments past their due date
	ListOverdueAwaitingDeposit(ctx context.Context, tx DBTX, now time.Time, limit int32) ([]*models.Payment, error)

	// ListSettlementPending returns completed payments whose settlement has not started
	ListSettlementPending(ctx context.Context, tx DBTX, limit int32) ([]*models.Payment, error)
}
