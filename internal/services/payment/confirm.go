package payment

import (
	"context"
	"crypto/hmac"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/drivehub/booking-service/internal/domain"
	"github.com/drivehub/booking-service/internal/domain/models"
	"github.com/drivehub/booking-service/internal/domain/ports"
	svcports "github.com/drivehub/booking-service/internal/services/ports"
	"github.com/drivehub/booking-service/pkg/observability"
)

// ConfirmDeposit applies an out-of-band deposit notification for a
// virtual-account payment. The external notifier retries until it sees a 2xx,
// so the apply is idempotent: a replay with the transaction id already
// recorded succeeds without re-running any effect.
//
// The shared secret is checked before any lookup and the same error is
// returned whether or not the order exists, so a forged notification learns
// nothing about order ids.
func (s *Service) ConfirmDeposit(ctx context.Context, n svcports.DepositNotification) (*models.Payment, error) {
	if !hmac.Equal([]byte(n.SharedSecret), []byte(s.cfg.WebhookSecret)) {
		s.logger.Warn("deposit notification rejected: bad shared secret")
		return nil, domain.ErrSignatureMismatch
	}

	var (
		payment *models.Payment
		applied bool
	)
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		p, err := s.payRepo.GetByOrderIDForUpdate(ctx, tx, n.OrderID)
		if err != nil {
			return err
		}

		switch p.Status {
		case models.PaymentCompleted:
			if p.GatewayTxnID == n.GatewayTxnID {
				// Replay of an already-applied notification.
				payment = p
				return nil
			}
			// Same order completed under a different transaction id is a
			// data-integrity fault; never silently overwrite.
			return domain.ErrTxnIDMismatch.
				WithDetail("order_id", n.OrderID).
				WithDetail("recorded_txn_id", p.GatewayTxnID)

		case models.PaymentAwaitingDeposit:
			now := time.Now()
			if err := s.payRepo.MarkCompleted(ctx, tx, p.ID, n.GatewayTxnID, nil, now); err != nil {
				return err
			}
			if err := s.lifecycle.OnPaymentCompleted(ctx, tx, p.ReservationID); err != nil {
				return err
			}
			p.Status = models.PaymentCompleted
			p.GatewayTxnID = n.GatewayTxnID
			p.PaidAt = &now
			payment = p
			applied = true
			return nil

		default:
			// A notification must not resurrect an expired or failed payment.
			return domain.ErrInvalidTransition.
				WithDetail("operation", "confirm_deposit").
				WithDetail("status", string(p.Status))
		}
	})
	if err != nil {
		return nil, err
	}

	if applied {
		observability.RecordPaymentAttempt(payment.BranchID, string(payment.Instrument), "completed", payment.Amount.IntPart())
	}
	s.logger.Info("deposit confirmed",
		ports.String("payment_id", payment.ID),
		ports.String("order_id", n.OrderID),
		ports.String("gateway_txn_id", n.GatewayTxnID))

	return payment, nil
}
