package payment

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/drivehub/booking-service/internal/domain"
	"github.com/drivehub/booking-service/internal/domain/models"
	"github.com/drivehub/booking-service/internal/domain/ports"
	svcports "github.com/drivehub/booking-service/internal/services/ports"
	"github.com/drivehub/booking-service/pkg/observability"
)

// Refund reverses a completed payment, fully or partially. The gateway call
// runs between two transactions: preconditions are validated first, the
// gateway cancel happens without any lock held, then the result is committed
// after re-validating that the payment did not move underneath the call. A
// gateway failure leaves the payment untouched.
func (s *Service) Refund(ctx context.Context, req svcports.RefundRequest) (*models.Payment, error) {
	payment, err := s.payRepo.GetByID(ctx, nil, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if !payment.CanBeRefunded() {
		return nil, domain.ErrInvalidTransition.
			WithDetail("operation", "refund").
			WithDetail("status", string(payment.Status))
	}

	remainder := payment.RefundableRemainder()
	amount := remainder
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount.WithDetail("amount", amount.String())
	}
	if amount.GreaterThan(remainder) {
		return nil, domain.ErrAmountExceedsRemainder.
			WithDetail("amount", amount.String()).
			WithDetail("remainder", remainder.String())
	}

	refundedBefore := payment.RefundAmount

	if _, err := s.gateway.Cancel(ctx, &ports.CancelRequest{
		GatewayTxnID: payment.GatewayTxnID,
		Amount:       amount,
		Reason:       req.Reason,
	}); err != nil {
		s.logger.Warn("gateway refund failed",
			ports.String("payment_id", payment.ID),
			ports.Err(err))
		return nil, err
	}

	ratio := domain.SplitRatio{BranchPercent: payment.BranchPercent, HQPercent: payment.HQPercent}

	var out *models.Payment
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, err := s.payRepo.GetByIDForUpdate(ctx, tx, req.PaymentID)
		if err != nil {
			return err
		}
		// Another refund landed between our gateway call and this commit.
		if !current.CanBeRefunded() || !current.RefundAmount.Equal(refundedBefore) {
			return domain.ErrStaleState.
				WithDetail("status", string(current.Status)).
				WithDetail("refund_amount", current.RefundAmount.String())
		}

		newRefundTotal := current.RefundAmount.Add(amount)
		remaining := current.Amount.Sub(newRefundTotal)
		full := remaining.IsZero()

		// Shares are recomputed on the remaining collected amount with the
		// ratio captured at payment creation, keeping
		// branch + hq == gross - refund exact.
		branchAmount, hqAmount := domain.Split(remaining, ratio)

		status := models.PaymentPartialRefund
		if full {
			status = models.PaymentRefunded
		}

		if err := s.payRepo.ApplyRefund(ctx, tx, current.ID, status, newRefundTotal, branchAmount, hqAmount); err != nil {
			return err
		}
		if err := s.lifecycle.OnPaymentRefunded(ctx, tx, current.ReservationID, full); err != nil {
			return err
		}

		current.Status = status
		current.RefundAmount = newRefundTotal
		current.BranchAmount = branchAmount
		current.HQAmount = hqAmount
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordRefund(out.BranchID, out.Status == models.PaymentRefunded)
	s.logger.Info("refund applied",
		ports.String("payment_id", out.ID),
		ports.String("status", string(out.Status)),
		ports.String("refund_amount", out.RefundAmount.String()),
		ports.String("reason", req.Reason))

	return out, nil
}

// RefundActivePayment fully refunds the reservation's active payment if it is
// refundable. Used by reservation cancellation; a reservation whose active
// payment never completed has nothing to refund.
func (s *Service) RefundActivePayment(ctx context.Context, reservationID string, reason string) error {
	payment, err := s.payRepo.GetActiveByReservation(ctx, nil, reservationID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrorCodePaymentNotFound) {
			return nil
		}
		return err
	}
	if !payment.CanBeRefunded() {
		return nil
	}
	_, err = s.Refund(ctx, svcports.RefundRequest{
		PaymentID: payment.ID,
		Reason:    reason,
	})
	return err
}
