package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/drivehub/booking-service/internal/domain"
	"github.com/drivehub/booking-service/internal/domain/models"
	"github.com/drivehub/booking-service/internal/domain/ports"
	svcports "github.com/drivehub/booking-service/internal/services/ports"
	"github.com/drivehub/booking-service/pkg/observability"
)

// Config carries the payment policy knobs captured from configuration
type Config struct {
	SplitRatio      domain.SplitRatio
	WebhookSecret   string
	DefaultDueHours int32
	SweepBatchLimit int32
}

// Service implements ports.PaymentService and ports.RefundProcessor. It owns
// the payment and settlement state machines and drives reservation
// transitions through the lifecycle port on completion and refund.
type Service struct {
	db        ports.DBPort
	payRepo   ports.PaymentRepository
	resRepo   ports.ReservationRepository
	gateway   ports.PaymentGateway
	lifecycle ports.ReservationLifecycle
	cfg       Config
	logger    ports.Logger
}

// NewService creates a new payment service
func NewService(
	db ports.DBPort,
	payRepo ports.PaymentRepository,
	resRepo ports.ReservationRepository,
	gateway ports.PaymentGateway,
	lifecycle ports.ReservationLifecycle,
	cfg Config,
	logger ports.Logger,
) (*Service, error) {
	if err := cfg.SplitRatio.Validate(); err != nil {
		return nil, fmt.Errorf("payment service config: %w", err)
	}
	if cfg.DefaultDueHours <= 0 {
		cfg.DefaultDueHours = 72
	}
	if cfg.SweepBatchLimit <= 0 {
		cfg.SweepBatchLimit = 500
	}
	return &Service{
		db:        db,
		payRepo:   payRepo,
		resRepo:   resRepo,
		gateway:   gateway,
		lifecycle: lifecycle,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// RequestPayment creates a payment against a pending or approved reservation.
//
// The gateway must not be called while holding the reservation or payment
// row lock, so the flow is two-phase: the first transaction validates the
// reservation and claims the single active-payment slot by inserting the
// payment in pending (a partial unique index rejects a second claim), the
// gateway call runs unlocked, and a second transaction re-validates and
// commits the observed result.
func (s *Service) RequestPayment(ctx context.Context, req svcports.RequestPaymentRequest) (*models.Payment, error) {
	if req.Instrument != models.InstrumentCard && req.Instrument != models.InstrumentVirtualAccount {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "unknown payment instrument").
			WithDetail("instrument", string(req.Instrument))
	}
	if req.Instrument == models.InstrumentVirtualAccount && req.BankCode == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "bank_code is required for virtual account payments")
	}

	var (
		payment  *models.Payment
		customer models.Customer
	)

	// Phase 1: claim the active-payment slot under the reservation lock.
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		reservation, err := s.resRepo.GetByIDForUpdate(ctx, tx, req.ReservationID)
		if err != nil {
			return err
		}
		if !reservation.CanAcceptPayment() {
			return domain.ErrInvalidTransition.
				WithDetail("operation", "request_payment").
				WithDetail("status", string(reservation.Status))
		}

		branchAmount, hqAmount := domain.Split(reservation.TotalPrice, s.cfg.SplitRatio)
		now := time.Now()
		payment = &models.Payment{
			ID:               uuid.New().String(),
			OrderID:          newOrderID(),
			ReservationID:    reservation.ID,
			BranchID:         reservation.BranchID,
			Amount:           reservation.TotalPrice,
			Instrument:       req.Instrument,
			BranchPercent:    s.cfg.SplitRatio.BranchPercent,
			HQPercent:        s.cfg.SplitRatio.HQPercent,
			BranchAmount:     branchAmount,
			HQAmount:         hqAmount,
			RefundAmount:     decimal.Zero,
			Status:           models.PaymentPending,
			SettlementStatus: models.SettlementPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		customer = reservation.Customer

		return s.payRepo.Create(ctx, tx, payment)
	})
	if err != nil {
		return nil, err
	}

	// Phase 2: gateway call without any row lock held.
	switch req.Instrument {
	case models.InstrumentCard:
		return s.chargeCard(ctx, payment, customer)
	default:
		return s.issueVirtualAccount(ctx, payment, customer, req)
	}
}

func (s *Service) chargeCard(ctx context.Context, payment *models.Payment, customer models.Customer) (*models.Payment, error) {
	result, err := s.gateway.Charge(ctx, &ports.ChargeRequest{
		OrderID:  payment.OrderID,
		Amount:   payment.Amount,
		Customer: customer,
	})
	if err != nil {
		// Failed payments are terminal; re-requesting uses a fresh order id.
		s.markFailed(ctx, payment.ID)
		observability.RecordPaymentAttempt(payment.BranchID, string(payment.Instrument), "failed", payment.Amount.IntPart())
		s.logger.Warn("card charge failed",
			ports.String("payment_id", payment.ID),
			ports.String("order_id", payment.OrderID),
			ports.Err(err))
		return nil, err
	}

	paidAt := result.ApprovedAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, err := s.payRepo.GetByIDForUpdate(ctx, tx, payment.ID)
		if err != nil {
			return err
		}
		if current.Status != models.PaymentPending {
			return domain.ErrStaleState.WithDetail("status", string(current.Status))
		}
		if err := s.payRepo.MarkCompleted(ctx, tx, payment.ID, result.GatewayTxnID, &result.Card, paidAt); err != nil {
			return err
		}
		return s.lifecycle.OnPaymentCompleted(ctx, tx, payment.ReservationID)
	})
	if err != nil {
		// Funds were captured but the local commit failed. Reverse the charge
		// so the customer is not billed for a payment we cannot record.
		s.reverseCharge(ctx, payment, result.GatewayTxnID)
		return nil, err
	}

	payment.Status = models.PaymentCompleted
	payment.GatewayTxnID = result.GatewayTxnID
	card := result.Card
	payment.Card = &card
	payment.PaidAt = &paidAt

	observability.RecordPaymentAttempt(payment.BranchID, string(payment.Instrument), "completed", payment.Amount.IntPart())
	s.logger.Info("card payment completed",
		ports.String("payment_id", payment.ID),
		ports.String("order_id", payment.OrderID),
		ports.String("reservation_id", payment.ReservationID),
		ports.String("gateway_txn_id", result.GatewayTxnID))

	return payment, nil
}

func (s *Service) issueVirtualAccount(ctx context.Context, payment *models.Payment, customer models.Customer, req svcports.RequestPaymentRequest) (*models.Payment, error) {
	dueHours := req.DueHours
	if dueHours <= 0 {
		dueHours = s.cfg.DefaultDueHours
	}

	result, err := s.gateway.IssueVirtualAccount(ctx, &ports.VirtualAccountRequest{
		OrderID:  payment.OrderID,
		Amount:   payment.Amount,
		BankCode: req.BankCode,
		DueHours: dueHours,
		Customer: customer,
	})
	if err != nil {
		s.markFailed(ctx, payment.ID)
		observability.RecordPaymentAttempt(payment.BranchID, string(payment.Instrument), "failed", payment.Amount.IntPart())
		s.logger.Warn("virtual account issue failed",
			ports.String("payment_id", payment.ID),
			ports.String("order_id", payment.OrderID),
			ports.Err(err))
		return nil, err
	}

	account := &models.VirtualAccountDetail{
		AccountNumber: result.AccountNumber,
		BankCode:      result.BankCode,
		HolderName:    result.HolderName,
		DueAt:         result.DueAt,
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, err := s.payRepo.GetByIDForUpdate(ctx, tx, payment.ID)
		if err != nil {
			return err
		}
		if current.Status != models.PaymentPending {
			return domain.ErrStaleState.WithDetail("status", string(current.Status))
		}
		return s.payRepo.MarkAwaitingDeposit(ctx, tx, payment.ID, account)
	})
	if err != nil {
		return nil, err
	}

	payment.Status = models.PaymentAwaitingDeposit
	payment.VirtualAccount = account

	observability.RecordPaymentAttempt(payment.BranchID, string(payment.Instrument), "awaiting_deposit", payment.Amount.IntPart())
	s.logger.Info("virtual account issued",
		ports.String("payment_id", payment.ID),
		ports.String("order_id", payment.OrderID),
		ports.String("bank_code", account.BankCode))

	return payment, nil
}

// markFailed records a terminal failure in its own transaction
func (s *Service) markFailed(ctx context.Context, paymentID string) {
	if err := s.payRepo.MarkFailed(ctx, nil, paymentID); err != nil {
		s.logger.Error("failed to mark payment failed",
			ports.String("payment_id", paymentID),
			ports.Err(err))
	}
}

// reverseCharge compensates a captured charge whose local commit failed. If
// the reversal itself fails the payment is left pending and flagged for
// manual reconciliation.
func (s *Service) reverseCharge(ctx context.Context, payment *models.Payment, gatewayTxnID string) {
	_, err := s.gateway.Cancel(ctx, &ports.CancelRequest{
		GatewayTxnID: gatewayTxnID,
		Amount:       payment.Amount,
		Reason:       "auto-reversal: local commit failed",
	})
	if err != nil {
		s.logger.Error("charge reversal failed, manual reconciliation required",
			ports.String("payment_id", payment.ID),
			ports.String("gateway_txn_id", gatewayTxnID),
			ports.Err(err))
		return
	}
	s.markFailed(ctx, payment.ID)
	s.logger.Warn("charge reversed after failed commit",
		ports.String("payment_id", payment.ID),
		ports.String("gateway_txn_id", gatewayTxnID))
}

// ExpireVirtualAccount cancels an awaiting_deposit payment past its due date.
// The reservation is left in its prior state on purpose: the customer may
// re-attempt payment, so expiry does not cascade into cancellation.
func (s *Service) ExpireVirtualAccount(ctx context.Context, paymentID string) (*models.Payment, error) {
	var payment *models.Payment
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		p, err := s.payRepo.GetByIDForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if p.Status != models.PaymentAwaitingDeposit {
			return domain.ErrInvalidTransition.
				WithDetail("operation", "expire").
				WithDetail("status", string(p.Status))
		}
		now := time.Now()
		if !p.DepositOverdue(now) {
			return domain.NewDomainError(domain.ErrorCodeValidationFailed, "virtual account is not overdue yet")
		}
		if err := s.payRepo.MarkCancelled(ctx, tx, paymentID, now); err != nil {
			return err
		}
		p.Status = models.PaymentCancelled
		p.CancelledAt = &now
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("virtual account expired",
		ports.String("payment_id", paymentID),
		ports.String("order_id", payment.OrderID))

	return payment, nil
}

// ExpireOverdueVirtualAccounts sweeps awaiting_deposit payments whose due
// date has passed. Each expiry commits independently so one bad row does not
// stall the sweep.
func (s *Service) ExpireOverdueVirtualAccounts(ctx context.Context) (int, error) {
	overdue, err := s.payRepo.ListOverdueAwaitingDeposit(ctx, nil, time.Now(), s.cfg.SweepBatchLimit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, p := range overdue {
		if _, err := s.ExpireVirtualAccount(ctx, p.ID); err != nil {
			// Raced with a deposit confirmation or another sweep; skip.
			if domain.IsDomainError(err, domain.ErrorCodeTransitionInvalid) {
				continue
			}
			s.logger.Error("expiry sweep failed for payment",
				ports.String("payment_id", p.ID),
				ports.Err(err))
			continue
		}
		expired++
	}
	return expired, nil
}

// AdvanceSettlements moves completed payments' settlement intent from
// pending to processing for the external settlement executor to pick up.
func (s *Service) AdvanceSettlements(ctx context.Context) (int, error) {
	pending, err := s.payRepo.ListSettlementPending(ctx, nil, s.cfg.SweepBatchLimit)
	if err != nil {
		return 0, err
	}

	advanced := 0
	for _, p := range pending {
		err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
			current, err := s.payRepo.GetByIDForUpdate(ctx, tx, p.ID)
			if err != nil {
				return err
			}
			if current.SettlementStatus != models.SettlementPending || current.Status != models.PaymentCompleted {
				return domain.ErrStaleState
			}
			return s.payRepo.UpdateSettlementStatus(ctx, tx, p.ID, models.SettlementProcessing)
		})
		if err != nil {
			if domain.IsConflictError(err) {
				continue
			}
			s.logger.Error("settlement advance failed",
				ports.String("payment_id", p.ID),
				ports.Err(err))
			continue
		}
		advanced++
	}
	return advanced, nil
}

// CompleteSettlement records that both beneficiary transfers finished
func (s *Service) CompleteSettlement(ctx context.Context, paymentID string) (*models.Payment, error) {
	return s.setSettlement(ctx, paymentID, models.SettlementProcessing, models.SettlementCompleted)
}

// FailSettlement records a failed transfer; the batch may retry it later
func (s *Service) FailSettlement(ctx context.Context, paymentID string) (*models.Payment, error) {
	return s.setSettlement(ctx, paymentID, models.SettlementProcessing, models.SettlementFailed)
}

func (s *Service) setSettlement(ctx context.Context, paymentID string, from, to models.SettlementStatus) (*models.Payment, error) {
	var payment *models.Payment
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		p, err := s.payRepo.GetByIDForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if p.SettlementStatus != from {
			return domain.ErrInvalidTransition.
				WithDetail("operation", "settlement").
				WithDetail("settlement_status", string(p.SettlementStatus))
		}
		if err := s.payRepo.UpdateSettlementStatus(ctx, tx, paymentID, to); err != nil {
			return err
		}
		p.SettlementStatus = to
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("settlement status updated",
		ports.String("payment_id", paymentID),
		ports.String("settlement_status", string(to)))

	return payment, nil
}

// Get retrieves a payment by id
func (s *Service) Get(ctx context.Context, id string) (*models.Payment, error) {
	return s.payRepo.GetByID(ctx, nil, id)
}

// ListByReservation lists all payment attempts for a reservation
func (s *Service) ListByReservation(ctx context.Context, reservationID string) ([]*models.Payment, error) {
	return s.payRepo.ListByReservation(ctx, nil, reservationID)
}

// newOrderID generates the external order identifier sent to the gateway
func newOrderID() string {
	return "ORD-" + uuid.New().String()
}
