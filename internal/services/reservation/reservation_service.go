package reservation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/drivehub/booking-service/internal/domain"
	"github.com/drivehub/booking-service/internal/domain/models"
	"github.com/drivehub/booking-service/internal/domain/ports"
	svcports "github.com/drivehub/booking-service/internal/services/ports"
	"github.com/drivehub/booking-service/pkg/observability"
)

// Service implements ports.ReservationService and ports.ReservationLifecycle.
// All reservation status writes funnel through here; nothing else touches
// reservations.status directly.
type Service struct {
	db       ports.DBPort
	repo     ports.ReservationRepository
	catalog  ports.CatalogDirectory
	refunder ports.RefundProcessor
	logger   ports.Logger
}

// NewService creates a new reservation service
func NewService(
	db ports.DBPort,
	repo ports.ReservationRepository,
	catalog ports.CatalogDirectory,
	logger ports.Logger,
) *Service {
	return &Service{
		db:      db,
		repo:    repo,
		catalog: catalog,
		logger:  logger,
	}
}

// SetRefundProcessor wires the payment side in after construction. The
// object graph is cyclic (payments drive reservations, cancellation drives
// refunds) while the package graph stays acyclic through ports.
func (s *Service) SetRefundProcessor(rp ports.RefundProcessor) {
	s.refunder = rp
}

// Create opens a new reservation in pending/unpaid
func (s *Service) Create(ctx context.Context, req svcports.CreateReservationRequest) (*models.Reservation, error) {
	if err := s.validateCreate(ctx, req); err != nil {
		return nil, err
	}

	now := time.Now()
	reservation := &models.Reservation{
		ID:            uuid.New().String(),
		ReservationNo: newReservationNo(),
		BranchID:      req.BranchID,
		VehicleID:     req.VehicleID,
		Customer:      req.Customer,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		BasePrice:     req.BasePrice,
		TotalPrice:    req.TotalPrice,
		Status:        models.ReservationPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, nil, reservation); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	observability.RecordReservationTransition(reservation.BranchID, string(reservation.Status))
	s.logger.Info("reservation created",
		ports.String("reservation_id", reservation.ID),
		ports.String("reservation_no", reservation.ReservationNo),
		ports.String("branch_id", reservation.BranchID))

	return reservation, nil
}

func (s *Service) validateCreate(ctx context.Context, req svcports.CreateReservationRequest) error {
	if req.Customer.Name == "" {
		return domain.NewDomainError(domain.ErrorCodeValidationFailed, "customer name is required")
	}
	if !req.StartsAt.Before(req.EndsAt) {
		return domain.ErrValidationDates
	}
	if req.TotalPrice.IsNegative() || req.BasePrice.IsNegative() {
		return domain.NewDomainError(domain.ErrorCodeValidationAmountInvalid, "price must not be negative")
	}

	branch, err := s.catalog.GetBranch(ctx, req.BranchID)
	if err != nil {
		return err
	}
	if !branch.Active {
		return domain.ErrCatalogNotFound.WithDetail("branch_id", req.BranchID)
	}
	vehicle, err := s.catalog.GetVehicle(ctx, req.VehicleID)
	if err != nil {
		return err
	}
	if !vehicle.Active {
		return domain.ErrCatalogNotFound.WithDetail("vehicle_id", req.VehicleID)
	}
	return nil
}

// Approve moves a pending reservation to approved
func (s *Service) Approve(ctx context.Context, id string) (*models.Reservation, error) {
	return s.transition(ctx, id, "approve",
		func(r *models.Reservation) bool { return r.CanApprove() },
		models.ReservationApproved)
}

// MarkInUse records vehicle handover on a confirmed reservation
func (s *Service) MarkInUse(ctx context.Context, id string) (*models.Reservation, error) {
	return s.transition(ctx, id, "mark_in_use",
		func(r *models.Reservation) bool { return r.CanMarkInUse() },
		models.ReservationInUse)
}

// Complete closes out a reservation whose vehicle has been returned
func (s *Service) Complete(ctx context.Context, id string) (*models.Reservation, error) {
	return s.transition(ctx, id, "complete",
		func(r *models.Reservation) bool { return r.CanComplete() },
		models.ReservationCompleted)
}

// transition applies a forward status change under a row lock
func (s *Service) transition(ctx context.Context, id, op string, allowed func(*models.Reservation) bool, to models.ReservationStatus) (*models.Reservation, error) {
	var reservation *models.Reservation
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		r, err := s.repo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !allowed(r) {
			return domain.ErrInvalidTransition.
				WithDetail("operation", op).
				WithDetail("status", string(r.Status))
		}
		if err := s.repo.UpdateStatus(ctx, tx, id, to, r.PaymentStatus); err != nil {
			return err
		}
		r.Status = to
		reservation = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordReservationTransition(reservation.BranchID, string(reservation.Status))
	s.logger.Info("reservation transitioned",
		ports.String("reservation_id", id),
		ports.String("operation", op),
		ports.String("status", string(reservation.Status)))

	return reservation, nil
}

// Cancel cancels a reservation. If a completed payment exists, the refund
// runs first; its gateway call must not happen under our row lock, so the
// refund processor performs its own two-phase commit and forces the
// reservation to cancelled via OnPaymentRefunded. The final transaction only
// records the cancel reason and covers the no-payment path.
func (s *Service) Cancel(ctx context.Context, id string, reason string) (*models.Reservation, error) {
	reservation, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if !reservation.CanCancel() {
		return nil, domain.ErrInvalidTransition.
			WithDetail("operation", "cancel").
			WithDetail("status", string(reservation.Status))
	}

	if reservation.PaymentStatus == models.PaymentStatusPaid ||
		reservation.PaymentStatus == models.PaymentStatusPartial {
		if s.refunder == nil {
			return nil, domain.ErrInternalError.WithDetail("reason", "refund processor not configured")
		}
		if err := s.refunder.RefundActivePayment(ctx, id, reason); err != nil {
			// Gateway failure leaves both rows untouched; the caller retries.
			return nil, err
		}
	}

	var out *models.Reservation
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		r, err := s.repo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.Status != models.ReservationCancelled {
			if !r.CanCancel() {
				return domain.ErrStaleState.WithDetail("status", string(r.Status))
			}
			if err := s.repo.UpdateStatus(ctx, tx, id, models.ReservationCancelled, r.PaymentStatus); err != nil {
				return err
			}
			r.Status = models.ReservationCancelled
		}
		if err := s.repo.SetCancelReason(ctx, tx, id, reason); err != nil {
			return err
		}
		r.CancelReason = &reason
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordReservationTransition(out.BranchID, string(out.Status))
	s.logger.Info("reservation cancelled",
		ports.String("reservation_id", id),
		ports.String("reason", reason))

	return out, nil
}

// OnPaymentCompleted confirms the reservation once its payment completed.
// Invoked by the payment side inside the transaction that completes the
// payment, so both rows commit together.
func (s *Service) OnPaymentCompleted(ctx context.Context, tx pgx.Tx, reservationID string) error {
	r, err := s.repo.GetByIDForUpdate(ctx, tx, reservationID)
	if err != nil {
		return err
	}
	if !r.CanConfirm() {
		return domain.ErrInvalidTransition.
			WithDetail("operation", "confirm").
			WithDetail("status", string(r.Status))
	}
	return s.repo.UpdateStatus(ctx, tx, reservationID, models.ReservationConfirmed, models.PaymentStatusPaid)
}

// OnPaymentRefunded records the refund on the reservation. A full refund of
// a reservation that has not finished its rental forces it to cancelled.
func (s *Service) OnPaymentRefunded(ctx context.Context, tx pgx.Tx, reservationID string, full bool) error {
	r, err := s.repo.GetByIDForUpdate(ctx, tx, reservationID)
	if err != nil {
		return err
	}

	if !full {
		return s.repo.UpdateStatus(ctx, tx, reservationID, r.Status, models.PaymentStatusPartial)
	}

	status := r.Status
	if status != models.ReservationCompleted && status != models.ReservationCancelled {
		status = models.ReservationCancelled
	}
	return s.repo.UpdateStatus(ctx, tx, reservationID, status, models.PaymentStatusRefunded)
}

// SetAdminMemo updates the operator memo on a reservation
func (s *Service) SetAdminMemo(ctx context.Context, id string, memo string) (*models.Reservation, error) {
	reservation, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetAdminMemo(ctx, nil, id, memo); err != nil {
		return nil, err
	}
	reservation.AdminMemo = &memo
	return reservation, nil
}

// Get retrieves a reservation by id
func (s *Service) Get(ctx context.Context, id string) (*models.Reservation, error) {
	return s.repo.GetByID(ctx, nil, id)
}

// GetByNumber retrieves a reservation by its human-readable number
func (s *Service) GetByNumber(ctx context.Context, reservationNo string) (*models.Reservation, error) {
	return s.repo.GetByNumber(ctx, nil, reservationNo)
}

// newReservationNo derives a customer-facing reservation number
func newReservationNo() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "RSV-" + strings.ToUpper(raw[:10])
}
