package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/drivehub/booking-service/internal/domain/models"
)

// CreateReservationRequest carries everything needed to open a reservation
type CreateReservationRequest struct {
	BranchID   string
	VehicleID  string
	Customer   models.Customer
	StartsAt   time.Time
	EndsAt     time.Time
	BasePrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// ReservationService owns the reservation status state machine
type ReservationService interface {
	Create(ctx context.Context, req CreateReservationRequest) (*models.Reservation, error)

	Approve(ctx context.Context, id string) (*models.Reservation, error)

	// Cancel moves the reservation to cancelled and, when a completed payment
	// exists, triggers a full refund first.
	Cancel(ctx context.Context, id string, reason string) (*models.Reservation, error)

	MarkInUse(ctx context.Context, id string) (*models.Reservation, error)

	Complete(ctx context.Context, id string) (*models.Reservation, error)

	SetAdminMemo(ctx context.Context, id string, memo string) (*models.Reservation, error)

	Get(ctx context.Context, id string) (*models.Reservation, error)

	GetByNumber(ctx context.Context, reservationNo string) (*models.Reservation, error)
}
