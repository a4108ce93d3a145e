package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/drivehub/booking-service/internal/domain"
	"github.com/drivehub/booking-service/internal/domain/models"
	"github.com/drivehub/booking-service/internal/domain/ports"
)

const reservationColumns = `
	id, reservation_no, branch_id, vehicle_id,
	customer_name, customer_phone, customer_email,
	starts_at, ends_at, base_price, total_price,
	status, payment_status, cancel_reason, admin_memo,
	created_at, updated_at`

// ReservationRepository implements ports.ReservationRepository on PostgreSQL
type ReservationRepository struct {
	db ports.DBPort
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db ports.DBPort) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create inserts a new reservation
func (r *ReservationRepository) Create(ctx context.Context, tx ports.DBTX, reservation *models.Reservation) error {
	basePrice, err := decimalToNumeric(reservation.BasePrice)
	if err != nil {
		return err
	}
	totalPrice, err := decimalToNumeric(reservation.TotalPrice)
	if err != nil {
		return err
	}

	_, err = executor(r.db.GetDB(), tx).Exec(ctx, `
		INSERT INTO reservations (
			id, reservation_no, branch_id, vehicle_id,
			customer_name, customer_phone, customer_email,
			starts_at, ends_at, base_price, total_price,
			status, payment_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
		reservation.ID,
		reservation.ReservationNo,
		reservation.BranchID,
		reservation.VehicleID,
		reservation.Customer.Name,
		reservation.Customer.Phone,
		reservation.Customer.Email,
		reservation.StartsAt,
		reservation.EndsAt,
		basePrice,
		totalPrice,
		string(reservation.Status),
		string(reservation.PaymentStatus),
		reservation.CreatedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "create reservation", err)
	}
	return nil
}

// GetByID retrieves a reservation by its id
func (r *ReservationRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*models.Reservation, error) {
	row := executor(r.db.GetDB(), tx).QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	return r.scan(row)
}

// GetByIDForUpdate retrieves a reservation and locks its row for the
// remainder of the transaction
func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tx ports.DBTX, id string) (*models.Reservation, error) {
	row := executor(r.db.GetDB(), tx).QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id)
	return r.scan(row)
}

// GetByNumber retrieves a reservation by its customer-facing number
func (r *ReservationRepository) GetByNumber(ctx context.Context, tx ports.DBTX, reservationNo string) (*models.Reservation, error) {
	row := executor(r.db.GetDB(), tx).QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE reservation_no = $1`, reservationNo)
	return r.scan(row)
}

// UpdateStatus writes status and the denormalized payment status together
func (r *ReservationRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, id string, status models.ReservationStatus, paymentStatus models.ReservationPaymentStatus) error {
	tag, err := executor(r.db.GetDB(), tx).Exec(ctx, `
		UPDATE reservations
		SET status = $2, payment_status = $3, updated_at = now()
		WHERE id = $1`,
		id, string(status), string(paymentStatus))
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "update reservation status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound.WithDetail("reservation_id", id)
	}
	return nil
}

// SetCancelReason records the operator-provided cancellation reason
func (r *ReservationRepository) SetCancelReason(ctx context.Context, tx ports.DBTX, id string, reason string) error {
	tag, err := executor(r.db.GetDB(), tx).Exec(ctx, `
		UPDATE reservations SET cancel_reason = $2, updated_at = now() WHERE id = $1`,
		id, reason)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "set cancel reason", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound.WithDetail("reservation_id", id)
	}
	return nil
}

// SetAdminMemo updates the operator memo
func (r *ReservationRepository) SetAdminMemo(ctx context.Context, tx ports.DBTX, id string, memo string) error {
	tag, err := executor(r.db.GetDB(), tx).Exec(ctx, `
		UPDATE reservations SET admin_memo = $2, updated_at = now() WHERE id = $1`,
		id, memo)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "set admin memo", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound.WithDetail("reservation_id", id)
	}
	return nil
}

// scan reads one reservation row into the domain model
func (r *ReservationRepository) scan(row pgx.Row) (*models.Reservation, error) {
	var (
		m            models.Reservation
		basePrice    pgtype.Numeric
		totalPrice   pgtype.Numeric
		status       string
		payStatus    string
		cancelReason pgtype.Text
		adminMemo    pgtype.Text
	)

	err := row.Scan(
		&m.ID, &m.ReservationNo, &m.BranchID, &m.VehicleID,
		&m.Customer.Name, &m.Customer.Phone, &m.Customer.Email,
		&m.StartsAt, &m.EndsAt, &basePrice, &totalPrice,
		&status, &payStatus, &cancelReason, &adminMemo,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "scan reservation", err)
	}

	if m.BasePrice, err = numericToDecimal(basePrice); err != nil {
		return nil, fmt.Errorf("reservation base price: %w", err)
	}
	if m.TotalPrice, err = numericToDecimal(totalPrice); err != nil {
		return nil, fmt.Errorf("reservation total price: %w", err)
	}
	m.Status = models.ReservationStatus(status)
	m.PaymentStatus = models.ReservationPaymentStatus(payStatus)
	m.CancelReason = textPtr(cancelReason)
	m.AdminMemo = textPtr(adminMemo)

	return &m, nil
}
