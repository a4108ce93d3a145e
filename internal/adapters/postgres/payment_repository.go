package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/drivehub/booking-service/internal/domain"
	"github.com/drivehub/booking-service/internal/domain/models"
	"github.com/drivehub/booking-service/internal/domain/ports"
)

// activeReservationConstraint is the partial unique index enforcing at most
// one non-terminal payment per reservation
const activeReservationConstraint = "payments_active_reservation_idx"

const paymentColumns = `
	id, order_id, reservation_id, branch_id,
	amount, instrument, branch_percent, hq_percent,
	branch_amount, hq_amount, refund_amount,
	status, settlement_status,
	card_issuer, card_masked_number,
	va_account_number, va_bank_code, va_holder_name, va_due_at,
	gateway_txn_id, paid_at, cancelled_at,
	created_at, updated_at`

// PaymentRepository implements ports.PaymentRepository on PostgreSQL
type PaymentRepository struct {
	db ports.DBPort
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db ports.DBPort) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment. The check-and-create for the single active
// payment invariant is atomic: the partial unique index on reservation_id
// rejects a concurrent second insert and the violation surfaces as
// CONFLICT_ACTIVE_PAYMENT.
func (r *PaymentRepository) Create(ctx context.Context, tx ports.DBTX, p *models.Payment) error {
	amount, err := decimalToNumeric(p.Amount)
	if err != nil {
		return err
	}
	branchAmount, err := decimalToNumeric(p.BranchAmount)
	if err != nil {
		return err
	}
	hqAmount, err := decimalToNumeric(p.HQAmount)
	if err != nil {
		return err
	}
	refundAmount, err := decimalToNumeric(p.RefundAmount)
	if err != nil {
		return err
	}

	_, err = executor(r.db.GetDB(), tx).Exec(ctx, `
		INSERT INTO payments (
			id, order_id, reservation_id, branch_id,
			amount, instrument, branch_percent, hq_percent,
			branch_amount, hq_amount, refund_amount,
			status, settlement_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
		p.ID, p.OrderID, p.ReservationID, p.BranchID,
		amount, string(p.Instrument), p.BranchPercent, p.HQPercent,
		branchAmount, hqAmount, refundAmount,
		string(p.Status), string(p.SettlementStatus), p.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == activeReservationConstraint {
			return domain.ErrActivePaymentExists.WithDetail("reservation_id", p.ReservationID)
		}
		return domain.WrapError(domain.ErrorCodeDatabaseError, "create payment", err)
	}
	return nil
}

// GetByID retrieves a payment by id
func (r *PaymentRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*models.Payment, error) {
	row := executor(r.db.GetDB(), tx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return r.scan(row)
}

// GetByIDForUpdate retrieves a payment and locks its row
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, tx ports.DBTX, id string) (*models.Payment, error) {
	row := executor(r.db.GetDB(), tx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
	return r.scan(row)
}

// GetByOrderIDForUpdate retrieves a payment by external order id and locks its row
func (r *PaymentRepository) GetByOrderIDForUpdate(ctx context.Context, tx ports.DBTX, orderID string) (*models.Payment, error) {
	row := executor(r.db.GetDB(), tx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 FOR UPDATE`, orderID)
	return r.scan(row)
}

// GetActiveByReservation retrieves the reservation's non-terminal payment
func (r *PaymentRepository) GetActiveByReservation(ctx context.Context, tx ports.DBTX, reservationID string) (*models.Payment, error) {
	row := executor(r.db.GetDB(), tx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE reservation_id = $1 AND status NOT IN ('failed', 'cancelled')`,
		reservationID)
	return r.scan(row)
}

// ListByReservation lists all payment attempts for a reservation, oldest first
func (r *PaymentRepository) ListByReservation(ctx context.Context, tx ports.DBTX, reservationID string) ([]*models.Payment, error) {
	rows, err := executor(r.db.GetDB(), tx).Query(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE reservation_id = $1 ORDER BY created_at`,
		reservationID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list payments", err)
	}
	defer rows.Close()
	return r.collect(rows)
}

// MarkCompleted records a successful charge or confirmed deposit. Card detail
// is nil for virtual-account deposits.
func (r *PaymentRepository) MarkCompleted(ctx context.Context, tx ports.DBTX, id string, gatewayTxnID string, card *models.CardDetail, paidAt time.Time) error {
	var issuer, masked pgtype.Text
	if card != nil {
		issuer = nullText(card.Issuer)
		masked = nullText(card.MaskedNumber)
	}

	tag, err := executor(r.db.GetDB(), tx).Exec(ctx, `
		UPDATE payments
		SET status = 'completed',
		    gateway_txn_id = $2,
		    card_issuer = COALESCE($3, card_issuer),
		    card_masked_number = COALESCE($4, card_masked_number),
		    paid_at = $5,
		    updated_at = now()
		WHERE id = $1`,
		id, gatewayTxnID, issuer, masked, paidAt)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "mark payment completed", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound.WithDetail("payment_id", id)
	}
	return nil
}

// MarkAwaitingDeposit stores the issued virtual account on a pending payment
func (r *PaymentRepository) MarkAwaitingDeposit(ctx context.Context, tx ports.DBTX, id string, account *models.VirtualAccountDetail) error {
	tag, err := executor(r.db.GetDB(), tx).Exec(ctx, `
		UPDATE payments
		SET status = 'awaiting_deposit',
		    va_account_number = $2,
		    va_bank_code = $3,
		    va_holder_name = $4,
		    va_due_at = $5,
		    updated_at = now()
		WHERE id = $1`,
		id, account.AccountNumber, account.BankCode, account.HolderName, account.DueAt)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "mark payment awaiting deposit", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound.WithDetail("payment_id", id)
	}
	return nil
}

// MarkFailed records a terminal gateway failure
func (r *PaymentRepository) MarkFailed(ctx context.Context, tx ports.DBTX, id string) error {
	tag, err := executor(r.db.GetDB(), tx).Exec(ctx, `
		UPDATE payments SET status = 'failed', updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "mark payment failed", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound.WithDetail("payment_id", id)
	}
	return nil
}

// MarkCancelled records an expired or operator-cancelled payment
func (r *PaymentRepository) MarkCancelled(ctx context.Context, tx ports.DBTX, id string, cancelledAt time.Time) error {
	tag, err := executor(r.db.GetDB(), tx).Exec(ctx, `
		UPDATE payments SET status = 'cancelled', cancelled_at = $2, updated_at = now() WHERE id = $1`,
		id, cancelledAt)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "mark payment cancelled", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound.WithDetail("payment_id", id)
	}
	return nil
}

// ApplyRefund writes the refund total, recomputed shares, and status atomically
func (r *PaymentRepository) ApplyRefund(ctx context.Context, tx ports.DBTX, id string, status models.PaymentStatus, refundAmount, branchAmount, hqAmount decimal.Decimal) error {
	refund, err := decimalToNumeric(refundAmount)
	if err != nil {
		return err
	}
	branch, err := decimalToNumeric(branchAmount)
	if err != nil {
		return err
	}
	hq, err := decimalToNumeric(hqAmount)
	if err != nil {
		return err
	}

	tag, err := executor(r.db.GetDB(), tx).Exec(ctx, `
		UPDATE payments
		SET status = $2,
		    refund_amount = $3,
		    branch_amount = $4,
		    hq_amount = $5,
		    updated_at = now()
		WHERE id = $1`,
		id, string(status), refund, branch, hq)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "apply refund", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound.WithDetail("payment_id", id)
	}
	return nil
}

// UpdateSettlementStatus advances the settlement axis
func (r *PaymentRepository) UpdateSettlementStatus(ctx context.Context, tx ports.DBTX, id string, status models.SettlementStatus) error {
	tag, err := executor(r.db.GetDB(), tx).Exec(ctx, `
		UPDATE payments SET settlement_status = $2, updated_at = now() WHERE id = $1`,
		id, string(status))
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "update settlement status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound.WithDetail("payment_id", id)
	}
	return nil
}

// ListOverdueAwaitingDeposit returns virtual-account payments past their due date
func (r *PaymentRepository) ListOverdueAwaitingDeposit(ctx context.Context, tx ports.DBTX, now time.Time, limit int32) ([]*models.Payment, error) {
	rows, err := executor(r.db.GetDB(), tx).Query(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE status = 'awaiting_deposit' AND va_due_at < $1
		 ORDER BY va_due_at
		 LIMIT $2`,
		now, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list overdue payments", err)
	}
	defer rows.Close()
	return r.collect(rows)
}

// ListSettlementPending returns completed payments whose settlement has not started
func (r *PaymentRepository) ListSettlementPending(ctx context.Context, tx ports.DBTX, limit int32) ([]*models.Payment, error) {
	rows, err := executor(r.db.GetDB(), tx).Query(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE status = 'completed' AND settlement_status = 'pending'
		 ORDER BY paid_at
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list settlement pending", err)
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *PaymentRepository) collect(rows pgx.Rows) ([]*models.Payment, error) {
	var payments []*models.Payment
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "iterate payments", err)
	}
	return payments, nil
}

// scan reads one payment row into the domain model
func (r *PaymentRepository) scan(row pgx.Row) (*models.Payment, error) {
	var (
		m                models.Payment
		amount           pgtype.Numeric
		branchAmount     pgtype.Numeric
		hqAmount         pgtype.Numeric
		refundAmount     pgtype.Numeric
		instrument       string
		status           string
		settlementStatus string
		cardIssuer       pgtype.Text
		cardMasked       pgtype.Text
		vaAccount        pgtype.Text
		vaBank           pgtype.Text
		vaHolder         pgtype.Text
		vaDueAt          pgtype.Timestamptz
		gatewayTxnID     pgtype.Text
		paidAt           pgtype.Timestamptz
		cancelledAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&m.ID, &m.OrderID, &m.ReservationID, &m.BranchID,
		&amount, &instrument, &m.BranchPercent, &m.HQPercent,
		&branchAmount, &hqAmount, &refundAmount,
		&status, &settlementStatus,
		&cardIssuer, &cardMasked,
		&vaAccount, &vaBank, &vaHolder, &vaDueAt,
		&gatewayTxnID, &paidAt, &cancelledAt,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "scan payment", err)
	}

	if m.Amount, err = numericToDecimal(amount); err != nil {
		return nil, fmt.Errorf("payment amount: %w", err)
	}
	if m.BranchAmount, err = numericToDecimal(branchAmount); err != nil {
		return nil, fmt.Errorf("payment branch amount: %w", err)
	}
	if m.HQAmount, err = numericToDecimal(hqAmount); err != nil {
		return nil, fmt.Errorf("payment hq amount: %w", err)
	}
	if m.RefundAmount, err = numericToDecimal(refundAmount); err != nil {
		return nil, fmt.Errorf("payment refund amount: %w", err)
	}

	m.Instrument = models.PaymentInstrument(instrument)
	m.Status = models.PaymentStatus(status)
	m.SettlementStatus = models.SettlementStatus(settlementStatus)

	if cardIssuer.Valid || cardMasked.Valid {
		m.Card = &models.CardDetail{
			Issuer:       cardIssuer.String,
			MaskedNumber: cardMasked.String,
		}
	}
	if vaAccount.Valid {
		m.VirtualAccount = &models.VirtualAccountDetail{
			AccountNumber: vaAccount.String,
			BankCode:      vaBank.String,
			HolderName:    vaHolder.String,
			DueAt:         vaDueAt.Time,
		}
	}
	if gatewayTxnID.Valid {
		m.GatewayTxnID = gatewayTxnID.String
	}
	if paidAt.Valid {
		t := paidAt.Time
		m.PaidAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		m.CancelledAt = &t
	}

	return &m, nil
}
