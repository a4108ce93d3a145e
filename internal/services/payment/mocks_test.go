package payment_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/drivehub/booking-service/internal/domain/models"
	"github.com/drivehub/booking-service/internal/domain/ports"
)

// MockDBPort runs transaction callbacks directly with a nil tx
type MockDBPort struct {
	mock.Mock
}

func (m *MockDBPort) GetDB() *pgxpool.Pool {
	return nil
}

func (m *MockDBPort) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

func (m *MockDBPort) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

// MockPaymentRepository mocks the payment repository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, tx ports.DBTX, payment *models.Payment) error {
	args := m.Called(ctx, tx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*models.Payment, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByIDForUpdate(ctx context.Context, tx ports.DBTX, id string) (*models.Payment, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByOrderIDForUpdate(ctx context.Context, tx ports.DBTX, orderID string) (*models.Payment, error) {
	args := m.Called(ctx, tx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetActiveByReservation(ctx context.Context, tx ports.DBTX, reservationID string) (*models.Payment, error) {
	args := m.Called(ctx, tx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByReservation(ctx context.Context, tx ports.DBTX, reservationID string) ([]*models.Payment, error) {
	args := m.Called(ctx, tx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) MarkCompleted(ctx context.Context, tx ports.DBTX, id string, gatewayTxnID string, card *models.CardDetail, paidAt time.Time) error {
	args := m.Called(ctx, tx, id, gatewayTxnID, card, paidAt)
	return args.Error(0)
}

func (m *MockPaymentRepository) MarkAwaitingDeposit(ctx context.Context, tx ports.DBTX, id string, account *models.VirtualAccountDetail) error {
	args := m.Called(ctx, tx, id, account)
	return args.Error(0)
}

func (m *MockPaymentRepository) MarkFailed(ctx context.Context, tx ports.DBTX, id string) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockPaymentRepository) MarkCancelled(ctx context.Context, tx ports.DBTX, id string, cancelledAt time.Time) error {
	args := m.Called(ctx, tx, id, cancelledAt)
	return args.Error(0)
}

func (m *MockPaymentRepository) ApplyRefund(ctx context.Context, tx ports.DBTX, id string, status models.PaymentStatus, refundAmount, branchAmount, hqAmount decimal.Decimal) error {
	args := m.Called(ctx, tx, id, status, refundAmount, branchAmount, hqAmount)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdateSettlementStatus(ctx context.Context, tx ports.DBTX, id string, status models.SettlementStatus) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListOverdueAwaitingDeposit(ctx context.Context, tx ports.DBTX, now time.Time, limit int32) ([]*models.Payment, error) {
	args := m.Called(ctx, tx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListSettlementPending(ctx context.Context, tx ports.DBTX, limit int32) ([]*models.Payment, error) {
	args := m.Called(ctx, tx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

// MockReservationRepository mocks the reservation repository
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Create(ctx context.Context, tx ports.DBTX, reservation *models.Reservation) error {
	args := m.Called(ctx, tx, reservation)
	return args.Error(0)
}

func (m *MockReservationRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*models.Reservation, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationRepository) GetByIDForUpdate(ctx context.Context, tx ports.DBTX, id string) (*models.Reservation, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationRepository) GetByNumber(ctx context.Context, tx ports.DBTX, reservationNo string) (*models.Reservation, error) {
	args := m.Called(ctx, tx, reservationNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, id string, status models.ReservationStatus, paymentStatus models.ReservationPaymentStatus) error {
	args := m.Called(ctx, tx, id, status, paymentStatus)
	return args.Error(0)
}

func (m *MockReservationRepository) SetCancelReason(ctx context.Context, tx ports.DBTX, id string, reason string) error {
	args := m.Called(ctx, tx, id, reason)
	return args.Error(0)
}

func (m *MockReservationRepository) SetAdminMemo(ctx context.Context, tx ports.DBTX, id string, memo string) error {
	args := m.Called(ctx, tx, id, memo)
	return args.Error(0)
}

// MockPaymentGateway mocks the payment gateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Charge(ctx context.Context, req *ports.ChargeRequest) (*ports.ChargeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.ChargeResult), args.Error(1)
}

func (m *MockPaymentGateway) IssueVirtualAccount(ctx context.Context, req *ports.VirtualAccountRequest) (*ports.VirtualAccountResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.VirtualAccountResult), args.Error(1)
}

func (m *MockPaymentGateway) Cancel(ctx context.Context, req *ports.CancelRequest) (*ports.CancelResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.CancelResult), args.Error(1)
}

// MockLifecycle mocks the reservation lifecycle port
type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) OnPaymentCompleted(ctx context.Context, tx pgx.Tx, reservationID string) error {
	args := m.Called(ctx, tx, reservationID)
	return args.Error(0)
}

func (m *MockLifecycle) OnPaymentRefunded(ctx context.Context, tx pgx.Tx, reservationID string, full bool) error {
	args := m.Called(ctx, tx, reservationID, full)
	return args.Error(0)
}

// nopLogger discards all log output
type nopLogger struct{}

func (nopLogger) Info(msg string, fields ...ports.Field)  {}
func (nopLogger) Error(msg string, fields ...ports.Field) {}
func (nopLogger) Warn(msg string, fields ...ports.Field)  {}
func (nopLogger) Debug(msg string, fields ...ports.Field) {}
