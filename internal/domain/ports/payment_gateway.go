package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/drivehub/booking-service/internal/domain/models"
)

// ChargeRequest represents a synchronous card charge
type ChargeRequest struct {
	OrderID  string // unique per attempt, idempotency key with the processor
	Amount   decimal.Decimal
	Customer models.Customer
}

// ChargeResult is the normalized outcome of a card charge. Provider-specific
// response shapes never leave the gateway adapter.
type ChargeResult struct {
	GatewayTxnID string
	Card         models.CardDetail
	ApprovedAt   time.Time
}

// VirtualAccountRequest asks the processor to issue a receiving account
type VirtualAccountRequest struct {
	OrderID  string
	Amount   decimal.Decimal
	BankCode string
	DueHours int32
	Customer models.Customer
}

// VirtualAccountResult is the issued account the customer must transfer into
type VirtualAccountResult struct {
	AccountNumber string
	BankCode      string
	HolderName    string
	DueAt         time.Time
}

// CancelRequest reverses a previously completed charge, fully or partially
type CancelRequest struct {
	GatewayTxnID string
	Amount       decimal.Decimal
	Reason       string
}

// CancelResult is the normalized outcome of a gateway cancellation
type CancelResult struct {
	GatewayTxnID string
	CancelledAt  time.Time
}

// PaymentGateway is the adapter boundary to the external payment processor.
// Implementations return *domain.DomainError with GATEWAY_* codes; a
// transport timeout maps to GATEWAY_TIMEOUT and a declared decline to
// GATEWAY_DECLINED so callers can tell transient from final failures.
type PaymentGateway interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)

	IssueVirtualAccount(ctx context.Context, req *VirtualAccountRequest) (*VirtualAccountResult, error)

	Cancel(ctx context.Context, req *CancelRequest) (*CancelResult, error)
}
