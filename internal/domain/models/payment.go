package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the collection state of a payment
type PaymentStatus string

const (
	PaymentPending         PaymentStatus = "pending"
	PaymentAwaitingDeposit PaymentStatus = "awaiting_deposit"
	PaymentCompleted       PaymentStatus = "completed"
	PaymentFailed          PaymentStatus = "failed"
	PaymentCancelled       PaymentStatus = "cancelled"
	PaymentRefunded        PaymentStatus = "refunded"
	PaymentPartialRefund   PaymentStatus = "partial_refund"
)

// SettlementStatus tracks whether the split shares have been transferred to
// the beneficiary accounts. It is an independent axis from PaymentStatus;
// this service records intent, the interbank transfer itself is external.
type SettlementStatus string

const (
	SettlementPending    SettlementStatus = "pending"
	SettlementProcessing SettlementStatus = "processing"
	SettlementCompleted  SettlementStatus = "completed"
	SettlementFailed     SettlementStatus = "failed"
)

// PaymentInstrument represents the payment method used
type PaymentInstrument string

const (
	InstrumentCard           PaymentInstrument = "card"
	InstrumentVirtualAccount PaymentInstrument = "virtual_account"
)

// CardDetail holds card metadata returned by the gateway on a completed charge
type CardDetail struct {
	Issuer       string
	MaskedNumber string
}

// VirtualAccountDetail holds the receiving account issued for a deferred payment
type VirtualAccountDetail struct {
	AccountNumber string
	BankCode      string
	HolderName    string
	DueAt         time.Time
}

// Payment represents one attempt to collect money for a reservation
type Payment struct {
	ID               string
	OrderID          string // external order id, idempotency key with the gateway
	ReservationID    string
	BranchID         string
	Amount           decimal.Decimal
	Instrument       PaymentInstrument
	BranchPercent    int32
	HQPercent        int32
	BranchAmount     decimal.Decimal
	HQAmount         decimal.Decimal
	RefundAmount     decimal.Decimal
	Status           PaymentStatus
	SettlementStatus SettlementStatus
	Card             *CardDetail
	VirtualAccount   *VirtualAccountDetail
	GatewayTxnID     string
	PaidAt           *time.Time
	CancelledAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsActive returns true while the payment blocks other payments for the same
// reservation. Only terminal failures free the slot; a completed or refunded
// payment still occupies it.
func (p *Payment) IsActive() bool {
	return p.Status != PaymentFailed && p.Status != PaymentCancelled
}

// CanBeRefunded returns true if a (further) refund may be requested
func (p *Payment) CanBeRefunded() bool {
	return p.Status == PaymentCompleted || p.Status == PaymentPartialRefund
}

// RefundableRemainder is the amount that can still be refunded
func (p *Payment) RefundableRemainder() decimal.Decimal {
	return p.Amount.Sub(p.RefundAmount)
}

// DepositOverdue returns true if a virtual-account payment passed its due date
func (p *Payment) DepositOverdue(now time.Time) bool {
	return p.Status == PaymentAwaitingDeposit &&
		p.VirtualAccount != nil &&
		now.After(p.VirtualAccount.DueAt)
}
