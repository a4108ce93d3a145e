package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus represents the fulfillment state of a reservation
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationApproved  ReservationStatus = "approved"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationInUse     ReservationStatus = "in_use"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// ReservationPaymentStatus is the denormalized payment summary on a reservation
type ReservationPaymentStatus string

const (
	PaymentStatusUnpaid   ReservationPaymentStatus = "unpaid"
	PaymentStatusPartial  ReservationPaymentStatus = "partial"
	PaymentStatusPaid     ReservationPaymentStatus = "paid"
	PaymentStatusRefunded ReservationPaymentStatus = "refunded"
)

// Customer is the free-text customer contact on a reservation, not a user account
type Customer struct {
	Name  string
	Phone string
	Email string
}

// Reservation represents a customer's request to rent a vehicle for a date range
type Reservation struct {
	ID            string
	ReservationNo string
	BranchID      string
	VehicleID     string
	Customer      Customer
	StartsAt      time.Time
	EndsAt        time.Time
	BasePrice     decimal.Decimal
	TotalPrice    decimal.Decimal
	Status        ReservationStatus
	PaymentStatus ReservationPaymentStatus
	CancelReason  *string
	AdminMemo     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsTerminal returns true when no further status transition is allowed
func (r *Reservation) IsTerminal() bool {
	return r.Status == ReservationCompleted || r.Status == ReservationCancelled
}

// CanApprove returns true if the reservation can move to approved
func (r *Reservation) CanApprove() bool {
	return r.Status == ReservationPending
}

// CanCancel returns true if the reservation can be cancelled by an operator
func (r *Reservation) CanCancel() bool {
	switch r.Status {
	case ReservationPending, ReservationApproved, ReservationConfirmed:
		return true
	}
	return false
}

// CanAcceptPayment returns true if a payment may be requested against the reservation
func (r *Reservation) CanAcceptPayment() bool {
	return r.Status == ReservationPending || r.Status == ReservationApproved
}

// CanConfirm returns true if payment completion may confirm the reservation.
// Both approved and pending are accepted entry points: flows that skip the
// explicit approval step confirm straight from pending.
func (r *Reservation) CanConfirm() bool {
	return r.Status == ReservationApproved || r.Status == ReservationPending
}

// CanMarkInUse returns true if the vehicle can be handed over
func (r *Reservation) CanMarkInUse() bool {
	return r.Status == ReservationConfirmed
}

// CanComplete returns true if the rental can be closed out
func (r *Reservation) CanComplete() bool {
	return r.Status == ReservationInUse
}
