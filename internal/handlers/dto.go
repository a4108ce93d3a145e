package handlers

import (
	"time"

	"github.com/drivehub/booking-service/internal/domain/models"
)

// reservationDTO is the wire shape of a reservation
type reservationDTO struct {
	ID            string     `json:"id"`
	ReservationNo string     `json:"reservation_no"`
	BranchID      string     `json:"branch_id"`
	VehicleID     string     `json:"vehicle_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	CustomerEmail string     `json:"customer_email,omitempty"`
	StartsAt      time.Time  `json:"starts_at"`
	EndsAt        time.Time  `json:"ends_at"`
	BasePrice     string     `json:"base_price"`
	TotalPrice    string     `json:"total_price"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	CancelReason  *string    `json:"cancel_reason,omitempty"`
	AdminMemo     *string    `json:"admin_memo,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toReservationDTO(r *models.Reservation) *reservationDTO {
	return &reservationDTO{
		ID:            r.ID,
		ReservationNo: r.ReservationNo,
		BranchID:      r.BranchID,
		VehicleID:     r.VehicleID,
		CustomerName:  r.Customer.Name,
		CustomerPhone: r.Customer.Phone,
		CustomerEmail: r.Customer.Email,
		StartsAt:      r.StartsAt,
		EndsAt:        r.EndsAt,
		BasePrice:     r.BasePrice.String(),
		TotalPrice:    r.TotalPrice.String(),
		Status:        string(r.Status),
		PaymentStatus: string(r.PaymentStatus),
		CancelReason:  r.CancelReason,
		AdminMemo:     r.AdminMemo,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type cardDTO struct {
	Issuer       string `json:"issuer"`
	MaskedNumber string `json:"masked_number"`
}

type virtualAccountDTO struct {
	AccountNumber string    `json:"account_number"`
	BankCode      string    `json:"bank_code"`
	HolderName    string    `json:"holder_name"`
	DueAt         time.Time `json:"due_at"`
}

// paymentDTO is the wire shape of a payment
type paymentDTO struct {
	ID               string             `json:"id"`
	OrderID          string             `json:"order_id"`
	ReservationID    string             `json:"reservation_id"`
	BranchID         string             `json:"branch_id"`
	Amount           string             `json:"amount"`
	Instrument       string             `json:"instrument"`
	BranchPercent    int32              `json:"branch_percent"`
	HQPercent        int32              `json:"hq_percent"`
	BranchAmount     string             `json:"branch_amount"`
	HQAmount         string             `json:"hq_amount"`
	RefundAmount     string             `json:"refund_amount"`
	Status           string             `json:"status"`
	SettlementStatus string             `json:"settlement_status"`
	Card             *cardDTO           `json:"card,omitempty"`
	VirtualAccount   *virtualAccountDTO `json:"virtual_account,omitempty"`
	PaidAt           *time.Time         `json:"paid_at,omitempty"`
	CancelledAt      *time.Time         `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func toPaymentDTO(p *models.Payment) *paymentDTO {
	dto := &paymentDTO{
		ID:               p.ID,
		OrderID:          p.OrderID,
		ReservationID:    p.ReservationID,
		BranchID:         p.BranchID,
		Amount:           p.Amount.String(),
		Instrument:       string(p.Instrument),
		BranchPercent:    p.BranchPercent,
		HQPercent:        p.HQPercent,
		BranchAmount:     p.BranchAmount.String(),
		HQAmount:         p.HQAmount.String(),
		RefundAmount:     p.RefundAmount.String(),
		Status:           string(p.Status),
		SettlementStatus: string(p.SettlementStatus),
		PaidAt:           p.PaidAt,
		CancelledAt:      p.CancelledAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.Card != nil {
		dto.Card = &cardDTO{Issuer: p.Card.Issuer, MaskedNumber: p.Card.MaskedNumber}
	}
	if p.VirtualAccount != nil {
		dto.VirtualAccount = &virtualAccountDTO{
			AccountNumber: p.VirtualAccount.AccountNumber,
			BankCode:      p.VirtualAccount.BankCode,
			HolderName:    p.VirtualAccount.HolderName,
			DueAt:         p.VirtualAccount.DueAt,
		}
	}
	return dto
}

func toPaymentDTOs(payments []*models.Payment) []*paymentDTO {
	dtos := make([]*paymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos
}
