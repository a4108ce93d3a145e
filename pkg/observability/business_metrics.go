package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservationTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_transitions_total",
		Help: "Total number of reservation status transitions",
	}, []string{
		"branch_id",
		"to_status", // approved, confirmed, in_use, completed, cancelled
	})

	paymentAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Total number of payment attempts",
	}, []string{
		"branch_id",
		"instrument", // card, virtual_account
		"status",     // completed, awaiting_deposit, failed, cancelled
	})

	paymentAmountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_amount_total",
		Help: "Total collected payment amount in won",
	}, []string{
		"branch_id",
		"instrument",
	})

	refundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refunds_total",
		Help: "Total number of refunds processed",
	}, []string{
		"branch_id",
		"kind", // full, partial
	})

	settlementAdvancesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_advances_total",
		Help: "Total number of settlement status advances",
	}, []string{
		"to_status", // processing, completed, failed
	})

	virtualAccountExpiriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "virtual_account_expiries_total",
		Help: "Total number of virtual-account payments expired by the sweep",
	})
)

// RecordReservationTransition records a reservation status change
func RecordReservationTransition(branchID, toStatus string) {
	reservationTransitionsTotal.WithLabelValues(branchID, toStatus).Inc()
}

// RecordPaymentAttempt records the outcome of a payment attempt
func RecordPaymentAttempt(branchID, instrument, status string, amountWon int64) {
	paymentAttemptsTotal.WithLabelValues(branchID, instrument, status).Inc()
	if status == "completed" {
		paymentAmountTotal.WithLabelValues(branchID, instrument).Add(float64(amountWon))
	}
}

// RecordRefund records a processed refund
func RecordRefund(branchID string, full bool) {
	kind := "partial"
	if full {
		kind = "full"
	}
	refundsTotal.WithLabelValues(branchID, kind).Inc()
}

// RecordSettlementAdvance records a settlement status advance
func RecordSettlementAdvance(toStatus string) {
	settlementAdvancesTotal.WithLabelValues(toStatus).Inc()
}

// RecordVirtualAccountExpiry records one expired virtual-account payment
func RecordVirtualAccountExpiry() {
	virtualAccountExpiriesTotal.Inc()
}
