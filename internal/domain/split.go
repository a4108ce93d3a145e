package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SplitRatio is the branch/headquarters revenue split applied to a payment.
// The ratio is captured onto the payment at creation time so historical
// settlements stay reproducible if the configured ratio changes later.
type SplitRatio struct {
	BranchPercent int32
	HQPercent     int32
}

// Validate checks that the ratio is well formed
func (r SplitRatio) Validate() error {
	if r.BranchPercent < 0 || r.HQPercent < 0 {
		return fmt.Errorf("split ratio percentages must be non-negative")
	}
	if r.BranchPercent+r.HQPercent != 100 {
		return fmt.Errorf("split ratio must sum to 100, got %d+%d", r.BranchPercent, r.HQPercent)
	}
	return nil
}

var oneHundred = decimal.NewFromInt(100)

// Split divides a gross amount into a branch share and a headquarters share.
// The HQ share is rounded half-up to whole currency units; the branch share
// is the exact remainder, so branch+hq == gross holds for every input. The
// rounding remainder is always absorbed by the branch share.
func Split(gross decimal.Decimal, ratio SplitRatio) (branch, hq decimal.Decimal) {
	hq = gross.Mul(decimal.NewFromInt(int64(ratio.HQPercent))).Div(oneHundred).Round(0)
	branch = gross.Sub(hq)
	return branch, hq
}
