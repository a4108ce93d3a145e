package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivehub/booking-service/internal/domain"
)

func TestSplit(t *testing.T) {
	ratio := domain.SplitRatio{BranchPercent: 90, HQPercent: 10}

	tests := []struct {
		name       string
		gross      int64
		wantBranch int64
		wantHQ     int64
	}{
		{"even amount", 100000, 90000, 10000},
		{"rounds hq half up", 99999, 89999, 10000},
		{"small amount", 5, 4, 1},
		{"single unit", 1, 1, 0},
		{"zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			branch, hq := domain.Split(decimal.NewFromInt(tt.gross), ratio)

			assert.True(t, branch.Equal(decimal.NewFromInt(tt.wantBranch)),
				"branch share: got %s", branch)
			assert.True(t, hq.Equal(decimal.NewFromInt(tt.wantHQ)),
				"hq share: got %s", hq)
		})
	}
}

func TestSplit_SumAlwaysEqualsGross(t *testing.T) {
	ratios := []domain.SplitRatio{
		{BranchPercent: 90, HQPercent: 10},
		{BranchPercent: 85, HQPercent: 15},
		{BranchPercent: 67, HQPercent: 33},
		{BranchPercent: 0, HQPercent: 100},
		{BranchPercent: 100, HQPercent: 0},
	}
	amounts := []int64{1, 3, 7, 99, 12345, 99999, 100001, 7777777}

	for _, ratio := range ratios {
		for _, amount := range amounts {
			gross := decimal.NewFromInt(amount)
			branch, hq := domain.Split(gross, ratio)
			assert.True(t, branch.Add(hq).Equal(gross),
				"split of %d at %d/%d lost money: %s + %s", amount,
				ratio.BranchPercent, ratio.HQPercent, branch, hq)
			assert.False(t, branch.IsNegative())
			assert.False(t, hq.IsNegative())
		}
	}
}

func TestSplitRatio_Validate(t *testing.T) {
	require.NoError(t, domain.SplitRatio{BranchPercent: 90, HQPercent: 10}.Validate())
	require.NoError(t, domain.SplitRatio{BranchPercent: 0, HQPercent: 100}.Validate())

	assert.Error(t, domain.SplitRatio{BranchPercent: 90, HQPercent: 20}.Validate())
	assert.Error(t, domain.SplitRatio{BranchPercent: -10, HQPercent: 110}.Validate())
}
