package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/money"
)

func kes(units int64) money.Money {
	return money.New(units, money.CurrencyKES)
}

func TestAllocateWaterfall(t *testing.T) {
	alloc := New(10)

	tests := []struct {
		name          string
		out           Outstanding
		amount        money.Money
		wantPenalty   money.Money
		wantInterest  money.Money
		wantPrincipal money.Money
		wantSettled   bool
	}{
		{
			name:          "covers penalty then interest then principal",
			out:           Outstanding{Principal: kes(1500000), Interest: kes(500000), Penalty: kes(100000)},
			amount:        kes(800000),
			wantPenalty:   kes(100000),
			wantInterest:  kes(500000),
			wantPrincipal: kes(200000),
		},
		{
			name:          "partial payment stops at penalty",
			out:           Outstanding{Principal: kes(1500000), Interest: kes(500000), Penalty: kes(100000)},
			amount:        kes(60000),
			wantPenalty:   kes(60000),
			wantInterest:  kes(0),
			wantPrincipal: kes(0),
		},
		{
			name:          "partial payment reaches interest",
			out:           Outstanding{Principal: kes(1500000), Interest: kes(500000), Penalty: kes(100000)},
			amount:        kes(300000),
			wantPenalty:   kes(100000),
			wantInterest:  kes(200000),
			wantPrincipal: kes(0),
		},
		{
			name:          "no penalty outstanding goes straight to interest",
			out:           Outstanding{Principal: kes(1500000), Interest: kes(500000)},
			amount:        kes(700000),
			wantPenalty:   kes(0),
			wantInterest:  kes(500000),
			wantPrincipal: kes(200000),
		},
		{
			name:          "exact payoff settles the loan",
			out:           Outstanding{Principal: kes(1500000), Interest: kes(500000)},
			amount:        kes(2000000),
			wantPenalty:   kes(0),
			wantInterest:  kes(500000),
			wantPrincipal: kes(1500000),
			wantSettled:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := alloc.Allocate(tc.out, tc.amount)
			require.NoError(t, err)

			assert.Equal(t, tc.wantPenalty.Units, res.PenaltyPaid.Units, "penalty")
			assert.Equal(t, tc.wantInterest.Units, res.InterestPaid.Units, "interest")
			assert.Equal(t, tc.wantPrincipal.Units, res.PrincipalPaid.Units, "principal")
			assert.Equal(t, tc.wantSettled, res.Settled)

			// The split always accounts for the full payment.
			paid := res.PenaltyPaid.Add(res.InterestPaid).Add(res.PrincipalPaid)
			assert.Equal(t, tc.amount.Units, paid.Units)
		})
	}
}

func TestAllocateOverpayment(t *testing.T) {
	alloc := New(10)
	out := Outstanding{Principal: kes(1500000), Interest: kes(500000)}

	// 21,000.00 against 20,000.00 outstanding is within the 10% tolerance;
	// the excess lands on principal and the loan settles.
	res, err := alloc.Allocate(out, kes(2100000))
	require.NoError(t, err)
	assert.Equal(t, kes(1600000).Units, res.PrincipalPaid.Units)
	assert.True(t, res.Settled)
	assert.True(t, res.Remaining.Principal.IsZero(), "remaining principal clamps at zero")

	// 22,000.00 is exactly at the tolerance boundary and still accepted.
	_, err = alloc.Allocate(out, kes(2200000))
	require.NoError(t, err)

	// One cent beyond the boundary is rejected.
	_, err = alloc.Allocate(out, kes(2200001))
	require.ErrorIs(t, err, domain.ErrOverpaymentRejected)
}

func TestAllocateZeroTolerance(t *testing.T) {
	alloc := New(0)
	out := Outstanding{Principal: kes(1000000)}

	_, err := alloc.Allocate(out, kes(1000000))
	require.NoError(t, err)

	_, err = alloc.Allocate(out, kes(1000001))
	require.ErrorIs(t, err, domain.ErrOverpaymentRejected)
}

func TestAllocateInvalidAmount(t *testing.T) {
	alloc := New(10)
	out := Outstanding{Principal: kes(1000000)}

	_, err := alloc.Allocate(out, kes(0))
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = alloc.Allocate(out, kes(-100))
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestNegativeToleranceClampsToZero(t *testing.T) {
	alloc := New(-5)
	out := Outstanding{Principal: kes(1000000)}

	_, err := alloc.Allocate(out, kes(1000001))
	require.ErrorIs(t, err, domain.ErrOverpaymentRejected)
}
