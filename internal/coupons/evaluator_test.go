package coupons

import (
	"testing"
	"time"

	"github.com/harvestly/harvestly-backend/pkg/db/models"
	"github.com/harvestly/harvestly-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCoupon() *models.Coupon {
	return &models.Coupon{
		Code:            "spring20",
		Kind:            enums.CouponKindPercentage,
		Value:           decimal.NewFromInt(20),
		MinimumPurchase: decimal.NewFromInt(50),
		ValidFrom:       time.Now().Add(-time.Hour),
		ValidUntil:      time.Now().Add(time.Hour),
		IsActive:        true,
	}
}

func TestEvaluateRejectionOrder(t *testing.T) {
	now := time.Now()
	limit := 3

	cases := []struct {
		name      string
		coupon    func() *models.Coupon
		subtotal  decimal.Decimal
		isNewUser bool
		want      RejectionReason
	}{
		{
			name:     "nil coupon",
			coupon:   func() *models.Coupon { return nil },
			subtotal: decimal.NewFromInt(100),
			want:     ReasonNotFound,
		},
		{
			name: "inactive wins over expired",
			coupon: func() *models.Coupon {
				c := validCoupon()
				c.IsActive = false
				c.ValidUntil = now.Add(-time.Hour)
				return c
			},
			subtotal: decimal.NewFromInt(100),
			want:     ReasonInactive,
		},
		{
			name: "not yet active",
			coupon: func() *models.Coupon {
				c := validCoupon()
				c.ValidFrom = now.Add(time.Hour)
				c.ValidUntil = now.Add(2 * time.Hour)
				return c
			},
			subtotal: decimal.NewFromInt(100),
			want:     ReasonNotYetActive,
		},
		{
			name: "expired",
			coupon: func() *models.Coupon {
				c := validCoupon()
				c.ValidFrom = now.Add(-2 * time.Hour)
				c.ValidUntil = now.Add(-time.Hour)
				return c
			},
			subtotal: decimal.NewFromInt(100),
			want:     ReasonExpired,
		},
		{
			name: "limit reached wins over below minimum",
			coupon: func() *models.Coupon {
				c := validCoupon()
				c.UsageLimit = &limit
				c.UsedCount = 3
				return c
			},
			subtotal: decimal.NewFromInt(10),
			want:     ReasonLimitReached,
		},
		{
			name: "below minimum",
			coupon: func() *models.Coupon {
				return validCoupon()
			},
			subtotal: decimal.NewFromInt(49),
			want:     ReasonBelowMinimum,
		},
		{
			name: "new users only",
			coupon: func() *models.Coupon {
				c := validCoupon()
				c.NewUsersOnly = true
				return c
			},
			subtotal:  decimal.NewFromInt(100),
			isNewUser: false,
			want:      ReasonNotEligible,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			evaluation, rejection := Evaluate(tc.coupon(), tc.subtotal, now, tc.isNewUser)
			require.Nil(t, evaluation)
			require.NotNil(t, rejection)
			assert.Equal(t, tc.want, rejection.Reason)
			assert.NotEmpty(t, rejection.Message)
		})
	}
}

func TestEvaluatePercentageCappedAtMaxDiscount(t *testing.T) {
	coupon := validCoupon()
	coupon.MaxDiscount = decimal.NewNullDecimal(decimal.NewFromInt(15))

	evaluation, rejection := Evaluate(coupon, decimal.NewFromInt(100), time.Now(), false)
	require.Nil(t, rejection)
	// 20% of 100 is 20, capped at 15.
	assert.True(t, evaluation.DiscountAmount.Equal(decimal.NewFromInt(15)))
	assert.True(t, evaluation.DiscountedTotal.Equal(decimal.NewFromInt(85)))
}

func TestEvaluatePercentageWithoutCap(t *testing.T) {
	coupon := validCoupon()

	evaluation, rejection := Evaluate(coupon, decimal.NewFromInt(200), time.Now(), false)
	require.Nil(t, rejection)
	assert.True(t, evaluation.DiscountAmount.Equal(decimal.NewFromInt(40)))
}

func TestEvaluateFixedNeverExceedsSubtotal(t *testing.T) {
	coupon := validCoupon()
	coupon.Kind = enums.CouponKindFixed
	coupon.Value = decimal.NewFromInt(75)
	coupon.MinimumPurchase = decimal.NewFromInt(50)

	evaluation, rejection := Evaluate(coupon, decimal.NewFromInt(60), time.Now(), false)
	require.Nil(t, rejection)
	assert.True(t, evaluation.DiscountAmount.Equal(decimal.NewFromInt(60)))
	assert.True(t, evaluation.DiscountedTotal.IsZero())
}

func TestEvaluateBoundaryTimesAreInclusive(t *testing.T) {
	now := time.Now()
	coupon := validCoupon()
	coupon.ValidFrom = now
	coupon.ValidUntil = now

	evaluation, rejection := Evaluate(coupon, decimal.NewFromInt(100), now, false)
	require.Nil(t, rejection)
	require.NotNil(t, evaluation)
}

func TestEvaluateNewUserPassesEligibility(t *testing.T) {
	coupon := validCoupon()
	coupon.NewUsersOnly = true

	evaluation, rejection := Evaluate(coupon, decimal.NewFromInt(100), time.Now(), true)
	require.Nil(t, rejection)
	require.NotNil(t, evaluation)
}

func TestEvaluateAtExactMinimumPurchase(t *testing.T) {
	coupon := validCoupon()

	evaluation, rejection := Evaluate(coupon, decimal.NewFromInt(50), time.Now(), false)
	require.Nil(t, rejection)
	assert.True(t, evaluation.DiscountAmount.Equal(decimal.NewFromInt(10)))
}
