package coupons

import (
	"fmt"
	"time"

	"github.com/harvestly/harvestly-backend/pkg/db/models"
	"github.com/harvestly/harvestly-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// RejectionReason identifies why a coupon cannot be applied. Checks run in a
// fixed order so the same coupon always reports the same reason.
type RejectionReason string

const (
	ReasonNotFound     RejectionReason = "not_found"
	ReasonInactive     RejectionReason = "inactive"
	ReasonNotYetActive RejectionReason = "not_yet_active"
	ReasonExpired      RejectionReason = "expired"
	ReasonLimitReached RejectionReason = "limit_reached"
	ReasonBelowMinimum RejectionReason = "below_minimum"
	ReasonNotEligible  RejectionReason = "not_eligible"
)

// Rejection carries the machine reason plus a message safe to show the user.
type Rejection struct {
	Reason  RejectionReason
	Message string
}

// Evaluation is the accepted result: the discount the coupon yields against
// the given subtotal and the total after applying it.
type Evaluation struct {
	DiscountAmount  decimal.Decimal
	DiscountedTotal decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Evaluate runs the full eligibility chain for a coupon against a subtotal.
// A nil coupon means the code did not resolve. Exactly one of the returns is
// non-nil.
func Evaluate(coupon *models.Coupon, subtotal decimal.Decimal, now time.Time, isNewUser bool) (*Evaluation, *Rejection) {
	if coupon == nil {
		return nil, &Rejection{
			Reason:  ReasonNotFound,
			Message: "coupon code not found",
		}
	}
	if !coupon.IsActive {
		return nil, &Rejection{
			Reason:  ReasonInactive,
			Message: "this coupon is no longer active",
		}
	}
	if now.Before(coupon.ValidFrom) {
		return nil, &Rejection{
			Reason:  ReasonNotYetActive,
			Message: "this coupon is not active yet",
		}
	}
	if now.After(coupon.ValidUntil) {
		return nil, &Rejection{
			Reason:  ReasonExpired,
			Message: "this coupon has expired",
		}
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return nil, &Rejection{
			Reason:  ReasonLimitReached,
			Message: "this coupon has reached its usage limit",
		}
	}
	if subtotal.LessThan(coupon.MinimumPurchase) {
		return nil, &Rejection{
			Reason: ReasonBelowMinimum,
			Message: fmt.Sprintf("a minimum purchase of %s is required for this coupon",
				coupon.MinimumPurchase.StringFixed(2)),
		}
	}
	if coupon.NewUsersOnly && !isNewUser {
		return nil, &Rejection{
			Reason:  ReasonNotEligible,
			Message: "this coupon is valid for new customers only",
		}
	}

	discount := Discount(coupon, subtotal)
	return &Evaluation{
		DiscountAmount:  discount,
		DiscountedTotal: subtotal.Sub(discount),
	}, nil
}

// Discount computes the raw discount a coupon yields on a subtotal.
// Percentage coupons are capped at MaxDiscount when set; fixed coupons never
// exceed the subtotal.
func Discount(coupon *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	switch coupon.Kind {
	case enums.CouponKindPercentage:
		discount := subtotal.Mul(coupon.Value).Div(hundred)
		if coupon.MaxDiscount.Valid && discount.GreaterThan(coupon.MaxDiscount.Decimal) {
			return coupon.MaxDiscount.Decimal
		}
		return discount
	default:
		if coupon.Value.GreaterThan(subtotal) {
			return subtotal
		}
		return coupon.Value
	}
}
