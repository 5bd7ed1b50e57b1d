package controllers

import (
	"net/http"
	"time"

	"github.com/harvestly/harvestly-backend/api/responses"
	"github.com/harvestly/harvestly-backend/api/validators"
	"github.com/harvestly/harvestly-backend/internal/coupons"
	"github.com/harvestly/harvestly-backend/pkg/enums"
	pkgerrors "github.com/harvestly/harvestly-backend/pkg/errors"
	"github.com/harvestly/harvestly-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type CouponCheckBody struct {
	Code      string `json:"code" validate:"required,min=1,max=64"`
	CartTotal string `json:"cart_total" validate:"required"`
}

type CouponCreateBody struct {
	Code            string  `json:"code" validate:"required,min=1,max=64"`
	Kind            string  `json:"kind" validate:"required,oneof=percentage fixed"`
	Value           string  `json:"value" validate:"required"`
	MinimumPurchase string  `json:"minimum_purchase"`
	MaxDiscount     *string `json:"max_discount"`
	UsageLimit      *int    `json:"usage_limit" validate:"omitempty,gte=1"`
	ValidFrom       string  `json:"valid_from" validate:"required"`
	ValidUntil      string  `json:"valid_until" validate:"required"`
	NewUsersOnly    bool    `json:"new_users_only"`
}

func CouponCheck(couponsService coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body CouponCheckBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cartTotal, err := decimal.NewFromString(body.CartTotal)
		if err != nil || cartTotal.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart_total must be a non-negative amount"))
			return
		}

		result, err := couponsService.CheckCode(r.Context(), actor.UserID, body.Code, cartTotal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"coupon": map[string]any{
				"code":  result.Coupon.Code,
				"kind":  result.Coupon.Kind,
				"value": result.Coupon.Value,
			},
			"discount_amount":  result.DiscountAmount.StringFixed(2),
			"discounted_total": result.DiscountedTotal.StringFixed(2),
		})
	}
}

func AdminCouponCreate(couponsService coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body CouponCreateBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := couponCreateInput(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := couponsService.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

func couponCreateInput(body CouponCreateBody) (coupons.CreateInput, error) {
	kind, err := enums.ParseCouponKind(body.Kind)
	if err != nil {
		return coupons.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon kind")
	}
	value, err := decimal.NewFromString(body.Value)
	if err != nil {
		return coupons.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "value must be a decimal amount")
	}

	minimum := decimal.Zero
	if body.MinimumPurchase != "" {
		minimum, err = decimal.NewFromString(body.MinimumPurchase)
		if err != nil || minimum.IsNegative() {
			return coupons.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "minimum_purchase must be a non-negative amount")
		}
	}

	var maxDiscount *decimal.Decimal
	if body.MaxDiscount != nil {
		parsed, err := decimal.NewFromString(*body.MaxDiscount)
		if err != nil || parsed.LessThanOrEqual(decimal.Zero) {
			return coupons.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "max_discount must be a positive amount")
		}
		maxDiscount = &parsed
	}

	validFrom, err := time.Parse(time.RFC3339, body.ValidFrom)
	if err != nil {
		return coupons.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "valid_from must be RFC3339")
	}
	validUntil, err := time.Parse(time.RFC3339, body.ValidUntil)
	if err != nil {
		return coupons.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be RFC3339")
	}

	return coupons.CreateInput{
		Code:            body.Code,
		Kind:            kind,
		Value:           value,
		MinimumPurchase: minimum,
		MaxDiscount:     maxDiscount,
		UsageLimit:      body.UsageLimit,
		ValidFrom:       validFrom,
		ValidUntil:      validUntil,
		NewUsersOnly:    body.NewUsersOnly,
	}, nil
}
