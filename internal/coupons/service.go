package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harvestly/harvestly-backend/pkg/db"
	"github.com/harvestly/harvestly-backend/pkg/db/models"
	"github.com/harvestly/harvestly-backend/pkg/enums"
	pkgerrors "github.com/harvestly/harvestly-backend/pkg/errors"
	"github.com/harvestly/harvestly-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// OrderCounter reports how many orders a user has placed. A user with zero
// orders counts as new for eligibility checks.
type OrderCounter interface {
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// CheckResult is the preview returned when a coupon passes every check.
type CheckResult struct {
	Coupon          *models.Coupon
	DiscountAmount  decimal.Decimal
	DiscountedTotal decimal.Decimal
}

// CreateInput is the admin payload for issuing a coupon.
type CreateInput struct {
	Code            string
	Kind            enums.CouponKind
	Value           decimal.Decimal
	MinimumPurchase decimal.Decimal
	MaxDiscount     *decimal.Decimal
	UsageLimit      *int
	ValidFrom       time.Time
	ValidUntil      time.Time
	NewUsersOnly    bool
}

// Service exposes coupon preview and administration.
type Service interface {
	CheckCode(ctx context.Context, userID uuid.UUID, code string, subtotal decimal.Decimal) (*CheckResult, error)
	Create(ctx context.Context, input CreateInput) (*models.Coupon, error)
}

type service struct {
	repo   *Repo
	orders OrderCounter
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the coupon service.
func NewService(repo *Repo, orders OrderCounter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repo is required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order counter is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, orders: orders, logg: logg, now: time.Now}, nil
}

// CheckCode previews a coupon against the given subtotal. Rejections surface
// as COUPON_ERROR with the rejection reason in the details, never as plain
// not-found, so the client can render the precise message.
func (s *service) CheckCode(ctx context.Context, userID uuid.UUID, code string, subtotal decimal.Decimal) (*CheckResult, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up coupon")
	}

	count, err := s.orders.CountByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting user orders")
	}

	evaluation, rejection := Evaluate(coupon, subtotal, s.now(), count == 0)
	if rejection != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"coupon_code": strings.ToLower(strings.TrimSpace(code)),
			"reason":      string(rejection.Reason),
		})
		s.logg.Info(logCtx, "coupon check rejected")
		return nil, pkgerrors.New(pkgerrors.CodeCoupon, rejection.Message).
			WithDetails(map[string]string{"reason": string(rejection.Reason)})
	}

	return &CheckResult{
		Coupon:          coupon,
		DiscountAmount:  evaluation.DiscountAmount,
		DiscountedTotal: evaluation.DiscountedTotal,
	}, nil
}

// Create issues a new coupon. The code is stored lowercased and a duplicate
// maps to a conflict instead of an internal error.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Coupon, error) {
	code := strings.ToLower(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown coupon kind %q", input.Kind)
	}
	if input.Value.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon value must be positive")
	}
	if !input.ValidUntil.After(input.ValidFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be after valid_from")
	}

	coupon := &models.Coupon{
		Code:            code,
		Kind:            input.Kind,
		Value:           input.Value,
		MinimumPurchase: input.MinimumPurchase,
		UsageLimit:      input.UsageLimit,
		ValidFrom:       input.ValidFrom,
		ValidUntil:      input.ValidUntil,
		IsActive:        true,
		NewUsersOnly:    input.NewUsersOnly,
	}
	if input.MaxDiscount != nil {
		coupon.MaxDiscount = decimal.NewNullDecimal(*input.MaxDiscount)
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "coupon code %q already exists", code)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating coupon")
	}

	s.logg.Info(s.logg.WithField(ctx, "coupon_code", code), "coupon created")
	return coupon, nil
}
