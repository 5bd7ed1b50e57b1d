package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harvestly/harvestly-backend/internal/cart"
	"github.com/harvestly/harvestly-backend/internal/orders"
	"github.com/harvestly/harvestly-backend/pkg/config"
	"github.com/harvestly/harvestly-backend/pkg/db/models"
	"github.com/harvestly/harvestly-backend/pkg/enums"
	pkgerrors "github.com/harvestly/harvestly-backend/pkg/errors"
	"github.com/harvestly/harvestly-backend/pkg/logger"
	"github.com/harvestly/harvestly-backend/pkg/metrics"
	"github.com/harvestly/harvestly-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Identity is the authenticated actor submitting the checkout.
type Identity struct {
	UserID uuid.UUID
	Role   enums.Role
}

// SubmitInput is the checkout form: destination, payment label and the
// optional coupon riding on the cart.
type SubmitInput struct {
	ShippingAddress types.ShippingAddress
	PaymentMethod   string
}

// Service turns a cart into an order.
type Service interface {
	Submit(ctx context.Context, identity Identity, store *cart.Store, input SubmitInput) (*models.Order, error)
	ShippingFeeFor(subtotal decimal.Decimal) decimal.Decimal
}

type service struct {
	orders  orders.Service
	cfg     config.CheckoutConfig
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
}

// NewService builds the checkout service.
func NewService(ordersService orders.Service, cfg config.CheckoutConfig, m *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if ordersService == nil {
		return nil, fmt.Errorf("order service is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{orders: ordersService, cfg: cfg, metrics: m, logg: logg}, nil
}

// ShippingFeeFor applies the flat-fee policy: the configured fee below the
// free-shipping threshold, zero at or above it.
func (s *service) ShippingFeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(s.cfg.FreeShippingAt()) {
		return decimal.Zero
	}
	return s.cfg.ShippingFeeAmount()
}

// Submit validates the actor and the cart, freezes the cart into an order
// submission and hands it to the order service. The cart is cleared only
// after the order committed; on any failure it is left untouched so the user
// can correct and resubmit.
func (s *service) Submit(ctx context.Context, identity Identity, store *cart.Store, input SubmitInput) (*models.Order, error) {
	order, err := s.submit(ctx, identity, store, input)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncCheckoutFailure(string(typed.Code()))
		} else {
			s.metrics.IncCheckoutFailure(string(pkgerrors.CodeInternal))
		}
		return nil, err
	}

	s.metrics.IncOrdersCreated()
	if order.CouponID != nil {
		s.metrics.IncCouponRedemption()
	}
	return order, nil
}

func (s *service) submit(ctx context.Context, identity Identity, store *cart.Store, input SubmitInput) (*models.Order, error) {
	if identity.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if identity.Role != enums.RoleCustomer {
		return nil, pkgerrors.Newf(pkgerrors.CodeForbidden, "role %s cannot place orders", identity.Role)
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart store is required")
	}

	state := store.State()
	if state.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if missing := input.ShippingAddress.MissingFields(); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").
			WithDetails(map[string][]string{"missing_fields": missing})
	}
	if input.PaymentMethod == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}

	lines := make([]orders.LineInput, 0, len(state.Lines))
	for _, line := range state.Lines {
		lines = append(lines, orders.LineInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	couponCode := ""
	if state.AppliedCoupon != nil {
		couponCode = state.AppliedCoupon.Code
	}

	order, err := s.orders.Create(ctx, orders.CreateInput{
		UserID:          identity.UserID,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		CouponCode:      couponCode,
		ShippingFee:     s.ShippingFeeFor(state.TotalPrice),
		Lines:           lines,
	})
	if err != nil {
		return nil, err
	}

	// The order is durable at this point. A failed cart clear must not fail
	// the checkout; the stale snapshot expires with its TTL.
	clearCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if clearErr := store.Clear(clearCtx); clearErr != nil {
		s.logg.Error(ctx, "clearing cart after checkout", clearErr)
	}

	logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, identity.UserID.String()), order.ID.String())
	s.logg.Info(logCtx, "checkout completed")
	return order, nil
}
