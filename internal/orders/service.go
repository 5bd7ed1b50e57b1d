package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harvestly/harvestly-backend/internal/coupons"
	"github.com/harvestly/harvestly-backend/internal/products"
	"github.com/harvestly/harvestly-backend/pkg/config"
	"github.com/harvestly/harvestly-backend/pkg/db/models"
	"github.com/harvestly/harvestly-backend/pkg/enums"
	pkgerrors "github.com/harvestly/harvestly-backend/pkg/errors"
	"github.com/harvestly/harvestly-backend/pkg/logger"
	"github.com/harvestly/harvestly-backend/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LineInput is one requested order line. Price and name are resolved from
// the live product record, never taken from the client.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateInput is the full order submission.
type CreateInput struct {
	UserID          uuid.UUID
	ShippingAddress types.ShippingAddress
	PaymentMethod   string
	CouponCode      string
	ShippingFee     decimal.Decimal
	Lines           []LineInput
}

// Service exposes order creation and retrieval.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	runner   txRunner
	orders   *Repo
	products *products.Repo
	coupons  *coupons.Repo
	cfg      config.CheckoutConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the order service.
func NewService(
	runner txRunner,
	ordersRepo *Repo,
	productsRepo *products.Repo,
	couponsRepo *coupons.Repo,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
) (Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("order repo is required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("product repo is required")
	}
	if couponsRepo == nil {
		return nil, fmt.Errorf("coupon repo is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		runner:   runner,
		orders:   ordersRepo,
		products: productsRepo,
		coupons:  couponsRepo,
		cfg:      cfg,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Create places an order. Stock decrements, the coupon redemption and the
// order insert all run inside one transaction, so a failure on any line — or
// on the coupon — leaves nothing behind: no partial order, no lost stock.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.orders.WithTx(tx)
		txProducts := s.products.WithTx(tx)
		txCoupons := s.coupons.WithTx(tx)

		priorOrders, err := txOrders.CountByUser(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting prior orders")
		}

		subtotal := decimal.Zero
		items := make([]models.OrderLineItem, 0, len(input.Lines))
		for _, line := range input.Lines {
			product, err := txProducts.FindByID(ctx, line.ProductID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
			}
			if product == nil || !product.IsActive {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s is no longer available", line.ProductID).
					WithDetails(map[string]string{"product_id": line.ProductID.String()})
			}

			ok, err := txProducts.DecrementStock(ctx, product.ID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrementing stock")
			}
			if !ok {
				return pkgerrors.Newf(pkgerrors.CodeStock, "insufficient stock for %q", product.Name).
					WithDetails(map[string]any{
						"product_id": product.ID.String(),
						"requested":  line.Quantity,
					})
			}

			subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			items = append(items, models.OrderLineItem{
				ProductID: product.ID,
				FarmerID:  product.FarmerID,
				Name:      product.Name,
				UnitPrice: product.Price,
				Quantity:  line.Quantity,
				Image:     product.Image,
			})
		}

		discount := decimal.Zero
		var couponID *uuid.UUID
		if input.CouponCode != "" {
			coupon, err := txCoupons.FindByCode(ctx, input.CouponCode)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
			}
			evaluation, rejection := coupons.Evaluate(coupon, subtotal, s.now(), priorOrders == 0)
			if rejection != nil {
				return pkgerrors.New(pkgerrors.CodeCoupon, rejection.Message).
					WithDetails(map[string]string{"reason": string(rejection.Reason)})
			}
			redeemed, err := txCoupons.RedeemWithinLimit(ctx, coupon.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redeeming coupon")
			}
			if !redeemed {
				return pkgerrors.New(pkgerrors.CodeCoupon, "this coupon has reached its usage limit").
					WithDetails(map[string]string{"reason": string(coupons.ReasonLimitReached)})
			}
			discount = evaluation.DiscountAmount
			couponID = &coupon.ID
		}

		now := s.now()
		order = &models.Order{
			UserID:              input.UserID,
			ShippingAddress:     input.ShippingAddress,
			PaymentMethod:       input.PaymentMethod,
			Subtotal:            subtotal,
			ShippingFee:         input.ShippingFee,
			DiscountAmount:      discount,
			GrandTotal:          subtotal.Add(input.ShippingFee).Sub(discount),
			CouponID:            couponID,
			Status:              enums.OrderStatusPending,
			EstimatedDeliveryAt: now.AddDate(0, 0, s.cfg.DeliveryLeadDays),
			Items:               items,
		}
		return txOrders.Create(ctx, order)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(logCtx, "order created")
	return order, nil
}

// Get returns a user's order by id.
func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order == nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "order %s not found", orderID)
	}
	return order, nil
}

// List returns the user's order history, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	out, err := s.orders.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return out, nil
}

// CountByUser reports how many orders the user has placed.
func (s *service) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.orders.CountByUser(ctx, userID)
}

func validateInput(input CreateInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "line product id is required")
		}
		if line.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be at least 1")
		}
	}
	if missing := input.ShippingAddress.MissingFields(); len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").
			WithDetails(map[string][]string{"missing_fields": missing})
	}
	if input.PaymentMethod == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	if input.ShippingFee.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping fee cannot be negative")
	}
	return nil
}
