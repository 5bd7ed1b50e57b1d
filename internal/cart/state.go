package cart

import (
	"github.com/google/uuid"
	"github.com/harvestly/harvestly-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Line is one product entry in the cart. UnitPrice and StockLimit are
// captured when the product is added and are not re-fetched afterwards.
type Line struct {
	ProductID  uuid.UUID       `json:"product_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	StockLimit int             `json:"stock_limit"`
	SupplierID uuid.UUID       `json:"supplier_id"`
	Image      *string         `json:"image,omitempty"`
}

// AppliedCoupon is the cart's view of a coupon accepted during preview. The
// authoritative re-validation happens server-side at order time.
type AppliedCoupon struct {
	Code        string           `json:"code"`
	Kind        enums.CouponKind `json:"kind"`
	Value       decimal.Decimal  `json:"value"`
	MaxDiscount *decimal.Decimal `json:"max_discount,omitempty"`
}

// State is the full cart. TotalItemCount, TotalPrice and DiscountAmount are
// derived from the line list and recomputed on every mutation.
type State struct {
	Lines            []Line          `json:"lines"`
	TotalItemCount   int             `json:"total_item_count"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	ActiveSupplierID *uuid.UUID      `json:"active_supplier_id,omitempty"`
	AppliedCoupon    *AppliedCoupon  `json:"applied_coupon,omitempty"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
}

// Empty returns the zero cart.
func Empty() State {
	return State{
		Lines:          []Line{},
		TotalPrice:     decimal.Zero,
		DiscountAmount: decimal.Zero,
	}
}

// IsEmpty reports whether the cart has no lines.
func (s State) IsEmpty() bool {
	return len(s.Lines) == 0
}

// clone deep-copies the state so reducer operations never alias the input.
func (s State) clone() State {
	next := s
	next.Lines = make([]Line, len(s.Lines))
	copy(next.Lines, s.Lines)
	if s.ActiveSupplierID != nil {
		id := *s.ActiveSupplierID
		next.ActiveSupplierID = &id
	}
	if s.AppliedCoupon != nil {
		coupon := *s.AppliedCoupon
		if s.AppliedCoupon.MaxDiscount != nil {
			limit := *s.AppliedCoupon.MaxDiscount
			coupon.MaxDiscount = &limit
		}
		next.AppliedCoupon = &coupon
	}
	return next
}
