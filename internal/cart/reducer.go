package cart

import (
	"github.com/google/uuid"
	"github.com/harvestly/harvestly-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Outcome signals the result of a cart operation. Stock-limit and
// supplier-conflict are expected user interactions, not errors, so they
// travel as return values instead of error types.
type Outcome string

const (
	OutcomeOK                Outcome = "ok"
	OutcomeStockLimitReached Outcome = "stock_limit_reached"
	OutcomeSupplierConflict  Outcome = "supplier_conflict"
)

// ProductRef is the catalog data captured when a product enters the cart.
type ProductRef struct {
	ProductID  uuid.UUID
	Name       string
	UnitPrice  decimal.Decimal
	StockLimit int
	SupplierID uuid.UUID
	Image      *string
}

var hundred = decimal.NewFromInt(100)

// AddItem puts one unit of the product into the cart. The operation is
// all-or-nothing: on a supplier conflict or an exhausted stock limit the
// input state is returned untouched together with the signalling outcome.
// Resolving a supplier conflict is the caller's job (clear, then retry) so
// the user confirms before their existing basket is discarded.
func AddItem(s State, product ProductRef) (State, Outcome) {
	if !s.IsEmpty() && *s.ActiveSupplierID != product.SupplierID {
		return s, OutcomeSupplierConflict
	}

	for i, line := range s.Lines {
		if line.ProductID != product.ProductID {
			continue
		}
		if line.Quantity >= line.StockLimit {
			return s, OutcomeStockLimitReached
		}
		next := s.clone()
		next.Lines[i].Quantity++
		return recompute(next), OutcomeOK
	}

	if product.StockLimit <= 0 {
		return s, OutcomeStockLimitReached
	}

	next := s.clone()
	next.Lines = append(next.Lines, Line{
		ProductID:  product.ProductID,
		Name:       product.Name,
		UnitPrice:  product.UnitPrice,
		Quantity:   1,
		StockLimit: product.StockLimit,
		SupplierID: product.SupplierID,
		Image:      product.Image,
	})
	if next.ActiveSupplierID == nil {
		supplier := product.SupplierID
		next.ActiveSupplierID = &supplier
	}
	return recompute(next), OutcomeOK
}

// RemoveItem drops the line for the product. Removing an absent product is a
// no-op. When the last line goes, the supplier binding and any applied
// coupon go with it.
func RemoveItem(s State, productID uuid.UUID) State {
	index := -1
	for i, line := range s.Lines {
		if line.ProductID == productID {
			index = i
			break
		}
	}
	if index < 0 {
		return s
	}

	next := s.clone()
	next.Lines = append(next.Lines[:index], next.Lines[index+1:]...)
	if len(next.Lines) == 0 {
		return Empty()
	}
	return recompute(next)
}

// SetQuantity clamps the requested quantity into [1, stockLimit] and
// recomputes totals and the applied discount against the new subtotal.
func SetQuantity(s State, productID uuid.UUID, quantity int) State {
	for i, line := range s.Lines {
		if line.ProductID != productID {
			continue
		}
		if quantity < 1 {
			quantity = 1
		}
		if quantity > line.StockLimit {
			quantity = line.StockLimit
		}
		next := s.clone()
		next.Lines[i].Quantity = quantity
		return recompute(next)
	}
	return s
}

// Clear resets the cart to the empty state.
func Clear(State) State {
	return Empty()
}

// ApplyCoupon attaches a previewed coupon and its computed discount.
func ApplyCoupon(s State, coupon AppliedCoupon, discount decimal.Decimal) State {
	next := s.clone()
	next.AppliedCoupon = &coupon
	next.DiscountAmount = discount
	return recompute(next)
}

// RemoveCoupon detaches the applied coupon.
func RemoveCoupon(s State) State {
	next := s.clone()
	next.AppliedCoupon = nil
	next.DiscountAmount = decimal.Zero
	return next
}

// recompute rederives item count, subtotal and discount from the line list.
// Percentage discounts track the subtotal; fixed discounts are re-clamped so
// they never exceed it.
func recompute(s State) State {
	count := 0
	total := decimal.Zero
	for _, line := range s.Lines {
		count += line.Quantity
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	s.TotalItemCount = count
	s.TotalPrice = total

	if s.AppliedCoupon == nil {
		s.DiscountAmount = decimal.Zero
		return s
	}

	switch s.AppliedCoupon.Kind {
	case enums.CouponKindPercentage:
		discount := total.Mul(s.AppliedCoupon.Value).Div(hundred)
		if s.AppliedCoupon.MaxDiscount != nil && discount.GreaterThan(*s.AppliedCoupon.MaxDiscount) {
			discount = *s.AppliedCoupon.MaxDiscount
		}
		s.DiscountAmount = discount
	default:
		discount := s.AppliedCoupon.Value
		if discount.GreaterThan(total) {
			discount = total
		}
		s.DiscountAmount = discount
	}
	return s
}
