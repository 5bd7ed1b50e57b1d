package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/harvestly/harvestly-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(t *testing.T, price string, stock int, supplier uuid.UUID) ProductRef {
	t.Helper()
	return ProductRef{
		ProductID:  uuid.New(),
		Name:       "tomatoes",
		UnitPrice:  decimal.RequireFromString(price),
		StockLimit: stock,
		SupplierID: supplier,
	}
}

func TestAddItemNewLine(t *testing.T) {
	supplier := uuid.New()
	product := newProduct(t, "12.50", 5, supplier)

	state, outcome := AddItem(Empty(), product)
	require.Equal(t, OutcomeOK, outcome)
	require.Len(t, state.Lines, 1)
	assert.Equal(t, 1, state.Lines[0].Quantity)
	assert.Equal(t, 1, state.TotalItemCount)
	assert.True(t, state.TotalPrice.Equal(decimal.RequireFromString("12.50")))
	require.NotNil(t, state.ActiveSupplierID)
	assert.Equal(t, supplier, *state.ActiveSupplierID)
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	supplier := uuid.New()
	product := newProduct(t, "3.00", 10, supplier)

	state, _ := AddItem(Empty(), product)
	state, outcome := AddItem(state, product)
	require.Equal(t, OutcomeOK, outcome)
	require.Len(t, state.Lines, 1)
	assert.Equal(t, 2, state.Lines[0].Quantity)
	assert.True(t, state.TotalPrice.Equal(decimal.RequireFromString("6.00")))
}

func TestAddItemStopsAtStockLimit(t *testing.T) {
	supplier := uuid.New()
	product := newProduct(t, "2.00", 2, supplier)

	state, _ := AddItem(Empty(), product)
	state, _ = AddItem(state, product)
	next, outcome := AddItem(state, product)

	require.Equal(t, OutcomeStockLimitReached, outcome)
	assert.Equal(t, 2, next.Lines[0].Quantity)
	assert.True(t, next.TotalPrice.Equal(state.TotalPrice))
}

func TestAddItemRejectsOutOfStockProduct(t *testing.T) {
	product := newProduct(t, "2.00", 0, uuid.New())

	state, outcome := AddItem(Empty(), product)
	require.Equal(t, OutcomeStockLimitReached, outcome)
	assert.True(t, state.IsEmpty())
}

func TestAddItemSupplierConflictLeavesCartUntouched(t *testing.T) {
	first := newProduct(t, "4.00", 5, uuid.New())
	second := newProduct(t, "7.00", 5, uuid.New())

	state, _ := AddItem(Empty(), first)
	next, outcome := AddItem(state, second)

	require.Equal(t, OutcomeSupplierConflict, outcome)
	require.Len(t, next.Lines, 1)
	assert.Equal(t, first.ProductID, next.Lines[0].ProductID)
	assert.Equal(t, 1, next.TotalItemCount)
}

func TestSupplierConflictResolvedByClearThenAdd(t *testing.T) {
	first := newProduct(t, "4.00", 5, uuid.New())
	second := newProduct(t, "7.00", 5, uuid.New())

	state, _ := AddItem(Empty(), first)
	state = Clear(state)
	state, outcome := AddItem(state, second)

	require.Equal(t, OutcomeOK, outcome)
	require.Len(t, state.Lines, 1)
	assert.Equal(t, second.ProductID, state.Lines[0].ProductID)
	require.NotNil(t, state.ActiveSupplierID)
	assert.Equal(t, second.SupplierID, *state.ActiveSupplierID)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	product := newProduct(t, "4.00", 5, uuid.New())
	state, _ := AddItem(Empty(), product)

	state = RemoveItem(state, product.ProductID)
	assert.True(t, state.IsEmpty())
	assert.Nil(t, state.ActiveSupplierID)

	again := RemoveItem(state, product.ProductID)
	assert.True(t, again.IsEmpty())
}

func TestRemoveLastItemDropsSupplierAndCoupon(t *testing.T) {
	product := newProduct(t, "100.00", 5, uuid.New())
	state, _ := AddItem(Empty(), product)
	state = ApplyCoupon(state, AppliedCoupon{
		Code:  "welcome10",
		Kind:  enums.CouponKindPercentage,
		Value: decimal.NewFromInt(10),
	}, decimal.NewFromInt(10))

	state = RemoveItem(state, product.ProductID)
	assert.True(t, state.IsEmpty())
	assert.Nil(t, state.ActiveSupplierID)
	assert.Nil(t, state.AppliedCoupon)
	assert.True(t, state.DiscountAmount.IsZero())
}

func TestSetQuantityClampsIntoRange(t *testing.T) {
	product := newProduct(t, "5.00", 4, uuid.New())
	state, _ := AddItem(Empty(), product)

	state = SetQuantity(state, product.ProductID, 99)
	assert.Equal(t, 4, state.Lines[0].Quantity)

	state = SetQuantity(state, product.ProductID, -3)
	assert.Equal(t, 1, state.Lines[0].Quantity)

	state = SetQuantity(state, product.ProductID, 3)
	assert.Equal(t, 3, state.Lines[0].Quantity)
	assert.True(t, state.TotalPrice.Equal(decimal.RequireFromString("15.00")))
}

func TestSetQuantityUnknownProductIsNoop(t *testing.T) {
	product := newProduct(t, "5.00", 4, uuid.New())
	state, _ := AddItem(Empty(), product)

	next := SetQuantity(state, uuid.New(), 3)
	assert.Equal(t, state.TotalItemCount, next.TotalItemCount)
}

func TestPercentageDiscountTracksSubtotalAndCap(t *testing.T) {
	product := newProduct(t, "100.00", 10, uuid.New())
	state, _ := AddItem(Empty(), product)

	maxDiscount := decimal.NewFromInt(25)
	state = ApplyCoupon(state, AppliedCoupon{
		Code:        "spring20",
		Kind:        enums.CouponKindPercentage,
		Value:       decimal.NewFromInt(20),
		MaxDiscount: &maxDiscount,
	}, decimal.NewFromInt(20))
	assert.True(t, state.DiscountAmount.Equal(decimal.NewFromInt(20)))

	// 2 x 100.00 would yield 40, capped at 25.
	state = SetQuantity(state, product.ProductID, 2)
	assert.True(t, state.DiscountAmount.Equal(decimal.NewFromInt(25)))
}

func TestFixedDiscountNeverExceedsSubtotal(t *testing.T) {
	product := newProduct(t, "8.00", 10, uuid.New())
	state, _ := AddItem(Empty(), product)

	state = ApplyCoupon(state, AppliedCoupon{
		Code:  "save15",
		Kind:  enums.CouponKindFixed,
		Value: decimal.NewFromInt(15),
	}, decimal.NewFromInt(8))
	assert.True(t, state.DiscountAmount.Equal(decimal.NewFromInt(8)))

	state = SetQuantity(state, product.ProductID, 3)
	assert.True(t, state.DiscountAmount.Equal(decimal.NewFromInt(15)))
}

func TestRemoveCouponClearsDiscount(t *testing.T) {
	product := newProduct(t, "50.00", 5, uuid.New())
	state, _ := AddItem(Empty(), product)
	state = ApplyCoupon(state, AppliedCoupon{
		Code:  "save5",
		Kind:  enums.CouponKindFixed,
		Value: decimal.NewFromInt(5),
	}, decimal.NewFromInt(5))

	state = RemoveCoupon(state)
	assert.Nil(t, state.AppliedCoupon)
	assert.True(t, state.DiscountAmount.IsZero())
	assert.True(t, state.TotalPrice.Equal(decimal.NewFromInt(50)))
}

func TestReducerDoesNotAliasInputState(t *testing.T) {
	product := newProduct(t, "5.00", 5, uuid.New())
	state, _ := AddItem(Empty(), product)

	next, _ := AddItem(state, product)
	next.Lines[0].Quantity = 99

	assert.Equal(t, 1, state.Lines[0].Quantity)
}
