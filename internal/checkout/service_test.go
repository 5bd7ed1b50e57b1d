package checkout

import (
	"context"
	"io"
	"testing"

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrders struct {
	lastInput orders.CreateInput
	created   *models.Order
	err       error
}

func (s *stubOrders) Create(_ context.Context, input orders.CreateInput) (*models.Order, error) {
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	if s.created != nil {
		return s.created, nil
	}
	return &models.Order{ID: uuid.New(), UserID: input.UserID}, nil
}

func (s *stubOrders) Get(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "not implemented")
}

func (s *stubOrders) List(context.Context, uuid.UUID, int, int) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrders) CountByUser(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func testCheckoutConfig() config.CheckoutConfig {
	return config.CheckoutConfig{
		ShippingFee:           "49.90",
		FreeShippingThreshold: "150",
		DeliveryLeadDays:      3,
	}
}

func newCheckoutService(t *testing.T, stub *stubOrders) Service {
	t.Helper()
	svc, err := NewService(
		stub,
		testCheckoutConfig(),
		metrics.NewCheckoutMetrics(nil),
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	)
	require.NoError(t, err)
	return svc
}

func cartWithItems(t *testing.T, price string, quantity int) *cart.Store {
	t.Helper()
	store, err := cart.NewStore(cart.NewMemorySnapshots(), "session-1")
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))

	product := cart.ProductRef{
		ProductID:  uuid.New(),
		Name:       "tomatoes",
		UnitPrice:  decimal.RequireFromString(price),
		StockLimit: quantity + 5,
		SupplierID: uuid.New(),
	}
	for i := 0; i < quantity; i++ {
		outcome, err := store.AddItem(context.Background(), product)
		require.NoError(t, err)
		require.Equal(t, cart.OutcomeOK, outcome)
	}
	return store
}

func customer() Identity {
	return Identity{UserID: uuid.New(), Role: enums.RoleCustomer}
}

func validSubmit() SubmitInput {
	return SubmitInput{
		ShippingAddress: types.ShippingAddress{
			FullName: "Ayse Demir",
			Address:  "Ataturk Cd. 12",
			City:     "Izmir",
			District: "Bornova",
			Phone:    "+90 555 000 0000",
		},
		PaymentMethod: "cash_on_delivery",
	}
}

func TestSubmitRejectsNonCustomerRoles(t *testing.T) {
	svc := newCheckoutService(t, &stubOrders{})
	store := cartWithItems(t, "10.00", 1)

	for _, role := range []enums.Role{enums.RoleFarmer, enums.RoleAdmin} {
		_, err := svc.Submit(context.Background(), Identity{UserID: uuid.New(), Role: role}, store, validSubmit())
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
	}
}

func TestSubmitRejectsAnonymousActor(t *testing.T) {
	svc := newCheckoutService(t, &stubOrders{})
	store := cartWithItems(t, "10.00", 1)

	_, err := svc.Submit(context.Background(), Identity{Role: enums.RoleCustomer}, store, validSubmit())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestSubmitRejectsEmptyCart(t *testing.T) {
	svc := newCheckoutService(t, &stubOrders{})
	store, err := cart.NewStore(cart.NewMemorySnapshots(), "session-1")
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))

	_, err = svc.Submit(context.Background(), customer(), store, validSubmit())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestSubmitEnumeratesMissingAddressFields(t *testing.T) {
	svc := newCheckoutService(t, &stubOrders{})
	store := cartWithItems(t, "10.00", 1)

	input := validSubmit()
	input.ShippingAddress.City = ""
	input.ShippingAddress.Phone = " "

	_, err := svc.Submit(context.Background(), customer(), store, input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string][]string{"missing_fields": {"city", "phone"}}, typed.Details())
}

func TestShippingFeePolicy(t *testing.T) {
	svc := newCheckoutService(t, &stubOrders{})

	assert.True(t, svc.ShippingFeeFor(decimal.RequireFromString("149.99")).Equal(decimal.RequireFromString("49.90")))
	assert.True(t, svc.ShippingFeeFor(decimal.NewFromInt(150)).IsZero())
	assert.True(t, svc.ShippingFeeFor(decimal.NewFromInt(500)).IsZero())
}

func TestSubmitPassesCartSnapshotToOrderService(t *testing.T) {
	stub := &stubOrders{}
	svc := newCheckoutService(t, stub)
	store := cartWithItems(t, "40.00", 2)

	identity := customer()
	_, err := svc.Submit(context.Background(), identity, store, validSubmit())
	require.NoError(t, err)

	assert.Equal(t, identity.UserID, stub.lastInput.UserID)
	require.Len(t, stub.lastInput.Lines, 1)
	assert.Equal(t, 2, stub.lastInput.Lines[0].Quantity)
	// Subtotal 80.00 is below the threshold, so the flat fee applies.
	assert.True(t, stub.lastInput.ShippingFee.Equal(decimal.RequireFromString("49.90")))
}

func TestSubmitClearsCartOnSuccess(t *testing.T) {
	svc := newCheckoutService(t, &stubOrders{})
	store := cartWithItems(t, "10.00", 2)

	_, err := svc.Submit(context.Background(), customer(), store, validSubmit())
	require.NoError(t, err)
	assert.True(t, store.State().IsEmpty())
}

func TestSubmitLeavesCartUntouchedOnFailure(t *testing.T) {
	stub := &stubOrders{err: pkgerrors.New(pkgerrors.CodeStock, `insufficient stock for "tomatoes"`)}
	svc := newCheckoutService(t, stub)
	store := cartWithItems(t, "10.00", 2)

	_, err := svc.Submit(context.Background(), customer(), store, validSubmit())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStock, typed.Code())

	state := store.State()
	require.Len(t, state.Lines, 1)
	assert.Equal(t, 2, state.TotalItemCount)
}

func TestSubmitForwardsAppliedCouponCode(t *testing.T) {
	stub := &stubOrders{}
	svc := newCheckoutService(t, stub)
	store := cartWithItems(t, "100.00", 1)
	require.NoError(t, store.ApplyCoupon(context.Background(), cart.AppliedCoupon{
		Code:  "save10",
		Kind:  enums.CouponKindFixed,
		Value: decimal.NewFromInt(10),
	}, decimal.NewFromInt(10)))

	_, err := svc.Submit(context.Background(), customer(), store, validSubmit())
	require.NoError(t, err)
	assert.Equal(t, "save10", stub.lastInput.CouponCode)
}
