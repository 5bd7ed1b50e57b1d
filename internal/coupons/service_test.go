package coupons

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harvestly/harvestly-backend/pkg/db/models"
	"github.com/harvestly/harvestly-backend/pkg/enums"
	pkgerrors "github.com/harvestly/harvestly-backend/pkg/errors"
	"github.com/harvestly/harvestly-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCouponsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  kind TEXT NOT NULL,
  value NUMERIC NOT NULL,
  minimum_purchase NUMERIC NOT NULL DEFAULT 0,
  max_discount NUMERIC,
  usage_limit INTEGER,
  used_count INTEGER NOT NULL DEFAULT 0,
  valid_from DATETIME NOT NULL,
  valid_until DATETIME NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  new_users_only INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

type stubOrderCounter struct {
	count int64
}

func (s stubOrderCounter) CountByUser(context.Context, uuid.UUID) (int64, error) {
	return s.count, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func seedCoupon(t *testing.T, db *gorm.DB, mutate func(*models.Coupon)) *models.Coupon {
	t.Helper()
	coupon := &models.Coupon{
		ID:              uuid.New(),
		Code:            "spring20",
		Kind:            enums.CouponKindPercentage,
		Value:           decimal.NewFromInt(20),
		MinimumPurchase: decimal.NewFromInt(50),
		ValidFrom:       time.Now().Add(-time.Hour),
		ValidUntil:      time.Now().Add(time.Hour),
		IsActive:        true,
	}
	if mutate != nil {
		mutate(coupon)
	}
	require.NoError(t, db.Create(coupon).Error)
	return coupon
}

func TestCheckCodeSuccess(t *testing.T) {
	db := setupCouponsTestDB(t)
	seedCoupon(t, db, nil)

	repo, err := NewRepo(db)
	require.NoError(t, err)
	svc, err := NewService(repo, stubOrderCounter{count: 2}, testLogger())
	require.NoError(t, err)

	result, err := svc.CheckCode(context.Background(), uuid.New(), "SPRING20", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, "spring20", result.Coupon.Code)
	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromInt(20)))
	assert.True(t, result.DiscountedTotal.Equal(decimal.NewFromInt(80)))
}

func TestCheckCodeUnknownCouponRejected(t *testing.T) {
	db := setupCouponsTestDB(t)

	repo, err := NewRepo(db)
	require.NoError(t, err)
	svc, err := NewService(repo, stubOrderCounter{}, testLogger())
	require.NoError(t, err)

	_, err = svc.CheckCode(context.Background(), uuid.New(), "nope", decimal.NewFromInt(100))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeCoupon, typed.Code())
	assert.Equal(t, map[string]string{"reason": string(ReasonNotFound)}, typed.Details())
}

func TestCheckCodeNewUsersOnlyUsesOrderCount(t *testing.T) {
	db := setupCouponsTestDB(t)
	seedCoupon(t, db, func(c *models.Coupon) {
		c.NewUsersOnly = true
	})

	repo, err := NewRepo(db)
	require.NoError(t, err)

	returning, err := NewService(repo, stubOrderCounter{count: 4}, testLogger())
	require.NoError(t, err)
	_, err = returning.CheckCode(context.Background(), uuid.New(), "spring20", decimal.NewFromInt(100))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, map[string]string{"reason": string(ReasonNotEligible)}, typed.Details())

	fresh, err := NewService(repo, stubOrderCounter{count: 0}, testLogger())
	require.NoError(t, err)
	_, err = fresh.CheckCode(context.Background(), uuid.New(), "spring20", decimal.NewFromInt(100))
	require.NoError(t, err)
}

func TestCreateStoresLoweredCode(t *testing.T) {
	db := setupCouponsTestDB(t)

	repo, err := NewRepo(db)
	require.NoError(t, err)
	svc, err := NewService(repo, stubOrderCounter{}, testLogger())
	require.NoError(t, err)

	coupon, err := svc.Create(context.Background(), CreateInput{
		Code:       "  WELCOME10 ",
		Kind:       enums.CouponKindFixed,
		Value:      decimal.NewFromInt(10),
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "welcome10", coupon.Code)
}

func TestCreateDuplicateCodeConflicts(t *testing.T) {
	db := setupCouponsTestDB(t)
	seedCoupon(t, db, nil)

	repo, err := NewRepo(db)
	require.NoError(t, err)
	svc, err := NewService(repo, stubOrderCounter{}, testLogger())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{
		Code:       "SPRING20",
		Kind:       enums.CouponKindPercentage,
		Value:      decimal.NewFromInt(5),
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRedeemWithinLimitStopsAtLimit(t *testing.T) {
	db := setupCouponsTestDB(t)
	limit := 2
	coupon := seedCoupon(t, db, func(c *models.Coupon) {
		c.UsageLimit = &limit
	})

	repo, err := NewRepo(db)
	require.NoError(t, err)

	for i := 0; i < limit; i++ {
		ok, err := repo.RedeemWithinLimit(context.Background(), coupon.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := repo.RedeemWithinLimit(context.Background(), coupon.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindByID(context.Background(), coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, limit, stored.UsedCount)
}

func TestRedeemWithinLimitUnlimitedCoupon(t *testing.T) {
	db := setupCouponsTestDB(t)
	coupon := seedCoupon(t, db, nil)

	repo, err := NewRepo(db)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		ok, err := repo.RedeemWithinLimit(context.Background(), coupon.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}
