package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harvestly/harvestly-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repo provides coupon persistence.
type Repo struct {
	conn *gorm.DB
}

// NewRepo builds a coupon repository.
func NewRepo(conn *gorm.DB) (*Repo, error) {
	if conn == nil {
		return nil, fmt.Errorf("db connection is required")
	}
	return &Repo{conn: conn}, nil
}

// WithTx returns a copy of the repo bound to the given transaction.
func (r *Repo) WithTx(tx *gorm.DB) *Repo {
	return &Repo{conn: tx}
}

// FindByCode resolves a coupon by its code, case-insensitively. A missing
// code returns (nil, nil).
func (r *Repo) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.conn.WithContext(ctx).
		Where("code = ?", strings.ToLower(strings.TrimSpace(code))).
		First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code: %w", err)
	}
	return &coupon, nil
}

// FindByID resolves a coupon by id. A missing id returns (nil, nil).
func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.conn.WithContext(ctx).Where("id = ?", id).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding coupon by id: %w", err)
	}
	return &coupon, nil
}

// Create inserts a new coupon.
func (r *Repo) Create(ctx context.Context, coupon *models.Coupon) error {
	if err := r.conn.WithContext(ctx).Create(coupon).Error; err != nil {
		return fmt.Errorf("creating coupon: %w", err)
	}
	return nil
}

// RedeemWithinLimit increments the coupon's usage counter, guarded by the
// usage limit in the same statement. It reports false when the limit was
// already reached, which a concurrent redemption may have caused after the
// coupon was read.
func (r *Repo) RedeemWithinLimit(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.conn.WithContext(ctx).Exec(
		`UPDATE coupons
		 SET used_count = used_count + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND (usage_limit IS NULL OR used_count < usage_limit)`,
		id,
	)
	if result.Error != nil {
		return false, fmt.Errorf("redeeming coupon: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
