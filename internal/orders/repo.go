package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/harvestly/harvestly-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repo provides order persistence.
type Repo struct {
	conn *gorm.DB
}

// NewRepo builds an order repository.
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

// Create inserts the order together with its line items.
func (r *Repo) Create(ctx context.Context, order *models.Order) error {
	if err := r.conn.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("creating order: %w", err)
	}
	return nil
}

// FindByIDForUser resolves an order scoped to its owner, line items included.
// A missing or foreign order returns (nil, nil).
func (r *Repo) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.conn.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding order: %w", err)
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first, line items included.
func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var out []models.Order
	err := r.conn.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return out, nil
}

// CountByUser returns how many orders the user has placed.
func (r *Repo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return count, nil
}
