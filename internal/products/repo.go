package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/harvestly/harvestly-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repo provides product persistence.
type Repo struct {
	conn *gorm.DB
}

// NewRepo builds a product repository.
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

// FindByID resolves a product by id. A missing id returns (nil, nil).
func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.conn.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding product by id: %w", err)
	}
	return &product, nil
}

// ListActive returns active products, newest first.
func (r *Repo) ListActive(ctx context.Context, limit, offset int) ([]models.Product, error) {
	var out []models.Product
	err := r.conn.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return out, nil
}

// DecrementStock subtracts quantity from the product's stock, guarded in the
// same statement so two concurrent orders can never both take the last unit.
// It reports false when the remaining stock was insufficient.
func (r *Repo) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	if quantity < 1 {
		return false, fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}
	result := r.conn.WithContext(ctx).Exec(
		`UPDATE products
		 SET count_in_stock = count_in_stock - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND count_in_stock >= ?`,
		quantity, id, quantity,
	)
	if result.Error != nil {
		return false, fmt.Errorf("decrementing stock: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
