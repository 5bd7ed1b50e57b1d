package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/harvestly/harvestly-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Coupon is an administrator-issued discount code. Codes are stored
// lowercased; lookups lowercase their input so matching stays
// case-insensitive regardless of collation.
type Coupon struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code            string              `gorm:"column:code;not null;uniqueIndex:idx_coupons_code"`
	Kind            enums.CouponKind    `gorm:"column:kind;not null"`
	Value           decimal.Decimal     `gorm:"column:value;type:numeric(12,2);not null"`
	MinimumPurchase decimal.Decimal     `gorm:"column:minimum_purchase;type:numeric(12,2);not null;default:0"`
	MaxDiscount     decimal.NullDecimal `gorm:"column:max_discount;type:numeric(12,2)"`
	UsageLimit      *int                `gorm:"column:usage_limit"`
	UsedCount       int                 `gorm:"column:used_count;not null;default:0"`
	ValidFrom       time.Time           `gorm:"column:valid_from;not null"`
	ValidUntil      time.Time           `gorm:"column:valid_until;not null"`
	IsActive        bool                `gorm:"column:is_active;not null;default:true"`
	NewUsersOnly    bool                `gorm:"column:new_users_only;not null;default:false"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
