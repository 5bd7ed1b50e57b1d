package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/harvestly/harvestly-backend/pkg/enums"
	"github.com/harvestly/harvestly-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Order is the persisted result of a checkout submission. Line items are
// frozen snapshots; later price or name changes on the live product must not
// alter historical orders.
type Order struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	ShippingAddress     types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;not null"`
	PaymentMethod       string                `gorm:"column:payment_method;not null"`
	Subtotal            decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingFee         decimal.Decimal       `gorm:"column:shipping_fee;type:numeric(12,2);not null"`
	DiscountAmount      decimal.Decimal       `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	GrandTotal          decimal.Decimal       `gorm:"column:grand_total;type:numeric(12,2);not null"`
	CouponID            *uuid.UUID            `gorm:"column:coupon_id;type:uuid"`
	Status              enums.OrderStatus     `gorm:"column:status;not null;default:'pending'"`
	EstimatedDeliveryAt time.Time             `gorm:"column:estimated_delivery_at;not null"`
	Items               []OrderLineItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
