package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// Coupon is a discount code, optionally scoped to a store and to a set of
// eligible products.
type Coupon struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string             `gorm:"column:code;not null;uniqueIndex:coupons_code_key"`
	Description    *string            `gorm:"column:description"`
	DiscountAmount int                `gorm:"column:discount_amount;not null"`
	DiscountType   enums.DiscountType `gorm:"column:discount_type;not null"`
	StartDate      time.Time          `gorm:"column:start_date;not null"`
	EndDate        time.Time          `gorm:"column:end_date;not null;index"`
	Status         enums.CouponStatus `gorm:"column:status;not null;default:'active'"`
	StoreID        *uuid.UUID         `gorm:"column:store_id;type:uuid;index"`
	Products       []Product          `gorm:"many2many:coupon_products;joinForeignKey:CouponID;joinReferences:ProductID"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// CouponProduct marks a product as eligible for a coupon.
type CouponProduct struct {
	CouponID  uuid.UUID `gorm:"column:coupon_id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
}

func (CouponProduct) TableName() string { return "coupon_products" }
