package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a vendor listing. Price and shipping fee are read live by the
// cart; orders snapshot the price onto their items. Rating is the mean of
// the product's reviews, kept current by the review writes.
type Product struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID       uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index"`
	Name          string              `gorm:"column:name;not null"`
	Slug          string              `gorm:"column:slug;not null"`
	Thumbnail     *string             `gorm:"column:thumbnail"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	ShippingFee   decimal.NullDecimal `gorm:"column:shipping_fee;type:numeric(12,2)"`
	StockQuantity int                 `gorm:"column:stock_quantity;not null;default:0"`
	IsNew         bool                `gorm:"column:is_new;not null;default:true"`
	Rating        decimal.Decimal     `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
