package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one product line of a Cart. (cart_id, product_id) is unique.
type CartItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID        uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:cart_items_cart_product_key"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:cart_items_cart_product_key"`
	Quantity      int       `gorm:"column:quantity;not null"`
	SelectedColor *string   `gorm:"column:selected_color"`
	SelectedSize  *string   `gorm:"column:selected_size"`
	Product       *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
