package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// Order is immutable after placement except for Status.
type Order struct {
	ID                    uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	TotalAmount           decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	SelectedAddressID     uuid.UUID         `gorm:"column:selected_address_id;type:uuid;not null"`
	SelectedPaymentMethod string            `gorm:"column:selected_payment_method;not null"`
	OrderComment          *string           `gorm:"column:order_comment"`
	Status                enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	ExpectedDeliveryDate  time.Time         `gorm:"column:expected_delivery_date;not null"`
	Items                 []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Stores                []Store           `gorm:"many2many:order_stores;joinForeignKey:OrderID;joinReferences:StoreID"`
	SelectedAddress       *Address          `gorm:"foreignKey:SelectedAddressID"`
	User                  *User             `gorm:"foreignKey:UserID"`
	CreatedAt             time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderStore links an order to every store it spans.
type OrderStore struct {
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;primaryKey"`
	StoreID uuid.UUID `gorm:"column:store_id;type:uuid;primaryKey"`
}

func (OrderStore) TableName() string { return "order_stores" }
