package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// OrderPlacedEvent is emitted once an order and its items are committed.
type OrderPlacedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	UserID      uuid.UUID       `json:"user_id"`
	StoreIDs    []uuid.UUID     `json:"store_ids"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
}

type OrderDeletedEvent struct {
	OrderID uuid.UUID `json:"order_id"`
}

// CartClearedEvent reports a cart emptied by the owner or by order placement.
type CartClearedEvent struct {
	CartID       uuid.UUID   `json:"cart_id"`
	UserID       uuid.UUID   `json:"user_id"`
	ProductIDs   []uuid.UUID `json:"product_ids,omitempty"`
	TriggerOrder *uuid.UUID  `json:"trigger_order_id,omitempty"`
}

type StoreCreatedEvent struct {
	StoreID uuid.UUID `json:"store_id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Slug    string    `json:"slug"`
}
