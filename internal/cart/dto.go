package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopfront-backend/internal/products"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// AddItemInput is the validated add-to-cart request.
type AddItemInput struct {
	ProductID     uuid.UUID
	Quantity      int
	SelectedColor *string
	SelectedSize  *string
}

type CartItemDTO struct {
	ID            uuid.UUID            `json:"id"`
	CartID        uuid.UUID            `json:"cartId"`
	ProductID     uuid.UUID            `json:"productId"`
	Quantity      int                  `json:"quantity"`
	SelectedColor *string              `json:"selectedColor,omitempty"`
	SelectedSize  *string              `json:"selectedSize,omitempty"`
	Product       *products.ProductDTO `json:"product,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

type CartDTO struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"userId"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Items          []CartItemDTO   `json:"items"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// CountDTO is the cart badge payload.
type CountDTO struct {
	Count int64 `json:"count"`
}

func newCartItemDTO(item *models.CartItem) *CartItemDTO {
	return &CartItemDTO{
		ID:            item.ID,
		CartID:        item.CartID,
		ProductID:     item.ProductID,
		Quantity:      item.Quantity,
		SelectedColor: item.SelectedColor,
		SelectedSize:  item.SelectedSize,
		Product:       products.NewProductDTO(item.Product),
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

func newCartDTO(cart *models.Cart) *CartDTO {
	dto := &CartDTO{
		ID:             cart.ID,
		UserID:         cart.UserID,
		Subtotal:       cart.Subtotal,
		DeliveryCharge: cart.DeliveryCharge,
		TotalAmount:    cart.TotalAmount,
		Items:          make([]CartItemDTO, 0, len(cart.Items)),
		CreatedAt:      cart.CreatedAt,
		UpdatedAt:      cart.UpdatedAt,
	}
	for i := range cart.Items {
		dto.Items = append(dto.Items, *newCartItemDTO(&cart.Items[i]))
	}
	return dto
}
