package cart

import (
	"github.com/google/uuid"

	cartsvc "github.com/angelmondragon/shopfront-backend/internal/cart"
)

type addItemRequest struct {
	ProductID     uuid.UUID `json:"productId" validate:"required"`
	Quantity      int       `json:"quantity"`
	SelectedColor *string   `json:"selectedColor,omitempty" validate:"omitempty,max=64"`
	SelectedSize  *string   `json:"selectedSize,omitempty" validate:"omitempty,max=64"`
}

func (r addItemRequest) toInput() cartsvc.AddItemInput {
	return cartsvc.AddItemInput{
		ProductID:     r.ProductID,
		Quantity:      r.Quantity,
		SelectedColor: r.SelectedColor,
		SelectedSize:  r.SelectedSize,
	}
}

type updateQuantityRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity"`
}

type removeItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
}
