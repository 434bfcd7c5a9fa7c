package wishlist

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/internal/products"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// WishlistItemDTO is a saved product as returned to the owner.
type WishlistItemDTO struct {
	ID        uuid.UUID            `json:"id"`
	ProductID uuid.UUID            `json:"productId"`
	Product   *products.ProductDTO `json:"product,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
}

// WishlistDTO lists the caller's saved products.
type WishlistDTO struct {
	Items []WishlistItemDTO `json:"items"`
}

func newItemDTO(item *models.WishlistItem) WishlistItemDTO {
	return WishlistItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Product:   products.NewProductDTO(item.Product),
		CreatedAt: item.CreatedAt,
	}
}
