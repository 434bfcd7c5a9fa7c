package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

// ProductDTO is the public product payload.
type ProductDTO struct {
	ID            uuid.UUID        `json:"id"`
	StoreID       uuid.UUID        `json:"storeId"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Thumbnail     *string          `json:"thumbnail,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	ShippingFee   *decimal.Decimal `json:"shippingFee,omitempty"`
	StockQuantity int              `json:"stockQuantity"`
	IsNew         bool             `json:"isNew"`
	Rating        decimal.Decimal  `json:"rating"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:            p.ID,
		StoreID:       p.StoreID,
		Name:          p.Name,
		Slug:          p.Slug,
		Thumbnail:     p.Thumbnail,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		IsNew:         p.IsNew,
		Rating:        p.Rating,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.ShippingFee.Valid {
		fee := p.ShippingFee.Decimal
		dto.ShippingFee = &fee
	}
	return dto
}

// NewProductPageDTO maps a page of models onto DTOs, keeping the cursor.
func NewProductPageDTO(page pagination.Page[models.Product]) pagination.Page[ProductDTO] {
	return pagination.Map(page, func(p *models.Product) ProductDTO { return *NewProductDTO(p) })
}

// CreateProductInput carries a new listing as the client sent it. The store
// id is parsed and amounts are rounded to cents by the service.
type CreateProductInput struct {
	StoreID       string
	Name          string
	Thumbnail     *string
	Price         string
	ShippingFee   *string
	StockQuantity int
}

// UpdateProductInput holds the mutable listing fields. Nil fields are left
// untouched; an empty ShippingFee clears the fee so the flat default applies.
type UpdateProductInput struct {
	Name          *string
	Thumbnail     *string
	Price         *string
	ShippingFee   *string
	StockQuantity *int
}

// SearchFilter narrows a catalog search. Zero values do not filter.
type SearchFilter struct {
	Query    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	IsNew    *bool
}

type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	UserID    uuid.UUID `json:"userId"`
	Author    string    `json:"author,omitempty"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewReviewDTO(r *models.Review) ReviewDTO {
	dto := ReviewDTO{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
	if r.User != nil {
		dto.Author = r.User.FirstName
	}
	return dto
}

// CreateReviewInput is a 1-5 rating with an optional comment.
type CreateReviewInput struct {
	Rating  int
	Comment *string
}
