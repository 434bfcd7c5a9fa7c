package coupons

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// CouponInput carries the writable coupon fields for create and update.
// Update replaces every field, including the eligible product set.
type CouponInput struct {
	Code           string
	Description    *string
	DiscountAmount int
	DiscountType   enums.DiscountType
	StartDate      time.Time
	EndDate        time.Time
	Status         enums.CouponStatus
	StoreID        *uuid.UUID
	ProductIDs     []uuid.UUID
}

type CouponProductDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Thumbnail *string   `json:"thumbnail,omitempty"`
}

type CouponDTO struct {
	ID             uuid.UUID          `json:"id"`
	Code           string             `json:"code"`
	Description    *string            `json:"description,omitempty"`
	DiscountAmount int                `json:"discountAmount"`
	DiscountType   enums.DiscountType `json:"discountType"`
	StartDate      time.Time          `json:"startDate"`
	EndDate        time.Time          `json:"endDate"`
	Status         enums.CouponStatus `json:"status"`
	StoreID        *uuid.UUID         `json:"storeId,omitempty"`
	Products       []CouponProductDTO `json:"products"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

func NewCouponDTO(c *models.Coupon) *CouponDTO {
	dto := &CouponDTO{
		ID:             c.ID,
		Code:           c.Code,
		Description:    c.Description,
		DiscountAmount: c.DiscountAmount,
		DiscountType:   c.DiscountType,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		Status:         c.Status,
		StoreID:        c.StoreID,
		Products:       make([]CouponProductDTO, 0, len(c.Products)),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	for _, p := range c.Products {
		dto.Products = append(dto.Products, CouponProductDTO{ID: p.ID, Name: p.Name, Thumbnail: p.Thumbnail})
	}
	return dto
}

func newCouponDTOs(rows []models.Coupon) []CouponDTO {
	out := make([]CouponDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewCouponDTO(&rows[i]))
	}
	return out
}
