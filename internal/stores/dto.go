package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

// StoreDTO exposes safe store data in API responses.
type StoreDTO struct {
	ID               uuid.UUID         `json:"id"`
	OwnerID          uuid.UUID         `json:"ownerId"`
	Name             string            `json:"name"`
	Slug             string            `json:"slug"`
	Description      *string           `json:"description,omitempty"`
	Logo             *string           `json:"logo,omitempty"`
	BannerImage      *string           `json:"bannerImage,omitempty"`
	ContactEmail     *string           `json:"contactEmail,omitempty"`
	ContactPhone     *string           `json:"contactPhone,omitempty"`
	Address          *string           `json:"address,omitempty"`
	ThemeColor       *string           `json:"themeColor,omitempty"`
	Status           enums.StoreStatus `json:"status"`
	ReturnPolicies   []string          `json:"returnPolicies"`
	ShippingPolicies []string          `json:"shippingPolicies"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// CreateStoreInput holds creation-time data for a new store.
type CreateStoreInput struct {
	Name             string
	Description      *string
	Logo             *string
	BannerImage      *string
	ContactEmail     *string
	ContactPhone     *string
	Address          *string
	ThemeColor       *string
	ReturnPolicies   []string
	ShippingPolicies []string
}

// UpdateStoreInput captures the allowed store fields for mutation. Nil
// fields are left untouched. Status changes are reserved for admins.
type UpdateStoreInput struct {
	Name             *string
	Description      *string
	Logo             *string
	BannerImage      *string
	ContactEmail     *string
	ContactPhone     *string
	Address          *string
	ThemeColor       *string
	Status           *enums.StoreStatus
	ReturnPolicies   *[]string
	ShippingPolicies *[]string
}

// FromModel maps the persisted store into a DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		Name:             m.Name,
		Slug:             m.Slug,
		Description:      m.Description,
		Logo:             m.Logo,
		BannerImage:      m.BannerImage,
		ContactEmail:     m.ContactEmail,
		ContactPhone:     m.ContactPhone,
		Address:          m.Address,
		ThemeColor:       m.ThemeColor,
		Status:           m.Status,
		ReturnPolicies:   nonNil(m.ReturnPolicies),
		ShippingPolicies: nonNil(m.ShippingPolicies),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func fromModels(rows []models.Store) []StoreDTO {
	out := make([]StoreDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func newStorePageDTO(page pagination.Page[models.Store]) pagination.Page[StoreDTO] {
	return pagination.Page[StoreDTO]{
		Items:      fromModels(page.Items),
		NextCursor: page.NextCursor,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
