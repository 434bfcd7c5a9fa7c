package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// Store is a vendor storefront owned by a user.
type Store struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID          uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;index"`
	Name             string            `gorm:"column:name;not null"`
	Slug             string            `gorm:"column:slug;not null;uniqueIndex:stores_slug_key"`
	Description      *string           `gorm:"column:description"`
	Logo             *string           `gorm:"column:logo"`
	BannerImage      *string           `gorm:"column:banner_image"`
	ContactEmail     *string           `gorm:"column:contact_email"`
	ContactPhone     *string           `gorm:"column:contact_phone"`
	Address          *string           `gorm:"column:address"`
	ThemeColor       *string           `gorm:"column:theme_color"`
	Status           enums.StoreStatus `gorm:"column:status;not null;default:'pending'"`
	ReturnPolicies   pq.StringArray    `gorm:"column:return_policies;type:text[]"`
	ShippingPolicies pq.StringArray    `gorm:"column:shipping_policies;type:text[]"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
