package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// User is the identity behind carts, wishlists and orders. Credentials live
// with the identity provider.
type User struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email       string          `gorm:"column:email;type:text;not null;uniqueIndex"`
	FirstName   string          `gorm:"column:first_name;not null"`
	LastName    string          `gorm:"column:last_name;not null"`
	PhoneNumber *string         `gorm:"column:phone_number"`
	Role        enums.ActorRole `gorm:"column:role;not null;default:'user'"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
