package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

// Actor is the resolved caller identity.
type Actor struct {
	UserID uuid.UUID
	Role   enums.ActorRole
}

// PlaceOrderItem is one requested line. ProductID and Price are the client's
// raw values; the price is stored as given once it parses.
type PlaceOrderItem struct {
	ProductID string
	Quantity  int
	Price     string
}

// PlaceOrderInput mirrors the order placement request. Ids and amounts stay
// raw strings so PlaceOrder can report the first bad field in order.
type PlaceOrderInput struct {
	Items                 []PlaceOrderItem
	StoreIDs              []string
	TotalAmount           string
	SelectedAddressID     string
	SelectedPaymentMethod string
	OrderComment          *string
	ExpectedDeliveryDays  *int
}

type OrderItemProductDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Thumbnail *string   `json:"thumbnail,omitempty"`
}

type OrderItemDTO struct {
	ID        uuid.UUID            `json:"id"`
	ProductID uuid.UUID            `json:"productId"`
	Quantity  int                  `json:"quantity"`
	Price     decimal.Decimal      `json:"price"`
	Product   *OrderItemProductDTO `json:"product,omitempty"`
}

type AddressDTO struct {
	ID         uuid.UUID `json:"id"`
	Line1      string    `json:"line1"`
	Line2      *string   `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
}

type BuyerDTO struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

type OrderDTO struct {
	ID                    uuid.UUID         `json:"id"`
	UserID                uuid.UUID         `json:"userId"`
	TotalAmount           decimal.Decimal   `json:"totalAmount"`
	SelectedAddressID     uuid.UUID         `json:"selectedAddressId"`
	SelectedPaymentMethod string            `json:"selectedPaymentMethod"`
	OrderComment          *string           `json:"orderComment,omitempty"`
	Status                enums.OrderStatus `json:"status"`
	ExpectedDeliveryDate  time.Time         `json:"expectedDeliveryDate"`
	Items                 []OrderItemDTO    `json:"orderItems,omitempty"`
	StoreIDs              []uuid.UUID       `json:"storeIds,omitempty"`
	SelectedAddress       *AddressDTO       `json:"selectedAddress,omitempty"`
	User                  *BuyerDTO         `json:"user,omitempty"`
	CreatedAt             time.Time         `json:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt"`
}

func NewOrderDTO(o *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:                    o.ID,
		UserID:                o.UserID,
		TotalAmount:           o.TotalAmount,
		SelectedAddressID:     o.SelectedAddressID,
		SelectedPaymentMethod: o.SelectedPaymentMethod,
		OrderComment:          o.OrderComment,
		Status:                o.Status,
		ExpectedDeliveryDate:  o.ExpectedDeliveryDate,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
	for _, item := range o.Items {
		line := OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		if item.Product != nil {
			line.Product = &OrderItemProductDTO{ID: item.Product.ID, Name: item.Product.Name, Thumbnail: item.Product.Thumbnail}
		}
		dto.Items = append(dto.Items, line)
	}
	for _, store := range o.Stores {
		dto.StoreIDs = append(dto.StoreIDs, store.ID)
	}
	if a := o.SelectedAddress; a != nil {
		dto.SelectedAddress = &AddressDTO{
			ID:         a.ID,
			Line1:      a.Line1,
			Line2:      a.Line2,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
		}
	}
	if u := o.User; u != nil {
		dto.User = &BuyerDTO{
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			Email:       u.Email,
			PhoneNumber: u.PhoneNumber,
		}
	}
	return dto
}

func newOrderPageDTO(page pagination.Page[models.Order]) pagination.Page[OrderDTO] {
	return pagination.Map(page, func(o *models.Order) OrderDTO { return *NewOrderDTO(o) })
}
