package orders

import (
	"github.com/angelmondragon/shopfront-backend/api/validators"
	ordersvc "github.com/angelmondragon/shopfront-backend/internal/orders"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// placeOrderRequest carries no validate tags and decodes ids as plain
// strings: the order service checks the fields in a fixed order and reports
// the first failure by name.
type placeOrderRequest struct {
	OrderItems            []orderItemRequest      `json:"orderItems"`
	StoreIDs              []string                `json:"storeIds"`
	TotalAmount           validators.NumberString `json:"totalAmount"`
	SelectedAddressID     string                  `json:"selectedAddressId"`
	SelectedPaymentMethod string                  `json:"selectedPaymentMethod"`
	OrderComment          *string                 `json:"orderComment,omitempty"`
	ExpectedDeliveryDays  *int                    `json:"expectedDeliveryDays,omitempty"`
}

type orderItemRequest struct {
	ProductID string                  `json:"productId"`
	Quantity  int                     `json:"quantity"`
	Price     validators.NumberString `json:"price"`
}

func (r placeOrderRequest) toInput() ordersvc.PlaceOrderInput {
	items := make([]ordersvc.PlaceOrderItem, 0, len(r.OrderItems))
	for _, item := range r.OrderItems {
		items = append(items, ordersvc.PlaceOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price.String(),
		})
	}
	var comment *string
	if r.OrderComment != nil {
		trimmed := validators.SanitizeString(*r.OrderComment, 1000)
		comment = &trimmed
	}
	return ordersvc.PlaceOrderInput{
		Items:                 items,
		StoreIDs:              r.StoreIDs,
		TotalAmount:           r.TotalAmount.String(),
		SelectedAddressID:     r.SelectedAddressID,
		SelectedPaymentMethod: r.SelectedPaymentMethod,
		OrderComment:          comment,
		ExpectedDeliveryDays:  r.ExpectedDeliveryDays,
	}
}

type updateStatusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}
