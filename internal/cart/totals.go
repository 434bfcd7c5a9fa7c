package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// Totals are the derived money fields of a cart.
type Totals struct {
	Subtotal       decimal.Decimal
	DeliveryCharge decimal.Decimal
	TotalAmount    decimal.Decimal
}

// ComputeTotals sums quantity x price per line and one shipping fee per line,
// falling back to defaultFee for products without their own fee. Every item
// must carry its product.
func ComputeTotals(items []models.CartItem, defaultFee decimal.Decimal) (Totals, error) {
	subtotal := decimal.Zero
	delivery := decimal.Zero
	for _, item := range items {
		if item.Product == nil {
			return Totals{}, fmt.Errorf("cart item %s: product not loaded", item.ID)
		}
		subtotal = subtotal.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		if item.Product.ShippingFee.Valid {
			delivery = delivery.Add(item.Product.ShippingFee.Decimal)
		} else {
			delivery = delivery.Add(defaultFee)
		}
	}
	subtotal = subtotal.Round(2)
	delivery = delivery.Round(2)
	return Totals{
		Subtotal:       subtotal,
		DeliveryCharge: delivery,
		TotalAmount:    subtotal.Add(delivery),
	}, nil
}
