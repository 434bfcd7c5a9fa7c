package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

func TestComputeTotalsMixesOwnAndDefaultShipping(t *testing.T) {
	items := []models.CartItem{
		{
			ID:       uuid.New(),
			Quantity: 2,
			Product: &models.Product{
				Price:       decimal.RequireFromString("50"),
				ShippingFee: decimal.NewNullDecimal(decimal.RequireFromString("10")),
			},
		},
		{
			ID:       uuid.New(),
			Quantity: 1,
			Product:  &models.Product{Price: decimal.RequireFromString("30")},
		},
	}

	totals, err := ComputeTotals(items, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !totals.Subtotal.Equal(decimal.NewFromInt(130)) {
		t.Fatalf("subtotal = %s, want 130", totals.Subtotal)
	}
	if !totals.DeliveryCharge.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("delivery = %s, want 110", totals.DeliveryCharge)
	}
	if !totals.TotalAmount.Equal(decimal.NewFromInt(240)) {
		t.Fatalf("total = %s, want 240", totals.TotalAmount)
	}
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	totals, err := ComputeTotals(nil, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !totals.TotalAmount.IsZero() || !totals.DeliveryCharge.IsZero() {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestComputeTotalsRequiresProducts(t *testing.T) {
	_, err := ComputeTotals([]models.CartItem{{ID: uuid.New(), Quantity: 1}}, decimal.NewFromInt(100))
	if err == nil {
		t.Fatalf("expected error for item without product")
	}
}

func TestComputeTotalsKeepsCents(t *testing.T) {
	items := []models.CartItem{{
		ID:       uuid.New(),
		Quantity: 3,
		Product: &models.Product{
			Price:       decimal.RequireFromString("19.99"),
			ShippingFee: decimal.NewNullDecimal(decimal.RequireFromString("4.50")),
		},
	}}
	totals, err := ComputeTotals(items, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if totals.TotalAmount.StringFixed(2) != "64.47" {
		t.Fatalf("total = %s, want 64.47", totals.TotalAmount.StringFixed(2))
	}
}
