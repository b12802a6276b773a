package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func cartItem(price string, qty int) Item {
	return Item{
		ProductID: "p",
		Price:     decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func TestComputeTotals_FreeShippingAboveThreshold(t *testing.T) {
	totals := ComputeTotals([]Item{cartItem("125.00", 2)}, DefaultPricing())

	assert.True(t, decimal.RequireFromString("250.00").Equal(totals.ItemsPrice))
	assert.True(t, decimal.Zero.Equal(totals.ShippingPrice))
	assert.True(t, decimal.RequireFromString("12.50").Equal(totals.TaxPrice))
	assert.True(t, decimal.RequireFromString("262.50").Equal(totals.TotalPrice))
}

func TestComputeTotals_FlatFeeBelowThreshold(t *testing.T) {
	totals := ComputeTotals([]Item{cartItem("50.00", 2)}, DefaultPricing())

	assert.True(t, decimal.RequireFromString("100.00").Equal(totals.ItemsPrice))
	assert.True(t, decimal.RequireFromString("25").Equal(totals.ShippingPrice))
	assert.True(t, decimal.RequireFromString("5.00").Equal(totals.TaxPrice))
	assert.True(t, decimal.RequireFromString("130.00").Equal(totals.TotalPrice))
}

func TestComputeTotals_ExactThresholdStillPaysShipping(t *testing.T) {
	// Shipping is free strictly above the threshold, not at it.
	totals := ComputeTotals([]Item{cartItem("200.00", 1)}, DefaultPricing())

	assert.True(t, decimal.RequireFromString("25").Equal(totals.ShippingPrice))
}

func TestComputeTotals_TaxRoundedToCents(t *testing.T) {
	// 3 x 33.33 = 99.99, 5% = 4.9995, rounds to 5.00.
	totals := ComputeTotals([]Item{cartItem("33.33", 3)}, DefaultPricing())

	assert.True(t, decimal.RequireFromString("5.00").Equal(totals.TaxPrice))
}

func TestComputeTotals_EmptyCart(t *testing.T) {
	totals := ComputeTotals(nil, DefaultPricing())

	assert.True(t, decimal.Zero.Equal(totals.ItemsPrice))
	assert.True(t, decimal.RequireFromString("25").Equal(totals.ShippingPrice))
	assert.True(t, decimal.Zero.Equal(totals.TaxPrice))
	assert.True(t, decimal.RequireFromString("25.00").Equal(totals.TotalPrice))
}

func TestComputeTotals_BreakdownSumsToTotal(t *testing.T) {
	carts := [][]Item{
		{cartItem("12.49", 1)},
		{cartItem("54.99", 3), cartItem("89.90", 1)},
		{cartItem("199.99", 1), cartItem("0.01", 1)},
		{cartItem("640.00", 2)},
	}

	for _, items := range carts {
		totals := ComputeTotals(items, DefaultPricing())
		sum := totals.ItemsPrice.Add(totals.ShippingPrice).Add(totals.TaxPrice).Round(2)
		assert.True(t, sum.Equal(totals.TotalPrice), "cart %+v", items)
	}
}
