package order

import "github.com/shopspring/decimal"

// PricingConfig holds the checkout pricing policy. Values are configuration,
// not business constants: see internal/app.Config.
type PricingConfig struct {
	// FreeShippingOver is the items subtotal above which shipping is free.
	FreeShippingOver decimal.Decimal
	// ShippingFee is the flat shipping fee charged at or below the threshold.
	ShippingFee decimal.Decimal
	// TaxRate is the fraction of the items subtotal charged as tax.
	TaxRate decimal.Decimal
}

// DefaultPricing mirrors the storefront's launch policy: free shipping over
// 200, a flat 25 fee otherwise, and 5% tax.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		FreeShippingOver: decimal.NewFromInt(200),
		ShippingFee:      decimal.NewFromInt(25),
		TaxRate:          decimal.RequireFromString("0.05"),
	}
}

// Totals is the priced breakdown of a cart. TotalPrice always equals
// ItemsPrice + ShippingPrice + TaxPrice.
type Totals struct {
	ItemsPrice    decimal.Decimal
	ShippingPrice decimal.Decimal
	TaxPrice      decimal.Decimal
	TotalPrice    decimal.Decimal
}

// ComputeTotals derives checkout totals from line-item price snapshots.
// It is pure and independent of current catalog prices: callers supply the
// prices captured at cart time.
func ComputeTotals(items []Item, cfg PricingConfig) Totals {
	itemsPrice := decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		itemsPrice = itemsPrice.Add(item.Price.Mul(qty))
	}

	shipping := cfg.ShippingFee
	if itemsPrice.GreaterThan(cfg.FreeShippingOver) {
		shipping = decimal.Zero
	}

	tax := itemsPrice.Mul(cfg.TaxRate).Round(2)
	total := itemsPrice.Add(shipping).Add(tax).Round(2)

	return Totals{
		ItemsPrice:    itemsPrice,
		ShippingPrice: shipping,
		TaxPrice:      tax,
		TotalPrice:    total,
	}
}
