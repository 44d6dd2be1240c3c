package domain

import (
	"github.com/shopspring/decimal"
)

// Product is a catalog entry available for purchase. Products are immutable
// once the catalog has been loaded.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Image       string          `json:"image"`
}

// FormatPrice renders an amount the way the storefront displays money.
func FormatPrice(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// PayMessage is the acknowledgement shown when a shopper presses Pay Now.
func PayMessage(total decimal.Decimal) string {
	return "Proceeding to payment. Total: " + FormatPrice(total)
}
