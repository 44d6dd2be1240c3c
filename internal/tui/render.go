package tui

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

// Texts shown by the storefront.
const (
	EmptyCartText  = "Your cart is empty."
	NoProductsText = "No products found."
	LoadingText    = "Loading products..."
)

// LineText renders a cart line as "Title - $price x qty".
func LineText(l domain.CartLine) string {
	return l.Title + " - $" + l.Price.String() + " x " + strconv.Itoa(l.Quantity)
}

// SubtotalText renders a line's subtotal.
func SubtotalText(l domain.CartLine) string {
	return "Subtotal: " + domain.FormatPrice(l.Subtotal())
}

// TotalText renders the cart total.
func TotalText(total decimal.Decimal) string {
	return "Total: " + domain.FormatPrice(total)
}

// ProductPriceText renders a catalog price the way product cards show it.
func ProductPriceText(p domain.Product) string {
	return "$" + p.Price.String()
}
