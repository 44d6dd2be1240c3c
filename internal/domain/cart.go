package domain

import "github.com/shopspring/decimal"

// CartLine tracks one product's quantity in a cart. Title and Price are
// captured when the product is first added and never re-read from the catalog.
type CartLine struct {
	ID       int             `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Subtotal returns price times quantity for the line.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums the subtotal of every line.
func Total(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// ItemCount returns the total number of units across all lines.
func ItemCount(lines []CartLine) int {
	var count int
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}

// FindLine returns the index of the line with the given product ID, or -1.
func FindLine(lines []CartLine, productID int) int {
	for i := range lines {
		if lines[i].ID == productID {
			return i
		}
	}
	return -1
}
