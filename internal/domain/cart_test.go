package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ============================================================================
// Total Tests
// ============================================================================

func TestTotal_SingleLine(t *testing.T) {
	lines := []CartLine{
		{ID: 1, Price: price("19.99"), Quantity: 2},
	}
	assert.Equal(t, "39.98", Total(lines).StringFixed(2))
}

func TestTotal_MultipleLines(t *testing.T) {
	lines := []CartLine{
		{ID: 1, Price: price("10"), Quantity: 2},
		{ID: 2, Price: price("5"), Quantity: 3},
		{ID: 3, Price: price("25"), Quantity: 1},
	}
	// 20 + 15 + 25 = 60
	assert.Equal(t, "60.00", Total(lines).StringFixed(2))
}

func TestTotal_FractionalPricesDoNotDrift(t *testing.T) {
	lines := []CartLine{
		{ID: 1, Price: price("0.1"), Quantity: 1},
		{ID: 2, Price: price("0.2"), Quantity: 1},
	}
	assert.True(t, Total(lines).Equal(price("0.3")))
}

func TestTotal_EmptyCart(t *testing.T) {
	assert.True(t, Total([]CartLine{}).IsZero())
}

func TestTotal_NilLines(t *testing.T) {
	assert.True(t, Total(nil).IsZero())
}

func TestTotal_ZeroPrice(t *testing.T) {
	lines := []CartLine{{ID: 1, Price: decimal.Zero, Quantity: 5}}
	assert.True(t, Total(lines).IsZero())
}

// ============================================================================
// ItemCount Tests
// ============================================================================

func TestItemCount_MultipleLines(t *testing.T) {
	lines := []CartLine{
		{Quantity: 2},
		{Quantity: 3},
		{Quantity: 1},
	}
	assert.Equal(t, 6, ItemCount(lines))
}

func TestItemCount_EmptyCart(t *testing.T) {
	assert.Equal(t, 0, ItemCount(nil))
}

// ============================================================================
// FindLine Tests
// ============================================================================

func TestFindLine_Found(t *testing.T) {
	lines := []CartLine{{ID: 7}, {ID: 3}}
	assert.Equal(t, 0, FindLine(lines, 7))
	assert.Equal(t, 1, FindLine(lines, 3))
}

func TestFindLine_NotFound(t *testing.T) {
	lines := []CartLine{{ID: 7}}
	assert.Equal(t, -1, FindLine(lines, 99))
}

func TestFindLine_EmptyCart(t *testing.T) {
	assert.Equal(t, -1, FindLine(nil, 1))
}

// ============================================================================
// CartLine / formatting
// ============================================================================

func TestCartLine_Subtotal(t *testing.T) {
	line := CartLine{Price: price("109.95"), Quantity: 3}
	assert.Equal(t, "329.85", line.Subtotal().StringFixed(2))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$15.00", FormatPrice(price("15")))
	assert.Equal(t, "$0.00", FormatPrice(decimal.Zero))
	assert.Equal(t, "$7.95", FormatPrice(price("7.95")))
}

func TestPayMessage(t *testing.T) {
	assert.Equal(t, "Proceeding to payment. Total: $15.00", PayMessage(price("15")))
}
