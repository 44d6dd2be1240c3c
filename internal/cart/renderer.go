package cart

import (
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

// RendererFunc adapts a plain function to the Renderer interface.
type RendererFunc func(lines []domain.CartLine, total decimal.Decimal, itemCount int)

// OnCartChanged calls f.
func (f RendererFunc) OnCartChanged(lines []domain.CartLine, total decimal.Decimal, itemCount int) {
	f(lines, total, itemCount)
}

// Renderers fans a single notification out to several renderers in order.
// Nil entries are skipped. Each renderer receives its own copy of the lines.
type Renderers []Renderer

// OnCartChanged notifies every renderer.
func (rs Renderers) OnCartChanged(lines []domain.CartLine, total decimal.Decimal, itemCount int) {
	for _, r := range rs {
		if r == nil {
			continue
		}
		cp := make([]domain.CartLine, len(lines))
		copy(cp, lines)
		r.OnCartChanged(cp, total, itemCount)
	}
}
