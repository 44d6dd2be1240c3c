// Package cart implements the storefront cart: an in-memory list of lines
// keyed by product ID, resolved against a catalog and re-rendered after
// every change.
package cart

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

// CatalogSource supplies the products a cart can resolve IDs against. An
// unavailable catalog is represented by an empty product list.
type CatalogSource interface {
	Products() []domain.Product
}

// Renderer is notified synchronously after every change to the cart. It
// receives a copy of the lines, the recomputed total and the item count.
// Implementations handle their own failures and must not panic.
type Renderer interface {
	OnCartChanged(lines []domain.CartLine, total decimal.Decimal, itemCount int)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to record ignored actions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store owns the state of one cart. It is not safe for concurrent use;
// callers dispatch actions one at a time.
type Store struct {
	catalog  CatalogSource
	renderer Renderer
	logger   *slog.Logger
	lines    []domain.CartLine
}

// NewStore creates an empty cart that resolves products through catalog and
// notifies renderer after each change. renderer may be nil.
func NewStore(catalog CatalogSource, renderer Renderer, opts ...Option) *Store {
	s := &Store{
		catalog:  catalog,
		renderer: renderer,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add puts one unit of the product in the cart. A new line copies the
// product's title and price; an existing line only gains quantity. Unknown
// products are ignored. It reports whether the cart changed.
func (s *Store) Add(productID int) bool {
	product, ok := s.resolve(productID)
	if !ok {
		s.logger.Debug("add ignored: product not in catalog", slog.Int("product_id", productID))
		return false
	}

	if i := domain.FindLine(s.lines, productID); i >= 0 {
		s.lines[i].Quantity++
	} else {
		s.lines = append(s.lines, domain.CartLine{
			ID:       product.ID,
			Title:    product.Title,
			Price:    product.Price,
			Quantity: 1,
		})
	}

	s.notify()
	return true
}

// Increase adds one unit to an existing line. It never creates a line.
func (s *Store) Increase(productID int) bool {
	i := domain.FindLine(s.lines, productID)
	if i < 0 {
		s.logger.Debug("increase ignored: product not in cart", slog.Int("product_id", productID))
		return false
	}

	s.lines[i].Quantity++
	s.notify()
	return true
}

// Decrease removes one unit from an existing line. A line at quantity one is
// removed from the cart instead of dropping to zero.
func (s *Store) Decrease(productID int) bool {
	i := domain.FindLine(s.lines, productID)
	if i < 0 {
		s.logger.Debug("decrease ignored: product not in cart", slog.Int("product_id", productID))
		return false
	}

	if s.lines[i].Quantity > 1 {
		s.lines[i].Quantity--
	} else {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}

	s.notify()
	return true
}

// Total returns the sum of price times quantity over the current lines.
func (s *Store) Total() decimal.Decimal {
	return domain.Total(s.lines)
}

// ItemCount returns the number of units in the cart.
func (s *Store) ItemCount() int {
	return domain.ItemCount(s.lines)
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	return len(s.lines)
}

func (s *Store) resolve(productID int) (domain.Product, bool) {
	if s.catalog == nil {
		return domain.Product{}, false
	}
	for _, p := range s.catalog.Products() {
		if p.ID == productID {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *Store) notify() {
	if s.renderer == nil {
		return
	}
	lines := s.Lines()
	s.renderer.OnCartChanged(lines, domain.Total(lines), domain.ItemCount(lines))
}
