// Package catalog loads the product list a storefront sells from and provides
// the read-only views over it: lookup by ID, title search and pagination.
package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/pagination"
)

// Fetcher retrieves the full product list from an origin.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.Product, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]domain.Product, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context) ([]domain.Product, error) {
	return f(ctx)
}

// Snapshot is an immutable product list captured at load time. It satisfies
// cart.CatalogSource.
type Snapshot struct {
	products []domain.Product
	index    map[int]int
}

// NewSnapshot copies products into a snapshot. When an ID appears more than
// once the first occurrence wins.
func NewSnapshot(products []domain.Product) *Snapshot {
	s := &Snapshot{
		products: make([]domain.Product, 0, len(products)),
		index:    make(map[int]int, len(products)),
	}
	for _, p := range products {
		if _, dup := s.index[p.ID]; dup {
			continue
		}
		s.index[p.ID] = len(s.products)
		s.products = append(s.products, p)
	}
	return s
}

// Products returns the snapshot's products in origin order. Callers must not
// modify the returned slice.
func (s *Snapshot) Products() []domain.Product {
	if s == nil {
		return nil
	}
	return s.products
}

// Lookup finds a product by ID.
func (s *Snapshot) Lookup(id int) (domain.Product, bool) {
	if s == nil {
		return domain.Product{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return domain.Product{}, false
	}
	return s.products[i], true
}

// Len returns the number of products.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.products)
}

// Load fetches the catalog once. A failed fetch is logged and yields an empty
// snapshot: an unavailable catalog behaves like a catalog with no products.
func Load(ctx context.Context, fetcher Fetcher, logger *slog.Logger) *Snapshot {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	products, err := fetcher.Fetch(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "error fetching products", slog.String("error", err.Error()))
		return NewSnapshot(nil)
	}

	snap := NewSnapshot(products)
	logger.InfoContext(ctx, "catalog loaded", slog.Int("products", snap.Len()))
	return snap
}

// Search returns the products whose title contains term, ignoring case. An
// empty or blank term returns every product.
func Search(products []domain.Product, term string) []domain.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return products
	}

	matched := make([]domain.Product, 0)
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), term) {
			matched = append(matched, p)
		}
	}
	return matched
}

// Page returns one page of products. Page numbers are clamped to the valid
// range so stepping past either end stays on the first or last page.
func Page(products []domain.Product, page, perPage int) pagination.Result[domain.Product] {
	params := pagination.NewParams(page, perPage)
	if last := LastPage(len(products), params.PerPage); params.Page > last {
		params = pagination.NewParams(last, params.PerPage)
	}
	return pagination.Slice(products, params)
}

// LastPage returns the highest valid page number for total items, never less
// than 1.
func LastPage(total, perPage int) int {
	if perPage < 1 {
		perPage = 1
	}
	if total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}
