package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/httpclient"
)

// DefaultURL is the public catalog the storefront was built against.
const DefaultURL = "https://fakestoreapi.com/products"

// maxBodyBytes bounds the catalog payload read from the origin.
const maxBodyBytes = 8 << 20

// HTTPDoer abstracts the HTTP client so the fetcher can run behind a circuit
// breaker or a plain retrying client.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// productPayload is the wire shape of one catalog entry. Extra fields such as
// rating are ignored.
type productPayload struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

// Fetcher loads the catalog from a JSON endpoint returning an array of
// products.
type Fetcher struct {
	client HTTPDoer
	url    string
	logger *slog.Logger
}

// NewFetcher creates a fetcher for url. An empty url falls back to DefaultURL.
func NewFetcher(client HTTPDoer, url string, logger *slog.Logger) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fetcher{client: client, url: url, logger: logger}
}

// Fetch retrieves and decodes the product list. Entries without a positive ID
// or with a negative price are dropped.
func (f *Fetcher) Fetch(ctx context.Context) ([]domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call catalog: %w", err)
	}

	if !httpclient.IsSuccess(resp.StatusCode) {
		return nil, httpclient.ParseResponseError(resp, "catalog")
	}
	defer resp.Body.Close()

	var payload []productPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	products := make([]domain.Product, 0, len(payload))
	for _, p := range payload {
		if p.ID <= 0 || p.Price.IsNegative() {
			f.logger.WarnContext(ctx, "skipping invalid catalog entry",
				slog.Int("product_id", p.ID),
				slog.String("price", p.Price.String()),
			)
			continue
		}
		products = append(products, domain.Product{
			ID:          p.ID,
			Title:       p.Title,
			Price:       p.Price,
			Description: p.Description,
			Category:    p.Category,
			Image:       p.Image,
		})
	}

	f.logger.DebugContext(ctx, "catalog fetched",
		slog.String("url", f.url),
		slog.Int("products", len(products)),
	)
	return products, nil
}
