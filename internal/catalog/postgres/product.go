package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
)

const (
	listProductsSQL = `
		SELECT id, title, price::text, description, category, image
		FROM products
		ORDER BY id`

	upsertProductSQL = `
		INSERT INTO products (id, title, price, description, category, image, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			title       = EXCLUDED.title,
			price       = EXCLUDED.price,
			description = EXCLUDED.description,
			category    = EXCLUDED.category,
			image       = EXCLUDED.image,
			updated_at  = NOW()`
)

// ProductRepository reads and seeds the catalog in PostgreSQL. It satisfies
// catalog.Fetcher.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Fetch returns the whole catalog ordered by ID.
func (r *ProductRepository) Fetch(ctx context.Context) ([]domain.Product, error) {
	return r.List(ctx)
}

// List returns every product ordered by ID.
func (r *ProductRepository) List(ctx context.Context) (products []domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, "ListProducts", listProductsSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products = make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// Upsert inserts the products or refreshes existing rows with the same ID.
// It returns the number of rows written.
func (r *ProductRepository) Upsert(ctx context.Context, products []domain.Product) (n int, err error) {
	ctx, end := database.TraceQuery(ctx, "UpsertProducts", upsertProductSQL)
	defer func() { end(err) }()

	for _, p := range products {
		if _, err := r.db.Exec(ctx, upsertProductSQL,
			p.ID,
			p.Title,
			p.Price.String(),
			p.Description,
			p.Category,
			p.Image,
		); err != nil {
			return n, fmt.Errorf("upsert product %d: %w", p.ID, err)
		}
		n++
	}
	return n, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Title, &price, &p.Description, &p.Category, &p.Image); err != nil {
		if isNoRows(err) {
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("scan product: %w", err)
	}

	amount, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse price of product %d: %w", p.ID, err)
	}
	p.Price = amount
	return p, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
