package postgres

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/catalog/postgres/migrations"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
)

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

var productColumns = []string{"id", "title", "price", "description", "category", "image"}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:          1,
		Title:       "Fjallraven Backpack",
		Price:       decimal.RequireFromString("109.95"),
		Description: "Your perfect pack",
		Category:    "men's clothing",
		Image:       "https://img/1.jpg",
	}
}

func productRow(p domain.Product) []any {
	return []any{p.ID, p.Title, p.Price.StringFixed(2), p.Description, p.Category, p.Image}
}

// compile-time check
var _ catalog.Fetcher = (*ProductRepository)(nil)

// ─────────────────────────────────────────────────────────────────────────────
// ProductRepository
// ─────────────────────────────────────────────────────────────────────────────

func TestProductRepository_List_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p1 := sampleProduct()
	p2 := domain.Product{ID: 2, Title: "T-Shirt", Price: decimal.RequireFromString("22.30")}
	mock.ExpectQuery("SELECT .+ FROM products ORDER BY id").
		WillReturnRows(
			pgxmock.NewRows(productColumns).
				AddRow(productRow(p1)...).
				AddRow(productRow(p2)...),
		)

	products, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, p1.Title, products[0].Title)
	assert.True(t, p1.Price.Equal(products[0].Price))
	assert.Equal(t, "22.30", products[1].Price.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_Empty(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products ORDER BY id").
		WillReturnRows(pgxmock.NewRows(productColumns))

	products, err := repo.Fetch(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_QueryError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products ORDER BY id").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query products")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_BadPrice(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products ORDER BY id").
		WillReturnRows(
			pgxmock.NewRows(productColumns).AddRow(1, "A", "not-a-number", "", "", ""),
		)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse price of product 1")
}

func TestProductRepository_Upsert_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.Title, "109.95", p.Description, p.Category, p.Image).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n, err := repo.Upsert(context.Background(), []domain.Product{p})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Upsert_StopsOnError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p1 := sampleProduct()
	p2 := domain.Product{ID: 2, Title: "T-Shirt", Price: decimal.RequireFromString("22.3")}
	mock.ExpectExec("INSERT INTO products").
		WithArgs(p1.ID, p1.Title, "109.95", p1.Description, p1.Category, p1.Image).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO products").
		WithArgs(p2.ID, p2.Title, "22.3", "", "", "").
		WillReturnError(errors.New("check constraint violated"))

	n, err := repo.Upsert(context.Background(), []domain.Product{p1, p2})
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, err.Error(), "upsert product 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─────────────────────────────────────────────────────────────────────────────
// migrations
// ─────────────────────────────────────────────────────────────────────────────

func TestMigrations_Embedded(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create_products.up.sql"}, names)

	content, err := fs.ReadFile(migrations.FS, names[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "CREATE TABLE IF NOT EXISTS products")
}
