package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/banner"
	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/session"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/slug"
	"github.com/utafrali/storefront/pkg/validator"
)

// DefaultPageSize matches the product grid of the storefront widget.
const DefaultPageSize = 4

// Catalog is the read-only product list served by the API.
type Catalog interface {
	Products() []domain.Product
	Lookup(id int) (domain.Product, bool)
}

// PayNotifier is told when a shopper presses Pay Now.
type PayNotifier interface {
	PublishPayRequested(ctx context.Context, sessionID string, total decimal.Decimal, itemCount int) error
}

// PayObserver records Pay Now actions.
type PayObserver interface {
	PayRequested()
}

// Option configures a StorefrontHandler.
type Option func(*StorefrontHandler)

// WithPageSize sets the default number of products per page.
func WithPageSize(n int) Option {
	return func(h *StorefrontHandler) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

// WithBanners replaces the default banners.
func WithBanners(banners []domain.Banner) Option {
	return func(h *StorefrontHandler) { h.banners = banners }
}

// WithPayNotifier publishes Pay Now requests.
func WithPayNotifier(n PayNotifier) Option {
	return func(h *StorefrontHandler) { h.payNotifier = n }
}

// WithPayObserver records Pay Now requests.
func WithPayObserver(o PayObserver) Option {
	return func(h *StorefrontHandler) { h.payObserver = o }
}

// StorefrontHandler handles HTTP requests for the catalog and cart endpoints.
type StorefrontHandler struct {
	catalog     Catalog
	sessions    *session.Manager
	banners     []domain.Banner
	pageSize    int
	payNotifier PayNotifier
	payObserver PayObserver
	logger      *slog.Logger
}

// NewStorefrontHandler creates a new storefront HTTP handler.
func NewStorefrontHandler(c Catalog, sessions *session.Manager, logger *slog.Logger, opts ...Option) *StorefrontHandler {
	h := &StorefrontHandler{
		catalog:  c,
		sessions: sessions,
		banners:  banner.Defaults(),
		pageSize: DefaultPageSize,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a product to the cart.
// Any integer id is accepted; ids missing from the catalog leave the cart
// unchanged.
type AddItemRequest struct {
	ProductID *int `json:"product_id" validate:"required"`
}

// --- Response DTOs ---

// ProductView is a catalog entry with its price formatted for display.
type ProductView struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Price       string `json:"price"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Image       string `json:"image"`
}

// CartLineView is one cart line as returned by the API.
type CartLineView struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

// CartView is the state of a cart after an action. Changed reports whether
// the action modified the cart.
type CartView struct {
	SessionID string         `json:"session_id"`
	Lines     []CartLineView `json:"lines"`
	Total     string         `json:"total"`
	ItemCount int            `json:"item_count"`
	Changed   bool           `json:"changed"`
}

// SessionView is returned when a session is created.
type SessionView struct {
	SessionID string   `json:"session_id"`
	Cart      CartView `json:"cart"`
}

// PayView is the Pay Now acknowledgement.
type PayView struct {
	Total     string `json:"total"`
	ItemCount int    `json:"item_count"`
	Message   string `json:"message"`
}

func toProductView(p domain.Product) ProductView {
	return ProductView{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        slug.Generate(p.Title),
		Price:       p.Price.StringFixed(2),
		Description: p.Description,
		Category:    p.Category,
		Image:       p.Image,
	}
}

func newCartView(id string, store *cart.Store, changed bool) CartView {
	lines := store.Lines()
	views := make([]CartLineView, 0, len(lines))
	for _, l := range lines {
		views = append(views, CartLineView{
			ID:       l.ID,
			Title:    l.Title,
			Price:    l.Price.StringFixed(2),
			Quantity: l.Quantity,
			Subtotal: l.Subtotal().StringFixed(2),
		})
	}
	return CartView{
		SessionID: id,
		Lines:     views,
		Total:     store.Total().StringFixed(2),
		ItemCount: store.ItemCount(),
		Changed:   changed,
	}
}

// --- Catalog handlers ---

// ListProducts handles GET /api/v1/products?q=&page=&per_page=
func (h *StorefrontHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r, h.pageSize)
	matched := catalog.Search(h.catalog.Products(), r.URL.Query().Get("q"))
	page := catalog.Page(matched, params.Page, params.PerPage)

	views := make([]ProductView, 0, len(page.Data))
	for _, p := range page.Data {
		views = append(views, toProductView(p))
	}

	httputil.WriteData(w, http.StatusOK, pagination.Result[ProductView]{
		Data:       views,
		TotalCount: page.TotalCount,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: page.TotalPages,
		HasNext:    page.HasNext,
		HasPrev:    page.HasPrev,
	})
}

// GetProduct handles GET /api/v1/products/{productId}
func (h *StorefrontHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := httputil.ParseInt("productId", chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	p, ok := h.catalog.Lookup(productID)
	if !ok {
		httputil.WriteError(w, r, apperrors.NotFound("product", strconv.Itoa(productID)), h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, toProductView(p))
}

// ListBanners handles GET /api/v1/banners
func (h *StorefrontHandler) ListBanners(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, banner.Views(h.banners))
}

// --- Session handlers ---

// CreateSession handles POST /api/v1/sessions
func (h *StorefrontHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()

	var view CartView
	if err := h.sessions.Do(s.ID, func(store *cart.Store) {
		view = newCartView(s.ID.String(), store, false)
	}); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	logger.FromContext(r.Context()).InfoContext(r.Context(), "cart session created",
		slog.String("session_id", s.ID.String()),
	)
	httputil.WriteData(w, http.StatusCreated, SessionView{SessionID: s.ID.String(), Cart: view})
}

// DeleteSession handles DELETE /api/v1/sessions/{sessionId}
func (h *StorefrontHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUID("sessionId", chi.URLParam(r, "sessionId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if !h.sessions.Delete(id) {
		httputil.WriteError(w, r, apperrors.NotFound("session", id.String()), h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Cart handlers ---

// GetCart handles GET /api/v1/cart
func (h *StorefrontHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(*cart.Store) bool { return false })
}

// AddItem handles POST /api/v1/cart/items
func (h *StorefrontHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.apply(w, r, func(store *cart.Store) bool { return store.Add(*req.ProductID) })
}

// IncreaseItem handles POST /api/v1/cart/items/{productId}/increase
func (h *StorefrontHandler) IncreaseItem(w http.ResponseWriter, r *http.Request) {
	productID, err := httputil.ParseInt("productId", chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.apply(w, r, func(store *cart.Store) bool { return store.Increase(productID) })
}

// DecreaseItem handles POST /api/v1/cart/items/{productId}/decrease
func (h *StorefrontHandler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	productID, err := httputil.ParseInt("productId", chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.apply(w, r, func(store *cart.Store) bool { return store.Decrease(productID) })
}

// Pay handles POST /api/v1/cart/pay. Payment itself is out of scope; the
// request is acknowledged with the current total.
func (h *StorefrontHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("session required"), h.logger)
		return
	}

	var (
		total     decimal.Decimal
		itemCount int
	)
	if err := h.sessions.Do(id, func(store *cart.Store) {
		total = store.Total()
		itemCount = store.ItemCount()
	}); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if h.payObserver != nil {
		h.payObserver.PayRequested()
	}
	if h.payNotifier != nil {
		if err := h.payNotifier.PublishPayRequested(r.Context(), id.String(), total, itemCount); err != nil {
			logger.FromContext(r.Context()).WarnContext(r.Context(), "failed to publish pay request",
				slog.String("session_id", id.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	httputil.WriteData(w, http.StatusOK, PayView{
		Total:     total.StringFixed(2),
		ItemCount: itemCount,
		Message:   domain.PayMessage(total),
	})
}

// apply runs action against the caller's cart and writes the resulting view.
func (h *StorefrontHandler) apply(w http.ResponseWriter, r *http.Request, action func(*cart.Store) bool) {
	id, ok := sessionIDFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("session required"), h.logger)
		return
	}

	var view CartView
	if err := h.sessions.Do(id, func(store *cart.Store) {
		changed := action(store)
		view = newCartView(id.String(), store, changed)
	}); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, view)
}
