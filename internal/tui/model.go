// Package tui is the terminal storefront: a product grid with search and
// paging, a banner strip and a cart pane that is redrawn every time the cart
// changes.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/banner"
	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
)

const (
	// DefaultPageSize is the number of product cards per page.
	DefaultPageSize = 4
	// DefaultLoadTimeout bounds the initial catalog fetch.
	DefaultLoadTimeout = 15 * time.Second
)

type focusArea int

const (
	focusProducts focusArea = iota
	focusCart
)

// catalogLoadedMsg carries the catalog snapshot once the initial fetch ends.
type catalogLoadedMsg struct {
	snapshot *catalog.Snapshot
}

// PayFunc is called when the shopper presses Pay Now on a non-empty cart.
type PayFunc func(total decimal.Decimal, itemCount int)

// cartPane is the cart Renderer owned by the model. The store writes to it
// synchronously inside Update, so View always sees the latest cart.
type cartPane struct {
	lines     []domain.CartLine
	total     decimal.Decimal
	itemCount int
	renders   int
}

func (p *cartPane) OnCartChanged(lines []domain.CartLine, total decimal.Decimal, itemCount int) {
	p.lines = lines
	p.total = total
	p.itemCount = itemCount
	p.renders++
}

// Option configures a Model.
type Option func(*Model)

// WithPageSize sets the number of product cards per page.
func WithPageSize(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.pageSize = n
		}
	}
}

// WithBanners replaces the default banners.
func WithBanners(banners []domain.Banner) Option {
	return func(m *Model) { m.banners = banners }
}

// WithRenderers adds renderers notified alongside the cart pane.
func WithRenderers(rs ...cart.Renderer) Option {
	return func(m *Model) { m.extra = append(m.extra, rs...) }
}

// WithPayFunc sets the Pay Now callback.
func WithPayFunc(fn PayFunc) Option {
	return func(m *Model) { m.onPay = fn }
}

// WithLogger sets the logger. The terminal host should pass a logger that
// does not write to stdout.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLoadTimeout bounds the initial catalog fetch.
func WithLoadTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.loadTimeout = d
		}
	}
}

// Model is the bubbletea model of the terminal storefront.
type Model struct {
	fetcher     catalog.Fetcher
	logger      *slog.Logger
	styles      Styles
	pageSize    int
	loadTimeout time.Duration
	banners     []domain.Banner
	extra       []cart.Renderer
	onPay       PayFunc

	snapshot *catalog.Snapshot
	store    *cart.Store
	pane     *cartPane

	search     textinput.Model
	searching  bool
	filtered   []domain.Product
	page       int
	cursor     int
	cartCursor int
	focus      focusArea
	bannerIdx  int
	status     string

	width  int
	height int
}

// New creates the storefront model. The catalog is fetched by Init.
func New(fetcher catalog.Fetcher, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Search products..."
	ti.CharLimit = 64
	ti.Width = 40
	ti.Prompt = "/ "

	m := Model{
		fetcher:     fetcher,
		logger:      slog.New(slog.DiscardHandler),
		styles:      DefaultStyles(),
		pageSize:    DefaultPageSize,
		loadTimeout: DefaultLoadTimeout,
		banners:     banner.Defaults(),
		pane:        &cartPane{total: decimal.Zero},
		search:      ti,
		page:        1,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the catalog fetch.
func (m Model) Init() tea.Cmd {
	return m.loadCatalog()
}

func (m Model) loadCatalog() tea.Cmd {
	fetcher, logger, timeout := m.fetcher, m.logger, m.loadTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return catalogLoadedMsg{snapshot: catalog.Load(ctx, fetcher, logger)}
	}
}

// Loaded reports whether the catalog fetch has finished.
func (m Model) Loaded() bool {
	return m.store != nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case catalogLoadedMsg:
		m.snapshot = msg.snapshot
		renderers := append(cart.Renderers{m.pane}, m.extra...)
		m.store = cart.NewStore(m.snapshot, renderers, cart.WithLogger(m.logger))
		m.refilter()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.refilter()
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}

	if !m.Loaded() {
		return m, nil
	}
	m.status = ""

	switch msg.String() {
	case "/":
		m.searching = true
		m.focus = focusProducts
		cmd := m.search.Focus()
		return m, cmd
	case "left", "h":
		m.setPage(m.page - 1)
	case "right", "l":
		m.setPage(m.page + 1)
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "tab":
		m.toggleFocus()
	case "enter", "a":
		if m.focus == focusProducts {
			m.addSelected()
		}
	case "+", "=":
		if line, ok := m.selectedLine(); ok {
			m.store.Increase(line.ID)
		}
	case "-", "_":
		if line, ok := m.selectedLine(); ok {
			m.store.Decrease(line.ID)
			m.clampCartCursor()
		}
	case "p":
		m.pay()
	case "b":
		if len(m.banners) > 0 {
			m.bannerIdx = (m.bannerIdx + 1) % len(m.banners)
		}
	}

	return m, nil
}

// ---------------------------------------------------------------------------
// Actions
// ---------------------------------------------------------------------------

func (m *Model) refilter() {
	m.filtered = catalog.Search(m.snapshot.Products(), m.search.Value())
	m.page = 1
	m.cursor = 0
}

func (m *Model) setPage(page int) {
	last := catalog.LastPage(len(m.filtered), m.pageSize)
	page = max(1, min(page, last))
	if page != m.page {
		m.page = page
		m.cursor = 0
	}
}

func (m *Model) moveCursor(delta int) {
	if m.focus == focusCart {
		m.cartCursor += delta
		m.clampCartCursor()
		return
	}
	n := len(m.visibleProducts())
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = max(0, min(m.cursor+delta, n-1))
}

func (m *Model) toggleFocus() {
	if m.focus == focusProducts {
		m.focus = focusCart
		m.clampCartCursor()
		return
	}
	m.focus = focusProducts
}

func (m *Model) clampCartCursor() {
	n := len(m.pane.lines)
	if n == 0 {
		m.cartCursor = 0
		return
	}
	m.cartCursor = max(0, min(m.cartCursor, n-1))
}

func (m *Model) addSelected() {
	visible := m.visibleProducts()
	if m.cursor >= len(visible) {
		return
	}
	p := visible[m.cursor]
	if m.store.Add(p.ID) {
		m.status = fmt.Sprintf("Added %s to cart.", p.Title)
	}
}

func (m *Model) selectedLine() (domain.CartLine, bool) {
	if m.cartCursor < 0 || m.cartCursor >= len(m.pane.lines) {
		return domain.CartLine{}, false
	}
	return m.pane.lines[m.cartCursor], true
}

func (m *Model) pay() {
	if m.store.Len() == 0 {
		m.status = EmptyCartText
		return
	}
	total, count := m.store.Total(), m.store.ItemCount()
	m.status = domain.PayMessage(total)
	m.logger.Info("pay requested",
		slog.String("total", total.StringFixed(2)),
		slog.Int("item_count", count),
	)
	if m.onPay != nil {
		m.onPay(total, count)
	}
}

func (m Model) visibleProducts() []domain.Product {
	return catalog.Page(m.filtered, m.page, m.pageSize).Data
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// View renders the storefront.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render("Storefront"))
	sb.WriteString("  ")
	sb.WriteString(m.styles.Badge.Render(fmt.Sprintf("Cart (%d)", m.pane.itemCount)))
	sb.WriteString("\n")

	if b, ok := m.currentBanner(); ok {
		sb.WriteString(m.renderBanner(b))
		sb.WriteString("\n")
	}

	if !m.Loaded() {
		sb.WriteString(m.styles.Muted.Render(LoadingText))
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(m.search.View())
	sb.WriteString("\n\n")

	products := m.renderProducts()
	cartView := m.renderCart()
	if m.focus == focusProducts {
		products = m.styles.focused().Render(products)
		cartView = m.styles.Pane.Render(cartView)
	} else {
		products = m.styles.Pane.Render(products)
		cartView = m.styles.focused().Render(cartView)
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, products, " ", cartView))
	sb.WriteString("\n")

	if m.status != "" {
		sb.WriteString(m.styles.Status.Render(m.status))
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Muted.Render(
		"←/→ page • ↑/↓ select • enter add • tab cart • +/- qty • / search • p pay • b banner • q quit"))
	return sb.String()
}

func (m Model) currentBanner() (domain.Banner, bool) {
	if len(m.banners) == 0 {
		return domain.Banner{}, false
	}
	return m.banners[m.bannerIdx%len(m.banners)], true
}

func (m Model) renderBanner(b domain.Banner) string {
	body := m.styles.Title.Render(b.Title) + "\n" + b.Text + "\n" +
		m.styles.CTA.Render("["+banner.CTA(b)+"]") + " " + m.styles.Muted.Render(b.URL)
	return m.styles.Banner.Render(body)
}

func (m Model) renderProducts() string {
	visible := m.visibleProducts()
	if len(visible) == 0 {
		return NoProductsText
	}

	var sb strings.Builder
	for i, p := range visible {
		marker := "  "
		title := p.Title
		if i == m.cursor && m.focus == focusProducts {
			marker = "> "
			title = m.styles.Selected.Render(title)
		}
		sb.WriteString(marker + title + "\n")
		sb.WriteString("  " + m.styles.Price.Render(ProductPriceText(p)))
		if p.Category != "" {
			sb.WriteString("  " + m.styles.Muted.Render(p.Category))
		}
		sb.WriteString("\n")
	}

	last := catalog.LastPage(len(m.filtered), m.pageSize)
	sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("Page %d/%d", m.page, last)))
	return sb.String()
}

func (m Model) renderCart() string {
	if len(m.pane.lines) == 0 {
		return EmptyCartText
	}

	var sb strings.Builder
	for i, l := range m.pane.lines {
		marker := "  "
		text := LineText(l)
		if i == m.cartCursor && m.focus == focusCart {
			marker = "> "
			text = m.styles.Selected.Render(text)
		}
		sb.WriteString(marker + text + "\n")
		sb.WriteString("  " + m.styles.Muted.Render(SubtotalText(l)) + "\n")
	}
	sb.WriteString(m.styles.Total.Render(TotalText(m.pane.total)))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Button.Render("Pay Now"))
	return sb.String()
}

// Run starts the terminal storefront and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("run storefront ui: %w", err)
	}
	return nil
}
