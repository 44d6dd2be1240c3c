package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Event types published by the storefront.
const (
	EventCartUpdated      = "cart.updated"
	EventCartPayRequested = "cart.pay_requested"
)

// Kafka topics for storefront cart events.
var (
	TopicCartUpdated      = pkgkafka.Topic("storefront", EventCartUpdated)
	TopicCartPayRequested = pkgkafka.Topic("storefront", EventCartPayRequested)
)

// Aggregate type constant.
const AggregateTypeCart = "cart"

// SourceStorefront identifies events originating from the storefront.
const SourceStorefront = "storefront"

// DefaultPublishTimeout bounds a publish triggered by a cart notification.
const DefaultPublishTimeout = 5 * time.Second

// CartLineData is one line of a cart event payload.
type CartLineData struct {
	ProductID int    `json:"product_id"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID   string         `json:"session_id"`
	Items       []CartLineData `json:"items"`
	ItemCount   int            `json:"item_count"`
	TotalAmount string         `json:"total_amount"`
}

// CartPayRequestedData is the payload for a cart.pay_requested event.
type CartPayRequestedData struct {
	SessionID   string `json:"session_id"`
	ItemCount   int    `json:"item_count"`
	TotalAmount string `json:"total_amount"`
}

// Publisher is the subset of pkg/kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront cart events to Kafka.
type Producer struct {
	kafka   Publisher
	logger  *slog.Logger
	timeout time.Duration
	host    string
}

// NewProducer creates a new event producer for the storefront.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Producer{
		kafka:   kafka,
		logger:  logger,
		timeout: DefaultPublishTimeout,
	}
}

// WithHost returns a copy of p that tags every event with the host that
// produced it ("http" or "tui").
func (p *Producer) WithHost(host string) *Producer {
	cp := *p
	cp.host = host
	return &cp
}

// stamp copies request-scoped identifiers onto the event.
func (p *Producer) stamp(ctx context.Context, event *pkgkafka.Event) *pkgkafka.Event {
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	if p.host != "" {
		event.WithMetadata("host", p.host)
	}
	return event
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, sessionID string, lines []domain.CartLine, total decimal.Decimal, itemCount int) error {
	items := make([]CartLineData, 0, len(lines))
	for _, l := range lines {
		items = append(items, CartLineData{
			ProductID: l.ID,
			Title:     l.Title,
			Price:     l.Price.StringFixed(2),
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal().StringFixed(2),
		})
	}

	data := CartUpdatedData{
		SessionID:   sessionID,
		Items:       items,
		ItemCount:   itemCount,
		TotalAmount: total.StringFixed(2),
	}

	event, err := pkgkafka.NewEvent(EventCartUpdated, sessionID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, p.stamp(ctx, event)); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session_id", sessionID),
		slog.Int("item_count", itemCount),
	)

	return nil
}

// PublishPayRequested publishes a cart.pay_requested event.
func (p *Producer) PublishPayRequested(ctx context.Context, sessionID string, total decimal.Decimal, itemCount int) error {
	data := CartPayRequestedData{
		SessionID:   sessionID,
		ItemCount:   itemCount,
		TotalAmount: total.StringFixed(2),
	}

	event, err := pkgkafka.NewEvent(EventCartPayRequested, sessionID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.pay_requested event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartPayRequested, p.stamp(ctx, event)); err != nil {
		return fmt.Errorf("publish cart.pay_requested event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.pay_requested event",
		slog.String("session_id", sessionID),
		slog.String("total_amount", data.TotalAmount),
	)

	return nil
}

// ForSession returns a cart renderer that publishes cart.updated for the
// given session after every change. Publish failures are logged and never
// reach the cart.
func (p *Producer) ForSession(sessionID string) cart.Renderer {
	return cart.RendererFunc(func(lines []domain.CartLine, total decimal.Decimal, itemCount int) {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		if err := p.PublishCartUpdated(ctx, sessionID, lines, total, itemCount); err != nil {
			p.logger.Error("failed to publish cart update",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
	})
}
