package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/tui"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

// Browser is the terminal storefront with the connections it holds.
type Browser struct {
	model    tui.Model
	backend  *CatalogBackend
	producer *pkgkafka.Producer
	logger   *slog.Logger
}

// NewBrowser wires the terminal storefront. logger must not write to the
// terminal the UI draws on.
func NewBrowser(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Browser, error) {
	backend, err := NewCatalogBackend(ctx, cfg, nil, logger)
	if err != nil {
		return nil, err
	}

	opts := []tui.Option{
		tui.WithPageSize(cfg.PageSize),
		tui.WithLogger(logger),
		tui.WithLoadTimeout(cfg.CatalogTimeout),
	}

	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.InteractiveProducerConfig(cfg.KafkaBrokers), logger)
		eventProducer := event.NewProducer(producer, logger).WithHost("tui")
		sessionID := uuid.NewString()
		opts = append(opts,
			tui.WithRenderers(eventProducer.ForSession(sessionID)),
			tui.WithPayFunc(payPublisher(eventProducer, sessionID, logger)),
		)
		logger.Info("kafka producer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("session_id", sessionID),
		)
	}

	return &Browser{
		model:    tui.New(backend.Fetcher, opts...),
		backend:  backend,
		producer: producer,
		logger:   logger,
	}, nil
}

// Run blocks until the user quits or ctx is cancelled, then releases the
// browser's connections.
func (b *Browser) Run(ctx context.Context) error {
	runErr := tui.Run(ctx, b.model)

	var errs []error
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		errs = append(errs, runErr)
	}
	if b.producer != nil {
		if err := b.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka producer: %w", err))
		}
	}
	if err := b.backend.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func payPublisher(p *event.Producer, sessionID string, logger *slog.Logger) tui.PayFunc {
	return func(total decimal.Decimal, itemCount int) {
		ctx, cancel := context.WithTimeout(context.Background(), event.DefaultPublishTimeout)
		defer cancel()
		if err := p.PublishPayRequested(ctx, sessionID, total, itemCount); err != nil {
			logger.Error("failed to publish pay request",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
	}
}
