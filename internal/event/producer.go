package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jlymoure25/regaltyecommerce/pkg/kafka"
	"github.com/Jlymoure25/regaltyecommerce/pkg/logger"
)

// Topics for storefront domain events.
var (
	TopicCartUpdated       = kafka.Topic("cart", "updated")
	TopicCartCleared       = kafka.Topic("cart", "cleared")
	TopicWishlistUpdated   = kafka.Topic("wishlist", "updated")
	TopicCheckoutCompleted = kafka.Topic("checkout", "completed")
)

// Aggregate types. There is a single visitor, so every event for an aggregate
// shares StorefrontID and therefore one partition.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeWishlist = "wishlist"
	StorefrontID          = "storefront"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront-service"

// Cart and wishlist actions.
const (
	ActionAdded   = "added"
	ActionMerged  = "merged"
	ActionRemoved = "removed"
	ActionCleared = "cleared"
)

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	Action     string `json:"action"`
	ProductID  int    `json:"product_id"`
	Size       string `json:"size,omitempty"`
	Gender     string `json:"gender,omitempty"`
	CustomText string `json:"custom_text,omitempty"`
	Quantity   int    `json:"quantity"`
	ItemCount  int    `json:"item_count"`
	TotalPrice string `json:"total_price"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	Reason       string `json:"reason"`
	LinesRemoved int    `json:"lines_removed"`
}

// WishlistUpdatedData is the payload for a wishlist.updated event.
type WishlistUpdatedData struct {
	Action    string `json:"action"`
	ProductID int    `json:"product_id,omitempty"`
	Size      int    `json:"size"`
}

// CheckoutLine is one purchased cart line.
type CheckoutLine struct {
	ProductID  int    `json:"product_id"`
	Title      string `json:"title"`
	Size       string `json:"size,omitempty"`
	Gender     string `json:"gender,omitempty"`
	CustomText string `json:"custom_text,omitempty"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	Subtotal   string `json:"subtotal"`
}

// CheckoutCompletedData is the payload for a checkout.completed event.
type CheckoutCompletedData struct {
	Reference  string         `json:"reference"`
	Lines      []CheckoutLine `json:"lines"`
	ItemCount  int            `json:"item_count"`
	TotalPrice string         `json:"total_price"`
}

// Publisher emits storefront domain events.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, data CartUpdatedData) error
	PublishCartCleared(ctx context.Context, data CartClearedData) error
	PublishWishlistUpdated(ctx context.Context, data WishlistUpdatedData) error
	PublishCheckoutCompleted(ctx context.Context, data CheckoutCompletedData) error
}

// Sender delivers an envelope to a topic. *kafka.Producer is the production
// implementation.
type Sender interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// Producer builds storefront events and hands them to a Sender.
type Producer struct {
	sender Sender
	logger *slog.Logger
}

// NewProducer creates a producer that publishes through sender.
func NewProducer(sender Sender, logger *slog.Logger) *Producer {
	return &Producer{
		sender: sender,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, data CartUpdatedData) error {
	return p.publish(ctx, TopicCartUpdated, AggregateTypeCart, data,
		slog.String("action", data.Action),
		slog.Int("product_id", data.ProductID),
	)
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, data CartClearedData) error {
	return p.publish(ctx, TopicCartCleared, AggregateTypeCart, data,
		slog.String("reason", data.Reason),
	)
}

// PublishWishlistUpdated publishes a wishlist.updated event.
func (p *Producer) PublishWishlistUpdated(ctx context.Context, data WishlistUpdatedData) error {
	return p.publish(ctx, TopicWishlistUpdated, AggregateTypeWishlist, data,
		slog.String("action", data.Action),
		slog.Int("product_id", data.ProductID),
	)
}

// PublishCheckoutCompleted publishes a checkout.completed event.
func (p *Producer) PublishCheckoutCompleted(ctx context.Context, data CheckoutCompletedData) error {
	return p.publish(ctx, TopicCheckoutCompleted, AggregateTypeCart, data,
		slog.String("reference", data.Reference),
		slog.String("total_price", data.TotalPrice),
	)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateType string, data any, attrs ...slog.Attr) error {
	opts := []kafka.EventOption{kafka.WithAggregate(aggregateType, StorefrontID)}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		opts = append(opts, kafka.WithCorrelationID(id))
	}

	evt, err := kafka.NewEvent(topic, SourceStorefront, data, opts...)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.sender.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.LogAttrs(ctx, slog.LevelDebug, "published "+topic+" event",
		append(attrs, slog.String("event_id", evt.EventID))...,
	)
	return nil
}

// LogSender writes events to the log instead of a broker. It is used when
// Kafka is disabled.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that logs each event at info level.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Publish logs the envelope and never fails.
func (s *LogSender) Publish(ctx context.Context, topic string, event *kafka.Event) error {
	s.logger.InfoContext(ctx, "storefront event",
		slog.String("topic", topic),
		slog.String("event_id", event.EventID),
		slog.String("event_type", event.EventType),
		slog.String("data", string(event.Data)),
	)
	return nil
}
