package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/domain"
	pkgkafka "github.com/7azemaamer/salla-adv-bundler-sub000/pkg/kafka"
)

// Kafka topic constants for bundle lifecycle events.
const (
	TopicBundleCreated     = "salla.bundle.created"
	TopicBundleActivated   = "salla.bundle.activated"
	TopicBundleDeactivated = "salla.bundle.deactivated"
	TopicBundleDeleted     = "salla.bundle.deleted"
	TopicBundleExpired     = "salla.bundle.expired"
)

// Aggregate type constant.
const AggregateTypeBundle = "bundle"

// Source identifier for events originating from the bundler service.
const SourceBundlerService = "bundler-service"

// BundleLifecycleData is the shared payload for bundle lifecycle events.
type BundleLifecycleData struct {
	ID              string `json:"id"`
	StoreID         string `json:"store_id"`
	Name            string `json:"name"`
	TargetProductID string `json:"target_product_id"`
	Status          string `json:"status"`
	TierCount       int    `json:"tier_count"`
	OffersCount     int    `json:"offers_count"`
}

// Producer publishes bundle lifecycle events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for bundle lifecycle events.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic string, b *domain.BundleConfig) error {
	data := BundleLifecycleData{
		ID:              b.ID,
		StoreID:         b.StoreID,
		Name:            b.Name,
		TargetProductID: b.TargetProductID,
		Status:          b.Status,
		TierCount:       len(b.Tiers),
		OffersCount:     b.OffersCount,
	}

	event, err := pkgkafka.NewEvent(topic, b.ID, AggregateTypeBundle, SourceBundlerService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published bundle event",
		slog.String("topic", topic),
		slog.String("bundle_id", b.ID),
		slog.String("store_id", b.StoreID),
	)

	return nil
}

// PublishBundleCreated publishes a bundle.created event.
func (p *Producer) PublishBundleCreated(ctx context.Context, b *domain.BundleConfig) error {
	return p.publish(ctx, TopicBundleCreated, b)
}

// PublishBundleActivated publishes a bundle.activated event.
func (p *Producer) PublishBundleActivated(ctx context.Context, b *domain.BundleConfig) error {
	return p.publish(ctx, TopicBundleActivated, b)
}

// PublishBundleDeactivated publishes a bundle.deactivated event.
func (p *Producer) PublishBundleDeactivated(ctx context.Context, b *domain.BundleConfig) error {
	return p.publish(ctx, TopicBundleDeactivated, b)
}

// PublishBundleDeleted publishes a bundle.deleted event.
func (p *Producer) PublishBundleDeleted(ctx context.Context, b *domain.BundleConfig) error {
	return p.publish(ctx, TopicBundleDeleted, b)
}

// PublishBundleExpired publishes a bundle.expired event.
func (p *Producer) PublishBundleExpired(ctx context.Context, b *domain.BundleConfig) error {
	return p.publish(ctx, TopicBundleExpired, b)
}
