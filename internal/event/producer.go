package event

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

// Kafka topic constants for storefront domain events.
const (
	TopicProductCreated  = "storefront.product.created"
	TopicProductUpdated  = "storefront.product.updated"
	TopicProductDeleted  = "storefront.product.deleted"
	TopicProductReviewed = "storefront.product.reviewed"
	TopicOrderCreated    = "storefront.order.created"
	TopicOrderPaid       = "storefront.order.paid"
	TopicOrderDelivered  = "storefront.order.delivered"
)

// Aggregate type constants.
const (
	AggregateTypeProduct = "product"
	AggregateTypeOrder   = "order"
)

// Source identifies events originating from this service.
const Source = "storefront"

// ProductData is the payload of product.created and product.updated.
type ProductData struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	CategoryID string         `json:"category_id"`
	Brand      string         `json:"brand"`
	Price      int64          `json:"price"`
	Quantity   int            `json:"quantity"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ProductDeletedData is the payload of product.deleted.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// ProductReviewedData is the payload of product.reviewed.
type ProductReviewedData struct {
	ProductID  string  `json:"product_id"`
	ReviewID   string  `json:"review_id"`
	UserID     string  `json:"user_id"`
	Rating     int     `json:"rating"`
	NumReviews int     `json:"num_reviews"`
	AvgRating  float64 `json:"avg_rating"`
}

// OrderData is the payload of the order events.
type OrderData struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	TotalPrice  int64  `json:"total_price"`
	ItemCount   int    `json:"item_count"`
	IsPaid      bool   `json:"is_paid"`
	IsDelivered bool   `json:"is_delivered"`
}

// Producer publishes storefront domain events. A Producer without a sender
// drops every event.
type Producer struct {
	sender Sender
	logger *slog.Logger
}

// NewProducer creates an event producer. sender may be nil when Kafka is
// disabled.
func NewProducer(sender Sender, logger *slog.Logger) *Producer {
	return &Producer{
		sender: sender,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateType, aggregateID string, data any) error {
	if p == nil || p.sender == nil {
		return nil
	}

	eventType := strings.TrimPrefix(topic, Source+".")
	evt, err := pkgkafka.NewEvent(ctx, eventType, aggregateType, aggregateID, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if err := p.sender.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

func productData(product *domain.Product) ProductData {
	return ProductData{
		ID:         product.ID,
		Name:       product.Name,
		CategoryID: product.CategoryID,
		Brand:      product.Brand,
		Price:      product.Price,
		Quantity:   product.Quantity,
		Metadata:   product.Metadata,
	}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, AggregateTypeProduct, product.ID, productData(product))
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, AggregateTypeProduct, product.ID, productData(product))
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicProductDeleted, AggregateTypeProduct, id, ProductDeletedData{ID: id})
}

// PublishProductReviewed publishes a product.reviewed event carrying the
// recomputed aggregates.
func (p *Producer) PublishProductReviewed(ctx context.Context, product *domain.Product, review *domain.Review) error {
	return p.publish(ctx, TopicProductReviewed, AggregateTypeProduct, product.ID, ProductReviewedData{
		ProductID:  product.ID,
		ReviewID:   review.ID,
		UserID:     review.UserID,
		Rating:     review.Rating,
		NumReviews: product.NumReviews,
		AvgRating:  product.Rating,
	})
}

func orderData(o *domain.Order) OrderData {
	return OrderData{
		ID:          o.ID,
		UserID:      o.UserID,
		TotalPrice:  o.TotalPrice,
		ItemCount:   len(o.Items),
		IsPaid:      o.IsPaid,
		IsDelivered: o.IsDelivered,
	}
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, TopicOrderCreated, AggregateTypeOrder, o.ID, orderData(o))
}

// PublishOrderPaid publishes an order.paid event.
func (p *Producer) PublishOrderPaid(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, TopicOrderPaid, AggregateTypeOrder, o.ID, orderData(o))
}

// PublishOrderDelivered publishes an order.delivered event.
func (p *Producer) PublishOrderDelivered(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, TopicOrderDelivered, AggregateTypeOrder, o.ID, orderData(o))
}
