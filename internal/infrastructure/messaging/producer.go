package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookforge-ai-api/pkg/metrics"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	stream Stream
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, stream string, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	s := Stream(stream)
	if s == "" {
		s = StreamDocumentEvents
	}
	return &Producer{client: client, stream: s, maxLen: maxLen}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type": msg.Type,
			"data": string(data),
		},
	}).Result()
	if err != nil {
		metrics.RedisStreamPublished.WithLabelValues(string(stream), "error").Inc()
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.RedisStreamPublished.WithLabelValues(string(stream), "success").Inc()
	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishDocumentEvent 发布文档生命周期事件
func (p *Producer) PublishDocumentEvent(ctx context.Context, evt *DocumentEvent) (string, error) {
	msg, err := NewMessage(evt.DocumentID, evt.Type, evt.UserID, evt)
	if err != nil {
		return "", err
	}
	msg.SetMetadata("status", evt.Status)
	msg.SetMetadata("format", evt.Format)
	return p.Publish(ctx, p.stream, msg)
}

// DocumentEvent 文档事件载荷
type DocumentEvent struct {
	Type       string    `json:"type"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	Profile    string    `json:"profile"`
	Format     string    `json:"format"`
	FileURL    string    `json:"file_url,omitempty"`
	Size       int64     `json:"size,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
