package services

import (
	"context"
	"encoding/json"
	"time"

	"storefront-service/models"

	"go.uber.org/zap"
)

// EventPublisher delivers a serialized event to a topic. Implemented by the
// SNS client (topic is an ARN) and the Kafka producer (topic is a name).
type EventPublisher interface {
	Publish(ctx context.Context, topic string, message []byte) error
}

// keyedPublisher is implemented by publishers that can partition by key.
type keyedPublisher interface {
	PublishKeyed(ctx context.Context, topic string, key, message []byte) error
}

// typedPublisher is implemented by publishers that carry the event type as
// message metadata.
type typedPublisher interface {
	PublishWithType(ctx context.Context, topic, eventType string, message []byte) error
}

// MetricsRecorder records business counters. Implemented by *aws.MetricsClient.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordValue(ctx context.Context, metricName string, value float64, dimensions map[string]string) error
}

const publishTimeout = 5 * time.Second

// EventEmitter wraps a publisher and topic. Publishing is best effort: a
// failure is logged and never reaches the caller.
type EventEmitter struct {
	publisher EventPublisher
	topic     string
	logger    *zap.Logger
	now       func() time.Time
}

// NewEventEmitter returns an emitter; a nil publisher yields an emitter that
// drops every event.
func NewEventEmitter(publisher EventPublisher, topic string, logger *zap.Logger) *EventEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventEmitter{publisher: publisher, topic: topic, logger: logger, now: time.Now}
}

func (e *EventEmitter) Emit(ctx context.Context, eventType, key string, data any) {
	if e == nil || e.publisher == nil {
		return
	}

	body, err := json.Marshal(models.Event{Type: eventType, Key: key, OccurredAt: e.now().UTC(), Data: data})
	if err != nil {
		e.logger.Error("failed to marshal event", zap.String("type", eventType), zap.Error(err))
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	switch p := e.publisher.(type) {
	case keyedPublisher:
		err = p.PublishKeyed(pubCtx, e.topic, []byte(key), body)
	case typedPublisher:
		err = p.PublishWithType(pubCtx, e.topic, eventType, body)
	default:
		err = p.Publish(pubCtx, e.topic, body)
	}
	if err != nil {
		e.logger.Warn("event publish failed", zap.String("type", eventType), zap.String("key", key), zap.Error(err))
		return
	}
	e.logger.Debug("event published", zap.String("type", eventType), zap.String("key", key))
}

// recordCount is a nil-safe helper around MetricsRecorder.
func recordCount(ctx context.Context, m MetricsRecorder, name string, dims map[string]string) {
	if m == nil {
		return
	}
	_ = m.RecordCount(context.WithoutCancel(ctx), name, dims)
}

func recordValue(ctx context.Context, m MetricsRecorder, name string, value float64, dims map[string]string) {
	if m == nil {
		return
	}
	_ = m.RecordValue(context.WithoutCancel(ctx), name, value, dims)
}
