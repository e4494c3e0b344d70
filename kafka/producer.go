package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the part of kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes storefront events to Kafka. The topic is chosen per
// message so one writer serves every event stream.
type Producer struct {
	writer MessageWriter
	logger *zap.Logger
}

func NewProducer(brokers []string, logger *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	logger.Info("kafka producer initialized", zap.Strings("brokers", brokers))
	return NewProducerWithWriter(w, logger)
}

func NewProducerWithWriter(w MessageWriter, logger *zap.Logger) *Producer {
	return &Producer{writer: w, logger: logger}
}

// Publish writes message to topic.
func (p *Producer) Publish(ctx context.Context, topic string, message []byte) error {
	return p.PublishKeyed(ctx, topic, nil, message)
}

// PublishKeyed writes message with a partition key so events for the same
// order land on the same partition.
func (p *Producer) PublishKeyed(ctx context.Context, topic string, key, message []byte) error {
	msg := kafka.Message{Topic: topic, Key: key, Value: message}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("kafka publish failed", zap.String("topic", topic), zap.Error(err))
		return err
	}
	p.logger.Debug("kafka message published", zap.String("topic", topic), zap.Int("bytes", len(message)))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
