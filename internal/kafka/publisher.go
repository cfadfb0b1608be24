package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

//go:generate mockgen -source internal/kafka/publisher.go -destination=internal/kafka/publisher_mock_test.go -package=kafka

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher hands notifications to a relay topic instead of a chat network.
// The subscriber id is the message key so one recipient stays on one
// partition.
type Publisher struct {
	writer Writer
	topic  string
	logger *zap.Logger
}

func NewWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: false,
		BatchTimeout:           50 * time.Millisecond,
	}
}

func NewPublisher(writer Writer, topic string, logger *zap.Logger) *Publisher {
	return &Publisher{
		writer: writer,
		topic:  topic,
		logger: logger,
	}
}

func (p *Publisher) SendMessage(ctx context.Context, subscriberID int64, text string) error {
	msg := kafkago.Message{
		Key:   []byte(strconv.FormatInt(subscriberID, 10)),
		Value: []byte(text),
		Headers: []kafkago.Header{
			{Key: "content-type", Value: []byte("text/plain; charset=utf-8")},
		},
		Time: time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	p.logger.Debug("Notification published",
		zap.String("topic", p.topic),
		zap.Int64("subscriber_id", subscriberID),
		zap.Int("value_bytes", len(msg.Value)),
	)
	return nil
}

func (p *Publisher) Close() error { return p.writer.Close() }
