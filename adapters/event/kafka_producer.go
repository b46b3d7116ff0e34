package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/cloudvid/internal/application/service"
	"github.com/khoahotran/cloudvid/internal/config"
	"github.com/khoahotran/cloudvid/internal/domain/video"
	"github.com/khoahotran/cloudvid/pkg/logger"
)

const TopicVideoEvents = "video.events"

type KafkaProducerClient struct {
	VideoEventsWriter *kafka.Writer
	logger            logger.Logger
}

var _ service.EventPublisher = (*KafkaProducerClient)(nil)

// NewKafkaProducerClient returns nil when no brokers are configured. The
// writer is async: delivery failures are logged from the completion hook.
func NewKafkaProducerClient(cfg config.Config, log logger.Logger) *KafkaProducerClient {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("No Kafka brokers configured, video events disabled")
		return nil
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        TopicVideoEvents,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err == nil {
				return
			}
			for _, m := range messages {
				log.Error("Failed to deliver video event", err, zap.String("key", string(m.Key)))
			}
		},
	}

	log.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", TopicVideoEvents))
	return &KafkaProducerClient{VideoEventsWriter: writer, logger: log}
}

// PublishVideoEvent keys messages by public_id so events for one video stay
// ordered within a partition.
func (c *KafkaProducerClient) PublishVideoEvent(ctx context.Context, e video.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal video event: %w", err)
	}

	msg := kafka.Message{Key: []byte(e.PublicID), Value: payload}
	if err := c.VideoEventsWriter.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish video event: %w", err)
	}

	c.logger.Debug("Published video event", zap.String("event_type", string(e.Type)), zap.String("public_id", e.PublicID))
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c == nil || c.VideoEventsWriter == nil {
		return
	}
	if err := c.VideoEventsWriter.Close(); err != nil {
		c.logger.Error("Failed to close Kafka producer", err)
		return
	}
	c.logger.Info("Closed Kafka producer")
}

func DecodeVideoEvent(value []byte) (video.Event, error) {
	var e video.Event
	if err := json.Unmarshal(value, &e); err != nil {
		return video.Event{}, fmt.Errorf("failed to decode video event: %w", err)
	}
	return e, nil
}
