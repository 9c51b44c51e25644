package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"github.com/xadn01/finnepal/pkg/config"
	"github.com/xadn01/finnepal/pkg/logger"
	"github.com/xadn01/finnepal/prometheus"
	"go.uber.org/zap"
)

// Publisher sends serialized domain events to a topic.
type Publisher interface {
	Publish(topic string, event any) error
	Close() error
}

var (
	publisher   Publisher = noopPublisher{}
	topicPrefix           = "finnepal"
)

// Init configures the package-level publisher. Without configured brokers
// events are silently discarded.
func Init(cfg *config.KafkaConfig) {
	if cfg.TopicPrefix != "" {
		topicPrefix = cfg.TopicPrefix
	}
	if cfg.Enabled() {
		publisher = newKafkaPublisher(cfg.Brokers)
	} else {
		publisher = noopPublisher{}
	}
}

// Close flushes and closes the underlying publisher.
func Close() error {
	return publisher.Close()
}

// Topic returns the full topic name for a topic suffix.
func Topic(suffix string) string {
	return topicPrefix + "." + suffix
}

// Emit publishes an event in the background. Failures are logged and counted
// but never propagate to the caller.
func Emit(topicSuffix string, event any) {
	topic := Topic(topicSuffix)
	go func() {
		err := publisher.Publish(topic, event)
		prometheus.RecordEventPublish(topic, err)
		if err != nil {
			logger.GetLogger().Error("Failed to publish event",
				zap.String("topic", topic),
				zap.Error(err))
		}
	}()
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

func newKafkaPublisher(brokers []string) *kafkaPublisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *kafkaPublisher) Publish(topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(
		context.Background(),
		kafka.Message{
			Topic: topic,
			Value: data,
		},
	)
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, any) error { return nil }

func (noopPublisher) Close() error { return nil }
