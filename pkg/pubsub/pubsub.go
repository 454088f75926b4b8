package pubsub

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte)
	Close()
}

type kafkaPublisher struct {
	logger   *logrus.Logger
	producer *kafka.Producer
}

// PublisherFromConfluentKafkaProducer wraps a confluent producer behind
// the Publisher interface. Delivery reports are drained in the
// background and failures are logged, not surfaced to the caller.
func PublisherFromConfluentKafkaProducer(logger *logrus.Logger, producer *kafka.Producer) Publisher {
	p := &kafkaPublisher{
		logger:   logger,
		producer: producer,
	}

	go p.watchDeliveryReport()

	return p
}

func (p *kafkaPublisher) watchDeliveryReport() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.logger.WithError(ev.TopicPartition.Error).Error("message delivery failed")
			}
		}
	}
}

// Publish implements Publisher.
func (p *kafkaPublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) {
	kafkaHeaders := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: k, Value: []byte(v)})
	}

	err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:     []byte(key),
		Value:   message,
		Headers: kafkaHeaders,
	}, nil)
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("an error occurred while publishing message")
	}
}

// Close implements Publisher.
func (p *kafkaPublisher) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
}
