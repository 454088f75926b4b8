package kafka

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/Praitheesh/alf.io/config"
)

// NewProducer builds a confluent kafka producer from the application
// configuration.
func NewProducer() *kafka.Producer {
	c := config.Get()

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": c.Kafka.BootstrapServers,
		"acks":              "all",
	})
	if err != nil {
		panic(err)
	}

	return p
}
