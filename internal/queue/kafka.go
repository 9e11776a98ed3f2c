package queue

import (
	"context"
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
)

var _ SyncEventQueue = (*Kafka)(nil)

// Kafka publishes sync events to a kafka topic, keyed by link id so one
// link's events stay ordered.
type Kafka struct {
	producer *kafka.Producer
	topic    string
}

func NewKafka(brokers, topic string) (*Kafka, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return nil, err
	}

	k := &Kafka{producer: producer, topic: topic}
	go k.drainEvents()

	return k, nil
}

// drainEvents logs delivery failures, delivery is fire and forget.
func (k *Kafka) drainEvents() {
	for e := range k.producer.Events() {
		if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			logrus.Warnf("sync event delivery failed: %v", m.TopicPartition.Error)
		}
	}
}

func (k *Kafka) PublishSyncEvent(ctx context.Context, event *SyncEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.LinkID),
		Value:          payload,
	}, nil)
}

func (k *Kafka) Close() error {
	k.producer.Flush(5000)
	k.producer.Close()
	return nil
}
