package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-registration/internal/models"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer}
}

// Publish writes a raw message to the given topic.
func (p *Producer) Publish(topic, key string, value []byte) error {
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

func (p *Producer) publishRegistration(topic string, reg models.Registration) error {
	msgBytes, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to marshal registration %s: %w", reg.RegistrationID, err)
	}
	return p.Publish(topic, reg.RegistrationID, msgBytes)
}

func (p *Producer) PublishRegistrationCreated(reg models.Registration) error {
	return p.publishRegistration(TopicRegistrationCreated, reg)
}

func (p *Producer) PublishRegistrationUpdated(reg models.Registration) error {
	return p.publishRegistration(TopicRegistrationUpdated, reg)
}

func (p *Producer) PublishRegistrationCancelled(reg models.Registration) error {
	return p.publishRegistration(TopicRegistrationCancelled, reg)
}

func (p *Producer) PublishRegistrationCheckedIn(reg models.Registration) error {
	return p.publishRegistration(TopicRegistrationCheckedIn, reg)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
