package kafka

import (
	"github.com/segmentio/kafka-go"
)

const (
	TopicRegistrationCreated   = "registrations.registration.created"
	TopicRegistrationUpdated   = "registrations.registration.updated"
	TopicRegistrationCancelled = "registrations.registration.cancelled"
	TopicRegistrationCheckedIn = "registrations.registration.checkedin"
)

// RequiredTopics lists every topic this service publishes to.
func RequiredTopics() []string {
	return []string{
		TopicRegistrationCreated,
		TopicRegistrationUpdated,
		TopicRegistrationCancelled,
		TopicRegistrationCheckedIn,
	}
}

// EnsureTopicsExist creates the topics on the cluster if they are missing.
func EnsureTopicsExist(brokers []string, topics []string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", controller.Host)
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	topicConfigs := make([]kafka.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		topicConfigs = append(topicConfigs, kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}

	return controllerConn.CreateTopics(topicConfigs...)
}
