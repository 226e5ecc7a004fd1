package mq

import "context"

// Publisher sends a message body to a topic. Implementations: rabbitmq, noop.
//
//go:generate mockgen -destination=mocks/mock_publisher.go -package=mocks -source=mq.go Publisher
type Publisher interface {
	Publish(ctx context.Context, topic string, body []byte) error
	Close()
}
