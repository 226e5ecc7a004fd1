package noop

import (
	"context"

	"waterworks_backend/internals/mq"
)

// Publisher drops every message. Used when AMQP_URL is not set.
type Publisher struct{}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(ctx context.Context, topic string, body []byte) error {
	return nil
}

func (p *Publisher) Close() {}

var _ mq.Publisher = (*Publisher)(nil)
