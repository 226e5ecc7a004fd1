package rabbitmq

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"waterworks_backend/internals/mq"
)

// Publisher publishes persistent JSON messages to a topic exchange.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewPublisher dials url and declares a durable topic exchange.
func NewPublisher(url, exchange string, logger *zap.Logger) (*Publisher, error) {
	log := logger.Named("rabbitmq")

	conn, err := amqp.Dial(url)
	if err != nil {
		log.Error("failed to connect to RabbitMQ", zap.Error(err))
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Error("failed to open a channel", zap.Error(err))
		if cerr := conn.Close(); cerr != nil {
			log.Error("failed to close connection after channel failure", zap.Error(cerr))
		}
		return nil, err
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		log.Error("failed to declare exchange", zap.String("exchange", exchange), zap.Error(err))
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	log.Info("connected to RabbitMQ", zap.String("exchange", exchange))
	return &Publisher{conn: conn, channel: ch, exchange: exchange, logger: log}, nil
}

func (p *Publisher) Publish(ctx context.Context, topic string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.channel.PublishWithContext(ctx,
		p.exchange,
		topic,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("failed to publish", zap.String("topic", topic), zap.Error(err))
		return err
	}
	p.logger.Debug("message published", zap.String("topic", topic), zap.ByteString("body", body))
	return nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Error("failed to close channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Error("failed to close connection", zap.Error(err))
		}
	}
	p.logger.Info("RabbitMQ connection closed")
}

var _ mq.Publisher = (*Publisher)(nil)
