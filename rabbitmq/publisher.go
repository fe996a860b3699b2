package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pedrignacio/tu-kiosko/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var ErrNotConfirmed = errors.New("broker did not confirm order")

type Publisher struct {
	pool      *ChannelPool
	queueName string
	logger    *zap.Logger
}

func NewPublisher(pool *ChannelPool, queueName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		pool:      pool,
		queueName: queueName,
		logger:    logger,
	}
}

// PublishOrder publishes a persistent order message and waits for the broker's ack.
func (p *Publisher) PublishOrder(ctx context.Context, order models.Order) error {
	ch, err := p.pool.GetChannel()
	if err != nil {
		return fmt.Errorf("failed to get channel from pool: %w", err)
	}
	defer p.pool.ReturnChannel(ch)

	body, err := EncodeOrder(order)
	if err != nil {
		return err
	}

	confirmation, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key (queue name)
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    order.OrderID,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish order: %w", err)
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed waiting for confirm: %w", err)
	}
	if !acked {
		return ErrNotConfirmed
	}

	p.logger.Info("published order", zap.String("order_id", order.OrderID), zap.String("queue", p.queueName))
	return nil
}

func EncodeOrder(order models.Order) ([]byte, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order: %w", err)
	}
	return body, nil
}

func DecodeOrder(body []byte) (models.Order, error) {
	var order models.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return models.Order{}, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	if order.OrderID == "" {
		return models.Order{}, fmt.Errorf("order message has no order_id")
	}
	return order, nil
}
