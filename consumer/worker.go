package consumer

import (
	"context"
	"fmt"
	"sync"

	"github.com/pedrignacio/tu-kiosko/orders"
	"github.com/pedrignacio/tu-kiosko/rabbitmq"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Worker consumes order messages from one channel and records them in the order history.
type Worker struct {
	workerID  int
	channel   *amqp.Channel
	queueName string
	store     orders.Store
	tracker   *orders.Tracker
	consumed  prometheus.Counter
	logger    *zap.Logger
}

func NewWorker(workerID int, conn *amqp.Connection, queueName string, store orders.Store, tracker *orders.Tracker, logger *zap.Logger) (*Worker, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel for worker %d: %w", workerID, err)
	}

	// one unacked message per worker
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to set QoS for worker %d: %w", workerID, err)
	}

	return newWorker(workerID, ch, queueName, store, tracker, logger), nil
}

func newWorker(workerID int, ch *amqp.Channel, queueName string, store orders.Store, tracker *orders.Tracker, logger *zap.Logger) *Worker {
	return &Worker{
		workerID:  workerID,
		channel:   ch,
		queueName: queueName,
		store:     store,
		tracker:   tracker,
		logger:    logger.With(zap.Int("worker", workerID)),
	}
}

// CountInto makes the worker increment c for every order it records.
func (w *Worker) CountInto(c prometheus.Counter) *Worker {
	w.consumed = c
	return w
}

// Start consumes until the channel closes or ctx is done.
func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup) error {
	defer wg.Done()
	defer w.channel.Close()

	msgs, err := w.channel.Consume(
		w.queueName,                          // queue
		fmt.Sprintf("worker-%d", w.workerID), // consumer tag
		false,                                // auto-ack
		false,                                // exclusive
		false,                                // no-local
		false,                                // no-wait
		nil,                                  // args
	)
	if err != nil {
		return fmt.Errorf("worker %d failed to register consumer: %w", w.workerID, err)
	}

	w.logger.Info("worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Info("delivery channel closed")
				return nil
			}
			w.processMessage(ctx, msg)
		}
	}
}

func (w *Worker) processMessage(ctx context.Context, msg amqp.Delivery) {
	order, err := rabbitmq.DecodeOrder(msg.Body)
	if err != nil {
		w.logger.Warn("dropping malformed order", zap.Error(err))
		// malformed, do not requeue
		if nackErr := msg.Nack(false, false); nackErr != nil {
			w.logger.Error("failed to nack message", zap.Error(nackErr))
		}
		return
	}

	if err := w.store.Save(ctx, order); err != nil {
		w.logger.Error("failed to store order", zap.String("order_id", order.OrderID), zap.Error(err))
		if nackErr := msg.Nack(false, true); nackErr != nil {
			w.logger.Error("failed to nack message", zap.Error(nackErr))
		}
		return
	}

	total, first := w.tracker.RecordOrder(order)
	if first && w.consumed != nil {
		w.consumed.Inc()
	}

	if err := msg.Ack(false); err != nil {
		w.logger.Error("failed to acknowledge message", zap.String("order_id", order.OrderID), zap.Error(err))
		return
	}
	w.logger.Info("processed order",
		zap.String("order_id", order.OrderID),
		zap.Int64("total_orders", total),
		zap.Bool("redelivered", !first),
	)
}
