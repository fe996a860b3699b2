package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pedrignacio/tu-kiosko/config"
	"github.com/pedrignacio/tu-kiosko/consumer"
	"github.com/pedrignacio/tu-kiosko/logging"
	"github.com/pedrignacio/tu-kiosko/metrics"
	"github.com/pedrignacio/tu-kiosko/orders"
	"github.com/pedrignacio/tu-kiosko/rabbitmq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func orderConsumerCmd(load configLoader) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "order-consumer",
		Short: "Consume placed orders from RabbitMQ into the order history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runOrderConsumer(cmd.Context(), cfg, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9091", "Address for /metrics (empty disables)")
	return cmd
}

func runOrderConsumer(ctx context.Context, cfg *config.Config, metricsAddr string) error {
	logger, err := logging.New("order-consumer", cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting order consumer",
		zap.String("queue", cfg.RabbitMQQueue),
		zap.Int("workers", cfg.NumWorkers),
	)

	_, store, closeState, err := openState(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeState()

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	setup, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := rabbitmq.DeclareQueue(setup, cfg.RabbitMQQueue); err != nil {
		setup.Close()
		return err
	}
	setup.Close()

	reg := newRegistry()
	m := metrics.New(reg)
	tracker := orders.NewTracker()

	g, gctx := errgroup.WithContext(ctx)
	var wg sync.WaitGroup
	for i := 1; i <= cfg.NumWorkers; i++ {
		worker, err := consumer.NewWorker(i, conn, cfg.RabbitMQQueue, store, tracker, logger)
		if err != nil {
			return err
		}
		worker.CountInto(m.OrdersConsumed)
		wg.Add(1)
		g.Go(func() error {
			return worker.Start(gctx, &wg)
		})
	}
	logger.Info("all workers started", zap.Int("workers", cfg.NumWorkers))

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		g.Go(func() error {
			return serveHTTP(gctx, srv, logger)
		})
	}

	err = g.Wait()
	wg.Wait()
	tracker.LogSummary(logger)
	return err
}
