package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pedrignacio/tu-kiosko/cart"
	"github.com/pedrignacio/tu-kiosko/catalog"
	"github.com/pedrignacio/tu-kiosko/checkout"
	"github.com/pedrignacio/tu-kiosko/clients"
	"github.com/pedrignacio/tu-kiosko/config"
	"github.com/pedrignacio/tu-kiosko/favorites"
	"github.com/pedrignacio/tu-kiosko/handlers"
	"github.com/pedrignacio/tu-kiosko/logging"
	"github.com/pedrignacio/tu-kiosko/metrics"
	"github.com/pedrignacio/tu-kiosko/orders"
	"github.com/pedrignacio/tu-kiosko/rabbitmq"
	"github.com/pedrignacio/tu-kiosko/statestore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the storefront HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New("storefront", cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	setGinMode(cfg.LogLevel)

	backend, orderStore, closeState, err := openState(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeState()

	source, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}

	submitter, closeSubmitter, err := openSubmitter(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSubmitter()

	pipeline := checkout.NewPipeline(checkout.Config{
		Pricing: checkout.Pricing{
			FreeShippingThreshold: decimal.NewFromInt(cfg.FreeShippingThreshold),
			FlatShippingCost:      decimal.NewFromInt(cfg.FlatShippingCost),
		},
		SubmitTimeout: cfg.SubmitTimeout,
		MaxRetries:    cfg.MaxRetries,
	}, submitter, orderStore, logger.Named("checkout"))

	carts := cart.NewManager(backend)
	favs := favorites.NewManager(backend)
	go sweepIdle(ctx, cfg.SessionIdleTTL, logger.Named("sweeper"), map[string]sweeper{
		"carts":     carts,
		"favorites": favs,
		"checkout":  pipeline,
	})

	reg := newRegistry()
	router := handlers.NewRouter(handlers.Dependencies{
		Catalog:   source,
		Carts:     carts,
		Favorites: favs,
		Pipeline:  pipeline,
		Orders:    orderStore,
		Payments:  clients.NewPaymentClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey, cfg.PublicBaseURL),
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
		Logger:    logger,
	})

	logger.Info("starting storefront",
		zap.String("port", cfg.Port),
		zap.String("state_backend", cfg.StateBackend),
		zap.String("catalog_source", cfg.CatalogSource),
		zap.String("order_submitter", cfg.OrderSubmitter),
	)
	return serveHTTP(ctx, &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}, logger)
}

type sweeper interface {
	Sweep(idle time.Duration) int
}

// sweepIdle drops per-session state idle for longer than ttl until ctx is done.
func sweepIdle(ctx context.Context, ttl time.Duration, logger *zap.Logger, sweepers map[string]sweeper) {
	interval := ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, s := range sweepers {
				if n := s.Sweep(ttl); n > 0 {
					logger.Debug("evicted idle sessions", zap.String("kind", name), zap.Int("count", n))
				}
			}
		}
	}
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// serveHTTP runs srv until ctx is done, then shuts it down gracefully.
func serveHTTP(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.String("addr", srv.Addr))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openState(ctx context.Context, cfg *config.Config) (statestore.Backend, orders.Store, func(), error) {
	if cfg.StateBackend != "redis" {
		return statestore.NewMemoryBackend(), orders.NewMemoryStore(), func() {}, nil
	}

	client, err := statestore.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() { client.Close() }
	return statestore.NewRedisBackend(client, ""), orders.NewRedisStore(client, ""), closeFn, nil
}

func openCatalog(ctx context.Context, cfg *config.Config) (catalog.Source, error) {
	if cfg.CatalogSource == "rest" {
		return catalog.NewRESTSource(cfg.CatalogURL, cfg.CatalogAPIKey), nil
	}
	source := catalog.NewMemorySource()
	if err := source.Seed(ctx); err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	return source, nil
}

func openSubmitter(cfg *config.Config, logger *zap.Logger) (checkout.OrderSubmitter, func(), error) {
	if cfg.OrderSubmitter != "rabbitmq" {
		return checkout.DelaySubmitter{Delay: cfg.ProcessingDelay}, func() {}, nil
	}

	pool, err := rabbitmq.NewChannelPool(cfg.RabbitMQURL, cfg.RabbitMQQueue, cfg.ChannelPoolSize, logger.Named("rabbitmq"))
	if err != nil {
		return nil, nil, err
	}
	publisher := rabbitmq.NewPublisher(pool, cfg.RabbitMQQueue, logger.Named("rabbitmq"))
	return checkout.PublishSubmitter{Publisher: publisher}, pool.Close, nil
}
