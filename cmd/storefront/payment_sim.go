package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pedrignacio/tu-kiosko/handlers"
	"github.com/pedrignacio/tu-kiosko/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func paymentSimCmd(load configLoader) *cobra.Command {
	var (
		port        string
		failureRate float64
	)

	cmd := &cobra.Command{
		Use:   "payment-sim",
		Short: "Serve a local stand-in for the payment provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			logger, err := logging.New("payment-sim", cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			defer logger.Sync()
			setGinMode(cfg.LogLevel)

			publicURL := fmt.Sprintf("http://localhost:%s", port)
			h := handlers.NewPaymentSimHandler(cfg.PaymentAPIKey, publicURL, failureRate, logger)
			logger.Info("starting payment simulator", zap.String("port", port), zap.Float64("failure_rate", failureRate))

			return serveHTTP(cmd.Context(), &http.Server{
				Addr:              ":" + port,
				Handler:           handlers.NewPaymentSimRouter(h, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}, logger)
		},
	}
	cmd.Flags().StringVar(&port, "port", "8082", "Port to listen on")
	cmd.Flags().Float64Var(&failureRate, "failure-rate", 0, "Share of requests answered with 503, from 0 to 1")
	return cmd
}
