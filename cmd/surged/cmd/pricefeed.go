package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/surgeswap/surge/pricefeed"
)

// NewPriceFeedCmd runs the price feed service until interrupted.
func NewPriceFeedCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "pricefeed",
		Short: "Serve AMM pair prices over HTTP",
		Long: `Serve AMM pair prices over HTTP.

Quotes come from the chain node's TWAP API first, an external aggregator
second, and a short-lived last-known-good cache when both are down.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.NewLogger(cmd.OutOrStderr())

			cfg, err := pricefeed.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			client := &http.Client{Timeout: cfg.RequestTimeout}
			var sources []pricefeed.Source
			if cfg.NodeAPIURL != "" {
				sources = append(sources, pricefeed.NewHTTPSource("node", cfg.NodeAPIURL, client))
			}
			if cfg.AggregatorURL != "" {
				sources = append(sources, pricefeed.NewHTTPSource("aggregator", cfg.AggregatorURL, client))
			}

			// Validate guarantees the string parses.
			maxDeviation := sdkmath.LegacyMustNewDecFromStr(cfg.MaxPriceDeviation)
			feed := pricefeed.NewFeed(sources, maxDeviation, cfg.CacheTTL, logger)
			server := pricefeed.NewServer(cfg, feed, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
			defer cancel()
			return server.Stop(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to the price feed config file")

	return cmd
}
