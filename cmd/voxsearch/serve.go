package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sony/gobreaker"
	"github.com/spf13/cobra"

	"voxsearch/config"
	"voxsearch/internal/application"
	"voxsearch/internal/infra/anthropic"
	"voxsearch/internal/infra/breaker"
	"voxsearch/internal/infra/gemini"
	"voxsearch/internal/infra/httpapi"
	"voxsearch/internal/infra/metrics"
)

func serveCmd() *cobra.Command {
	var addr, provider string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay HTTP server",
		Long: `Run the relay: POST /api/search (and the legacy /gemini-1.5-flash)
prefixes the configured prompt to the user text and returns the generated
answer. Also serves GET /health and GET /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if provider != "" {
				cfg.Relay.Provider = provider
			}
			return runServe(cfg, setupLogger(cfg.Log, os.Stdout))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&provider, "provider", "", "text generator: gemini or anthropic (overrides relay.provider)")
	return cmd
}

func runServe(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signalContext()
	defer stop()

	prompt, err := cfg.Prompt()
	if err != nil {
		return err
	}
	if prompt == "" {
		logger.Warn("relay prompt is empty, user text is forwarded as is")
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	guarded := breaker.New(
		metrics.InstrumentGenerator(generator, m),
		breaker.Settings{
			MaxRequests:  cfg.Breaker.MaxRequests,
			Interval:     durationOr(cfg.Breaker.Interval, time.Minute),
			Timeout:      durationOr(cfg.Breaker.Timeout, 30*time.Second),
			MinRequests:  cfg.Breaker.MinRequests,
			FailureRatio: cfg.Breaker.FailureRatio,
		},
		logger,
		func(name string, state gobreaker.State) {
			m.ObserveBreaker(name, int(state))
		},
	)

	relay := application.NewRelay(guarded, prompt, logger)

	if _, err := httpapi.ParseTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return fmt.Errorf("server.trusted_proxies: %w", err)
	}

	server := httpapi.NewServer(httpapi.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateWindow:     durationOr(cfg.Server.RateWindow, time.Minute),
		RequestTimeout: durationOr(cfg.Server.RequestTimeout, 60*time.Second),
		TrustedProxies: cfg.Server.TrustedProxies,
	}, relay, m, reg, logger)

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	logger.Info("voxsearch relay ready",
		"addr", server.Addr(),
		"provider", relay.Provider(),
	)

	<-ctx.Done()
	logger.Info("shutting down")
	return server.Stop()
}

func newGenerator(cfg *config.Config) (application.TextGenerator, error) {
	retry := retryConfig(cfg.Retry)

	switch cfg.Relay.Provider {
	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("anthropic.api_key is required for provider anthropic")
		}
		return anthropic.NewClaudeClientWithURL(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.BaseURL).
			WithRetry(retry).
			WithMaxTokens(cfg.Anthropic.MaxTokens), nil
	default:
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("gemini.api_key is required for provider gemini")
		}
		return gemini.NewClientWithURL(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL).
			WithRetry(retry), nil
	}
}
