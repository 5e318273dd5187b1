package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/decsa/utility-chat-platform/internal/app/bootstrap"
	"github.com/decsa/utility-chat-platform/internal/channels/telegram"
	appconfig "github.com/decsa/utility-chat-platform/internal/config"
	"github.com/decsa/utility-chat-platform/internal/observability/metrics"
	"github.com/decsa/utility-chat-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TelegramBotToken == "" {
		logger.Error("bot poller requires TELEGRAM_BOT_TOKEN")
		os.Exit(1)
	}

	rt, err := bootstrap.BuildRuntime(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build runtime", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	poller := telegram.NewPoller(telegram.PollerConfig{
		Client:      telegram.NewClient(cfg.TelegramBotToken),
		Engine:      rt.Engine,
		Metrics:     metrics.NewChannelMetrics(nil),
		Logger:      logger,
		PollTimeout: cfg.TelegramPollTimeout,
	})

	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutting down poller...")
		cancel()
		<-done
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("poller stopped", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("poller stopped")
}
