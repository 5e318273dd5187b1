package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/decsa/utility-chat-platform/internal/api/router"
	"github.com/decsa/utility-chat-platform/internal/app/bootstrap"
	appconfig "github.com/decsa/utility-chat-platform/internal/config"
	"github.com/decsa/utility-chat-platform/internal/http/handlers"
	"github.com/decsa/utility-chat-platform/internal/observability/metrics"
	"github.com/decsa/utility-chat-platform/internal/webchat"
	"github.com/decsa/utility-chat-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting utility-chat-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	rt, err := bootstrap.BuildRuntime(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build runtime", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	channelMetrics := metrics.NewChannelMetrics(nil)

	routerCfg := &router.Config{
		Logger:             logger,
		Health:             handlers.NewHealthHandler(func() error { return rt.Redis.Ping(ctx).Err() }),
		ChatWebhook:        handlers.NewChatWebhookHandler(rt.Engine, channelMetrics, logger),
		Webchat:            webchat.NewHandler(rt.Engine, rt.Store, channelMetrics, logger),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if rt.Customers != nil {
		routerCfg.Customers = handlers.NewCustomersHandler(rt.Customers, logger)
	}
	if rt.Complaints != nil {
		routerCfg.Complaints = handlers.NewComplaintsHandler(rt.Complaints, logger)
	}
	if rt.Invoices != nil {
		routerCfg.Invoices = handlers.NewInvoicesHandler(rt.Invoices, logger)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
