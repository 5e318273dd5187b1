package bootstrap

import (
	"context"
	"database/sql"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/decsa/utility-chat-platform/internal/complaints"
	appconfig "github.com/decsa/utility-chat-platform/internal/config"
	"github.com/decsa/utility-chat-platform/internal/customers"
	"github.com/decsa/utility-chat-platform/internal/dialog"
	"github.com/decsa/utility-chat-platform/internal/invoices"
	"github.com/decsa/utility-chat-platform/internal/llm"
	"github.com/decsa/utility-chat-platform/internal/observability/metrics"
	"github.com/decsa/utility-chat-platform/pkg/logging"
)

// Runtime is the assembled application: the dialogue engine plus every
// service the HTTP surface needs. Channel binaries and the API server share
// this one wiring path.
type Runtime struct {
	Config     *appconfig.Config
	Logger     *logging.Logger
	Redis      *redis.Client
	SourceDB   *sql.DB
	LocalDB    *sql.DB
	Store      *dialog.StateStore
	Engine     *dialog.Engine
	Customers  *customers.Service
	Complaints *complaints.Service
	Invoices   *invoices.Repository
	Metrics    *metrics.DialogMetrics
}

// BuildRuntime wires the whole application from configuration. Redis is
// mandatory (the dialogue state lives there); each database tier and each
// LLM provider is optional and its absence degrades the matching feature.
func BuildRuntime(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.New(cfg.LogLevel)
	}

	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		return nil, errors.New("bootstrap: redis is required for dialogue state")
	}

	sourceDB, err := OpenDatabase(ctx, cfg.SourceDatabaseURL, logger)
	if err != nil {
		logger.Warn("source tier unavailable", "error", err)
		sourceDB = nil
	}
	localDB, err := OpenDatabase(ctx, cfg.LocalDatabaseURL, logger)
	if err != nil {
		logger.Warn("local tier unavailable", "error", err)
		localDB = nil
	}

	rt := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Redis:    redisClient,
		SourceDB: sourceDB,
		LocalDB:  localDB,
		Metrics:  metrics.NewDialogMetrics(nil),
	}

	store := dialog.NewStateStore(redisClient).
		WithTTL(cfg.ConversationTTL).
		WithHistoryDepth(cfg.HistoryDepth)
	rt.Store = store

	engineCfg := dialog.EngineConfig{
		Store:       store,
		Logger:      logger,
		Metrics:     rt.Metrics,
		IdleTimeout: cfg.IdleTimeout,
	}

	if client := BuildLLMClient(ctx, cfg, logger); client != nil {
		var cache *llm.ClassifierCache
		if cfg.ClassifierCache {
			cache = llm.NewClassifierCache(redisClient, cfg.ClassifierExpiry)
		}
		svc := llm.NewClassifierService(client, cache, logger)
		engineCfg.Classifier = dialog.NewLLMClassifier(svc, cfg.ClassifierTimeout)
	}

	if localDB != nil {
		rt.Customers = customers.NewService(customers.NewRepository(sourceDB, localDB), logger)
		rt.Complaints = complaints.NewService(complaints.NewRepository(localDB), rt.Customers, logger)
		engineCfg.Customers = customerDirectory{svc: rt.Customers}
		engineCfg.Updater = customerUpdater{svc: rt.Customers}
		engineCfg.Complaints = complaintRegistrar{svc: rt.Complaints}
		engineCfg.ComplaintReader = complaintReader{svc: rt.Complaints}
	}
	if sourceDB != nil {
		rt.Invoices = invoices.NewRepository(sourceDB)
		engineCfg.Invoices = invoiceFinder{repo: rt.Invoices}
	}

	rt.Engine = dialog.NewEngine(engineCfg)
	return rt, nil
}

// Close releases every connection the runtime owns.
func (r *Runtime) Close() {
	if r.SourceDB != nil {
		_ = r.SourceDB.Close()
	}
	if r.LocalDB != nil {
		_ = r.LocalDB.Close()
	}
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
}
