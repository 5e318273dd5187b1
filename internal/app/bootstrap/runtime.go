package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/decsa/utility-chat-platform/internal/config"
	"github.com/decsa/utility-chat-platform/internal/llm"
	"github.com/decsa/utility-chat-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// OpenDatabase opens a Postgres handle through the pgx stdlib driver and
// verifies connectivity. An empty URL yields nil, which downstream wiring
// treats as that tier being absent.
func OpenDatabase(ctx context.Context, url string, logger *logging.Logger) (*sql.DB, error) {
	if strings.TrimSpace(url) == "" {
		return nil, nil
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: database unreachable: %w", err)
	}
	return db, nil
}

// BuildLLMClient assembles the provider chain from configuration: the
// configured primary, with the other provider as fallback when both keys
// are present. No usable key at all returns nil and the dialogue runs on
// backstop heuristics only.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) llm.LLMClient {
	if logger == nil {
		logger = logging.Default()
	}

	var openaiClient, geminiClient llm.LLMClient
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		client, err := llm.NewOpenAILLMClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			logger.Warn("openai client unavailable", "error", err)
		} else {
			openaiClient = client
		}
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		client, err := llm.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("gemini client unavailable", "error", err)
		} else {
			geminiClient = client
		}
	}

	primary, fallback := openaiClient, geminiClient
	if cfg.LLMProvider == "gemini" {
		primary, fallback = geminiClient, openaiClient
	}
	if primary == nil {
		primary, fallback = fallback, nil
	}
	if primary == nil {
		logger.Warn("no LLM provider configured, intent detection limited to keyword heuristics")
		return nil
	}
	if fallback == nil {
		return primary
	}
	return llm.NewFallbackLLMClient(primary, fallback, logger)
}
