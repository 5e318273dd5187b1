package telegram

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/decsa/utility-chat-platform/internal/dialog"
	"github.com/decsa/utility-chat-platform/internal/observability/metrics"
	"github.com/decsa/utility-chat-platform/pkg/logging"
)

const channelName = "telegram"

// Poller drives the long-poll loop: fetch updates, run each message
// through the dialogue engine, send the reply back to the chat.
type Poller struct {
	client      *Client
	engine      *dialog.Engine
	metrics     *metrics.ChannelMetrics
	logger      *logging.Logger
	pollTimeout time.Duration
	retryDelay  time.Duration
}

// PollerConfig configures a Poller. Client and Engine are required.
type PollerConfig struct {
	Client      *Client
	Engine      *dialog.Engine
	Metrics     *metrics.ChannelMetrics
	Logger      *logging.Logger
	PollTimeout time.Duration
	RetryDelay  time.Duration
}

// NewPoller creates a poller.
func NewPoller(cfg PollerConfig) *Poller {
	if cfg.Client == nil {
		panic("telegram: client required")
	}
	if cfg.Engine == nil {
		panic("telegram: dialog engine required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	return &Poller{
		client:      cfg.Client,
		engine:      cfg.Engine,
		metrics:     cfg.Metrics,
		logger:      logger.Component("telegram"),
		pollTimeout: pollTimeout,
		retryDelay:  retryDelay,
	}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64

	p.logger.Info("poller started", "poll_timeout", p.pollTimeout.String())

	for {
		updates, next, err := p.client.GetUpdates(ctx, offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("poller stopped")
				return ctx.Err()
			}
			p.logger.Warn("getUpdates failed, retrying", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.retryDelay):
			}
			continue
		}
		offset = next

		for _, u := range updates {
			p.handleUpdate(ctx, u)
		}
	}
}

func (p *Poller) handleUpdate(ctx context.Context, u Update) {
	if u.Message == nil || strings.TrimSpace(u.Message.Text) == "" {
		p.metrics.ObserveInbound(channelName, "skipped")
		return
	}

	chatID := u.Message.Chat.ID
	userID := strconv.FormatInt(chatID, 10)
	p.metrics.ObserveInbound(channelName, "accepted")

	start := time.Now()
	reply := p.engine.HandleTurn(ctx, userID, u.Message.Text)
	p.metrics.ObserveTurnLatency(channelName, time.Since(start).Seconds())

	if err := p.client.SendMessage(ctx, chatID, reply); err != nil {
		p.metrics.ObserveOutbound(channelName, "failed")
		p.logger.Error("sendMessage failed", "error", err, "chat_id", chatID)
		return
	}
	p.metrics.ObserveOutbound(channelName, "sent")
}
