package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/decsa/utility-chat-platform/internal/dialog"
	"github.com/decsa/utility-chat-platform/internal/observability/metrics"
	"github.com/decsa/utility-chat-platform/pkg/logging"
)

const webhookChannel = "chattigo"

// ChatWebhookHandler receives inbound messages from the Chattigo gateway and
// runs one dialogue turn per message.
type ChatWebhookHandler struct {
	engine  *dialog.Engine
	metrics *metrics.ChannelMetrics
	logger  *logging.Logger
}

// NewChatWebhookHandler creates a chat webhook handler. The engine is
// required; metrics are optional.
func NewChatWebhookHandler(engine *dialog.Engine, m *metrics.ChannelMetrics, logger *logging.Logger) *ChatWebhookHandler {
	if engine == nil {
		panic("handlers: chat webhook requires a dialog engine")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatWebhookHandler{
		engine:  engine,
		metrics: m,
		logger:  logger.Component("chat_webhook"),
	}
}

// WebhookMessage is the nested message object in the gateway payload.
type WebhookMessage struct {
	Text string `json:"text"`
}

// WebhookRequest is the inbound gateway payload.
type WebhookRequest struct {
	UserID  string         `json:"user_id"`
	Message WebhookMessage `json:"message"`
}

// WebhookResponse is the reply returned to the gateway.
type WebhookResponse struct {
	Response string `json:"response"`
	UserID   string `json:"user_id"`
}

// Handle handles POST /webhook/chattigo.
func (h *ChatWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.ObserveInbound(webhookChannel, "rejected")
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := strings.TrimSpace(req.UserID)
	text := strings.TrimSpace(req.Message.Text)
	if userID == "" || text == "" {
		h.metrics.ObserveInbound(webhookChannel, "rejected")
		respondError(w, http.StatusBadRequest, "user_id and message.text are required")
		return
	}
	h.metrics.ObserveInbound(webhookChannel, "accepted")

	start := time.Now()
	reply := h.engine.HandleTurn(r.Context(), userID, text)
	h.metrics.ObserveTurnLatency(webhookChannel, time.Since(start).Seconds())
	h.metrics.ObserveOutbound(webhookChannel, "sent")

	h.logger.Debug("webhook turn handled",
		"user_id", userID,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	respondJSON(w, http.StatusOK, WebhookResponse{Response: reply, UserID: userID})
}
