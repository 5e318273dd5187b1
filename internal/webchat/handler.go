package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/decsa/utility-chat-platform/internal/dialog"
	"github.com/decsa/utility-chat-platform/internal/observability/metrics"
	"github.com/decsa/utility-chat-platform/pkg/logging"
)

const channelName = "webchat"

// Handler manages web chat connections. Each turn runs synchronously
// through the dialogue engine and the reply is pushed straight back to
// the visitor's socket.
type Handler struct {
	engine  *dialog.Engine
	history *dialog.StateStore
	metrics *metrics.ChannelMetrics
	logger  *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*wsConn // sessionID -> active connection
}

type wsConn struct {
	conn *websocket.Conn
	done chan struct{}
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping"
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string   `json:"type"` // "message", "session", "history", "pong", "error"
	Text      string   `json:"text,omitempty"`
	Role      string   `json:"role,omitempty"` // "assistant" or "user"
	SessionID string   `json:"session_id,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Messages  []string `json:"messages,omitempty"`
}

// NewHandler creates a web chat handler. The history store is optional;
// when set, reconnecting visitors get their recent dialogue log replayed.
func NewHandler(engine *dialog.Engine, history *dialog.StateStore, m *metrics.ChannelMetrics, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("webchat: dialog engine required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine:   engine,
		history:  history,
		metrics:  m,
		logger:   logger.Component("webchat"),
		sessions: make(map[string]*wsConn),
	}
}

// Routes mounts the webchat endpoints.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/ws", h.HandleWebSocket)
	r.Post("/message", h.HandleMessage)
	r.Get("/history", h.HandleHistory)
	return r
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{
		Type:      "session",
		SessionID: sessionID,
	})

	if h.history != nil {
		if lines, err := h.history.Lines(r.Context(), sessionID); err == nil && len(lines) > 0 {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: lines})
		}
	}

	wsc := &wsConn{conn: conn, done: make(chan struct{})}
	h.mu.Lock()
	h.sessions[sessionID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.sessions[sessionID] == wsc {
			delete(h.sessions, sessionID)
		}
		h.mu.Unlock()
		close(wsc.done)
	}()

	h.logger.Info("connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}

		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		reply := h.runTurn(r.Context(), sessionID, msg.Text)
		h.sendToSession(sessionID, OutboundMessage{
			Type:      "message",
			Role:      "assistant",
			Text:      reply,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (h *Handler) runTurn(ctx context.Context, sessionID, text string) string {
	h.metrics.ObserveInbound(channelName, "accepted")
	start := time.Now()
	reply := h.engine.HandleTurn(ctx, sessionID, text)
	h.metrics.ObserveTurnLatency(channelName, time.Since(start).Seconds())
	h.metrics.ObserveOutbound(channelName, "sent")
	return reply
}

func (h *Handler) sendToSession(sessionID string, msg OutboundMessage) {
	h.mu.RLock()
	wsc, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	_ = websocket.JSON.Send(wsc.conn, msg)
}

// HandleMessage is the HTTP fallback for widgets without WebSocket support.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = generateSessionID()
	}

	reply := h.runTurn(r.Context(), req.SessionID, req.Text)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"response":   reply,
		"session_id": req.SessionID,
	})
}

// HandleHistory returns the recent dialogue log for a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if h.history == nil {
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []string{}})
		return
	}

	lines, err := h.history.Lines(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load history", "error", err, "session_id", sessionID)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	if lines == nil {
		lines = []string{}
	}

	_ = json.NewEncoder(w).Encode(map[string]any{"messages": lines})
}
