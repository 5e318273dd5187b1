package dialog

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Intent is the classified purpose of a user's message. The wire values are
// the ones the classifier prompt asks the model to emit.
type Intent string

const (
	IntentComplaint    Intent = "Reclamo"
	IntentUpdate       Intent = "Actualizar"
	IntentCheckStatus  Intent = "Consultar"
	IntentCheckInvoice Intent = "ConsultarFacturas"
	IntentChat         Intent = "Conversar"
)

// Actionable reports whether the intent starts one of the four workflows.
func (i Intent) Actionable() bool {
	switch i {
	case IntentComplaint, IntentUpdate, IntentCheckStatus, IntentCheckInvoice:
		return true
	}
	return false
}

// Result is the outcome of one classifier call. Parsed is false when the
// model's payload could not be decoded and the fixed fallback was
// substituted, so callers can tell a real answer from the parse-failure
// variant without relying on error handling.
type Result struct {
	Intent Intent
	Reply  string
	Parsed bool
}

// Classifier turns free text plus recent history into an intent guess.
type Classifier interface {
	Classify(ctx context.Context, text, history string) (Result, error)
}

// LLMService is the raw completion surface a classifier rides on. It returns
// the model's payload untouched; decoding happens here, where the fallback
// semantics live.
type LLMService interface {
	ClassifyText(ctx context.Context, text, history string) (string, error)
}

// LLMClassifier adapts an LLMService to the Classifier contract, bounding
// each call with a timeout so a slow model can never stall a turn.
type LLMClassifier struct {
	svc     LLMService
	timeout time.Duration
}

func NewLLMClassifier(svc LLMService, timeout time.Duration) *LLMClassifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LLMClassifier{svc: svc, timeout: timeout}
}

func (c *LLMClassifier) Classify(ctx context.Context, text, history string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.svc.ClassifyText(ctx, text, history)
	if err != nil {
		return Result{}, err
	}
	return ParseClassifierPayload(raw), nil
}

type classifierPayload struct {
	Intent string `json:"intencion"`
	Reply  string `json:"respuesta"`
}

// ParseClassifierPayload decodes the model's JSON answer. Anything that is
// not valid JSON with the two expected fields becomes the fixed Chat
// fallback; the classifier is unreliable and the dialogue must not be.
func ParseClassifierPayload(raw string) Result {
	var payload classifierPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return Result{Intent: IntentChat, Reply: replyNotUnderstood, Parsed: false}
	}
	reply := strings.TrimSpace(payload.Reply)
	if reply == "" {
		reply = replyNotUnderstood
	}
	intent := Intent(strings.TrimSpace(payload.Intent))
	if !intent.Actionable() {
		intent = IntentChat
	}
	return Result{Intent: intent, Reply: reply, Parsed: true}
}

// FallbackResult is the canned outcome used when the classifier is
// unreachable or times out.
func FallbackResult() Result {
	return Result{Intent: IntentChat, Reply: replyNotUnderstood, Parsed: false}
}

// Backstop scans the raw lower-cased text for keyword combinations and
// returns an overriding intent. It runs strictly after the classifier call
// and only when the classifier came back with Chat or an unrecognized
// value. It never overrides a confidently returned actionable intent.
func Backstop(text string) (Intent, string, bool) {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "reclamo") &&
		(strings.Contains(t, "hacer") || strings.Contains(t, "quiero") || strings.Contains(t, "problema")):
		return IntentComplaint, replyAskDNIForComplaint, true
	case strings.Contains(t, "actualizar") || strings.Contains(t, "cambiar"):
		return IntentUpdate, replySelectField, true
	case (strings.Contains(t, "consultar") || strings.Contains(t, "ver")) && strings.Contains(t, "reclamo"):
		return IntentCheckStatus, replyAskDNIForStatus, true
	case strings.Contains(t, "factura"):
		return IntentCheckInvoice, replyAskDNIForInvoice, true
	}
	return IntentChat, "", false
}
