package dialog

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/decsa/utility-chat-platform/internal/observability/metrics"
	"github.com/decsa/utility-chat-platform/pkg/logging"
)

const (
	speakerUser = "Usuario"
	speakerBot  = "DECSA"

	defaultIdleTimeout = 5 * time.Minute
)

// ErrNotFound is returned by collaborators when the requested customer,
// complaint or invoice does not exist in any tier.
var ErrNotFound = errors.New("dialog: not found")

// ComplaintRegistrar files a new complaint and returns its identifier.
type ComplaintRegistrar interface {
	Register(ctx context.Context, dni, description string) (int64, error)
}

// ComplaintReader serves the check-status workflow.
type ComplaintReader interface {
	RecentByCustomer(ctx context.Context, dni string, limit int) ([]ComplaintSummary, error)
	ByID(ctx context.Context, id int64) (ComplaintDetail, error)
}

// CustomerDirectory resolves a display name for a citizen ID, looking in the
// writable store first and falling back to the read-only source.
type CustomerDirectory interface {
	ResolveName(ctx context.Context, dni string) (string, error)
}

// CustomerUpdater applies a single-field customer update.
type CustomerUpdater interface {
	UpdateField(ctx context.Context, dni string, field UpdatableField, value string) error
}

// InvoiceFinder fetches the latest invoice for a citizen ID.
type InvoiceFinder interface {
	ByDNI(ctx context.Context, dni string) (InvoiceView, error)
}

// Engine is the per-user finite-state dialogue controller. Each collaborator
// is an optional capability: a nil one degrades that workflow into an
// explicit "feature unavailable" reply instead of a crash.
type Engine struct {
	store           *StateStore
	classifier      Classifier
	complaints      ComplaintRegistrar
	complaintReader ComplaintReader
	customers       CustomerDirectory
	updater         CustomerUpdater
	invoices        InvoiceFinder
	logger          *logging.Logger
	metrics         *metrics.DialogMetrics
	idleTimeout     time.Duration
	now             func() time.Time
}

// EngineConfig wires an Engine. Store is required; everything else is
// optional and degrades per-feature.
type EngineConfig struct {
	Store           *StateStore
	Classifier      Classifier
	Complaints      ComplaintRegistrar
	ComplaintReader ComplaintReader
	Customers       CustomerDirectory
	Updater         CustomerUpdater
	Invoices        InvoiceFinder
	Logger          *logging.Logger
	Metrics         *metrics.DialogMetrics
	IdleTimeout     time.Duration
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Store == nil {
		panic("dialog: state store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	return &Engine{
		store:           cfg.Store,
		classifier:      cfg.Classifier,
		complaints:      cfg.Complaints,
		complaintReader: cfg.ComplaintReader,
		customers:       cfg.Customers,
		updater:         cfg.Updater,
		invoices:        cfg.Invoices,
		logger:          logger.Component("dialog"),
		metrics:         cfg.Metrics,
		idleTimeout:     idle,
		now:             time.Now,
	}
}

// HandleTurn runs one full conversational turn for a user and always
// produces a reply: no error crosses this boundary. Channel adapters call
// it with the platform-agnostic pair (user_id, text).
func (e *Engine) HandleTurn(ctx context.Context, userID, raw string) (reply string) {
	start := e.now()
	entryPhase := PhaseStart

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("turn panicked", "user_id", userID, "panic", r)
			_ = e.store.ClearSlots(ctx, userID)
			reply = replyTurnFailed
		}
		e.metrics.ObserveTurn(string(entryPhase), e.now().Sub(start).Seconds())
	}()

	text := strings.ToLower(strings.TrimSpace(raw))

	st, err := e.store.Get(ctx, userID)
	if err != nil {
		e.logger.Error("failed to load state", "user_id", userID, "error", err)
		return replyTurnFailed
	}
	entryPhase = st.Phase

	_ = e.store.AppendLog(ctx, userID, speakerUser, text)

	// Idle timeout: a user stuck mid-dialogue is force-reset before this
	// message is interpreted, whatever its content.
	if st.Phase != PhaseStart && !st.LastTurnAt.IsZero() && e.now().Sub(st.LastTurnAt) >= e.idleTimeout {
		if err := e.store.ClearSlots(ctx, userID); err != nil {
			e.logger.Error("failed to reset idle dialogue", "user_id", userID, "error", err)
			return replyTurnFailed
		}
		_ = e.store.Touch(ctx, userID, e.now())
		e.metrics.ObserveIdleReset()
		e.logger.Info("dialogue reset by idle timeout", "user_id", userID, "phase", st.Phase)
		_ = e.store.AppendLog(ctx, userID, speakerBot, replyIdleTimeout)
		return replyIdleTimeout
	}
	_ = e.store.Touch(ctx, userID, e.now())

	var post Phase
	if text == "cancelar" || text == "salir" {
		reply, post = e.handleCancel(ctx, userID, st)
	} else {
		reply, post = e.processPhase(ctx, userID, text, st)
	}

	// Footer hint based on the post-turn phase: cancel instructions while a
	// workflow is in progress, the capabilities menu otherwise. The handlers
	// report the phase they left behind so no re-read is needed here.
	if post != PhaseStart {
		reply += footerCancelHint
	} else {
		reply += footerMenuHint
	}

	_ = e.store.AppendLog(ctx, userID, speakerBot, reply)
	return reply
}

func (e *Engine) handleCancel(ctx context.Context, userID string, st State) (string, Phase) {
	if st.Phase == PhaseStart {
		return replyNothingToCancel, PhaseStart
	}
	if err := e.store.ClearSlots(ctx, userID); err != nil {
		e.logger.Error("failed to cancel dialogue", "user_id", userID, "error", err)
		return replyTurnFailed, st.Phase
	}
	e.metrics.ObserveCancellation()
	return replyCancelled, PhaseStart
}

// Every handler returns the reply plus the phase the dialogue is in after
// the turn, so the caller never has to re-read the store.
func (e *Engine) processPhase(ctx context.Context, userID, text string, st State) (string, Phase) {
	switch st.Phase {
	case PhaseStart:
		return e.processStart(ctx, userID, text)
	case PhaseSelectField:
		return e.processSelectField(ctx, userID, text)
	case PhaseAskID:
		return e.processAskID(ctx, userID, text)
	case PhaseConfirmID:
		return e.processConfirmID(ctx, userID, text, st)
	case PhaseAskDescription:
		return e.processAskDescription(ctx, userID, text, st)
	case PhaseListComplaints:
		return e.processListComplaints(ctx, userID, text)
	case PhaseConfirmUpdate:
		return e.processConfirmUpdate(ctx, userID, text, st)
	}
	return replyNotUnderstood, st.Phase
}

func (e *Engine) processStart(ctx context.Context, userID, text string) (string, Phase) {
	history, err := e.store.History(ctx, userID)
	if err != nil {
		e.logger.Warn("failed to load history", "user_id", userID, "error", err)
	}

	res := e.classify(ctx, Normalize(text), history)
	source := "classifier"

	// The backstop only ever overrides a non-actionable outcome.
	if !res.Intent.Actionable() {
		if intent, canned, ok := Backstop(text); ok {
			res = Result{Intent: intent, Reply: canned, Parsed: res.Parsed}
			source = "backstop"
		}
	}
	e.metrics.ObserveIntent(string(res.Intent), source)

	switch res.Intent {
	case IntentComplaint:
		if !e.setFields(ctx, userID, map[string]string{
			fieldPhase:  string(PhaseAskID),
			fieldAction: string(ActionComplaint),
		}) {
			return replyTurnFailed, PhaseStart
		}
		return replyAskDNIForComplaint, PhaseAskID
	case IntentUpdate:
		if !e.setFields(ctx, userID, map[string]string{fieldPhase: string(PhaseSelectField)}) {
			return replyTurnFailed, PhaseStart
		}
		return replySelectField, PhaseSelectField
	case IntentCheckStatus:
		if !e.setFields(ctx, userID, map[string]string{
			fieldPhase:  string(PhaseAskID),
			fieldAction: string(ActionCheckStatus),
		}) {
			return replyTurnFailed, PhaseStart
		}
		return replyAskDNIForStatus, PhaseAskID
	case IntentCheckInvoice:
		if !e.setFields(ctx, userID, map[string]string{
			fieldPhase:  string(PhaseAskID),
			fieldAction: string(ActionCheckInvoice),
		}) {
			return replyTurnFailed, PhaseStart
		}
		return replyAskDNIForInvoice, PhaseAskID
	default:
		return res.Reply, PhaseStart
	}
}

func (e *Engine) classify(ctx context.Context, text, history string) Result {
	if e.classifier == nil {
		return FallbackResult()
	}
	res, err := e.classifier.Classify(ctx, text, history)
	if err != nil {
		e.metrics.ObserveClassifierError()
		e.logger.Warn("classifier unavailable, using fallback", "error", err)
		return FallbackResult()
	}
	return res
}

func (e *Engine) processSelectField(ctx context.Context, userID, text string) (string, Phase) {
	field, ok := fieldOptions[text]
	if !ok {
		return replySelectFieldRetry, PhaseSelectField
	}
	if !e.setFields(ctx, userID, map[string]string{
		fieldPhase:      string(PhaseAskID),
		fieldAction:     string(ActionUpdate),
		fieldUpdateSlot: string(field),
	}) {
		return replyTurnFailed, PhaseSelectField
	}
	return replySelectedField(FieldLabel(field)), PhaseAskID
}

func (e *Engine) processAskID(ctx context.Context, userID, text string) (string, Phase) {
	if !allDigits(text) {
		return replyInvalidDNI, PhaseAskID
	}

	name := unknownUserName
	if e.customers != nil {
		if resolved, err := e.customers.ResolveName(ctx, text); err == nil && strings.TrimSpace(resolved) != "" {
			name = resolved
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			e.logger.Warn("customer lookup failed", "dni", text, "error", err)
		}
	}

	if !e.setFields(ctx, userID, map[string]string{
		fieldPhase: string(PhaseConfirmID),
		fieldDNI:   text,
		fieldName:  name,
	}) {
		return replyTurnFailed, PhaseAskID
	}
	return replyConfirmIdentity(name), PhaseConfirmID
}

func (e *Engine) processConfirmID(ctx context.Context, userID, text string, st State) (string, Phase) {
	if text != "sí" && text != "si" && text != "no" {
		return replyConfirmRetry, PhaseConfirmID
	}
	if text == "no" {
		_ = e.store.DeleteField(ctx, userID, fieldDNI)
		if err := e.store.SetPhase(ctx, userID, PhaseStart); err != nil {
			e.logger.Error("failed to reset phase", "user_id", userID, "error", err)
			return replyTurnFailed, PhaseConfirmID
		}
		return replyDNIRejected, PhaseStart
	}

	name := st.Name
	if name == "" {
		name = "Usuario"
	}

	switch st.Action {
	case ActionComplaint:
		if e.complaints == nil {
			return e.unavailable(ctx, userID, "el registro de reclamos")
		}
		if err := e.store.SetPhase(ctx, userID, PhaseAskDescription); err != nil {
			return replyTurnFailed, PhaseConfirmID
		}
		return replyAskDescription(name), PhaseAskDescription

	case ActionUpdate:
		if e.updater == nil {
			return e.unavailable(ctx, userID, "la actualización de datos")
		}
		if err := e.store.SetPhase(ctx, userID, PhaseConfirmUpdate); err != nil {
			return replyTurnFailed, PhaseConfirmID
		}
		return replyAskNewValue(FieldLabel(st.Field)), PhaseConfirmUpdate

	case ActionCheckStatus:
		if e.complaintReader == nil {
			return e.unavailable(ctx, userID, "la consulta de reclamos")
		}
		items, err := e.complaintReader.RecentByCustomer(ctx, st.DNI, 5)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				_ = e.store.ClearSlots(ctx, userID)
				return replyComplaintNotFound, PhaseStart
			}
			e.logger.Error("failed to list complaints", "dni", st.DNI, "error", err)
			_ = e.store.ClearSlots(ctx, userID)
			return replyTurnFailed, PhaseStart
		}
		if err := e.store.SetPhase(ctx, userID, PhaseListComplaints); err != nil {
			return replyTurnFailed, PhaseConfirmID
		}
		return replyComplaintList(name, renderComplaintList(items)), PhaseListComplaints

	case ActionCheckInvoice:
		if e.invoices == nil {
			return e.unavailable(ctx, userID, "la consulta de facturas")
		}
		inv, err := e.invoices.ByDNI(ctx, st.DNI)
		if err != nil {
			_ = e.store.ClearSlots(ctx, userID)
			if errors.Is(err, ErrNotFound) {
				return replyInvoiceNotFound, PhaseStart
			}
			e.logger.Error("failed to fetch invoice", "dni", st.DNI, "error", err)
			return replyTurnFailed, PhaseStart
		}
		dni := st.DNI
		_ = e.store.ClearSlots(ctx, userID)
		return renderInvoice(dni, inv), PhaseStart
	}

	// No action recorded; nothing sensible to confirm.
	_ = e.store.ClearSlots(ctx, userID)
	return replyNotUnderstood, PhaseStart
}

func (e *Engine) processAskDescription(ctx context.Context, userID, text string, st State) (string, Phase) {
	if len([]rune(strings.TrimSpace(text))) < 3 {
		return replyDescriptionTooShort, PhaseAskDescription
	}
	if e.complaints == nil {
		return e.unavailable(ctx, userID, "el registro de reclamos")
	}

	name := st.Name
	if name == "" {
		name = "Usuario"
	}

	id, err := e.complaints.Register(ctx, st.DNI, text)
	_ = e.store.ClearSlots(ctx, userID)
	if err != nil {
		e.logger.Error("failed to register complaint", "dni", st.DNI, "error", err)
		return replyComplaintFailed, PhaseStart
	}
	return replyComplaintRegistered(name, id, text), PhaseStart
}

func (e *Engine) processListComplaints(ctx context.Context, userID, text string) (string, Phase) {
	if !allDigits(text) {
		return replyComplaintIDRetry, PhaseListComplaints
	}
	if e.complaintReader == nil {
		return e.unavailable(ctx, userID, "la consulta de reclamos")
	}

	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return replyComplaintIDRetry, PhaseListComplaints
	}

	detail, err := e.complaintReader.ByID(ctx, id)
	_ = e.store.ClearSlots(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return replyComplaintNotFound, PhaseStart
		}
		e.logger.Error("failed to fetch complaint", "complaint_id", id, "error", err)
		return replyTurnFailed, PhaseStart
	}
	return renderComplaintDetail(detail), PhaseStart
}

func (e *Engine) processConfirmUpdate(ctx context.Context, userID, text string, st State) (string, Phase) {
	if e.updater == nil {
		return e.unavailable(ctx, userID, "la actualización de datos")
	}

	name := st.Name
	if name == "" {
		name = "Usuario"
	}

	err := e.updater.UpdateField(ctx, st.DNI, st.Field, text)
	_ = e.store.ClearSlots(ctx, userID)
	if err != nil {
		e.logger.Error("failed to update customer field", "dni", st.DNI, "field", st.Field, "error", err)
		return replyUpdateFailed, PhaseStart
	}
	return replyUpdateDone(name, FieldLabel(st.Field), text), PhaseStart
}

// unavailable reports a missing collaborator and resets the dialogue so the
// user is never stuck inside a feature the deployment does not have.
func (e *Engine) unavailable(ctx context.Context, userID, feature string) (string, Phase) {
	_ = e.store.ClearSlots(ctx, userID)
	return replyFeatureUnavailable(feature), PhaseStart
}

func (e *Engine) setFields(ctx context.Context, userID string, fields map[string]string) bool {
	if err := e.store.SetFields(ctx, userID, fields); err != nil {
		e.logger.Error("failed to persist state", "user_id", userID, "error", err)
		return false
	}
	return true
}

// allDigits is the strict ID rule: every character an ASCII digit, no length
// bound at this layer.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
