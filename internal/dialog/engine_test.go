package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decsa/utility-chat-platform/pkg/logging"
)

type fakeClassifier struct {
	res   Result
	err   error
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, text, history string) (Result, error) {
	f.calls++
	return f.res, f.err
}

type fakeDirectory struct {
	names map[string]string
	err   error
}

func (f *fakeDirectory) ResolveName(ctx context.Context, dni string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if name, ok := f.names[dni]; ok {
		return name, nil
	}
	return "", ErrNotFound
}

type fakeRegistrar struct {
	id      int64
	err     error
	gotDNI  string
	gotDesc string
}

func (f *fakeRegistrar) Register(ctx context.Context, dni, description string) (int64, error) {
	f.gotDNI = dni
	f.gotDesc = description
	return f.id, f.err
}

type fakeReader struct {
	summaries []ComplaintSummary
	detail    ComplaintDetail
	listErr   error
	byIDErr   error
	gotDNI    string
	gotID     int64
}

func (f *fakeReader) RecentByCustomer(ctx context.Context, dni string, limit int) ([]ComplaintSummary, error) {
	f.gotDNI = dni
	return f.summaries, f.listErr
}

func (f *fakeReader) ByID(ctx context.Context, id int64) (ComplaintDetail, error) {
	f.gotID = id
	return f.detail, f.byIDErr
}

type fakeUpdater struct {
	err      error
	gotDNI   string
	gotField UpdatableField
	gotValue string
}

func (f *fakeUpdater) UpdateField(ctx context.Context, dni string, field UpdatableField, value string) error {
	f.gotDNI = dni
	f.gotField = field
	f.gotValue = value
	return f.err
}

type fakeInvoices struct {
	invoice InvoiceView
	err     error
}

func (f *fakeInvoices) ByDNI(ctx context.Context, dni string) (InvoiceView, error) {
	return f.invoice, f.err
}

type engineFixture struct {
	engine     *Engine
	store      *StateStore
	mr         *miniredis.Miniredis
	classifier *fakeClassifier
	directory  *fakeDirectory
	registrar  *fakeRegistrar
	reader     *fakeReader
	updater    *fakeUpdater
	invoices   *fakeInvoices
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &engineFixture{
		mr:         mr,
		store:      NewStateStore(client),
		classifier: &fakeClassifier{res: FallbackResult()},
		directory:  &fakeDirectory{names: map[string]string{"12345678": "Ana Pérez"}},
		registrar:  &fakeRegistrar{id: 42},
		reader:     &fakeReader{},
		updater:    &fakeUpdater{},
		invoices:   &fakeInvoices{},
	}
	f.engine = NewEngine(EngineConfig{
		Store:           f.store,
		Classifier:      f.classifier,
		Complaints:      f.registrar,
		ComplaintReader: f.reader,
		Customers:       f.directory,
		Updater:         f.updater,
		Invoices:        f.invoices,
		Logger:          logging.New("error"),
	})
	return f
}

func (f *engineFixture) state(t *testing.T, userID string) State {
	t.Helper()
	st, err := f.store.Get(context.Background(), userID)
	require.NoError(t, err)
	return st
}

func TestHandleTurnActionableIntent(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentComplaint, Reply: "ok", Parsed: true}

	reply := f.engine.HandleTurn(context.Background(), "u1", "tengo un problema con la luz")

	assert.Contains(t, reply, replyAskDNIForComplaint)
	assert.True(t, strings.HasSuffix(reply, footerCancelHint))

	st := f.state(t, "u1")
	assert.Equal(t, PhaseAskID, st.Phase)
	assert.Equal(t, ActionComplaint, st.Action)
}

func TestHandleTurnChatIntentKeepsModelReply(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentChat, Reply: "¡Hola! Soy el asistente de DECSA.", Parsed: true}

	reply := f.engine.HandleTurn(context.Background(), "u1", "hola")

	assert.Contains(t, reply, "¡Hola! Soy el asistente de DECSA.")
	assert.True(t, strings.HasSuffix(reply, footerMenuHint))
	assert.Equal(t, PhaseStart, f.state(t, "u1").Phase)
}

func TestHandleTurnBackstopWithFailingClassifier(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.err = errors.New("llm down")

	reply := f.engine.HandleTurn(context.Background(), "u1", "quiero hacer un reclamo")

	assert.Contains(t, reply, replyAskDNIForComplaint)
	st := f.state(t, "u1")
	assert.Equal(t, PhaseAskID, st.Phase)
	assert.Equal(t, ActionComplaint, st.Action)
}

func TestHandleTurnBackstopNeverOverridesActionable(t *testing.T) {
	f := newEngineFixture(t)
	// The classifier confidently says invoice even though the text also
	// mentions making a complaint.
	f.classifier.res = Result{Intent: IntentCheckInvoice, Reply: "ok", Parsed: true}

	reply := f.engine.HandleTurn(context.Background(), "u1", "quiero hacer un reclamo de la factura")

	assert.Contains(t, reply, replyAskDNIForInvoice)
	assert.Equal(t, ActionCheckInvoice, f.state(t, "u1").Action)
}

func TestHandleTurnInvalidID(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentComplaint, Reply: "ok", Parsed: true}
	ctx := context.Background()

	f.engine.HandleTurn(ctx, "u1", "quiero hacer un reclamo")

	reply := f.engine.HandleTurn(ctx, "u1", "abc123")
	assert.Contains(t, reply, replyInvalidDNI)
	assert.Equal(t, PhaseAskID, f.state(t, "u1").Phase)

	// The phase accepts corrected input on the next turn.
	reply = f.engine.HandleTurn(ctx, "u1", "12345678")
	assert.Contains(t, reply, "Ana Pérez")
	st := f.state(t, "u1")
	assert.Equal(t, PhaseConfirmID, st.Phase)
	assert.Equal(t, "12345678", st.DNI)
}

func TestHandleTurnValidIDRepeatable(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentComplaint, Reply: "ok", Parsed: true}
	ctx := context.Background()

	f.engine.HandleTurn(ctx, "u1", "quiero hacer un reclamo")
	first := f.engine.HandleTurn(ctx, "u1", "12345678")
	assert.Equal(t, PhaseConfirmID, f.state(t, "u1").Phase)

	f.engine.HandleTurn(ctx, "u1", "cancelar")

	f.engine.HandleTurn(ctx, "u1", "quiero hacer un reclamo")
	second := f.engine.HandleTurn(ctx, "u1", "12345678")
	assert.Equal(t, first, second)
	assert.Equal(t, PhaseConfirmID, f.state(t, "u1").Phase)
}

func TestHandleTurnUnknownCustomerGetsPlaceholder(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentComplaint, Reply: "ok", Parsed: true}
	ctx := context.Background()

	f.engine.HandleTurn(ctx, "u1", "quiero hacer un reclamo")
	reply := f.engine.HandleTurn(ctx, "u1", "99999999")

	assert.Contains(t, reply, unknownUserName)
	assert.Equal(t, PhaseConfirmID, f.state(t, "u1").Phase)
}

func TestHandleTurnConfirmRejectClearsID(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentComplaint, Reply: "ok", Parsed: true}
	ctx := context.Background()

	f.engine.HandleTurn(ctx, "u1", "quiero hacer un reclamo")
	f.engine.HandleTurn(ctx, "u1", "12345678")

	reply := f.engine.HandleTurn(ctx, "u1", "no")
	assert.Contains(t, reply, replyDNIRejected)

	st := f.state(t, "u1")
	assert.Equal(t, PhaseStart, st.Phase)
	assert.Empty(t, st.DNI)
}

func TestHandleTurnConfirmRetryOnGibberish(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentComplaint, Reply: "ok", Parsed: true}
	ctx := context.Background()

	f.engine.HandleTurn(ctx, "u1", "quiero hacer un reclamo")
	f.engine.HandleTurn(ctx, "u1", "12345678")

	reply := f.engine.HandleTurn(ctx, "u1", "tal vez")
	assert.Contains(t, reply, replyConfirmRetry)
	assert.Equal(t, PhaseConfirmID, f.state(t, "u1").Phase)
}

func TestHandleTurnComplaintRoundTrip(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentComplaint, Reply: "ok", Parsed: true}
	ctx := context.Background()

	f.engine.HandleTurn(ctx, "u1", "quiero hacer un reclamo")
	f.engine.HandleTurn(ctx, "u1", "12345678")
	f.engine.HandleTurn(ctx, "u1", "sí")

	// Too-short description is rejected without losing the phase.
	reply := f.engine.HandleTurn(ctx, "u1", "no")
	assert.Contains(t, reply, replyDescriptionTooShort)
	assert.Equal(t, PhaseAskDescription, f.state(t, "u1").Phase)

	reply = f.engine.HandleTurn(ctx, "u1", "No tengo luz desde ayer")
	assert.Contains(t, reply, "ID: 42")
	assert.Contains(t, reply, "Pendiente")
	assert.True(t, strings.HasSuffix(reply, footerMenuHint))

	assert.Equal(t, "12345678", f.registrar.gotDNI)
	assert.Equal(t, "no tengo luz desde ayer", f.registrar.gotDesc)

	st := f.state(t, "u1")
	assert.Equal(t, PhaseStart, st.Phase)
	assert.Empty(t, st.DNI)
	assert.Empty(t, string(st.Action))
}

func TestHandleTurnUpdateRoundTrip(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentUpdate, Reply: "ok", Parsed: true}
	ctx := context.Background()

	reply := f.engine.HandleTurn(ctx, "u1", "quiero actualizar mis datos")
	assert.Contains(t, reply, replySelectField)
	assert.Equal(t, PhaseSelectField, f.state(t, "u1").Phase)

	// Unknown option retries within the phase.
	reply = f.engine.HandleTurn(ctx, "u1", "dni")
	assert.Contains(t, reply, replySelectFieldRetry)
	assert.Equal(t, PhaseSelectField, f.state(t, "u1").Phase)

	reply = f.engine.HandleTurn(ctx, "u1", "celular")
	assert.Contains(t, reply, "celular")
	st := f.state(t, "u1")
	assert.Equal(t, PhaseAskID, st.Phase)
	assert.Equal(t, ActionUpdate, st.Action)
	assert.Equal(t, FieldPhone, st.Field)

	f.engine.HandleTurn(ctx, "u1", "12345678")
	reply = f.engine.HandleTurn(ctx, "u1", "sí")
	assert.Contains(t, reply, replyAskNewValue("celular"))

	reply = f.engine.HandleTurn(ctx, "u1", "2644445566")
	assert.Contains(t, reply, "2644445566")

	assert.Equal(t, "12345678", f.updater.gotDNI)
	assert.Equal(t, FieldPhone, f.updater.gotField)
	assert.Equal(t, "2644445566", f.updater.gotValue)
	assert.Equal(t, PhaseStart, f.state(t, "u1").Phase)
}

func TestHandleTurnFieldSynonyms(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentUpdate, Reply: "ok", Parsed: true}
	ctx := context.Background()

	f.engine.HandleTurn(ctx, "u1", "quiero actualizar mis datos")
	f.engine.HandleTurn(ctx, "u1", "teléfono")

	assert.Equal(t, FieldPhone, f.state(t, "u1").Field)
}

func TestHandleTurnCheckStatusRoundTrip(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentCheckStatus, Reply: "ok", Parsed: true}
	f.reader.summaries = []ComplaintSummary{
		{ID: 7, Status: "Pendiente", Description: "sin luz en toda la cuadra"},
	}
	f.reader.detail = ComplaintDetail{
		ID:           7,
		Description:  "sin luz en toda la cuadra",
		Status:       "Pendiente",
		CreatedAt:    time.Date(2026, 2, 3, 16, 45, 0, 0, time.UTC),
		CustomerName: "Ana Pérez",
		CustomerDNI:  "12345678",
		Street:       "San Martín 120",
		Neighborhood: "Centro",
	}
	ctx := context.Background()

	f.engine.HandleTurn(ctx, "u1", "quiero ver mis reclamos")
	f.engine.HandleTurn(ctx, "u1", "12345678")

	reply := f.engine.HandleTurn(ctx, "u1", "sí")
	assert.Contains(t, reply, "ID: 7")
	assert.Contains(t, reply, "Pendiente")
	assert.Equal(t, "12345678", f.reader.gotDNI)
	assert.Equal(t, PhaseListComplaints, f.state(t, "u1").Phase)

	// A non-numeric selection retries within the phase.
	reply = f.engine.HandleTurn(ctx, "u1", "el primero")
	assert.Contains(t, reply, replyComplaintIDRetry)
	assert.Equal(t, PhaseListComplaints, f.state(t, "u1").Phase)

	reply = f.engine.HandleTurn(ctx, "u1", "7")
	assert.Contains(t, reply, "Detalles del reclamo ID 7")
	assert.Contains(t, reply, "03/02/2026 16:45")
	assert.Equal(t, int64(7), f.reader.gotID)
	assert.Equal(t, PhaseStart, f.state(t, "u1").Phase)
}

func TestHandleTurnComplaintDetailNotFound(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentCheckStatus, Reply: "ok", Parsed: true}
	f.reader.byIDErr = ErrNotFound
	ctx := context.Background()

	f.engine.HandleTurn(ctx, "u1", "quiero ver mis reclamos")
	f.engine.HandleTurn(ctx, "u1", "12345678")
	f.engine.HandleTurn(ctx, "u1", "sí")

	reply := f.engine.HandleTurn(ctx, "u1", "999")
	assert.Contains(t, reply, replyComplaintNotFound)
	assert.Equal(t, PhaseStart, f.state(t, "u1").Phase)
}

func TestHandleTurnInvoiceRoundTrip(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentCheckInvoice, Reply: "ok", Parsed: true}
	f.invoices.invoice = InvoiceView{
		CustomerName: "Ana Pérez",
		SupplyCode:   "S-001",
		Status:       "Pendiente",
		Total:        15400.50,
		Period:       "2026-01",
		Consumption:  230,
	}
	ctx := context.Background()

	f.engine.HandleTurn(ctx, "u1", "quiero ver mi factura")
	f.engine.HandleTurn(ctx, "u1", "12345678")

	reply := f.engine.HandleTurn(ctx, "u1", "sí")
	assert.Contains(t, reply, "Factura de Ana Pérez (DNI: 12345678)")
	assert.Contains(t, reply, "$15400.50")
	assert.Equal(t, PhaseStart, f.state(t, "u1").Phase)
}

func TestHandleTurnInvoiceNotFound(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentCheckInvoice, Reply: "ok", Parsed: true}
	f.invoices.err = ErrNotFound
	ctx := context.Background()

	f.engine.HandleTurn(ctx, "u1", "quiero ver mi factura")
	f.engine.HandleTurn(ctx, "u1", "12345678")

	reply := f.engine.HandleTurn(ctx, "u1", "sí")
	assert.Contains(t, reply, replyInvoiceNotFound)
	assert.Equal(t, PhaseStart, f.state(t, "u1").Phase)
}

func TestHandleTurnCancelMidFlow(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentComplaint, Reply: "ok", Parsed: true}
	ctx := context.Background()

	f.engine.HandleTurn(ctx, "u1", "quiero hacer un reclamo")
	f.engine.HandleTurn(ctx, "u1", "12345678")

	reply := f.engine.HandleTurn(ctx, "u1", "cancelar")
	assert.Contains(t, reply, replyCancelled)
	assert.True(t, strings.HasSuffix(reply, footerMenuHint))

	st := f.state(t, "u1")
	assert.Equal(t, PhaseStart, st.Phase)
	assert.Empty(t, st.DNI)
	assert.Empty(t, string(st.Action))
}

func TestHandleTurnCancelAtStart(t *testing.T) {
	f := newEngineFixture(t)

	reply := f.engine.HandleTurn(context.Background(), "u1", "salir")
	assert.Contains(t, reply, replyNothingToCancel)
	assert.Equal(t, PhaseStart, f.state(t, "u1").Phase)
}

func TestHandleTurnIdleTimeout(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentComplaint, Reply: "ok", Parsed: true}
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	f.engine.now = func() time.Time { return base }

	f.engine.HandleTurn(ctx, "u1", "quiero hacer un reclamo")
	f.engine.HandleTurn(ctx, "u1", "12345678")

	f.engine.now = func() time.Time { return base.Add(6 * time.Minute) }

	reply := f.engine.HandleTurn(ctx, "u1", "sí")
	assert.Equal(t, replyIdleTimeout, reply)

	st := f.state(t, "u1")
	assert.Equal(t, PhaseStart, st.Phase)
	assert.Empty(t, st.DNI)
}

func TestHandleTurnNoIdleTimeoutUnderThreshold(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentComplaint, Reply: "ok", Parsed: true}
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	f.engine.now = func() time.Time { return base }

	f.engine.HandleTurn(ctx, "u1", "quiero hacer un reclamo")
	f.engine.HandleTurn(ctx, "u1", "12345678")

	f.engine.now = func() time.Time { return base.Add(4 * time.Minute) }

	reply := f.engine.HandleTurn(ctx, "u1", "sí")
	assert.NotContains(t, reply, replyIdleTimeout)
	assert.Equal(t, PhaseAskDescription, f.state(t, "u1").Phase)
}

func TestHandleTurnFeatureUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	classifier := &fakeClassifier{res: Result{Intent: IntentComplaint, Reply: "ok", Parsed: true}}
	engine := NewEngine(EngineConfig{
		Store:      NewStateStore(client),
		Classifier: classifier,
		Logger:     logging.New("error"),
	})
	ctx := context.Background()

	engine.HandleTurn(ctx, "u1", "quiero hacer un reclamo")
	engine.HandleTurn(ctx, "u1", "12345678")

	reply := engine.HandleTurn(ctx, "u1", "sí")
	assert.Contains(t, reply, "Funcionalidad no disponible")

	st, err := engine.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, PhaseStart, st.Phase)
}

func TestHandleTurnRegistrarFailure(t *testing.T) {
	f := newEngineFixture(t)
	f.classifier.res = Result{Intent: IntentComplaint, Reply: "ok", Parsed: true}
	f.registrar.err = errors.New("insert failed")
	ctx := context.Background()

	f.engine.HandleTurn(ctx, "u1", "quiero hacer un reclamo")
	f.engine.HandleTurn(ctx, "u1", "12345678")
	f.engine.HandleTurn(ctx, "u1", "sí")

	reply := f.engine.HandleTurn(ctx, "u1", "no funciona el medidor")
	assert.Contains(t, reply, replyComplaintFailed)
	assert.Equal(t, PhaseStart, f.state(t, "u1").Phase)
}

func TestHandleTurnLogsBothSpeakers(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.engine.HandleTurn(ctx, "u1", "Hola")

	lines, err := f.store.Lines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Usuario: hola", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "DECSA: "))
}
