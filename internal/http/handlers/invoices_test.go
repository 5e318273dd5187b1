package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decsa/utility-chat-platform/internal/invoices"
	"github.com/decsa/utility-chat-platform/pkg/logging"
)

var handlerInvoiceCols = []string{
	"apellido", "nombre", "dni", "codigo_suministro", "numero_comprobante",
	"fecha_emision", "estado_factura", "total_factura", "vencimiento_factura",
	"calle", "barrio", "observacion_postal", "numero_medidor", "periodo", "consumo",
}

func newInvoicesFixture(t *testing.T) (*InvoicesHandler, sqlmock.Sqlmock) {
	t.Helper()

	sourceDB, sourceMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sourceDB.Close() })

	return NewInvoicesHandler(invoices.NewRepository(sourceDB), logging.New("error")), sourceMock
}

func invoiceRequest(dni string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+dni, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("dni", dni)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestInvoicesLatestReturnsInvoice(t *testing.T) {
	h, mock := newInvoicesFixture(t)

	issued := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM ws_facturas").
		WithArgs("12345678").
		WillReturnRows(sqlmock.NewRows(handlerInvoiceCols).AddRow(
			"Pérez", "Ana", "12345678", "SUM-9001", "0001-00042311",
			issued, "N", 15400.50, due,
			"San Martín 120", "Centro", "", "MED-442", "2026-01", 312.0,
		))

	rec := httptest.NewRecorder()
	h.Latest(rec, invoiceRequest("12345678"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"estado":"Pendiente"`)
	assert.Contains(t, rec.Body.String(), "Pérez Ana")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoicesLatestNotFound(t *testing.T) {
	h, mock := newInvoicesFixture(t)

	mock.ExpectQuery("SELECT .+ FROM ws_facturas").
		WithArgs("99999999").
		WillReturnError(sql.ErrNoRows)

	rec := httptest.NewRecorder()
	h.Latest(rec, invoiceRequest("99999999"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
