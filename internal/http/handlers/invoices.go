package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/decsa/utility-chat-platform/internal/invoices"
	"github.com/decsa/utility-chat-platform/pkg/logging"
)

// InvoicesHandler exposes billing lookups over REST. Invoices live on the
// source tier only and are never copied into the local tier.
type InvoicesHandler struct {
	repo   *invoices.Repository
	logger *logging.Logger
}

// NewInvoicesHandler creates an invoices handler.
func NewInvoicesHandler(repo *invoices.Repository, logger *logging.Logger) *InvoicesHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &InvoicesHandler{repo: repo, logger: logger.Component("invoices_api")}
}

// Latest handles GET /api/v1/invoices/{dni} and returns the customer's most
// recently issued invoice.
func (h *InvoicesHandler) Latest(w http.ResponseWriter, r *http.Request) {
	dni := chi.URLParam(r, "dni")

	invoice, err := h.repo.ByDNI(r.Context(), dni)
	if err != nil {
		if errors.Is(err, invoices.ErrNotFound) {
			respondError(w, http.StatusNotFound, "invoice not found")
			return
		}
		h.logger.Error("invoice lookup failed", "error", err, "dni", dni)
		respondError(w, http.StatusInternalServerError, "invoice lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"factura": invoice,
		"estado":  invoice.StatusLabel(),
	})
}
