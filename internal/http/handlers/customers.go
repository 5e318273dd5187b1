package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/decsa/utility-chat-platform/internal/customers"
	"github.com/decsa/utility-chat-platform/pkg/logging"
)

// CustomersHandler exposes the customer directory over REST.
type CustomersHandler struct {
	svc    *customers.Service
	logger *logging.Logger
}

// NewCustomersHandler creates a customers handler.
func NewCustomersHandler(svc *customers.Service, logger *logging.Logger) *CustomersHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CustomersHandler{svc: svc, logger: logger.Component("customers_api")}
}

// Get handles GET /api/v1/customers/{dni}. A lookup on the source tier
// materializes the customer into the local tier as a side effect.
func (h *CustomersHandler) Get(w http.ResponseWriter, r *http.Request) {
	dni := chi.URLParam(r, "dni")

	customer, err := h.svc.GetByDNI(r.Context(), dni)
	if err != nil {
		if errors.Is(err, customers.ErrNotFound) {
			respondError(w, http.StatusNotFound, "customer not found")
			return
		}
		h.logger.Error("customer lookup failed", "error", err, "dni", dni)
		respondError(w, http.StatusInternalServerError, "customer lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, customer)
}

// Update handles PUT /api/v1/customers/{dni}. The body is a JSON object of
// field tokens to new values; only whitelisted fields are accepted.
func (h *CustomersHandler) Update(w http.ResponseWriter, r *http.Request) {
	dni := chi.URLParam(r, "dni")

	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	customer, err := h.svc.UpdateFields(r.Context(), dni, fields)
	if err != nil {
		switch {
		case errors.Is(err, customers.ErrNotFound):
			respondError(w, http.StatusNotFound, "customer not found")
		case errors.Is(err, customers.ErrInvalidField), errors.Is(err, customers.ErrNoFields):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("customer update failed", "error", err, "dni", dni)
			respondError(w, http.StatusInternalServerError, "customer update failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, customer)
}
