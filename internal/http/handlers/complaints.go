package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/decsa/utility-chat-platform/internal/complaints"
	"github.com/decsa/utility-chat-platform/internal/customers"
	"github.com/decsa/utility-chat-platform/pkg/logging"
)

// ComplaintsHandler exposes complaint registration and tracking over REST.
type ComplaintsHandler struct {
	svc    *complaints.Service
	logger *logging.Logger
}

// NewComplaintsHandler creates a complaints handler.
func NewComplaintsHandler(svc *complaints.Service, logger *logging.Logger) *ComplaintsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ComplaintsHandler{svc: svc, logger: logger.Component("complaints_api")}
}

// RegisterRequest is the body for creating a complaint.
type RegisterRequest struct {
	Description string `json:"descripcion"`
}

// StatusUpdateRequest is the body for changing a complaint's status.
type StatusUpdateRequest struct {
	Status string `json:"estado"`
}

// List handles GET /api/v1/complaints. The optional ?estado=pendiente query
// filter narrows the listing to open complaints.
func (h *ComplaintsHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		items []*complaints.Complaint
		err   error
	)
	if strings.EqualFold(r.URL.Query().Get("estado"), "pendiente") {
		items, err = h.svc.ListPending(r.Context())
	} else {
		items, err = h.svc.ListAll(r.Context())
	}
	if err != nil {
		h.logger.Error("complaint listing failed", "error", err)
		respondError(w, http.StatusInternalServerError, "complaint listing failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"reclamos": items,
		"total":    len(items),
	})
}

// ListByCustomer handles GET /api/v1/complaints/customer/{dni}.
func (h *ComplaintsHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	dni := chi.URLParam(r, "dni")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	items, err := h.svc.GetByCustomer(r.Context(), dni, limit)
	if err != nil {
		h.logger.Error("complaint listing failed", "error", err, "dni", dni)
		respondError(w, http.StatusInternalServerError, "complaint listing failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"dni":      dni,
		"reclamos": items,
		"total":    len(items),
	})
}

// Register handles POST /api/v1/complaints/customer/{dni}.
func (h *ComplaintsHandler) Register(w http.ResponseWriter, r *http.Request) {
	dni := chi.URLParam(r, "dni")

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.svc.Register(r.Context(), dni, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, customers.ErrNotFound):
			respondError(w, http.StatusNotFound, "customer not found")
		case errors.Is(err, complaints.ErrEmptyDescription):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("complaint registration failed", "error", err, "dni", dni)
			respondError(w, http.StatusInternalServerError, "complaint registration failed")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":     id,
		"estado": complaints.StatusPending,
	})
}

// Get handles GET /api/v1/complaints/{complaintID}.
func (h *ComplaintsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	complaint, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, complaints.ErrNotFound) {
			respondError(w, http.StatusNotFound, "complaint not found")
			return
		}
		h.logger.Error("complaint lookup failed", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "complaint lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, complaint)
}

// UpdateStatus handles PUT /api/v1/complaints/{complaintID}.
func (h *ComplaintsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	complaint, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, complaints.ErrNotFound):
			respondError(w, http.StatusNotFound, "complaint not found")
		case errors.Is(err, complaints.ErrInvalidStatus):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("complaint status update failed", "error", err, "id", id)
			respondError(w, http.StatusInternalServerError, "complaint status update failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, complaint)
}

// Cancel handles DELETE /api/v1/complaints/{complaintID}. Only pending
// complaints may be cancelled by the customer.
func (h *ComplaintsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	if err := h.svc.CancelIfPending(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, complaints.ErrNotFound):
			respondError(w, http.StatusNotFound, "complaint not found")
		case errors.Is(err, complaints.ErrNotCancellable):
			respondError(w, http.StatusConflict, "complaint is no longer pending")
		default:
			h.logger.Error("complaint cancellation failed", "error", err, "id", id)
			respondError(w, http.StatusInternalServerError, "complaint cancellation failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"estado": complaints.StatusCancelled,
	})
}

func complaintID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "complaintID"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid complaint id")
		return 0, false
	}
	return id, true
}
