package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/mosque-donations/internal/http/respond"
	"github.com/hongminglow/mosque-donations/internal/stats"
	"github.com/hongminglow/mosque-donations/internal/storage"
)

// ReferenceHandler serves mosques, purposes and mosque-wide statistics.
type ReferenceHandler struct {
	store storage.ReferenceStore
	stats *stats.Service
}

// NewReferenceHandler constructs the handler.
func NewReferenceHandler(store storage.ReferenceStore, stats *stats.Service) *ReferenceHandler {
	return &ReferenceHandler{store: store, stats: stats}
}

// Register attaches the public routes.
func (h *ReferenceHandler) Register(r chi.Router) {
	r.Get("/mosques", h.handleMosques)
	r.Get("/stats/{mosqueId}", h.handleStats)
}

// RegisterProtected attaches routes that need a verified caller.
func (h *ReferenceHandler) RegisterProtected(r chi.Router) {
	r.Get("/purposes", h.handlePurposes)
}

func (h *ReferenceHandler) handleMosques(w http.ResponseWriter, r *http.Request) {
	mosques, err := h.store.ListMosques(r.Context())
	if err != nil {
		writeError(w, r, "list mosques", err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", mosques)
}

func (h *ReferenceHandler) handlePurposes(w http.ResponseWriter, r *http.Request) {
	purposes, err := h.store.ListPurposes(r.Context())
	if err != nil {
		writeError(w, r, "list purposes", err)
		return
	}
	if len(purposes) == 0 {
		writeError(w, r, "list purposes", errNoPurposes)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", purposes)
}

func (h *ReferenceHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	mosqueID, err := pathID(r, "mosqueId")
	if err != nil {
		writeError(w, r, "window stats", err)
		return
	}
	windows, err := h.stats.WindowStats(r.Context(), mosqueID)
	if err != nil {
		writeError(w, r, "window stats", err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", windows)
}
