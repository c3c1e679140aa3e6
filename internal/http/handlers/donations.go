package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/mosque-donations/internal/auth"
	"github.com/hongminglow/mosque-donations/internal/donations"
	"github.com/hongminglow/mosque-donations/internal/http/respond"
	"github.com/hongminglow/mosque-donations/internal/log"
	"github.com/hongminglow/mosque-donations/internal/models"
	"github.com/hongminglow/mosque-donations/internal/models/dto"
	"github.com/hongminglow/mosque-donations/internal/stats"
)

// DonationHandler serves donation writes and per-user reports. Every route
// requires an authenticated caller.
type DonationHandler struct {
	donations *donations.Service
	stats     *stats.Service
}

// NewDonationHandler constructs the handler.
func NewDonationHandler(donations *donations.Service, stats *stats.Service) *DonationHandler {
	return &DonationHandler{donations: donations, stats: stats}
}

// Register attaches donation routes.
func (h *DonationHandler) Register(r chi.Router) {
	r.Post("/donation/{kind}", h.handleCreate)
	r.Delete("/donation/{kind}/{id}", h.handleDelete)
	r.Get("/donations/user/{id}", h.handleList)
	r.Get("/donations/summary/{userId}", h.handleSummary)
	r.Get("/donations/count/{userId}", h.handleCounts)
	r.Get("/donations/analytics/{userId}", h.handleAnalytics)
}

func (h *DonationHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, err := auth.CallerID(r.Context())
	if err != nil {
		writeError(w, r, "create donation", err)
		return
	}
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, "create donation", err)
		return
	}
	var req dto.CreateDonationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := h.donations.Create(r.Context(), callerID, kind, donations.CreateInput{
		MosqueID:     req.MosqueID,
		UserID:       req.UserID,
		Amount:       req.Amount,
		PurposeID:    req.PurposeID,
		DonationDate: req.DonationDate,
		Year:         req.Year,
	})
	if err != nil {
		writeError(w, r, "create donation", err)
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentDonation).Info("donation recorded",
		log.FieldKind, created.Kind,
		log.FieldMosqueID, created.MosqueID,
		log.FieldAmount, created.Amount.String(),
	)
	respond.JSON(w, http.StatusCreated, string(kind)+" donation recorded", created)
}

func (h *DonationHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	callerID, err := auth.CallerID(r.Context())
	if err != nil {
		writeError(w, r, "delete donation", err)
		return
	}
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, "delete donation", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, "delete donation", err)
		return
	}
	if err := h.donations.Delete(r.Context(), callerID, kind, id); err != nil {
		writeError(w, r, "delete donation", err)
		return
	}
	respond.JSON(w, http.StatusOK, "donation deleted successfully", nil)
}

func (h *DonationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	callerID, userID, ok := h.ownerParams(w, r, "id", "list donations")
	if !ok {
		return
	}
	list, err := h.donations.List(r.Context(), callerID, userID)
	if err != nil {
		writeError(w, r, "list donations", err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", list)
}

func (h *DonationHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	callerID, userID, ok := h.ownerParams(w, r, "userId", "summary")
	if !ok {
		return
	}
	summary, err := h.stats.Summary(r.Context(), callerID, userID)
	if err != nil {
		writeError(w, r, "summary", err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", summary)
}

func (h *DonationHandler) handleCounts(w http.ResponseWriter, r *http.Request) {
	callerID, userID, ok := h.ownerParams(w, r, "userId", "counts")
	if !ok {
		return
	}
	counts, err := h.stats.Counts(r.Context(), callerID, userID)
	if err != nil {
		writeError(w, r, "counts", err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", counts)
}

func (h *DonationHandler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	callerID, userID, ok := h.ownerParams(w, r, "userId", "analytics")
	if !ok {
		return
	}
	report, err := h.stats.Analytics(r.Context(), callerID, userID)
	if err != nil {
		writeError(w, r, "analytics", err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", report)
}

// ownerParams resolves the caller and the user id named in the path.
func (h *DonationHandler) ownerParams(w http.ResponseWriter, r *http.Request, param, op string) (int64, int64, bool) {
	callerID, err := auth.CallerID(r.Context())
	if err != nil {
		writeError(w, r, op, err)
		return 0, 0, false
	}
	userID, err := pathID(r, param)
	if err != nil {
		writeError(w, r, op, err)
		return 0, 0, false
	}
	return callerID, userID, true
}
