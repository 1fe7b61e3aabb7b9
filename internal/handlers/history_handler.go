package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vouchersplit/backend/internal/models"
	"github.com/vouchersplit/backend/internal/services"
	"github.com/vouchersplit/backend/internal/store"
)

type HistoryOperations interface {
	List(ctx context.Context, userID int64, req services.HistoryListRequest) (*store.HistoryPage, error)
	Get(ctx context.Context, userID, id int64) (*models.HistoryEntry, error)
	UpdateStatus(ctx context.Context, userID, id int64, req services.StatusUpdateRequest) (*models.HistoryEntry, error)
}

type HistoryHandler struct {
	history   HistoryOperations
	validator *services.ValidationHelper
}

func NewHistoryHandler(history HistoryOperations) *HistoryHandler {
	return &HistoryHandler{
		history:   history,
		validator: services.NewValidationHelper(),
	}
}

// List returns a page of history
// @Summary List history
// @Tags history
// @Produce json
// @Security BearerAuth
// @Param type query string false "Entry type" Enums(purchase, split, split-original, redeem-airtime, redeem-electricity, redeem-betway, redeem-wallet)
// @Param q query string false "Serial number or reference contains"
// @Param sort query string false "Sort order" Enums(date_desc, date_asc, amount_desc, amount_asc)
// @Param page query int false "Page, from 1"
// @Param pageSize query int false "Entries per page, at most 100"
// @Success 200 {object} store.HistoryPage
// @Failure 400 {object} services.ErrorResponse
// @Router /history [get]
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	req := services.HistoryListRequest{
		Type:   q.Get("type"),
		Search: q.Get("q"),
		Sort:   q.Get("sort"),
	}
	var err error
	if req.Page, err = optionalInt(q.Get("page")); err != nil {
		services.SendErrorResponse(w, "page must be a number", http.StatusBadRequest, nil)
		return
	}
	if req.PageSize, err = optionalInt(q.Get("pageSize")); err != nil {
		services.SendErrorResponse(w, "pageSize must be a number", http.StatusBadRequest, nil)
		return
	}

	page, err := h.history.List(r.Context(), userID, req)
	if err != nil {
		services.SendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get returns one history entry
// @Summary Get history entry
// @Tags history
// @Produce json
// @Security BearerAuth
// @Param id path int true "Entry id"
// @Success 200 {object} models.HistoryEntry
// @Failure 404 {object} services.ErrorResponse
// @Router /history/{id} [get]
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "Invalid entry id", http.StatusBadRequest, nil)
		return
	}

	e, err := h.history.Get(r.Context(), userID, id)
	if err != nil {
		services.SendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// UpdateStatus changes an entry's status
// @Summary Update history status
// @Description Set the status of an entry. Version must match the stored one.
// @Tags history
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Entry id"
// @Param request body services.StatusUpdateRequest true "New status"
// @Success 200 {object} models.HistoryEntry
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse "Version mismatch"
// @Router /history/{id}/status [patch]
func (h *HistoryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "Invalid entry id", http.StatusBadRequest, nil)
		return
	}

	var req services.StatusUpdateRequest
	if !decodeJSON(w, r, h.validator, &req, "HISTORY") {
		return
	}

	e, err := h.history.UpdateStatus(r.Context(), userID, id, req)
	if err != nil {
		services.SendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
