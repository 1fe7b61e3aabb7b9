package handlers

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vouchersplit/backend/internal/models"
	"github.com/vouchersplit/backend/internal/services"
	"github.com/vouchersplit/backend/internal/split"
)

// SplitPlanner is the split behaviour the handler needs.
type SplitPlanner interface {
	Plan(req services.PlanRequest) (*services.PlanResult, error)
	Submit(ctx context.Context, userID int64, pin string, amounts []int64, key string) (*split.Result, error)
}

// VoucherExporter writes selected history vouchers as CSV.
type VoucherExporter interface {
	ExportHistory(ctx context.Context, w io.Writer, userID int64, ids []int64) error
}

// SubmitRequest carries the final allocation. Blank (0) amounts are
// skipped; the rest must add up to the voucher value.
// @Description Split submission
type SubmitRequest struct {
	Pin     string  `json:"pin" validate:"required,digits,min=16,max=19" example:"1234567890123456"`
	Amounts []int64 `json:"amounts" validate:"required,min=1,dive,gte=0,lte=9007199254740992" example:"4000,6000"`
}

// SubmitResponse is a completed split. Warning is set when the vouchers were
// issued but could not be saved to history.
type SubmitResponse struct {
	split.Result
	Warning string `json:"warning,omitempty"`
}

type SplitHandler struct {
	splits    SplitPlanner
	exporter  VoucherExporter
	validator *services.ValidationHelper
	now       func() time.Time
}

func NewSplitHandler(splits SplitPlanner, exporter VoucherExporter) *SplitHandler {
	return &SplitHandler{
		splits:    splits,
		exporter:  exporter,
		validator: services.NewValidationHelper(),
		now:       time.Now,
	}
}

// Plan applies one allocation edit
// @Summary Edit an allocation
// @Description Apply add, remove, set, edit, fill or even to an allocation and return its new state. Nothing is sent upstream.
// @Tags split
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.PlanRequest true "Allocation edit"
// @Success 200 {object} services.PlanResult
// @Failure 400 {object} services.ErrorResponse
// @Router /split/plan [post]
func (h *SplitHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req services.PlanRequest
	if !decodeJSON(w, r, h.validator, &req, "SPLIT") {
		return
	}

	res, err := h.splits.Plan(req)
	if err != nil {
		services.SendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Submit performs the split
// @Summary Split a voucher
// @Description Validate the voucher and split it into the given amounts. The call is made once; send the same Idempotency-Key when retrying after a timeout.
// @Tags split
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Client chosen idempotency key"
// @Param request body SubmitRequest true "Split submission"
// @Success 200 {object} SubmitResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse "Split in flight or status unknown"
// @Failure 422 {object} services.ErrorResponse "Rejected by the voucher service"
// @Failure 502 {object} services.ErrorResponse
// @Failure 504 {object} services.ErrorResponse "Timed out, status unknown"
// @Router /split/submit [post]
func (h *SplitHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req SubmitRequest
	if !decodeJSON(w, r, h.validator, &req, "SPLIT") {
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	res, err := h.splits.Submit(r.Context(), userID, req.Pin, req.Amounts, key)
	if res == nil {
		log.Printf("[SPLIT] Submission for user %d failed: %v", userID, err)
		services.SendError(w, err)
		return
	}

	out := SubmitResponse{Result: *res}
	if err != nil {
		out.Warning = "vouchers issued but not saved to history, keep this response"
	}
	writeJSON(w, http.StatusOK, out)
}

// Export downloads vouchers as CSV
// @Summary Export vouchers
// @Description Download the selected split or purchased vouchers from history as CSV
// @Tags split
// @Produce text/csv
// @Security BearerAuth
// @Param ids query string true "Comma separated history entry ids"
// @Success 200 {string} string "CSV file"
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /split/export.csv [get]
func (h *SplitHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ids, err := parseIDs(r.URL.Query().Get("ids"))
	if err != nil {
		services.SendErrorResponse(w, "ids must be a comma separated list of numbers", http.StatusBadRequest, nil)
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.ExportHistory(r.Context(), &buf, userID, ids); err != nil {
		services.SendError(w, err)
		return
	}

	writeCSV(w, h.now(), buf.Bytes())
}

// ExportRequest carries vouchers the client already holds, such as a
// submit result.
type ExportRequest struct {
	Vouchers []models.VoucherRecord `json:"vouchers" validate:"required,min=1,max=100"`
}

// ExportResult turns a submit result into CSV
// @Summary Export split result
// @Description Download the vouchers of a split result as CSV
// @Tags split
// @Accept json
// @Produce text/csv
// @Security BearerAuth
// @Param request body ExportRequest true "Vouchers to export"
// @Success 200 {string} string "CSV file"
// @Failure 400 {object} services.ErrorResponse
// @Router /split/export.csv [post]
func (h *SplitHandler) ExportResult(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if !decodeJSON(w, r, h.validator, &req, "SPLIT") {
		return
	}

	var buf bytes.Buffer
	if err := services.WriteVouchersCSV(&buf, req.Vouchers); err != nil {
		services.SendError(w, err)
		return
	}
	writeCSV(w, h.now(), buf.Bytes())
}

func writeCSV(w http.ResponseWriter, day time.Time, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+services.ExportFilename(day)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
