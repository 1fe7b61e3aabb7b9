package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/vouchersplit/backend/internal/models"
	"github.com/vouchersplit/backend/internal/services"
)

type VoucherOperations interface {
	Validate(ctx context.Context, pin string) (*models.Voucher, error)
	CheckBalance(ctx context.Context, userID int64, pin string) (*services.BalanceResult, error)
	Purchase(ctx context.Context, userID int64, amount string) (*models.VoucherRecord, error)
	Denominations() []int64
}

// PinRequest identifies a voucher by PIN. PINs travel in bodies only so
// they stay out of request logs.
// @Description Voucher PIN
type PinRequest struct {
	Pin string `json:"pin" validate:"required,digits,min=16,max=19" example:"1234567890123456"`
}

// PurchaseRequest takes the amount as typed, in rand.
// @Description Voucher purchase
type PurchaseRequest struct {
	Amount string `json:"amount" validate:"required,max=16" example:"50.00"`
}

// QRRequest renders a voucher token as a QR code.
type QRRequest struct {
	Token string `json:"token" validate:"required,digits,min=16,max=19" example:"1234567890123456"`
	Size  int    `json:"size" validate:"omitempty,min=64,max=1024" example:"256"`
}

// PurchaseResponse is a bought voucher. Warning is set when it could not be
// saved to history.
type PurchaseResponse struct {
	models.VoucherRecord
	Warning string `json:"warning,omitempty"`
}

type VoucherHandler struct {
	vouchers  VoucherOperations
	validator *services.ValidationHelper
}

func NewVoucherHandler(vouchers VoucherOperations) *VoucherHandler {
	return &VoucherHandler{
		vouchers:  vouchers,
		validator: services.NewValidationHelper(),
	}
}

// Validate looks a voucher up
// @Summary Validate voucher
// @Description Return the serial number, value and status of a voucher and whether it can be split
// @Tags vouchers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PinRequest true "Voucher PIN"
// @Success 200 {object} models.Voucher
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Router /vouchers/validate [post]
func (h *VoucherHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req PinRequest
	if !decodeJSON(w, r, h.validator, &req, "VOUCHER") {
		return
	}

	v, err := h.vouchers.Validate(r.Context(), req.Pin)
	if err != nil {
		services.SendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Balance checks a voucher balance
// @Summary Check voucher balance
// @Description Fetch the current status and value of a voucher. Matching history entries take the new status and any blocked split for the voucher is released.
// @Tags vouchers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PinRequest true "Voucher PIN"
// @Success 200 {object} services.BalanceResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Router /vouchers/balance [post]
func (h *VoucherHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req PinRequest
	if !decodeJSON(w, r, h.validator, &req, "VOUCHER") {
		return
	}

	res, err := h.vouchers.CheckBalance(r.Context(), userID, req.Pin)
	if err != nil {
		services.SendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Purchase buys a voucher
// @Summary Purchase voucher
// @Description Buy a variable value voucher
// @Tags vouchers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PurchaseRequest true "Amount in rand"
// @Success 200 {object} PurchaseResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Failure 504 {object} services.ErrorResponse
// @Router /vouchers/purchase [post]
func (h *VoucherHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req PurchaseRequest
	if !decodeJSON(w, r, h.validator, &req, "VOUCHER") {
		return
	}

	v, err := h.vouchers.Purchase(r.Context(), userID, req.Amount)
	if v == nil {
		log.Printf("[VOUCHER] Purchase for user %d failed: %v", userID, err)
		services.SendError(w, err)
		return
	}

	out := PurchaseResponse{VoucherRecord: *v}
	if err != nil {
		out.Warning = "voucher issued but not saved to history, keep this response"
	}
	writeJSON(w, http.StatusOK, out)
}

// Denominations lists quick-pick amounts
// @Summary Purchase denominations
// @Tags vouchers
// @Produce json
// @Success 200 {object} object{denominations=[]int64}
// @Router /vouchers/denominations [get]
func (h *VoucherHandler) Denominations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"denominations": h.vouchers.Denominations()})
}

// QR renders a token as a QR code
// @Summary Voucher QR code
// @Description Render a voucher token as a base64 encoded PNG
// @Tags vouchers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body QRRequest true "Token and optional size"
// @Success 200 {object} object{qrImage=string}
// @Failure 400 {object} services.ErrorResponse
// @Router /vouchers/qr [post]
func (h *VoucherHandler) QR(w http.ResponseWriter, r *http.Request) {
	var req QRRequest
	if !decodeJSON(w, r, h.validator, &req, "QR") {
		return
	}

	img, err := services.TokenQR(req.Token, req.Size)
	if err != nil {
		services.SendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"qrImage": img})
}
