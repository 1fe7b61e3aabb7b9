package handlers

import (
	"context"
	"net/http"

	"github.com/vouchersplit/backend/internal/models"
	"github.com/vouchersplit/backend/internal/services"
)

type RedeemOperations interface {
	RedeemAirtime(ctx context.Context, userID int64, req services.AirtimeRequest) (*models.RedemptionResult, error)
	ConfirmElectricity(ctx context.Context, req services.ElectricityConfirmRequest) (*models.ElectricityConfirmation, error)
	VendElectricity(ctx context.Context, userID int64, req services.ElectricityVendRequest) (*models.RedemptionResult, error)
	RedeemBetway(ctx context.Context, userID int64, req services.VariableRedeemRequest) (*models.RedemptionResult, error)
	RedeemWallet(ctx context.Context, userID int64, req services.VariableRedeemRequest) (*services.WalletRedemption, error)
}

// WalletResponse is a wallet top-up. Warning is set when the voucher was
// redeemed but the wallet could not be credited yet.
type WalletResponse struct {
	services.WalletRedemption
	Warning string `json:"warning,omitempty"`
}

type RedeemHandler struct {
	redeem    RedeemOperations
	validator *services.ValidationHelper
}

func NewRedeemHandler(redeem RedeemOperations) *RedeemHandler {
	return &RedeemHandler{
		redeem:    redeem,
		validator: services.NewValidationHelper(),
	}
}

// Airtime converts a voucher to airtime
// @Summary Redeem for airtime
// @Tags redeem
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.AirtimeRequest true "Airtime redemption"
// @Success 200 {object} models.RedemptionResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /redeem/airtime [post]
func (h *RedeemHandler) Airtime(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req services.AirtimeRequest
	if !decodeJSON(w, r, h.validator, &req, "REDEEM") {
		return
	}

	res, err := h.redeem.RedeemAirtime(r.Context(), userID, req)
	if err != nil {
		services.SendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ConfirmElectricity confirms a meter before vending
// @Summary Confirm electricity meter
// @Tags redeem
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.ElectricityConfirmRequest true "Meter confirmation"
// @Success 200 {object} models.ElectricityConfirmation
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /redeem/electricity/confirm [post]
func (h *RedeemHandler) ConfirmElectricity(w http.ResponseWriter, r *http.Request) {
	var req services.ElectricityConfirmRequest
	if !decodeJSON(w, r, h.validator, &req, "REDEEM") {
		return
	}

	res, err := h.redeem.ConfirmElectricity(r.Context(), req)
	if err != nil {
		services.SendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// VendElectricity completes an electricity purchase
// @Summary Vend electricity
// @Tags redeem
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.ElectricityVendRequest true "Confirmed vend"
// @Success 200 {object} models.RedemptionResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /redeem/electricity [post]
func (h *RedeemHandler) VendElectricity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req services.ElectricityVendRequest
	if !decodeJSON(w, r, h.validator, &req, "REDEEM") {
		return
	}

	res, err := h.redeem.VendElectricity(r.Context(), userID, req)
	if err != nil {
		services.SendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Betway deposits a voucher into a Betway account
// @Summary Redeem at Betway
// @Tags redeem
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.VariableRedeemRequest true "Redemption"
// @Success 200 {object} models.RedemptionResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /redeem/betway [post]
func (h *RedeemHandler) Betway(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req services.VariableRedeemRequest
	if !decodeJSON(w, r, h.validator, &req, "REDEEM") {
		return
	}

	res, err := h.redeem.RedeemBetway(r.Context(), userID, req)
	if err != nil {
		services.SendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Wallet tops up the user's wallet from a voucher
// @Summary Redeem to wallet
// @Description Redeem all or part of an active voucher into the wallet. A partial redemption returns a replacement voucher for the rest.
// @Tags redeem
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.VariableRedeemRequest true "Redemption"
// @Success 200 {object} WalletResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /redeem/wallet [post]
func (h *RedeemHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req services.VariableRedeemRequest
	if !decodeJSON(w, r, h.validator, &req, "REDEEM") {
		return
	}

	res, err := h.redeem.RedeemWallet(r.Context(), userID, req)
	if res == nil {
		services.SendError(w, err)
		return
	}

	out := WalletResponse{WalletRedemption: *res}
	if err != nil {
		out.Warning = "voucher redeemed but the wallet credit is pending, contact support with the reference"
	}
	writeJSON(w, http.StatusOK, out)
}
