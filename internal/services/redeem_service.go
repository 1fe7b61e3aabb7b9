package services

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/vouchersplit/backend/internal/audit"
	"github.com/vouchersplit/backend/internal/bluelabel"
	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/models"
)

const walletCreditAttempts = 3

// AirtimeRequest converts a voucher into airtime.
// @Description Airtime redemption request
type AirtimeRequest struct {
	VoucherNumber string `json:"voucherNumber" validate:"required,digits,min=16,max=19" example:"1234567890123456"`
	MobileNumber  string `json:"mobileNumber" validate:"required,za_mobile" example:"0821234567"`
	AmountCents   int64  `json:"amountCents" validate:"required,gt=0" example:"1000"`
}

// ElectricityConfirmRequest asks for a meter confirmation before vending.
type ElectricityConfirmRequest struct {
	VoucherToken string `json:"voucherToken" validate:"required,digits,min=16,max=19"`
	MeterNumber  string `json:"meterNumber" validate:"required,digits,min=6,max=20"`
	MobileNumber string `json:"mobileNumber" validate:"required,za_mobile"`
	AmountCents  int64  `json:"amountCents" validate:"required,gt=0"`
}

// ElectricityVendRequest completes a confirmed electricity purchase.
// @Description Electricity vend request
type ElectricityVendRequest struct {
	ConversationID string `json:"conversationId" validate:"required"`
	Reference      string `json:"reference" validate:"required"`
	MeterNumber    string `json:"meterNumber" validate:"omitempty,digits"`
	AmountCents    int64  `json:"amountCents" validate:"gte=0"`
}

// VariableRedeemRequest redeems part or all of a voucher. AmountCents 0
// means the whole remaining value.
// @Description Voucher redemption request
type VariableRedeemRequest struct {
	VoucherToken string `json:"voucherToken" validate:"required,digits,min=16,max=19" example:"1234567890123456"`
	AmountCents  int64  `json:"amountCents" validate:"gte=0" example:"5000"`
	MobileNumber string `json:"mobileNumber" validate:"omitempty,za_mobile" example:"0821234567"`
}

// WalletRedemption is a wallet top-up result.
type WalletRedemption struct {
	models.RedemptionResult
	WalletCents int64 `json:"walletCents"`
}

type RedeemService struct {
	vouchers VoucherAPI
	trade    TradeAPI
	users    UserRepository
	history  HistoryRepository
	notifier Notifier
	audit    *audit.Logger
	newID    func() string
	now      func() time.Time
}

func NewRedeemService(vouchers VoucherAPI, trade TradeAPI, users UserRepository, history HistoryRepository, notifier Notifier, auditLogger *audit.Logger) *RedeemService {
	return &RedeemService{
		vouchers: vouchers,
		trade:    trade,
		users:    users,
		history:  history,
		notifier: notifier,
		audit:    auditLogger,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

func (s *RedeemService) RedeemAirtime(ctx context.Context, userID int64, req AirtimeRequest) (*models.RedemptionResult, error) {
	requestID := s.newID()
	res, err := s.trade.RedeemAirtime(ctx, bluelabel.AirtimeRedemption{
		RequestID:    requestID,
		MobileNumber: req.MobileNumber,
		TokenNumber:  req.VoucherNumber,
		Amount:       req.AmountCents,
	})
	if err != nil {
		return nil, s.failed(requestID, userID, "airtime", req.VoucherNumber, req.AmountCents, err)
	}

	s.record(ctx, userID, models.HistoryRedeemAirtime, req.VoucherNumber, res, models.Metadata{"mobileNumber": req.MobileNumber})
	s.audit.LogRedemption(requestID, strconv.FormatInt(userID, 10), "airtime", req.VoucherNumber, res.Amount, "SUCCESS")
	return res, nil
}

// ConfirmElectricity returns the utility's view of the meter. Nothing is
// charged or recorded.
func (s *RedeemService) ConfirmElectricity(ctx context.Context, req ElectricityConfirmRequest) (*models.ElectricityConfirmation, error) {
	conf, err := s.trade.ConfirmElectricity(ctx, bluelabel.ElectricityQuote{
		Amount:       req.AmountCents,
		MeterNumber:  req.MeterNumber,
		MobileNumber: req.MobileNumber,
		VoucherToken: req.VoucherToken,
	})
	if err != nil {
		log.Printf("[REDEEM] Electricity confirmation for meter %s failed: %v", req.MeterNumber, err)
		return nil, err
	}
	if conf.Amount == 0 {
		conf.Amount = req.AmountCents
	}
	return conf, nil
}

func (s *RedeemService) VendElectricity(ctx context.Context, userID int64, req ElectricityVendRequest) (*models.RedemptionResult, error) {
	requestID := s.newID()
	res, err := s.trade.VendElectricity(ctx, bluelabel.ElectricityVend{
		RequestID:      requestID,
		ConversationID: req.ConversationID,
		Reference:      req.Reference,
	})
	if err != nil {
		return nil, s.failed(requestID, userID, "electricity", "", req.AmountCents, err)
	}
	if res.Amount == 0 {
		res.Amount = req.AmountCents
	}

	s.record(ctx, userID, models.HistoryRedeemElectricity, "", res, models.Metadata{"meterNumber": req.MeterNumber})
	s.audit.LogRedemption(requestID, strconv.FormatInt(userID, 10), "electricity", "", res.Amount, "SUCCESS")
	return res, nil
}

// RedeemBetway deposits a voucher into a Betway account through the
// variable redemption call.
func (s *RedeemService) RedeemBetway(ctx context.Context, userID int64, req VariableRedeemRequest) (*models.RedemptionResult, error) {
	requestID := s.newID()
	res, err := s.trade.RedeemVoucher(ctx, requestID, req.VoucherToken, req.AmountCents)
	if err != nil {
		return nil, s.failed(requestID, userID, "betway", req.VoucherToken, req.AmountCents, err)
	}

	s.record(ctx, userID, models.HistoryRedeemBetway, req.VoucherToken, res, nil)
	s.audit.LogRedemption(requestID, strconv.FormatInt(userID, 10), "betway", req.VoucherToken, res.Amount, "SUCCESS")
	s.notifyReplacement(ctx, req.MobileNumber, res)
	return res, nil
}

// RedeemWallet moves voucher value into the user's wallet. Only Active
// vouchers are accepted. Once the upstream redemption succeeds the credit
// is retried on version conflicts; a credit that still fails is returned
// together with the redemption so it can be reconciled.
func (s *RedeemService) RedeemWallet(ctx context.Context, userID int64, req VariableRedeemRequest) (*WalletRedemption, error) {
	v, err := s.vouchers.ValidateVoucher(ctx, req.VoucherToken)
	if err != nil {
		return nil, err
	}
	if v.Status != models.VoucherStatusActive {
		return nil, errs.Markf(errs.ErrValidation, "voucher is %s", v.Status)
	}
	amount := req.AmountCents
	if amount == 0 {
		amount = v.ValueCents
	}
	if amount <= 0 || amount > v.ValueCents {
		return nil, errs.Markf(errs.ErrValidation, "amount exceeds the voucher value")
	}

	requestID := s.newID()
	uid := strconv.FormatInt(userID, 10)
	res, err := s.trade.RedeemVoucher(ctx, requestID, req.VoucherToken, amount)
	if err != nil {
		return nil, s.failed(requestID, userID, "wallet", req.VoucherToken, amount, err)
	}
	credited := res.Amount
	if credited == 0 {
		credited = amount
	}

	out := &WalletRedemption{RedemptionResult: *res}
	wallet, err := s.creditWallet(context.WithoutCancel(ctx), userID, credited)
	if err != nil {
		log.Printf("[REDEEM] Redemption %s succeeded but wallet credit failed: %v", requestID, err)
		s.audit.LogError(requestID, uid, "wallet_credit", err)
		return out, errs.Wrap(err, "credit wallet")
	}
	out.WalletCents = wallet.WalletCents

	s.record(ctx, userID, models.HistoryRedeemWallet, req.VoucherToken, res, models.Metadata{"serialNumber": v.SerialNumber})
	s.audit.LogRedemption(requestID, uid, "wallet", req.VoucherToken, credited, "SUCCESS")

	mobile := req.MobileNumber
	if mobile == "" {
		mobile = wallet.PhoneNumber
	}
	s.notifyReplacement(ctx, mobile, res)
	return out, nil
}

func (s *RedeemService) creditWallet(ctx context.Context, userID, amount int64) (*models.User, error) {
	var lastErr error
	for attempt := 0; attempt < walletCreditAttempts; attempt++ {
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		err = s.users.CreditWallet(ctx, userID, amount, u.Version)
		if err == nil {
			u.WalletCents += amount
			u.Version++
			return u, nil
		}
		if !errs.Is(err, errs.ErrVersionMismatch) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *RedeemService) notifyReplacement(ctx context.Context, mobile string, res *models.RedemptionResult) {
	if res.ReplacementVoucher == nil || mobile == "" {
		return
	}
	if err := s.notifier.NotifyReplacement(ctx, mobile, *res.ReplacementVoucher); err != nil {
		log.Printf("[REDEEM] Replacement notification failed: %v", err)
	}
}

// record writes the history entry for a redemption. The voucher token is
// stored masked since the voucher is spent.
func (s *RedeemService) record(ctx context.Context, userID int64, kind, token string, res *models.RedemptionResult, details models.Metadata) {
	if details == nil {
		details = models.Metadata{}
	}
	details["requestId"] = res.RequestID
	if res.CustomerMessage != "" {
		details["customerMessage"] = res.CustomerMessage
	}
	if res.ReplacementVoucher != nil {
		details["replacementSerial"] = res.ReplacementVoucher.SerialNumber
	}

	entry := models.HistoryEntry{
		UserID:      userID,
		Type:        kind,
		Reference:   res.Reference,
		Token:       audit.MaskToken(token),
		AmountCents: res.Amount,
		Status:      models.HistoryStatusSuccess,
		Details:     details,
		OccurredAt:  s.now(),
	}
	if err := s.history.Append(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("[REDEEM] Failed to record %s history: %v", kind, err)
	}
}

func (s *RedeemService) failed(requestID string, userID int64, kind, token string, amount int64, err error) error {
	log.Printf("[REDEEM] %s redemption %s failed: %v", kind, requestID, err)
	s.audit.LogRedemption(requestID, strconv.FormatInt(userID, 10), kind, token, amount, "FAILED")
	return err
}
